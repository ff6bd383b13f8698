package search

import (
	"context"
	"fmt"
	"strings"
)

// Result represents a single search hit from any provider. Link is the
// identity used for de-duplication downstream.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Query is a provider-agnostic search request. Language/Country/Location carry
// the regional localization; they never alter the query text itself.
type Query struct {
	Text     string
	Language string
	Country  string
	Location string
	// Limit caps the flattened result list.
	Limit int
	// Local requests the provider's local-business result mode.
	Local bool
	// PastYear restricts results to the last year.
	PastYear bool
}

// Provider is a minimal interface for search providers.
type Provider interface {
	Search(ctx context.Context, q Query) ([]Result, error)
	Name() string
}

// Client issues the categorized destination searches. Each category is
// independently callable and independently fallible: callers are expected to
// catch each failure and continue with an empty slice, since one category must
// not abort the others.
type Client struct {
	Provider Provider
}

// GeneralInfo searches broad tourism information about the destination.
func (c *Client) GeneralInfo(ctx context.Context, destination string, preferences []string, originCountry string) ([]Result, error) {
	q := buildQuery("turismo viajes", destination, preferences, "")
	results, err := c.search(ctx, Query{Text: q, Limit: 10}, originCountry)
	if err != nil {
		return nil, fmt.Errorf("buscar información general: %w", err)
	}
	return results, nil
}

// Activities searches tourist activities and attractions using local mode.
func (c *Client) Activities(ctx context.Context, destination string, preferences []string, originCountry string) ([]Result, error) {
	q := buildQuery("actividades turísticas atracciones", destination, preferences, "")
	results, err := c.search(ctx, Query{Text: q, Limit: 15, Local: true}, originCountry)
	if err != nil {
		return nil, fmt.Errorf("buscar actividades: %w", err)
	}
	return results, nil
}

// Restaurants searches dining options using local mode.
func (c *Client) Restaurants(ctx context.Context, destination string, preferences []string, originCountry string) ([]Result, error) {
	q := buildQuery("restaurantes gastronomía", destination, preferences, "")
	results, err := c.search(ctx, Query{Text: q, Limit: 15, Local: true}, originCountry)
	if err != nil {
		return nil, fmt.Errorf("buscar restaurantes: %w", err)
	}
	return results, nil
}

// blogHosts and reviewHosts narrow blog/review searches to known platforms or
// URL-path hints.
const (
	blogHosts   = "site:blog.com OR site:wordpress.com OR site:blogger.com OR site:medium.com OR site:travelblog.org OR inurl:blog OR inurl:diario-viaje OR inurl:mi-viaje"
	reviewHosts = "site:tripadvisor.com OR site:booking.com OR site:expedia.com OR site:airbnb.com OR site:google.com/travel OR inurl:review OR inurl:opinion OR inurl:resena"
)

// Blogs searches personal travel blogs, restricted to blog hosts and recent
// posts.
func (c *Client) Blogs(ctx context.Context, destination string, preferences []string, originCountry string) ([]Result, error) {
	q := buildQuery("blog viaje experiencia personal", destination, preferences, blogHosts)
	results, err := c.search(ctx, Query{Text: q, Limit: 20, PastYear: true}, originCountry)
	if err != nil {
		return nil, fmt.Errorf("buscar blogs: %w", err)
	}
	return results, nil
}

// Reviews searches traveler reviews, restricted to review platforms and recent
// posts.
func (c *Client) Reviews(ctx context.Context, destination string, preferences []string, originCountry string) ([]Result, error) {
	q := buildQuery("resena opinión review", destination, preferences, reviewHosts)
	results, err := c.search(ctx, Query{Text: q, Limit: 20, PastYear: true}, originCountry)
	if err != nil {
		return nil, fmt.Errorf("buscar reseñas: %w", err)
	}
	return results, nil
}

func (c *Client) search(ctx context.Context, q Query, originCountry string) ([]Result, error) {
	if c.Provider == nil {
		return nil, fmt.Errorf("search provider not configured")
	}
	region := RegionFor(originCountry)
	q.Language = region.Language
	q.Country = region.Country
	q.Location = region.Location
	return c.Provider.Search(ctx, q)
}

// buildQuery embeds the quoted destination and an OR-combination of preference
// terms restricted to title matches, plus an optional host-restriction tail.
func buildQuery(prefix, destination string, preferences []string, hosts string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(" \"")
	b.WriteString(destination)
	b.WriteString("\"")
	for i, pref := range preferences {
		if strings.TrimSpace(pref) == "" {
			continue
		}
		if i > 0 {
			b.WriteString(" OR")
		}
		b.WriteString(" intitle:")
		b.WriteString(pref)
	}
	if hosts != "" {
		b.WriteString(" ")
		b.WriteString(hosts)
	}
	return b.String()
}
