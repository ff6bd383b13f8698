package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/goitinerary/internal/scrape"
	"github.com/hyperifyio/goitinerary/internal/search"
)

// Errors returned by the standalone search and scrape endpoints.
var (
	ErrMissingQuery      = errors.New("la consulta de búsqueda es requerida")
	ErrInvalidSearchType = errors.New("tipo de búsqueda no válido")
	ErrNoValidURLs       = errors.New("no se proporcionaron URLs válidas")
)

// maxScrapeURLs caps a single batch so one caller cannot fan out unbounded
// fetches.
const maxScrapeURLs = 5

// SearchRequest is one standalone destination search. Query doubles as the
// destination when Destination is empty; an empty Type means "general".
type SearchRequest struct {
	Query         string   `json:"query"`
	Type          string   `json:"type"`
	Destination   string   `json:"destination"`
	Preferences   []string `json:"preferences"`
	OriginCountry string   `json:"originCountry"`
}

// SearchMeta echoes the request alongside the remaining rate budget.
type SearchMeta struct {
	Type              string    `json:"type"`
	Query             string    `json:"query"`
	Timestamp         time.Time `json:"timestamp"`
	RemainingRequests int       `json:"remainingRequests"`
}

// SearchResponse carries the raw results for callers that run their own
// pipeline stages.
type SearchResponse struct {
	Results []search.Result `json:"results"`
	Meta    SearchMeta      `json:"meta"`
}

// Search serves one standalone search request against the general travel
// category, gated by the search rate limit.
func (a *App) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return SearchResponse{}, ErrMissingQuery
	}
	kind := req.Type
	if kind == "" {
		kind = "general"
	}
	if kind != "general" {
		return SearchResponse{}, fmt.Errorf("%w: %s", ErrInvalidSearchType, kind)
	}

	decision := a.limiter.Check("search")
	if !decision.Allowed {
		return SearchResponse{}, &RateLimitedError{Scope: "search", ResetTime: decision.ResetTime}
	}

	destination := req.Destination
	if strings.TrimSpace(destination) == "" {
		destination = req.Query
	}
	results, err := a.searcher.GeneralInfo(ctx, destination, req.Preferences, req.OriginCountry)
	if err != nil {
		return SearchResponse{}, err
	}
	return SearchResponse{
		Results: results,
		Meta: SearchMeta{
			Type:              kind,
			Query:             req.Query,
			Timestamp:         time.Now().UTC(),
			RemainingRequests: decision.Remaining,
		},
	}, nil
}

// ScrapeRequest names either one URL or a batch. SingleURL wins when both are
// present.
type ScrapeRequest struct {
	URLs      []string `json:"urls"`
	SingleURL string   `json:"singleUrl"`
}

// ScrapeMeta reports how much of the batch was fetched and the remaining
// rate budget.
type ScrapeMeta struct {
	Timestamp         time.Time `json:"timestamp"`
	RemainingRequests int       `json:"remainingRequests"`
	URLsCount         int       `json:"urlsCount"`
}

// ScrapeResponse holds one Content per fetched URL, in request order.
type ScrapeResponse struct {
	Results []scrape.Content `json:"results"`
	Meta    ScrapeMeta       `json:"meta"`
}

// Scrape serves one standalone scrape request, gated by the scraping rate
// limit. Invalid URLs are filtered out before fetching; anything beyond
// maxScrapeURLs is dropped.
func (a *App) Scrape(ctx context.Context, req ScrapeRequest) (ScrapeResponse, error) {
	targets := req.URLs
	if strings.TrimSpace(req.SingleURL) != "" {
		targets = []string{req.SingleURL}
	}
	valid := make([]string, 0, len(targets))
	for _, raw := range targets {
		if isFetchableURL(raw) {
			valid = append(valid, raw)
		}
	}
	if len(valid) == 0 {
		return ScrapeResponse{}, ErrNoValidURLs
	}
	if len(valid) > maxScrapeURLs {
		valid = valid[:maxScrapeURLs]
	}

	decision := a.limiter.Check("scraping")
	if !decision.Allowed {
		return ScrapeResponse{}, &RateLimitedError{Scope: "scraping", ResetTime: decision.ResetTime}
	}

	contents := make([]scrape.Content, len(valid))
	var wg sync.WaitGroup
	for i, raw := range valid {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			contents[i] = a.scraper.Scrape(ctx, raw, nil)
		}(i, raw)
	}
	wg.Wait()

	return ScrapeResponse{
		Results: contents,
		Meta: ScrapeMeta{
			Timestamp:         time.Now().UTC(),
			RemainingRequests: decision.Remaining,
			URLsCount:         len(contents),
		},
	}, nil
}

func isFetchableURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
