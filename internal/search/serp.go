package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Serp implements Provider against a SerpAPI-compatible /search endpoint.
// Any provider returning the same structured result groups (organic, local,
// places, knowledge panel) is substitutable via BaseURL.
type Serp struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	UserAgent  string
}

func (s *Serp) Name() string { return "serpapi" }

func (s *Serp) Search(ctx context.Context, q Query) ([]Result, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, fmt.Errorf("missing serp api key")
	}
	base := s.BaseURL
	if base == "" {
		base = "https://serpapi.com"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	params := u.Query()
	params.Set("engine", "google")
	params.Set("q", q.Text)
	params.Set("api_key", s.APIKey)
	params.Set("hl", q.Language)
	params.Set("gl", q.Country)
	params.Set("location", q.Location)
	params.Set("num", fmt.Sprintf("%d", limit))
	params.Set("safe", "active")
	params.Set("filter", "1")
	params.Set("output", "json")
	if q.Local {
		params.Set("tbm", "lcl")
	}
	if q.PastYear {
		params.Set("tbs", "qdr:y")
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("serp rate limit reached: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("serp status: %d", resp.StatusCode)
	}
	var sr serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}
	return flatten(sr, limit), nil
}

// flatten concatenates the provider's result groups in a fixed order —
// organic, local, places, knowledge panel — assigning Position by
// concatenation order, then applies the cap.
func flatten(sr serpResponse, limit int) []Result {
	out := make([]Result, 0, limit)
	add := func(title, link, snippet string) {
		title = strings.TrimSpace(title)
		link = strings.TrimSpace(link)
		if title == "" || link == "" {
			return
		}
		out = append(out, Result{Title: title, Link: link, Snippet: strings.TrimSpace(snippet), Position: len(out) + 1})
	}
	for _, r := range sr.Organic {
		add(r.Title, r.Link, r.Snippet)
	}
	for _, r := range sr.Local {
		add(r.Title, firstNonEmpty(r.Link, r.Website), firstNonEmpty(r.Snippet, r.Description))
	}
	for _, r := range sr.Places {
		add(firstNonEmpty(r.Title, r.PlaceName), firstNonEmpty(r.Link, r.Website), firstNonEmpty(r.Snippet, r.Description, r.Type))
	}
	if kg := sr.KnowledgeGraph; kg != nil {
		add(kg.Title, kg.Link, kg.Description)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type serpResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Local []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Website     string `json:"website"`
		Snippet     string `json:"snippet"`
		Description string `json:"description"`
	} `json:"local_results"`
	Places []struct {
		Title       string `json:"title"`
		PlaceName   string `json:"name"`
		Link        string `json:"link"`
		Website     string `json:"website"`
		Snippet     string `json:"snippet"`
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"places_results"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Description string `json:"description"`
	} `json:"knowledge_graph"`
}
