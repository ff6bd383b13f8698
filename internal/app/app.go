package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goitinerary/internal/aggregate"
	"github.com/hyperifyio/goitinerary/internal/contextprep"
	"github.com/hyperifyio/goitinerary/internal/gateway"
	"github.com/hyperifyio/goitinerary/internal/itinerary"
	"github.com/hyperifyio/goitinerary/internal/llm"
	"github.com/hyperifyio/goitinerary/internal/ratelimit"
	"github.com/hyperifyio/goitinerary/internal/scrape"
	"github.com/hyperifyio/goitinerary/internal/search"
)

// ErrInvalidRequest marks requests missing required fields.
var ErrInvalidRequest = errors.New("faltan datos requeridos para generar el itinerario")

// RateLimitedError reports which limit tripped and when the next attempt may
// succeed. Scope matches the limiter key.
type RateLimitedError struct {
	Scope     string
	ResetTime time.Time
}

func (e *RateLimitedError) Error() string {
	return "se ha excedido el límite de solicitudes de " + e.Scope
}

// Request is one itinerary generation request.
type Request struct {
	OriginCountry string   `json:"originCountry"`
	Destination   string   `json:"destination"`
	Days          int      `json:"days"`
	Budget        float64  `json:"budget"`
	TravelStyle   string   `json:"travelStyle"`
	Preferences   []string `json:"preferences"`
	Currency      string   `json:"currency"`
}

// Validate reports ErrInvalidRequest when a required field is missing.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Destination) == "" || r.Days <= 0 || r.Budget <= 0 || strings.TrimSpace(r.TravelStyle) == "" {
		return ErrInvalidRequest
	}
	return nil
}

// Metadata summarizes how a response was assembled.
type Metadata struct {
	OriginCountry      string               `json:"originCountry,omitempty"`
	Destination        string               `json:"destination"`
	Days               int                  `json:"days"`
	Budget             float64              `json:"budget"`
	TravelStyle        string               `json:"travelStyle"`
	Sources            []contextprep.Source `json:"sources"`
	WordCount          int                  `json:"wordCount"`
	SearchResultsCount int                  `json:"searchResultsCount"`
	ScrapedSources     int                  `json:"scrapedSourcesCount"`
	ProcessingTimeMs   int64                `json:"processingTimeMs"`
}

// Response carries the generated itinerary plus assembly metadata.
type Response struct {
	Itinerary string   `json:"itinerary"`
	Metadata  Metadata `json:"metadata"`
}

// App wires the full pipeline: rate gate, categorized search, scraping,
// context preparation and generation. Every stage degrades rather than
// aborts: failed searches contribute empty slices, failed scrapes fall down
// the cascade, failed generation yields the deterministic fallback.
type App struct {
	cfg       Config
	limiter   *ratelimit.Limiter
	searcher  *search.Client
	scraper   *scrape.Scraper
	generator *itinerary.Generator
}

// New builds the pipeline from configuration. A FileSearchPath selects the
// deterministic file-backed provider, useful in development and tests.
func New(cfg Config) *App {
	cfg.applyDefaults()

	var provider search.Provider
	if cfg.FileSearchPath != "" {
		provider = &search.FileProvider{Path: cfg.FileSearchPath}
	} else {
		provider = &search.Serp{
			BaseURL:    cfg.SerpBaseURL,
			APIKey:     cfg.SerpAPIKey,
			HTTPClient: newOutboundHTTPClient(),
			UserAgent:  cfg.UserAgent,
		}
	}

	gw := &gateway.Client{
		HTTPClient:      newOutboundHTTPClient(),
		UserAgent:       cfg.UserAgent,
		Timeout:         cfg.FetchTimeout,
		MaxContentBytes: cfg.MaxContentBytes,
	}

	return &App{
		cfg:      cfg,
		limiter:  ratelimit.New(),
		searcher: &search.Client{Provider: provider},
		scraper:  scrape.New(gw),
		generator: &itinerary.Generator{
			Client: llm.NewProvider(cfg.LLMAPIKey, cfg.LLMBaseURL),
			Model:  cfg.LLMModel,
		},
	}
}

// Limiter exposes the rate limiter for transports that surface retry metadata.
func (a *App) Limiter() *ratelimit.Limiter { return a.limiter }

// Generate runs the whole pipeline for one request.
func (a *App) Generate(ctx context.Context, req Request) (Response, error) {
	started := time.Now()
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	if decision := a.limiter.Check("itinerary"); !decision.Allowed {
		return Response{}, &RateLimitedError{Scope: "itinerary", ResetTime: decision.ResetTime}
	}

	log.Info().
		Str("destination", req.Destination).
		Str("origin", req.OriginCountry).
		Int("days", req.Days).
		Msg("starting itinerary generation")

	merged := a.collectSearchResults(ctx, req)
	selected := aggregate.Cap(merged, a.cfg.MaxSources)
	contents := a.scrapeAll(ctx, selected)

	items := make([]contextprep.Item, len(contents))
	for i, c := range contents {
		items[i] = contextprep.Item{
			Content: c.Content,
			Source: &contextprep.Source{
				Title: selected[i].Title,
				URL:   selected[i].Link,
				Index: i + 1,
			},
		}
	}

	prepared := contextprep.Prepare(items, contextprep.Options{MaxLength: a.cfg.ContextMaxLength})
	log.Info().
		Int("words", prepared.WordCount).
		Int("sources", len(prepared.Sources)).
		Msg("context prepared")

	if prepared.WordCount < a.cfg.MinContextWords {
		log.Info().Int("words", prepared.WordCount).Msg("context too small, adding basic destination info")
		basic := itinerary.BasicInfo(req.Destination, req.Days, req.Budget, req.Currency, req.TravelStyle)
		prepared.Text += basic
		prepared.WordCount += contextprep.CountWords(basic)
	}

	params := itinerary.Params{
		OriginCountry: req.OriginCountry,
		Destination:   req.Destination,
		Days:          req.Days,
		Budget:        req.Budget,
		TravelStyle:   req.TravelStyle,
		Preferences:   req.Preferences,
		Currency:      req.Currency,
		Context:       prepared.Text,
		Sources:       prepared.Sources,
	}

	text := ""
	result, err := a.generator.Generate(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			// A dead request context means nobody is waiting for the fallback.
			return Response{}, fmt.Errorf("timeout generando itinerario: %w", ctx.Err())
		}
		log.Error().Err(err).Msg("generation failed, using fallback itinerary")
		text = itinerary.Fallback(params)
	} else {
		text = result.Text
	}

	return Response{
		Itinerary: text,
		Metadata: Metadata{
			OriginCountry:      req.OriginCountry,
			Destination:        req.Destination,
			Days:               req.Days,
			Budget:             req.Budget,
			TravelStyle:        req.TravelStyle,
			Sources:            prepared.Sources,
			WordCount:          prepared.WordCount,
			SearchResultsCount: len(merged),
			ScrapedSources:     len(contents),
			ProcessingTimeMs:   time.Since(started).Milliseconds(),
		},
	}, nil
}

// collectSearchResults runs the five category searches concurrently. Each
// failure is logged and contributes an empty group so the others survive.
func (a *App) collectSearchResults(ctx context.Context, req Request) []search.Result {
	type category struct {
		name string
		run  func(context.Context, string, []string, string) ([]search.Result, error)
	}
	categories := []category{
		{"general", a.searcher.GeneralInfo},
		{"activities", a.searcher.Activities},
		{"restaurants", a.searcher.Restaurants},
		{"blogs", a.searcher.Blogs},
		{"reviews", a.searcher.Reviews},
	}

	groups := make([][]search.Result, len(categories))
	var wg sync.WaitGroup
	for i, cat := range categories {
		wg.Add(1)
		go func(i int, cat category) {
			defer wg.Done()
			results, err := cat.run(ctx, req.Destination, req.Preferences, req.OriginCountry)
			if err != nil {
				log.Warn().Err(err).Str("category", cat.name).Msg("search failed, continuing without it")
				return
			}
			groups[i] = results
		}(i, cat)
	}
	wg.Wait()

	merged := aggregate.Merge(groups...)
	log.Info().Int("unique", len(merged)).Msg("search results merged")
	return merged
}

// scrapeAll fans the selected URLs out to the scraper and collects results in
// input order so citation indices stay aligned.
func (a *App) scrapeAll(ctx context.Context, selected []search.Result) []scrape.Content {
	contents := make([]scrape.Content, len(selected))
	var wg sync.WaitGroup
	for i, r := range selected {
		wg.Add(1)
		go func(i int, r search.Result) {
			defer wg.Done()
			hint := r
			contents[i] = a.scraper.Scrape(ctx, r.Link, &hint)
		}(i, r)
	}
	wg.Wait()
	return contents
}
