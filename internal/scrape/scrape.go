package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goitinerary/internal/extract"
	"github.com/hyperifyio/goitinerary/internal/gateway"
	"github.com/hyperifyio/goitinerary/internal/search"
)

// Content is one scraped page, possibly degraded. WordCount always reflects
// Content after cleaning.
type Content struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Excerpt   string `json:"excerpt"`
	URL       string `json:"url"`
	WordCount int    `json:"wordCount"`
}

// Strategy attempts one extraction tactic for a URL. Strategies are evaluated
// in order by Scraper.Scrape; the hint is the originating search result when
// one exists.
type Strategy func(ctx context.Context, rawURL string, hint *search.Result) (Content, error)

// minFallbackWords is the acceptance floor for the generic DOM parse; below
// it the cascade continues.
const minFallbackWords = 50

// Scraper runs an ordered extraction cascade that always produces a usable
// result. The downstream context step needs something per URL to keep
// citation numbering aligned with search results, so the terminal placeholder
// cannot fail and errors never leave this layer.
type Scraper struct {
	Gateway    *gateway.Client
	strategies []Strategy
}

// New wires the default cascade: readability extraction, generic DOM parse,
// search-hint synthesis.
func New(gw *gateway.Client) *Scraper {
	s := &Scraper{Gateway: gw}
	s.strategies = []Strategy{s.readable, s.genericParse, hintContent}
	return s
}

// Scrape returns the first strategy success or, when all strategies are
// exhausted, the minimal placeholder. It never returns an error.
func (s *Scraper) Scrape(ctx context.Context, rawURL string, hint *search.Result) Content {
	for _, strategy := range s.strategies {
		content, err := strategy(ctx, rawURL, hint)
		if err == nil {
			return content
		}
		log.Warn().Err(err).Str("url", rawURL).Msg("scrape strategy failed; trying next")
	}
	return placeholder(rawURL)
}

// readable is the primary strategy: policy-checked fetch plus readability
// extraction.
func (s *Scraper) readable(ctx context.Context, rawURL string, _ *search.Result) (Content, error) {
	body, err := s.fetchHTML(ctx, rawURL)
	if err != nil {
		return Content{}, err
	}
	art, err := extract.MainContent(body, rawURL)
	if err != nil {
		return Content{}, err
	}
	return Content{
		Title:     art.Title,
		Content:   art.Content,
		Excerpt:   art.Excerpt,
		URL:       rawURL,
		WordCount: art.WordCount,
	}, nil
}

// genericParse drops known boilerplate containers, picks the first plausible
// main-content region and takes its raw text. Accepted only when the result
// carries enough words to be worth citing.
func (s *Scraper) genericParse(ctx context.Context, rawURL string, hint *search.Result) (Content, error) {
	body, err := s.fetchHTML(ctx, rawURL)
	if err != nil {
		return Content{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Content{}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, nav, header, footer, aside, .ads, .advertisement, .sidebar, .comments").Remove()

	root := doc.Find("main, article, .content, .post, .entry, div[role='main']").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	text := extract.CleanWhitespace(root.Text())
	words := extract.CountWords(text)
	if words <= minFallbackWords {
		return Content{}, fmt.Errorf("generic parse too thin: %d words", words)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" && hint != nil {
		title = hint.Title
	}
	if title == "" {
		title = "Sin título"
	}
	return Content{
		Title:     title,
		Content:   text,
		Excerpt:   excerptOf(text),
		URL:       rawURL,
		WordCount: words,
	}, nil
}

// hintContent synthesizes a short content block from the search hit when the
// page itself yielded nothing usable.
func hintContent(_ context.Context, rawURL string, hint *search.Result) (Content, error) {
	if hint == nil || strings.TrimSpace(hint.Snippet) == "" {
		return Content{}, errors.New("no search hint available")
	}
	title := hint.Title
	if strings.TrimSpace(title) == "" {
		title = "Sin título"
	}
	text := fmt.Sprintf("# %s\n\n%s\n\n*Fuente: %s*", title, hint.Snippet, rawURL)
	return Content{
		Title:     title,
		Content:   text,
		Excerpt:   hint.Snippet,
		URL:       rawURL,
		WordCount: extract.CountWords(text),
	}, nil
}

// placeholder is the terminal step of the cascade and cannot fail.
func placeholder(rawURL string) Content {
	domain := domainOf(rawURL)
	text := fmt.Sprintf("# Información de %s\n\n"+
		"No se pudo extraer contenido detallado de esta página.\n"+
		"Para obtener información completa, visita directamente: %s\n\n"+
		"*Nota: Esta página podría contener información valiosa sobre tu destino.*",
		domain, rawURL)
	return Content{
		Title:     "Información de " + domain,
		Content:   text,
		Excerpt:   "No se pudo extraer contenido detallado de esta página.",
		URL:       rawURL,
		WordCount: extract.CountWords(text),
	}
}

func (s *Scraper) fetchHTML(ctx context.Context, rawURL string) (string, error) {
	if s.Gateway == nil {
		return "", errors.New("gateway not configured")
	}
	got, err := s.Gateway.SafeFetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if !strings.Contains(strings.ToLower(got.ContentType), "html") {
		return "", fmt.Errorf("not html content: %s", got.ContentType)
	}
	return got.Body, nil
}

func excerptOf(text string) string {
	runes := []rune(text)
	if len(runes) <= 200 {
		return text
	}
	return string(runes[:200]) + "..."
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
