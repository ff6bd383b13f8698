package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/goitinerary/internal/gateway"
	"github.com/hyperifyio/goitinerary/internal/itinerary"
	"github.com/hyperifyio/goitinerary/internal/ratelimit"
	"github.com/hyperifyio/goitinerary/internal/scrape"
	"github.com/hyperifyio/goitinerary/internal/search"
)

type stubLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *stubLLM) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if len(req.Messages) > 0 {
		s.lastPrompt = req.Messages[len(req.Messages)-1].Content
	}
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.reply}},
		},
	}, nil
}

func longReply() string {
	var b strings.Builder
	b.WriteString("# Itinerario Detallado para Lisboa\n\n")
	for i := 0; i < 30; i++ {
		b.WriteString("## Día con visitas a Alfama, Belém y el Barrio Alto, con costos y horarios. 【1】\n")
	}
	return b.String()
}

const lisboaPage = `<!DOCTYPE html>
<html lang="es">
<head><title>Qué ver en Lisboa</title></head>
<body>
<article>
<h1>Qué ver en Lisboa</h1>
<p>Lisboa se extiende sobre siete colinas junto al Tajo y combina miradores,
tranvías históricos y una gastronomía en plena efervescencia. El barrio de
Alfama conserva el trazado árabe con callejones que desembocan en plazas
escondidas donde suena fado en directo cada noche.</p>
<p>Belém concentra los monumentos de la era de los descubrimientos, desde el
monasterio de los Jerónimos hasta la torre defensiva junto al río, y la
pastelería más famosa de Portugal sigue horneando pasteles de nata con la
receta original de 1837.</p>
<p>El tranvía 28 cruza la ciudad entera y es la forma más barata de ver los
principales barrios. Conviene tomarlo a primera hora para evitar las colas de
mediodía y vigilar las pertenencias en los tramos más concurridos.</p>
</article>
</body>
</html>`

// writeSearchFile points every canned result at srvURL so scraping hits the
// local test server.
func writeSearchFile(t *testing.T, srvURL string, count int) string {
	t.Helper()
	var entries []string
	for i := 0; i < count; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"title": "Lisboa guía %[1]d", "link": "%[2]s/pagina-%[1]d", "snippet": "Guía de Lisboa número %[1]d con consejos de viaje."}`, i+1, srvURL))
	}
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte("["+strings.Join(entries, ",")+"]"), 0o644); err != nil {
		t.Fatalf("write search file: %v", err)
	}
	return path
}

func newTestApp(t *testing.T, searchFile string, client *stubLLM) *App {
	t.Helper()
	cfg := Config{FileSearchPath: searchFile}
	cfg.applyDefaults()
	gw := &gateway.Client{
		HTTPClient: &http.Client{},
		UserAgent:  cfg.UserAgent,
		SkipRobots: true,
	}
	return &App{
		cfg:       cfg,
		limiter:   ratelimit.New(),
		searcher:  &search.Client{Provider: &search.FileProvider{Path: searchFile}},
		scraper:   scrape.New(gw),
		generator: &itinerary.Generator{Client: client},
	}
}

func lisboaServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(lisboaPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateEndToEnd(t *testing.T) {
	srv := lisboaServer(t)
	stub := &stubLLM{reply: longReply()}
	a := newTestApp(t, writeSearchFile(t, srv.URL, 3), stub)

	got, err := a.Generate(context.Background(), Request{
		OriginCountry: "Perú",
		Destination:   "Lisboa",
		Days:          3,
		Budget:        500,
		TravelStyle:   "mochilero",
		Preferences:   []string{"gastronomía"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(got.Itinerary, "Lisboa") {
		t.Fatalf("itinerary missing destination")
	}
	if got.Metadata.SearchResultsCount == 0 {
		t.Fatalf("metadata missing search result count")
	}
	if got.Metadata.ScrapedSources != got.Metadata.SearchResultsCount {
		t.Fatalf("every selected result must be scraped: %d vs %d",
			got.Metadata.ScrapedSources, got.Metadata.SearchResultsCount)
	}
	if len(got.Metadata.Sources) != got.Metadata.ScrapedSources {
		t.Fatalf("sources misaligned: %d vs %d", len(got.Metadata.Sources), got.Metadata.ScrapedSources)
	}
	for i, s := range got.Metadata.Sources {
		if s.Index != i+1 {
			t.Fatalf("source %d has index %d", i, s.Index)
		}
	}
	if !strings.Contains(stub.lastPrompt, "Alfama") {
		t.Fatalf("prompt missing scraped content")
	}
}

func TestGenerateFallbackWhenGenerationFails(t *testing.T) {
	srv := lisboaServer(t)
	stub := &stubLLM{err: errors.New("429 Too Many Requests")}
	a := newTestApp(t, writeSearchFile(t, srv.URL, 2), stub)

	got, err := a.Generate(context.Background(), Request{
		Destination: "Lisboa",
		Days:        3,
		Budget:      500,
		TravelStyle: "mochilero",
	})
	if err != nil {
		t.Fatalf("fallback path must not error: %v", err)
	}
	for _, want := range []string{"Itinerario para Lisboa", "3 días", "500 USD", "mochilero"} {
		if !strings.Contains(got.Itinerary, want) {
			t.Fatalf("fallback missing %q", want)
		}
	}
}

func TestGenerateAllSearchesFail(t *testing.T) {
	stub := &stubLLM{err: errors.New("model not found")}
	// Nonexistent file makes every category search fail.
	a := newTestApp(t, "/nonexistent/results.json", stub)

	got, err := a.Generate(context.Background(), Request{
		Destination: "Cusco",
		Days:        5,
		Budget:      800,
		TravelStyle: "aventura",
	})
	if err != nil {
		t.Fatalf("pipeline must degrade, not abort: %v", err)
	}
	if got.Metadata.SearchResultsCount != 0 || got.Metadata.ScrapedSources != 0 {
		t.Fatalf("unexpected counts: %+v", got.Metadata)
	}
	// With no scraped context the basic destination block feeds the prompt.
	if !strings.Contains(stub.lastPrompt, "Información básica sobre Cusco") {
		t.Fatalf("thin context must be padded with basic info")
	}
	if !strings.Contains(got.Itinerary, "Cusco") {
		t.Fatalf("fallback itinerary must mention destination")
	}
}

func TestGenerateValidation(t *testing.T) {
	a := newTestApp(t, "/nonexistent/results.json", &stubLLM{reply: longReply()})
	cases := []Request{
		{Days: 3, Budget: 500, TravelStyle: "mochilero"},
		{Destination: "Lisboa", Budget: 500, TravelStyle: "mochilero"},
		{Destination: "Lisboa", Days: 3, TravelStyle: "mochilero"},
		{Destination: "Lisboa", Days: 3, Budget: 500},
	}
	for i, req := range cases {
		if _, err := a.Generate(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: err = %v, want ErrInvalidRequest", i, err)
		}
	}
}

func TestGenerateRateLimited(t *testing.T) {
	a := newTestApp(t, "/nonexistent/results.json", &stubLLM{err: errors.New("should not be called")})
	for a.Limiter().Check("itinerary").Allowed {
	}
	_, err := a.Generate(context.Background(), Request{
		Destination: "Lisboa",
		Days:        3,
		Budget:      500,
		TravelStyle: "mochilero",
	})
	var rle *RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("err = %v, want RateLimitedError", err)
	}
	if rle.ResetTime.IsZero() {
		t.Fatalf("reset time must be populated")
	}
}
