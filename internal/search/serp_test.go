package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newSerpServer(t *testing.T, payload map[string]any, gotParams *map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotParams != nil {
			params := map[string]string{}
			for k := range r.URL.Query() {
				params[k] = r.URL.Query().Get(k)
			}
			*gotParams = params
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func TestSerp_FlattensGroupsInOrder(t *testing.T) {
	t.Parallel()
	payload := map[string]any{
		"organic_results": []map[string]string{
			{"title": "Guía", "link": "https://a.example/1", "snippet": "s1"},
		},
		"local_results": []map[string]string{
			{"title": "Local", "website": "https://b.example/2", "description": "d2"},
		},
		"places_results": []map[string]string{
			{"name": "Plaza", "website": "https://c.example/3", "type": "attraction"},
		},
		"knowledge_graph": map[string]string{
			"title": "Ciudad", "link": "https://d.example/4", "description": "panel",
		},
	}
	srv := newSerpServer(t, payload, nil)
	defer srv.Close()

	p := &Serp{BaseURL: srv.URL, APIKey: "test"}
	results, err := p.Search(context.Background(), Query{Text: "q", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("len = %d, want 4", len(results))
	}
	wantLinks := []string{"https://a.example/1", "https://b.example/2", "https://c.example/3", "https://d.example/4"}
	for i, want := range wantLinks {
		if results[i].Link != want {
			t.Fatalf("result %d link = %q, want %q", i, results[i].Link, want)
		}
		if results[i].Position != i+1 {
			t.Fatalf("result %d position = %d", i, results[i].Position)
		}
	}
	if results[1].Snippet != "d2" {
		t.Fatalf("local description fallback not applied: %q", results[1].Snippet)
	}
}

func TestSerp_AppliesCapAndParams(t *testing.T) {
	t.Parallel()
	organic := make([]map[string]string, 30)
	for i := range organic {
		organic[i] = map[string]string{"title": "t", "link": "https://x.example/" + string(rune('a'+i)), "snippet": "s"}
	}
	var params map[string]string
	srv := newSerpServer(t, map[string]any{"organic_results": organic}, &params)
	defer srv.Close()

	p := &Serp{BaseURL: srv.URL, APIKey: "test"}
	results, err := p.Search(context.Background(), Query{
		Text: "actividades", Language: "es", Country: "pe", Location: "Peru",
		Limit: 15, Local: true, PastYear: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 15 {
		t.Fatalf("len = %d, want capped 15", len(results))
	}
	for k, want := range map[string]string{
		"engine": "google", "hl": "es", "gl": "pe", "location": "Peru",
		"tbm": "lcl", "tbs": "qdr:y", "safe": "active",
	} {
		if params[k] != want {
			t.Fatalf("param %s = %q, want %q", k, params[k], want)
		}
	}
}

func TestSerp_MissingKey(t *testing.T) {
	t.Parallel()
	p := &Serp{BaseURL: "http://localhost"}
	if _, err := p.Search(context.Background(), Query{Text: "q"}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestSerp_ErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	p := &Serp{BaseURL: srv.URL, APIKey: "test"}
	if _, err := p.Search(context.Background(), Query{Text: "q"}); err == nil {
		t.Fatalf("expected error for 429 status")
	}
}
