package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSafeFetch_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>hola</p></body></html>"))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "goitinerary-test/1.0", Timeout: 2 * time.Second}
	got, err := c.SafeFetch(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got.Body, "hola") {
		t.Fatalf("body lost content: %q", got.Body)
	}
	if got.ContentLength != len(got.Body) {
		t.Fatalf("contentLength = %d, body = %d", got.ContentLength, len(got.Body))
	}
}

func TestSafeFetch_RobotsDisallowed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>secret</html>"))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "goitinerary-test/1.0", Timeout: 2 * time.Second}
	_, err := c.SafeFetch(context.Background(), srv.URL+"/private/page")
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Fatalf("expected ErrRobotsDisallowed, got %v", err)
	}

	// Paths outside the disallow list stay reachable.
	if _, err := c.SafeFetch(context.Background(), srv.URL+"/public"); err != nil {
		t.Fatalf("public path should fetch: %v", err)
	}
}

func TestCanFetch_FailOpenOnRobotsError(t *testing.T) {
	t.Parallel()
	c := &Client{UserAgent: "goitinerary-test/1.0", Timeout: 300 * time.Millisecond}
	u, _ := url.Parse("http://127.0.0.1:1/whatever")
	if !c.CanFetch(context.Background(), u) {
		t.Fatalf("robots fetch failure must permit the URL")
	}
}

func TestSafeFetch_ContentTypeGate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	c := &Client{Timeout: 2 * time.Second}
	_, err := c.SafeFetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "unsupported content type") {
		t.Fatalf("expected content type error, got %v", err)
	}
}

func TestSafeFetch_SizeCeiling(t *testing.T) {
	t.Parallel()
	big := strings.Repeat("a", 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(big))
	}))
	defer srv.Close()

	c := &Client{Timeout: 2 * time.Second, MaxContentBytes: 1024}
	_, err := c.SafeFetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "content too large") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestSafeFetch_Timeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	c := &Client{Timeout: 100 * time.Millisecond, SkipRobots: true}
	if _, err := c.SafeFetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestSafeFetch_SanitizesHTML(t *testing.T) {
	t.Parallel()
	page := `<html><body><p onclick="evil()">texto</p><script>alert(1)</script><iframe src="x"></iframe></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	c := &Client{Timeout: 2 * time.Second}
	got, err := c.SafeFetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, banned := range []string{"<script", "<iframe", "onclick"} {
		if strings.Contains(got.Body, banned) {
			t.Fatalf("sanitized body still contains %q: %s", banned, got.Body)
		}
	}
	if !strings.Contains(got.Body, "texto") {
		t.Fatalf("sanitization dropped text content")
	}
}

func TestSafeFetch_RejectsNonHTTP(t *testing.T) {
	t.Parallel()
	c := &Client{}
	if _, err := c.SafeFetch(context.Background(), "file:///etc/hosts"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
