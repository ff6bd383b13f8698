package aggregate

import (
	"fmt"
	"testing"

	"github.com/hyperifyio/goitinerary/internal/search"
)

func TestMerge_Dedup_TrimUTM(t *testing.T) {
	general := []search.Result{
		{Title: "A", Link: "https://example.com/page?utm_source=x&utm_medium=y", Snippet: "one"},
	}
	blogs := []search.Result{
		{Title: "A dup", Link: "https://EXAMPLE.com/page", Snippet: "two"},
		{Title: "B", Link: "https://example.com/otra", Snippet: "three"},
	}
	out := Merge(general, blogs)
	if len(out) != 2 {
		t.Fatalf("expected 2 after dedup, got %d", len(out))
	}
	if out[0].Link != "https://example.com/page" {
		t.Fatalf("unexpected normalized url: %q", out[0].Link)
	}
	if out[0].Title != "A" {
		t.Fatalf("first occurrence must win, got %q", out[0].Title)
	}
	if out[1].Position != 2 {
		t.Fatalf("positions must follow merge order, got %d", out[1].Position)
	}
}

func TestMerge_PreservesGroupOrder(t *testing.T) {
	a := []search.Result{{Title: "g1", Link: "https://a.example/1"}}
	b := []search.Result{{Title: "g2", Link: "https://b.example/1"}}
	out := Merge(a, b)
	if out[0].Title != "g1" || out[1].Title != "g2" {
		t.Fatalf("group order lost: %+v", out)
	}
}

func TestCap(t *testing.T) {
	var many []search.Result
	for i := 0; i < 20; i++ {
		many = append(many, search.Result{Link: fmt.Sprintf("https://example.com/%d", i)})
	}
	if got := Cap(many, 0); len(got) != DefaultLimit {
		t.Fatalf("default cap: got %d, want %d", len(got), DefaultLimit)
	}
	if got := Cap(many, 3); len(got) != 3 {
		t.Fatalf("explicit cap: got %d", len(got))
	}
	if got := Cap(many[:2], 5); len(got) != 2 {
		t.Fatalf("short input must pass through, got %d", len(got))
	}
}
