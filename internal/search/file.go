package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// FileProvider loads search results from a local JSON file for offline runs
// and tests. The file holds an array of objects:
// {"title": "...", "link": "...", "snippet": "..."}.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, q Query) ([]Result, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var raw []Result
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	// Match any single query term so category queries with operators still
	// select something useful from the canned set.
	terms := strings.Fields(strings.ToLower(q.Text))
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		if r.Link == "" || r.Title == "" {
			continue
		}
		if matchesAny(r, terms) {
			r.Position = len(out) + 1
			out = append(out, r)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func matchesAny(r Result, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	hay := strings.ToLower(r.Title + " " + r.Snippet)
	for _, term := range terms {
		term = strings.Trim(term, "\"")
		if term == "" || strings.HasPrefix(term, "site:") || strings.HasPrefix(term, "inurl:") || term == "or" {
			continue
		}
		term = strings.TrimPrefix(term, "intitle:")
		if strings.Contains(hay, term) {
			return true
		}
	}
	return false
}
