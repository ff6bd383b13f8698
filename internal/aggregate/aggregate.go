package aggregate

import (
	"net/url"
	"strings"

	"github.com/hyperifyio/goitinerary/internal/search"
)

// DefaultLimit caps how many merged results move on to scraping.
const DefaultLimit = 15

// Merge concatenates category result groups in the given order,
// canonicalizes URLs, trims obvious tracking parameters, and drops exact
// duplicates keeping the first occurrence. Position is rewritten to reflect
// the merged order.
func Merge(groups ...[]search.Result) []search.Result {
	seen := map[string]struct{}{}
	out := make([]search.Result, 0, 64)
	for _, g := range groups {
		for _, r := range g {
			if r.Link == "" {
				continue
			}
			u, err := url.Parse(r.Link)
			if err != nil {
				continue
			}
			normalizeURL(u)
			key := u.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			r.Link = key
			r.Position = len(out) + 1
			out = append(out, r)
		}
	}
	return out
}

// Cap truncates results to n keeping merge order. A non-positive n applies
// DefaultLimit.
func Cap(results []search.Result, n int) []search.Result {
	if n <= 0 {
		n = DefaultLimit
	}
	if len(results) <= n {
		return results
	}
	return results[:n]
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	q := u.Query()
	// Remove common tracking params
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
}
