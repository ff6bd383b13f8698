package gateway

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// SanitizeHTML strips script, style and iframe elements plus event-handler and
// javascript:/data: scheme attributes from the markup. Parse failures return
// the input unchanged rather than losing the body.
func SanitizeHTML(input string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return input
	}
	doc.Find("script, style, iframe").Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			n.Attr = filterAttrs(n.Attr)
		}
	})
	out, err := doc.Html()
	if err != nil {
		return input
	}
	return out
}

func filterAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		val := strings.ToLower(a.Val)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if strings.Contains(val, "javascript:") || strings.Contains(val, "data:") {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
