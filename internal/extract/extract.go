package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Article is the readable main content of a page.
type Article struct {
	Title     string
	Content   string
	Excerpt   string
	WordCount int
}

// ErrNoMainContent indicates the readability heuristic found no article body,
// e.g. on a non-article SPA shell.
var ErrNoMainContent = errors.New("no main content found")

// MainContent runs the readability heuristic over the HTML and returns the
// extracted article. The heavy lifting (scoring DOM nodes for text density
// versus markup density) is go-readability's; this wrapper normalizes the
// output and computes the word count over the cleaned text.
func MainContent(htmlText, pageURL string) (Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url: %w", err)
	}
	art, err := readability.FromReader(strings.NewReader(htmlText), u)
	if err != nil {
		return Article{}, fmt.Errorf("readability: %w", err)
	}
	text := CleanWhitespace(art.TextContent)
	if text == "" {
		return Article{}, ErrNoMainContent
	}
	title := strings.TrimSpace(art.Title)
	if title == "" {
		title = "Sin título"
	}
	return Article{
		Title:     title,
		Content:   text,
		Excerpt:   strings.TrimSpace(art.Excerpt),
		WordCount: CountWords(text),
	}, nil
}

// CountWords strips residual markup and counts non-empty whitespace-separated
// tokens.
func CountWords(text string) int {
	return len(strings.Fields(stripTags(text)))
}

// CleanWhitespace collapses runs of spaces and reduces blank-line stacks to
// paragraph breaks.
func CleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, collapseSpaces(trimmed))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
