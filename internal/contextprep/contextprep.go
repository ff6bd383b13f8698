package contextprep

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Source is one cited origin. Index is the citation number used in the
// prepared text, assigned upstream when results are merged.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Index int    `json:"index"`
}

// Prepared is the bounded, citation-annotated text handed to generation.
type Prepared struct {
	Text      string   `json:"text"`
	Sources   []Source `json:"sources"`
	WordCount int      `json:"wordCount"`
}

// Item pairs one piece of scraped content with its citation source. A nil
// Source still contributes text, just without a citation line.
type Item struct {
	Content string
	Source  *Source
}

// Options tunes preparation. Zero values select the defaults: a 10000
// character budget, citations on, duplicate removal on, summarization on.
type Options struct {
	MaxLength        int
	DisableCitations bool
	KeepDuplicates   bool
	KeepLongContent  bool
}

const (
	defaultMaxLength = 10000
	// summarizeThreshold is the per-source length beyond which content is
	// compressed down to summarizeTarget characters.
	summarizeThreshold = 2000
	summarizeTarget    = 1500
)

// Prepare cleans and optionally summarizes each item, appends citation
// markers, joins everything with separators, removes duplicated lines and
// enforces the length budget. Sources are reported in input order; a source
// whose text was later trimmed away keeps its entry so citation numbers stay
// stable.
func Prepare(items []Item, opts Options) Prepared {
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	sources := make([]Source, 0, len(items))
	for _, it := range items {
		if it.Source != nil {
			sources = append(sources, *it.Source)
		}
	}

	parts := make([]string, 0, len(items))
	for _, it := range items {
		text := CleanHTMLText(it.Content)
		if !opts.KeepLongContent && utf8.RuneCountInString(text) > summarizeThreshold {
			text = Summarize(text, summarizeTarget)
		}
		if !opts.DisableCitations && it.Source != nil {
			text = fmt.Sprintf("%s\n\nFuente: 【%d】", text, it.Source.Index)
		}
		parts = append(parts, text)
	}

	combined := strings.Join(parts, "\n\n---\n\n")
	if !opts.KeepDuplicates {
		combined = removeDuplicateLines(combined)
	}
	combined = Truncate(combined, maxLength)

	return Prepared{
		Text:      combined,
		Sources:   sources,
		WordCount: CountWords(combined),
	}
}

// FormatWithSources appends a FUENTES appendix mapping citation numbers back
// to titles and URLs.
func FormatWithSources(p Prepared) string {
	if len(p.Sources) == 0 {
		return p.Text
	}
	var b strings.Builder
	b.WriteString(p.Text)
	b.WriteString("\n\n---\n\nFUENTES:\n")
	for _, s := range p.Sources {
		fmt.Fprintf(&b, "【%d】 %s - %s\n", s.Index, s.Title, s.URL)
	}
	return b.String()
}

var (
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
	wsPattern   = regexp.MustCompile(`\s+`)
	sentencePat = regexp.MustCompile(`[.!?]+`)
)

// CleanHTMLText strips markup, decodes entities and collapses whitespace.
func CleanHTMLText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = wsPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Summarize keeps whole sentences from the start of text until adding the
// next one would exceed maxLength characters. When not even the first
// sentence fits it falls back to a hard truncation.
func Summarize(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	sentences := sentencePat.Split(text, -1)
	var b strings.Builder
	total := 0
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		n := utf8.RuneCountInString(sentence) + 1
		if total+n > maxLength {
			break
		}
		b.WriteString(sentence)
		b.WriteString(". ")
		total += n
	}
	summary := strings.TrimSpace(b.String())
	if summary == "" {
		return Truncate(text, maxLength)
	}
	return summary
}

// Truncate cuts text to maxLength characters, ending with an ellipsis when
// anything was removed. Budgets smaller than the ellipsis leave no room for
// content and yield an empty string.
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	cut := maxLength - 3
	if cut <= 0 {
		return ""
	}
	return string(runes[:cut]) + "..."
}

// CountWords ignores any residual markup.
func CountWords(text string) int {
	plain := tagPattern.ReplaceAllString(text, "")
	return len(strings.Fields(plain))
}

// removeDuplicateLines drops lines whose trimmed form was already seen.
// Blank lines always pass so the document structure survives.
func removeDuplicateLines(text string) string {
	lines := strings.Split(text, "\n")
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, line)
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
