// internal/app/system/search/highlight.go
package search

import (
	"html"
	"regexp"
	"slices"
	"strings"
)

// Highlight holds HTML-escaped display text with matches wrapped in <mark>.
type Highlight struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
}

type highlighter struct {
	re *regexp.Regexp
}

// newHighlighter builds one case-insensitive alternation over the escaped
// terms, longest first, so overlapping terms never nest marks.
func newHighlighter(terms []string) highlighter {
	ts := slices.Clone(terms)
	slices.SortFunc(ts, func(a, b string) int { return len(b) - len(a) })
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, regexp.QuoteMeta(html.EscapeString(t)))
	}
	return highlighter{re: regexp.MustCompile("(?i)(" + strings.Join(parts, "|") + ")")}
}

func (h highlighter) mark(s string) string {
	if s == "" {
		return ""
	}
	return h.re.ReplaceAllString(html.EscapeString(s), "<mark>$1</mark>")
}

func (h highlighter) apply(e Entry) *Highlight {
	title := e.Title
	if title == "" {
		title = e.Name
	}
	return &Highlight{
		Title:       h.mark(title),
		Subtitle:    h.mark(e.Subtitle),
		Description: h.mark(e.Description),
	}
}
