// internal/app/system/search/suggest.go
package search

import (
	"strings"
	"unicode/utf8"
)

// Suggestion limits.
const (
	MinSuggestLen     = 2
	DefaultSuggestMax = 5
)

// Suggest returns up to n distinct names, student classes and teacher
// subjects containing q, in entry order. Queries shorter than two
// characters return nothing.
func Suggest(entries []Entry, q string, n int) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	if utf8.RuneCountInString(q) < MinSuggestLen {
		return []string{}
	}
	if n <= 0 {
		n = DefaultSuggestMax
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, n)
	add := func(s string) bool {
		if s == "" || !strings.Contains(strings.ToLower(s), q) {
			return false
		}
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
		out = append(out, s)
		return len(out) >= n
	}

	for _, e := range entries {
		var candidates []string
		switch e.Type {
		case TypeStudent:
			candidates = []string{e.Name, e.Class}
		case TypeTeacher:
			candidates = []string{e.Name, e.Subject}
		case TypeParent:
			candidates = []string{e.Name}
		default:
			continue
		}
		for _, c := range candidates {
			if add(c) {
				return out
			}
		}
	}
	return out
}
