// Package search ranks, filters, sorts and pages a school directory held
// in memory. It has no I/O; callers load the entries.
package search

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Sort keys.
const (
	SortRelevance  = "relevance"
	SortName       = "name"
	SortDate       = "date"
	SortGPA        = "gpa"
	SortDiscipline = "discipline"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 10

// Points awarded per query term.
const (
	scoreName  = 10
	scoreEmail = 8
	scoreID    = 6
	scoreAny   = 2
)

// Range is an inclusive numeric range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Filters narrow scored entries. Empty sets and nil ranges do not filter.
type Filters struct {
	Types      []string `json:"type,omitempty"`
	GPA        *Range   `json:"gpa_range,omitempty"`
	Discipline *Range   `json:"discipline_range,omitempty"`
	Classes    []string `json:"class,omitempty"`
	Statuses   []string `json:"status,omitempty"`
}

// Options is one search request.
type Options struct {
	Query     string
	Filters   Filters
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	Highlight bool
}

// Result is a ranked entry.
type Result struct {
	Entry
	Score     int        `json:"score"`
	Highlight *Highlight `json:"highlight,omitempty"`
}

// Bounds are the GPA and discipline extremes across all student entries,
// for building range filters. Both ranges are zero when there are no students.
type Bounds struct {
	GPA        Range `json:"gpa"`
	Discipline Range `json:"discipline"`
}

// Page is one page of results.
type Page struct {
	Results    []Result `json:"results"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	HasMore    bool     `json:"has_more"`
	Bounds     Bounds   `json:"bounds"`
}

// Terms splits q into lowercase whitespace-separated terms.
func Terms(q string) []string {
	return strings.Fields(strings.ToLower(q))
}

// Score sums, over the query terms, 10 for a name match, 8 for an email
// match, 6 for an id match and 2 when any field contains the term.
func Score(e Entry, terms []string) int {
	if len(terms) == 0 {
		return 0
	}
	name := strings.ToLower(e.Name)
	email := strings.ToLower(e.Email)
	id := strings.ToLower(e.ID)
	all := e.text()

	score := 0
	for _, t := range terms {
		if strings.Contains(name, t) {
			score += scoreName
		}
		if email != "" && strings.Contains(email, t) {
			score += scoreEmail
		}
		if strings.Contains(id, t) {
			score += scoreID
		}
		if strings.Contains(all, t) {
			score += scoreAny
		}
	}
	return score
}

// Run scores, filters, sorts and pages entries.
//
// With an empty query every entry is kept with score 0. With a non-empty
// query entries scoring 0 are dropped, so a query of only whitespace
// matches nothing.
func Run(entries []Entry, opts Options) Page {
	terms := Terms(opts.Query)

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		s := Score(e, terms)
		if opts.Query != "" && s == 0 {
			continue
		}
		if !opts.Filters.match(e) {
			continue
		}
		results = append(results, Result{Entry: e, Score: s})
	}

	sortResults(results, opts.SortBy, opts.SortOrder)

	page, size := opts.Page, opts.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	total := len(results)
	totalPages := int(math.Ceil(float64(total) / float64(size)))

	start := min((page-1)*size, total)
	end := min(start+size, total)
	out := slices.Clone(results[start:end])

	if opts.Highlight && len(terms) > 0 {
		hl := newHighlighter(terms)
		for i := range out {
			out[i].Highlight = hl.apply(out[i].Entry)
		}
	}

	return Page{
		Results:    out,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
		Bounds:     ComputeBounds(entries),
	}
}

func (f Filters) match(e Entry) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if f.GPA != nil && (e.GPA == nil || !f.GPA.contains(*e.GPA)) {
		return false
	}
	if f.Discipline != nil && (e.DisciplinePoints == nil || !f.Discipline.contains(float64(*e.DisciplinePoints))) {
		return false
	}
	if len(f.Classes) > 0 && !slices.Contains(f.Classes, e.Class) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.EffectiveStatus()) {
		return false
	}
	return true
}

func sortResults(rs []Result, by, order string) {
	var key func(a, b Result) int
	switch by {
	case SortName:
		key = func(a, b Result) int { return cmp.Compare(text.Fold(a.Name), text.Fold(b.Name)) }
	case SortDate:
		key = func(a, b Result) int { return a.date().Compare(b.date()) }
	case SortGPA:
		key = func(a, b Result) int { return cmp.Compare(gpaOf(a.Entry), gpaOf(b.Entry)) }
	case SortDiscipline:
		key = func(a, b Result) int { return cmp.Compare(pointsOf(a.Entry), pointsOf(b.Entry)) }
	default:
		key = func(a, b Result) int { return cmp.Compare(a.Score, b.Score) }
	}

	desc := order != OrderAsc
	slices.SortStableFunc(rs, func(a, b Result) int {
		c := key(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func gpaOf(e Entry) float64 {
	if e.GPA == nil {
		return 0
	}
	return *e.GPA
}

func pointsOf(e Entry) int {
	if e.DisciplinePoints == nil {
		return 0
	}
	return *e.DisciplinePoints
}

// ComputeBounds returns the GPA and discipline extremes over student entries.
func ComputeBounds(entries []Entry) Bounds {
	var b Bounds
	seenGPA, seenPts := false, false
	for _, e := range entries {
		if e.Type != TypeStudent {
			continue
		}
		if e.GPA != nil {
			if !seenGPA {
				b.GPA = Range{Min: *e.GPA, Max: *e.GPA}
				seenGPA = true
			}
			b.GPA.Min = min(b.GPA.Min, *e.GPA)
			b.GPA.Max = max(b.GPA.Max, *e.GPA)
		}
		if e.DisciplinePoints != nil {
			p := float64(*e.DisciplinePoints)
			if !seenPts {
				b.Discipline = Range{Min: p, Max: p}
				seenPts = true
			}
			b.Discipline.Min = min(b.Discipline.Min, p)
			b.Discipline.Max = max(b.Discipline.Max, p)
		}
	}
	return b
}
