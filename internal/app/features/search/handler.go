// internal/app/features/search/handler.go
package search

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/mwanacheck/internal/app/directory"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/authz"
	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/app/system/search"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type Handler struct {
	Directory *directory.Service
	PageSize  int
	Log       *zap.Logger
}

func NewHandler(dir *directory.Service, pageSize int, logger *zap.Logger) *Handler {
	if pageSize < 1 {
		pageSize = search.DefaultPageSize
	}
	return &Handler{Directory: dir, PageSize: pageSize, Log: logger}
}

// ServeSearch handles GET /search.
//
// Query parameters: q, type, class, status (comma separated or repeated),
// gpa_min, gpa_max, discipline_min, discipline_max, sort_by, sort_order,
// page, page_size, highlight.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseOptions(r)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pg, err := h.Directory.Search(ctx, authz.SchoolID(r), opts)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, pg)
}

// ServeSuggest handles GET /search/suggest?q=&limit=.
func (h *Handler) ServeSuggest(w http.ResponseWriter, r *http.Request) {
	n := paging.ParseLimit(r, search.DefaultSuggestMax, 20)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Directory.Suggest(ctx, authz.SchoolID(r), query.Get(r, "q"), n)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (h *Handler) parseOptions(r *http.Request) (search.Options, error) {
	page, size := paging.ParsePage(r, h.PageSize)
	opts := search.Options{
		Query:     query.Get(r, "q"),
		Page:      page,
		PageSize:  size,
		SortBy:    strings.ToLower(query.Get(r, "sort_by")),
		SortOrder: strings.ToLower(query.Get(r, "sort_order")),
		Highlight: query.Get(r, "highlight") == "true" || query.Get(r, "highlight") == "1",
		Filters: search.Filters{
			Types:    list(r, "type"),
			Classes:  list(r, "class"),
			Statuses: list(r, "status"),
		},
	}

	switch opts.SortBy {
	case "", search.SortRelevance, search.SortName, search.SortDate, search.SortGPA, search.SortDiscipline:
	default:
		return opts, apperr.Field("sort_by", "must be one of relevance, name, date, gpa, discipline")
	}
	switch opts.SortOrder {
	case "", search.OrderAsc, search.OrderDesc:
	default:
		return opts, apperr.Field("sort_order", "must be asc or desc")
	}

	var err error
	if opts.Filters.GPA, err = rangeParam(r, "gpa", 0, 4); err != nil {
		return opts, err
	}
	if opts.Filters.Discipline, err = rangeParam(r, "discipline", 0, 100); err != nil {
		return opts, err
	}
	return opts, nil
}

// list collects a multi-valued parameter given as ?k=a,b or ?k=a&k=b.
func list(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// rangeParam reads <name>_min and <name>_max. With neither present there is
// no filter; a missing end defaults to lo or hi.
func rangeParam(r *http.Request, name string, lo, hi float64) (*search.Range, error) {
	minRaw, maxRaw := query.Get(r, name+"_min"), query.Get(r, name+"_max")
	if minRaw == "" && maxRaw == "" {
		return nil, nil
	}
	rg := search.Range{Min: lo, Max: hi}
	if minRaw != "" {
		v, err := strconv.ParseFloat(minRaw, 64)
		if err != nil {
			return nil, apperr.Field(name+"_min", "must be a number")
		}
		rg.Min = v
	}
	if maxRaw != "" {
		v, err := strconv.ParseFloat(maxRaw, 64)
		if err != nil {
			return nil, apperr.Field(name+"_max", "must be a number")
		}
		rg.Max = v
	}
	if rg.Min > rg.Max {
		return nil, apperr.Field(name+"_min", "must not exceed "+name+"_max")
	}
	return &rg, nil
}
