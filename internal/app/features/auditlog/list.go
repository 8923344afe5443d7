// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/authz"
	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"golang.org/x/sync/errgroup"
)

const pageSize = 50

// ServeList handles GET /audit: the school's audit events, newest first,
// filtered by category, event_type, subject_id, start_date and end_date
// (YYYY-MM-DD, inclusive).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	page, size := paging.ParsePage(r, pageSize)
	filter.Limit = int64(size)
	filter.Offset = int64((page - 1) * size)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit log list")
	defer cancel()

	schoolID := authz.SchoolID(r)
	var (
		events []audit.Event
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = h.Events.QueryAudit(gctx, schoolID, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.Events.CountAudit(gctx, schoolID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		httpjson.Error(w, h.Log, apperr.Unavailable("audit log unavailable", err))
		return
	}

	items := make([]eventItem, 0, len(events))
	for _, e := range events {
		items = append(items, eventItem{
			ID:            e.ID,
			Timestamp:     e.Timestamp.UTC().Format(time.RFC3339Nano),
			Category:      e.Category,
			EventType:     e.EventType,
			ActorID:       e.ActorID,
			ActorRole:     e.ActorRole,
			SubjectID:     e.SubjectID,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	httpjson.Write(w, http.StatusOK, listResponse{
		Events:     items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		HasMore:    int64(page*size) < total,
	})
}

func parseFilter(r *http.Request) (audit.QueryFilter, error) {
	f := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		SubjectID: strings.TrimSpace(query.Get(r, "subject_id")),
	}
	if f.Category != "" {
		if _, ok := categoryEvents[f.Category]; !ok {
			return f, apperr.Field("category", "is not a known category")
		}
	}
	if f.EventType != "" && !knownEventType(f.EventType) {
		return f, apperr.Field("event_type", "is not a known event type")
	}

	if s := strings.TrimSpace(query.Get(r, "start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, apperr.Field("start_date", "must be YYYY-MM-DD")
		}
		f.StartTime = &t
	}
	if s := strings.TrimSpace(query.Get(r, "end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, apperr.Field("end_date", "must be YYYY-MM-DD")
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &endOfDay
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return f, apperr.Field("end_date", "is before start_date")
	}
	return f, nil
}
