// internal/app/ledger/history.go
package ledger

import (
	"context"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
)

// HistoryPage is one newest-first page of a student's ledger rows.
type HistoryPage[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

func page[T any](ctx context.Context, fetch func(context.Context, string, *paging.Cursor, int) ([]T, error), key func(T) (time.Time, string), studentID, cursor string, limit int) (HistoryPage[T], error) {
	if studentID == "" {
		return HistoryPage[T]{}, apperr.NotFound("student")
	}
	var before *paging.Cursor
	if cursor != "" {
		c, ok := paging.DecodeCursor(cursor)
		if !ok {
			return HistoryPage[T]{}, apperr.Field("cursor", "is invalid")
		}
		before = &c
	}
	limit = paging.ClampLimit(limit)

	rows, err := fetch(ctx, studentID, before, limit+1)
	if err != nil {
		return HistoryPage[T]{}, err
	}
	hasMore := paging.TrimPage(&rows, limit)
	if rows == nil {
		rows = []T{}
	}
	out := HistoryPage[T]{Items: rows, HasMore: hasMore}
	if out.HasMore && len(rows) > 0 {
		at, id := key(rows[len(rows)-1])
		out.NextCursor = paging.EncodeCursor(at, id)
	}
	return out, nil
}

// History returns a student's discipline records, newest first. A blank
// cursor starts at the newest record; limit defaults to 10 and is capped at 50.
func (s *Service) History(ctx context.Context, studentID, cursor string, limit int) (HistoryPage[models.DisciplineRecord], error) {
	return page(ctx, s.store.DisciplineHistory,
		func(r models.DisciplineRecord) (time.Time, string) { return r.CreatedAt, r.ID },
		studentID, cursor, limit)
}

// MeritsByStudent returns a student's merits, newest first.
func (s *Service) MeritsByStudent(ctx context.Context, studentID, cursor string, limit int) (HistoryPage[models.Merit], error) {
	return page(ctx, s.store.MeritHistory,
		func(m models.Merit) (time.Time, string) { return m.CreatedAt, m.ID },
		studentID, cursor, limit)
}

// PaymentsByStudent returns a student's payments, newest first.
func (s *Service) PaymentsByStudent(ctx context.Context, studentID, cursor string, limit int) (HistoryPage[models.Payment], error) {
	return page(ctx, s.store.PaymentHistory,
		func(p models.Payment) (time.Time, string) { return p.CreatedAt, p.ID },
		studentID, cursor, limit)
}
