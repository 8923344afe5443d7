// internal/app/store/sqlstore/audit.go
package sqlstore

import (
	"context"

	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	"github.com/uptrace/bun"
)

// Log writes an audit event, making the store an auditlog sink.
func (s *Store) Log(ctx context.Context, e audit.Event) error {
	e.Normalize()
	_, err := s.db.NewInsert().Model(auditToRow(e)).Exec(ctx)
	return err
}

func auditWhere(q *bun.SelectQuery, schoolID string, f audit.QueryFilter) *bun.SelectQuery {
	q = q.Where("school_id = ?", schoolID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.SubjectID != "" {
		q = q.Where("subject_id = ?", f.SubjectID)
	}
	if f.StartTime != nil {
		q = q.Where(`"timestamp" >= ?`, f.StartTime.UTC())
	}
	if f.EndTime != nil {
		q = q.Where(`"timestamp" <= ?`, f.EndTime.UTC())
	}
	return q
}

// QueryAudit returns a school's events matching f, newest first.
func (s *Store) QueryAudit(ctx context.Context, schoolID string, f audit.QueryFilter) ([]audit.Event, error) {
	if f.Limit <= 0 {
		f.Limit = audit.DefaultLimit
	}
	var rows []auditRow
	err := auditWhere(s.db.NewSelect().Model(&rows), schoolID, f).
		OrderExpr(`"timestamp" DESC, id COLLATE "C" DESC`).
		Limit(int(f.Limit)).
		Offset(int(f.Offset)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]audit.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// CountAudit counts a school's events matching f.
func (s *Store) CountAudit(ctx context.Context, schoolID string, f audit.QueryFilter) (int64, error) {
	n, err := auditWhere(s.db.NewSelect().Model((*auditRow)(nil)), schoolID, f).Count(ctx)
	return int64(n), err
}
