// internal/app/store/sqlstore/ledger.go
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/app/system/txn"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

var _ ledger.Store = (*Store)(nil)

// WithTx runs fn in a read-committed transaction. Student reads take a row
// lock, so concurrent issuances against one student queue behind each other.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	err := s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, sqlTx{tx: tx})
	})
	return mapErr(err, "row")
}

type sqlTx struct {
	tx bun.Tx
}

func (t sqlTx) Offence(ctx context.Context, id string) (models.Offence, error) {
	var row offenceRow
	if err := t.tx.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return models.Offence{}, mapErr(err, "offence")
	}
	return row.model(), nil
}

func (t sqlTx) Student(ctx context.Context, id string) (models.Student, error) {
	var row studentRow
	if err := t.tx.NewSelect().Model(&row).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
		return models.Student{}, mapErr(err, "student")
	}
	return row.model(), nil
}

func (t sqlTx) SetDisciplinePoints(ctx context.Context, studentID string, prev *int, next int, at time.Time) error {
	res, err := t.tx.NewUpdate().Model((*studentRow)(nil)).
		Set("discipline_points = ?", next).
		Set("updated_at = ?", at).
		Where("id = ?", studentID).
		Where("discipline_points IS NOT DISTINCT FROM ?", prev).
		Exec(ctx)
	return casResult(res, err, studentID)
}

func (t sqlTx) SetFeeBalance(ctx context.Context, studentID string, prev, next int64, at time.Time) error {
	res, err := t.tx.NewUpdate().Model((*studentRow)(nil)).
		Set("fee_balance = ?", next).
		Set("updated_at = ?", at).
		Where("id = ?", studentID).
		Where("fee_balance = ?", prev).
		Exec(ctx)
	return casResult(res, err, studentID)
}

func casResult(res sql.Result, err error, studentID string) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("student %s changed: %w", studentID, txn.ErrConflict)
	}
	return nil
}

func (t sqlTx) InsertDisciplineRecord(ctx context.Context, r models.DisciplineRecord) error {
	_, err := t.tx.NewInsert().Model(&disciplineRecordRow{
		ID: r.ID, SchoolID: r.SchoolID, StudentID: r.StudentID, TeacherID: r.TeacherID,
		TeacherName: r.TeacherName, OffenceID: r.OffenceID, OffenceName: r.OffenceName,
		OffenceDescription: r.OffenceDescription, PointsDeducted: r.PointsDeducted,
		PreviousPoints: r.PreviousPoints, NewPoints: r.NewPoints, CreatedAt: r.CreatedAt,
	}).Exec(ctx)
	return err
}

func (t sqlTx) InsertMerit(ctx context.Context, m models.Merit) error {
	_, err := t.tx.NewInsert().Model(&meritRow{
		ID: m.ID, SchoolID: m.SchoolID, StudentID: m.StudentID, Title: m.Title,
		Description: m.Description, Points: m.Points, AwardedBy: m.AwardedBy,
		AwardedByName: m.AwardedByName, PreviousPoints: m.PreviousPoints,
		NewPoints: m.NewPoints, CreatedAt: m.CreatedAt,
	}).Exec(ctx)
	return err
}

func (t sqlTx) InsertPayment(ctx context.Context, p models.Payment) error {
	_, err := t.tx.NewInsert().Model(&paymentRow{
		ID: p.ID, SchoolID: p.SchoolID, StudentID: p.StudentID, Amount: p.Amount,
		Method: p.Method, Reference: p.Reference, RecordedBy: p.RecordedBy,
		PreviousBalance: p.PreviousBalance, NewBalance: p.NewBalance, CreatedAt: p.CreatedAt,
	}).Exec(ctx)
	return err
}

// historyQuery selects a student's rows newest first, older than before.
func historyQuery(q *bun.SelectQuery, studentID string, before *paging.Cursor, limit int) *bun.SelectQuery {
	q = q.Where("student_id = ?", studentID)
	if before != nil {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("created_at < ?", before.CreatedAt).
				WhereOr(`(created_at = ? AND id COLLATE "C" < ?)`, before.CreatedAt, before.ID)
		})
	}
	return q.OrderExpr(`created_at DESC, id COLLATE "C" DESC`).Limit(limit)
}

func (s *Store) DisciplineHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.DisciplineRecord, error) {
	var rows []disciplineRecordRow
	if err := historyQuery(s.db.NewSelect().Model(&rows), studentID, before, limit).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]models.DisciplineRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) MeritHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Merit, error) {
	var rows []meritRow
	if err := historyQuery(s.db.NewSelect().Model(&rows), studentID, before, limit).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Merit, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) PaymentHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Payment, error) {
	var rows []paymentRow
	if err := historyQuery(s.db.NewSelect().Model(&rows), studentID, before, limit).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Payment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// SchoolStats counts a school's rows, one query per table in parallel.
func (s *Store) SchoolStats(ctx context.Context, schoolID string) (models.SchoolStats, error) {
	st := models.SchoolStats{SchoolID: schoolID}

	g, gctx := errgroup.WithContext(ctx)
	count := func(model any, dst *int64) {
		g.Go(func() error {
			n, err := s.db.NewSelect().Model(model).Where("school_id = ?", schoolID).Count(gctx)
			*dst = int64(n)
			return err
		})
	}
	count((*studentRow)(nil), &st.Students)
	count((*userRow)(nil), &st.Users)
	count((*meritRow)(nil), &st.Merits)
	count((*disciplineRecordRow)(nil), &st.DisciplineRecords)

	if err := g.Wait(); err != nil {
		return models.SchoolStats{}, err
	}
	return st, nil
}
