// internal/app/store/memstore/ledger.go
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/app/system/txn"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
)

type memTx struct {
	s *Store

	read     map[string]uint64 // student id -> version seen
	students map[string]models.Student
	dirty    map[string]bool

	records  []models.DisciplineRecord
	merits   []models.Merit
	payments []models.Payment
}

// WithTx runs fn against a private view of the store and applies its
// writes atomically. Nothing is applied if fn fails, ctx is done, or a
// student fn read was changed by another transaction in the meantime.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tx := &memTx{
		s:        s,
		read:     make(map[string]uint64),
		students: make(map[string]models.Student),
		dirty:    make(map[string]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

func (t *memTx) commit(ctx context.Context) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	for id, v := range t.read {
		if t.s.students[id].version != v {
			return fmt.Errorf("student %s changed: %w", id, txn.ErrConflict)
		}
	}
	for id := range t.dirty {
		row := t.s.students[id]
		t.s.students[id] = studentRow{v: t.students[id], version: row.version + 1}
	}
	t.s.records = append(t.s.records, t.records...)
	t.s.merits = append(t.s.merits, t.merits...)
	t.s.payments = append(t.s.payments, t.payments...)
	return nil
}

func (t *memTx) Offence(ctx context.Context, id string) (models.Offence, error) {
	return t.s.GetOffence(ctx, id)
}

func (t *memTx) Student(ctx context.Context, id string) (models.Student, error) {
	if st, ok := t.students[id]; ok {
		return cloneStudent(st), nil
	}
	t.s.mu.RLock()
	row, ok := t.s.students[id]
	t.s.mu.RUnlock()
	if !ok {
		return models.Student{}, apperr.NotFound("student")
	}
	t.read[id] = row.version
	t.students[id] = cloneStudent(row.v)
	return cloneStudent(row.v), nil
}

func samePoints(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (t *memTx) SetDisciplinePoints(ctx context.Context, studentID string, prev *int, next int, at time.Time) error {
	st, err := t.Student(ctx, studentID)
	if err != nil {
		return err
	}
	if !samePoints(st.DisciplinePoints, prev) {
		return fmt.Errorf("discipline points of %s moved: %w", studentID, txn.ErrConflict)
	}
	st.DisciplinePoints = &next
	st.UpdatedAt = at
	t.students[studentID] = st
	t.dirty[studentID] = true
	return nil
}

func (t *memTx) SetFeeBalance(ctx context.Context, studentID string, prev, next int64, at time.Time) error {
	st, err := t.Student(ctx, studentID)
	if err != nil {
		return err
	}
	if st.FeeBalance != prev {
		return fmt.Errorf("fee balance of %s moved: %w", studentID, txn.ErrConflict)
	}
	st.FeeBalance = next
	st.UpdatedAt = at
	t.students[studentID] = st
	t.dirty[studentID] = true
	return nil
}

func (t *memTx) InsertDisciplineRecord(ctx context.Context, rec models.DisciplineRecord) error {
	t.records = append(t.records, rec)
	return nil
}

func (t *memTx) InsertMerit(ctx context.Context, m models.Merit) error {
	t.merits = append(t.merits, m)
	return nil
}

func (t *memTx) InsertPayment(ctx context.Context, p models.Payment) error {
	t.payments = append(t.payments, p)
	return nil
}

// --- History ---

func history[T any](rows []T, key func(T) (string, time.Time, string), studentID string, before *paging.Cursor, limit int) []T {
	out := make([]T, 0)
	for _, r := range rows {
		sid, at, id := key(r)
		if sid != studentID {
			continue
		}
		if before != nil && !before.Before(at, id) {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b T) int {
		_, at, aid := key(a)
		_, bt, bid := key(b)
		return cmp.Or(bt.Compare(at), strings.Compare(bid, aid))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) DisciplineHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.DisciplineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return history(s.records, func(r models.DisciplineRecord) (string, time.Time, string) {
		return r.StudentID, r.CreatedAt, r.ID
	}, studentID, before, limit), nil
}

func (s *Store) MeritHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Merit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return history(s.merits, func(m models.Merit) (string, time.Time, string) {
		return m.StudentID, m.CreatedAt, m.ID
	}, studentID, before, limit), nil
}

func (s *Store) PaymentHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return history(s.payments, func(p models.Payment) (string, time.Time, string) {
		return p.StudentID, p.CreatedAt, p.ID
	}, studentID, before, limit), nil
}

// SchoolStats counts a school's rows.
func (s *Store) SchoolStats(ctx context.Context, schoolID string) (models.SchoolStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := models.SchoolStats{SchoolID: schoolID}
	for _, row := range s.students {
		if row.v.SchoolID == schoolID {
			st.Students++
		}
	}
	for _, u := range s.users {
		if u.SchoolID == schoolID {
			st.Users++
		}
	}
	for _, m := range s.merits {
		if m.SchoolID == schoolID {
			st.Merits++
		}
	}
	for _, r := range s.records {
		if r.SchoolID == schoolID {
			st.DisciplineRecords++
		}
	}
	return st, nil
}

var _ ledger.Store = (*Store)(nil)
