// internal/app/store/memstore/memstore.go

// Package memstore keeps every collection in process memory. It backs
// development runs and the service tests. Ledger transactions are
// optimistic: a transaction records the version of each student it reads
// and commit fails with txn.ErrConflict if any of them changed.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/auditlog"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

type studentRow struct {
	v       models.Student
	version uint64
}

// Store is an in-memory implementation of every repository.
type Store struct {
	mu sync.RWMutex

	schools  map[string]models.School
	users    map[string]models.User
	students map[string]studentRow
	offences map[string]models.Offence

	records  []models.DisciplineRecord
	merits   []models.Merit
	payments []models.Payment
	audit    []audit.Event
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		schools:  make(map[string]models.School),
		users:    make(map[string]models.User),
		students: make(map[string]studentRow),
		offences: make(map[string]models.Offence),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func cloneStudent(st models.Student) models.Student {
	if st.DisciplinePoints != nil {
		p := *st.DisciplinePoints
		st.DisciplinePoints = &p
	}
	st.Guardians = slices.Clone(st.Guardians)
	return st
}

func byName[T any](rows []T, key func(T) (string, string)) {
	slices.SortFunc(rows, func(a, b T) int {
		an, aid := key(a)
		bn, bid := key(b)
		return cmp.Or(strings.Compare(an, bn), strings.Compare(aid, bid))
	})
}

// --- Schools ---

func (s *Store) CreateSchool(ctx context.Context, sc models.School) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schools[sc.ID]; ok {
		return apperr.Conflict("school already exists", nil)
	}
	s.schools[sc.ID] = sc
	return nil
}

func (s *Store) GetSchool(ctx context.Context, id string) (models.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schools[id]
	if !ok {
		return models.School{}, apperr.NotFound("school")
	}
	return sc, nil
}

// --- Students ---

func (s *Store) CreateStudent(ctx context.Context, st models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[st.ID]; ok {
		return apperr.Conflict("student already exists", nil)
	}
	s.students[st.ID] = studentRow{v: cloneStudent(st), version: 1}
	return nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.students[id]
	if !ok {
		return models.Student{}, apperr.NotFound("student")
	}
	return cloneStudent(row.v), nil
}

func (s *Store) ListStudentsBySchool(ctx context.Context, schoolID string) ([]models.Student, error) {
	s.mu.RLock()
	out := make([]models.Student, 0)
	for _, row := range s.students {
		if row.v.SchoolID == schoolID {
			out = append(out, cloneStudent(row.v))
		}
	}
	s.mu.RUnlock()
	byName(out, func(st models.Student) (string, string) { return st.NameCI, st.ID })
	return out, nil
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.SchoolID == u.SchoolID && existing.Email == u.Email {
			return apperr.Conflict("email already in use", nil)
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("user")
	}
	return u, nil
}

func (s *Store) ListUsersBySchool(ctx context.Context, schoolID string) ([]models.User, error) {
	s.mu.RLock()
	out := make([]models.User, 0)
	for _, u := range s.users {
		if u.SchoolID == schoolID {
			out = append(out, u)
		}
	}
	s.mu.RUnlock()
	byName(out, func(u models.User) (string, string) { return u.NameCI, u.ID })
	return out, nil
}

// --- Offences ---

func (s *Store) CreateOffence(ctx context.Context, o models.Offence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offences[o.ID]; ok {
		return apperr.Conflict("offence already exists", nil)
	}
	o.NameCI = text.Fold(o.Name)
	if s.offenceNameTaken(o.SchoolID, o.NameCI, o.ID) {
		return apperr.Conflict("offence name already in use", nil)
	}
	s.offences[o.ID] = o
	return nil
}

// offenceNameTaken reports whether another offence in the school has the
// folded name. Callers hold s.mu.
func (s *Store) offenceNameTaken(schoolID, nameCI, exceptID string) bool {
	for id, o := range s.offences {
		if id != exceptID && o.SchoolID == schoolID && o.NameCI == nameCI {
			return true
		}
	}
	return false
}

func (s *Store) GetOffence(ctx context.Context, id string) (models.Offence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offences[id]
	if !ok {
		return models.Offence{}, apperr.NotFound("offence")
	}
	return o, nil
}

func (s *Store) UpdateOffence(ctx context.Context, id string, u models.OffenceUpdate, at time.Time) (models.Offence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offences[id]
	if !ok {
		return models.Offence{}, apperr.NotFound("offence")
	}
	if u.Name != nil {
		nameCI := text.Fold(*u.Name)
		if s.offenceNameTaken(o.SchoolID, nameCI, id) {
			return models.Offence{}, apperr.Conflict("offence name already in use", nil)
		}
		o.Name = *u.Name
		o.NameCI = nameCI
	}
	if u.Description != nil {
		o.Description = *u.Description
	}
	if u.PointsToDeduct != nil {
		o.PointsToDeduct = *u.PointsToDeduct
	}
	o.UpdatedAt = at
	s.offences[id] = o
	return o, nil
}

func (s *Store) DeleteOffence(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offences[id]; !ok {
		return apperr.NotFound("offence")
	}
	delete(s.offences, id)
	return nil
}

func (s *Store) ListOffencesBySchool(ctx context.Context, schoolID string) ([]models.Offence, error) {
	s.mu.RLock()
	out := make([]models.Offence, 0)
	for _, o := range s.offences {
		if o.SchoolID == schoolID {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()
	byName(out, func(o models.Offence) (string, string) { return o.NameCI, o.ID })
	return out, nil
}

// --- Audit ---

type auditSink struct{ s *Store }

func (a auditSink) Log(ctx context.Context, e audit.Event) error {
	e.Normalize()
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.audit = append(a.s.audit, e)
	return nil
}

// AuditSink returns a sink that appends audit events to the store.
func (s *Store) AuditSink() auditlog.Sink {
	return auditSink{s: s}
}

// AuditEvents returns the stored audit events, oldest first.
func (s *Store) AuditEvents() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

func (s *Store) matchingAudit(schoolID string, f audit.QueryFilter) []audit.Event {
	var out []audit.Event
	for _, e := range s.audit {
		if e.SchoolID == schoolID && f.Matches(e) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b audit.Event) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

// QueryAudit returns a school's events matching f, newest first.
func (s *Store) QueryAudit(ctx context.Context, schoolID string, f audit.QueryFilter) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f.Limit <= 0 {
		f.Limit = audit.DefaultLimit
	}
	all := s.matchingAudit(schoolID, f)
	lo := min(int(max(f.Offset, 0)), len(all))
	hi := min(lo+int(f.Limit), len(all))
	return slices.Clone(all[lo:hi:hi]), ctx.Err()
}

// CountAudit counts a school's events matching f.
func (s *Store) CountAudit(ctx context.Context, schoolID string, f audit.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matchingAudit(schoolID, f))), ctx.Err()
}
