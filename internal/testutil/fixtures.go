package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Seeder is the write side every store backend offers.
type Seeder interface {
	CreateSchool(ctx context.Context, s models.School) error
	CreateStudent(ctx context.Context, s models.Student) error
	CreateUser(ctx context.Context, u models.User) error
	CreateOffence(ctx context.Context, o models.Offence) error
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	t    *testing.T
	repo Seeder
}

// NewFixtures creates a Fixtures writing through repo.
func NewFixtures(t *testing.T, repo Seeder) *Fixtures {
	t.Helper()
	return &Fixtures{t: t, repo: repo}
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// CreateSchool creates a school with the given name.
func (f *Fixtures) CreateSchool(ctx context.Context, name string) models.School {
	f.t.Helper()
	ts := now()
	s := models.School{
		ID:        models.NewID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Type:      "secondary",
		Address:   "Nairobi",
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := f.repo.CreateSchool(ctx, s); err != nil {
		f.t.Fatalf("failed to create test school: %v", err)
	}
	return s
}

// CreateStudent creates an active student. A nil points leaves the
// balance unset, which reads as the default of 100.
func (f *Fixtures) CreateStudent(ctx context.Context, schoolID, name string, points *int) models.Student {
	f.t.Helper()
	ts := now()
	s := models.Student{
		ID:               models.NewID(),
		SchoolID:         schoolID,
		Name:             name,
		NameCI:           text.Fold(name),
		Class:            "Form 4A",
		DisciplinePoints: points,
		GPA:              3.2,
		Status:           models.StudentActive,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	if err := f.repo.CreateStudent(ctx, s); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return s
}

// CreateStudentWithFees creates a student owing balance.
func (f *Fixtures) CreateStudentWithFees(ctx context.Context, schoolID, name string, balance int64) models.Student {
	f.t.Helper()
	ts := now()
	s := models.Student{
		ID:         models.NewID(),
		SchoolID:   schoolID,
		Name:       name,
		NameCI:     text.Fold(name),
		FeeBalance: balance,
		Status:     models.StudentActive,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := f.repo.CreateStudent(ctx, s); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return s
}

// CreateStudentWithGuardian creates a student owing balance whose guardian
// is parentID.
func (f *Fixtures) CreateStudentWithGuardian(ctx context.Context, schoolID, name, parentID string, balance int64) models.Student {
	f.t.Helper()
	ts := now()
	s := models.Student{
		ID:         models.NewID(),
		SchoolID:   schoolID,
		Name:       name,
		NameCI:     text.Fold(name),
		Class:      "Form 2B",
		Guardians:  []string{parentID},
		FeeBalance: balance,
		Status:     models.StudentActive,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := f.repo.CreateStudent(ctx, s); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return s
}

// CreateUser creates a directory user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, schoolID, name, email, role string) models.User {
	f.t.Helper()
	ts := now()
	u := models.User{
		ID:        models.NewID(),
		SchoolID:  schoolID,
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		Role:      role,
		Status:    "active",
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := f.repo.CreateUser(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateOffence creates an offence deducting points.
func (f *Fixtures) CreateOffence(ctx context.Context, schoolID, name string, points int) models.Offence {
	f.t.Helper()
	ts := now()
	o := models.Offence{
		ID:             models.NewID(),
		SchoolID:       schoolID,
		Name:           name,
		NameCI:         text.Fold(name),
		Description:    name + " (test)",
		PointsToDeduct: points,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := f.repo.CreateOffence(ctx, o); err != nil {
		f.t.Fatalf("failed to create test offence: %v", err)
	}
	return o
}

// IntPtr returns &v.
func IntPtr(v int) *int { return &v }
