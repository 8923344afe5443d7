// Package directory turns a school's roster into search entries and runs
// directory searches over them.
package directory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/search"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source reads the roster of one school.
type Source interface {
	GetSchool(ctx context.Context, id string) (models.School, error)
	ListStudentsBySchool(ctx context.Context, schoolID string) ([]models.Student, error)
	ListUsersBySchool(ctx context.Context, schoolID string) ([]models.User, error)
}

// Service answers directory searches.
type Service struct {
	src      Source
	log      *zap.Logger
	pageSize int
}

// New returns a directory Service. pageSize is used when a request does not
// name one.
func New(src Source, pageSize int, logger *zap.Logger) *Service {
	if pageSize < 1 {
		pageSize = search.DefaultPageSize
	}
	return &Service{src: src, log: logger, pageSize: pageSize}
}

// Entries loads a school's directory: the school itself, its students and
// its users.
func (s *Service) Entries(ctx context.Context, schoolID string) ([]search.Entry, error) {
	if schoolID == "" {
		return nil, apperr.NotFound("school")
	}

	var (
		school   models.School
		students []models.Student
		users    []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		school, err = s.src.GetSchool(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		students, err = s.src.ListStudentsBySchool(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		users, err = s.src.ListUsersBySchool(gctx, schoolID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]search.Entry, 0, 1+len(students)+len(users))
	for _, st := range students {
		out = append(out, StudentEntry(st))
	}
	for _, u := range users {
		out = append(out, UserEntry(u))
	}
	out = append(out, SchoolEntry(school))
	return out, nil
}

// Search runs opts over the school's directory.
func (s *Service) Search(ctx context.Context, schoolID string, opts search.Options) (search.Page, error) {
	entries, err := s.Entries(ctx, schoolID)
	if err != nil {
		return search.Page{}, err
	}
	if opts.PageSize < 1 {
		opts.PageSize = s.pageSize
	}
	page := search.Run(entries, opts)
	s.log.Debug("directory search",
		zap.String("school_id", schoolID),
		zap.Int("terms", len(search.Terms(opts.Query))),
		zap.Int("total", page.Total))
	return page, nil
}

// Suggest returns up to n completions for q.
func (s *Service) Suggest(ctx context.Context, schoolID, q string, n int) ([]string, error) {
	if len([]rune(q)) < search.MinSuggestLen {
		return []string{}, nil
	}
	entries, err := s.Entries(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	return search.Suggest(entries, q, n), nil
}

// StudentEntry builds the directory entry for a student.
func StudentEntry(st models.Student) search.Entry {
	gpa := st.GPA
	pts := st.Points()
	return search.Entry{
		ID:               st.ID,
		Type:             search.TypeStudent,
		Name:             st.Name,
		Email:            st.Email,
		Class:            st.Class,
		Status:           st.Status,
		GPA:              &gpa,
		DisciplinePoints: &pts,
		DateOfBirth:      st.DateOfBirth,
		Title:            st.Name,
		Subtitle:         fmt.Sprintf("Student ID: %s | Class: %s", st.ID, st.Class),
		Description:      fmt.Sprintf("GPA: %s | Discipline: %d/100", strconv.FormatFloat(gpa, 'f', -1, 64), pts),
	}
}

// UserEntry builds the directory entry for a user. Teachers and parents get
// their own entry types; every other role is listed as a user.
func UserEntry(u models.User) search.Entry {
	e := search.Entry{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Class:      u.Class,
		Subject:    u.Subject,
		Phone:      u.Phone,
		Address:    u.Address,
		Occupation: u.Occupation,
		Status:     u.Status,
		JoinDate:   u.JoinDate,
		Title:      u.Name,
	}
	switch u.Role {
	case models.RoleTeacher:
		e.Type = search.TypeTeacher
		e.Subtitle = fmt.Sprintf("%s Teacher | Class: %s", u.Subject, u.Class)
		e.Description = fmt.Sprintf("Email: %s | Phone: %s", u.Email, u.Phone)
	case models.RoleParent:
		e.Type = search.TypeParent
		e.Subtitle = "Parent | " + u.Occupation
		e.Description = fmt.Sprintf("Email: %s | Phone: %s | Address: %s", u.Email, u.Phone, u.Address)
	default:
		e.Type = search.TypeUser
		e.Subtitle = "User | " + u.Role
		e.Description = "Email: " + u.Email
	}
	return e
}

// SchoolEntry builds the directory entry for the school itself.
func SchoolEntry(sc models.School) search.Entry {
	return search.Entry{
		ID:          sc.ID,
		Type:        search.TypeSchool,
		Name:        sc.Name,
		Email:       sc.Email,
		Phone:       sc.Phone,
		Address:     sc.Address,
		Title:       sc.Name,
		Subtitle:    "School | " + sc.Type,
		Description: fmt.Sprintf("Address: %s | Contact: %s", sc.Address, sc.Email),
	}
}
