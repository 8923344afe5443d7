// Package roster manages schools, students and directory users.
package roster

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mwanacheck/internal/app/system/inputval"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
)

// Repository persists roster entities. Getters return apperr.NotFound for
// unknown ids; lists are ordered by folded name, then id. CreateUser
// returns apperr Conflict when the email is already used in the school.
type Repository interface {
	CreateSchool(ctx context.Context, s models.School) error
	GetSchool(ctx context.Context, id string) (models.School, error)

	CreateStudent(ctx context.Context, s models.Student) error
	GetStudent(ctx context.Context, id string) (models.Student, error)
	ListStudentsBySchool(ctx context.Context, schoolID string) ([]models.Student, error)

	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	ListUsersBySchool(ctx context.Context, schoolID string) ([]models.User, error)
}

// Service validates roster input.
type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

// New returns a roster Service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, log: logger, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

// SchoolInput is the payload for a new school.
type SchoolInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Type    string `json:"type" validate:"omitempty,oneof=primary secondary mixed"`
	Address string `json:"address" validate:"max=300"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=32"`
}

// StudentInput is the payload for a new student. DisciplinePoints is only
// for importing an existing balance; nil starts the student at 100.
type StudentInput struct {
	Name             string     `json:"name" validate:"required,max=200"`
	Email            string     `json:"email" validate:"omitempty,email"`
	Class            string     `json:"class" validate:"max=64"`
	Guardians        []string   `json:"guardians"`
	DisciplinePoints *int       `json:"discipline_points" validate:"omitempty,gte=0,lte=100"`
	FeeBalance       int64      `json:"fee_balance"`
	GPA              float64    `json:"gpa" validate:"gte=0,lte=4"`
	Status           string     `json:"status" validate:"omitempty,student_status"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
}

// UserInput is the payload for a new directory user.
type UserInput struct {
	Name       string     `json:"name" validate:"required,max=200"`
	Email      string     `json:"email" validate:"required,email"`
	Role       string     `json:"role" validate:"required,role"`
	Class      string     `json:"class" validate:"max=64"`
	Subject    string     `json:"subject" validate:"max=64"`
	Phone      string     `json:"phone" validate:"max=32"`
	Occupation string     `json:"occupation" validate:"max=64"`
	Address    string     `json:"address" validate:"max=300"`
	Status     string     `json:"status" validate:"omitempty,oneof=active inactive"`
	JoinDate   *time.Time `json:"join_date"`
	Children   []string   `json:"children"`
}

func clean(ps ...*string) {
	for _, p := range ps {
		*p = htmlsanitize.PlainText(*p)
	}
}

// CreateSchool registers a tenant.
func (s *Service) CreateSchool(ctx context.Context, in SchoolInput) (models.School, error) {
	clean(&in.Name, &in.Address, &in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	if err := inputval.Struct(in); err != nil {
		return models.School{}, err
	}
	now := s.now()
	sc := models.School{
		ID:        models.NewID(),
		Name:      in.Name,
		NameCI:    text.Fold(in.Name),
		Type:      in.Type,
		Address:   in.Address,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateSchool(ctx, sc); err != nil {
		return models.School{}, apperr.Wrap(err, "create school")
	}
	s.log.Info("school created", zap.String("school_id", sc.ID))
	return sc, nil
}

// GetSchool returns one school.
func (s *Service) GetSchool(ctx context.Context, id string) (models.School, error) {
	if id == "" {
		return models.School{}, apperr.NotFound("school")
	}
	return s.repo.GetSchool(ctx, id)
}

// CreateStudent enrols a student in a school.
func (s *Service) CreateStudent(ctx context.Context, schoolID string, in StudentInput) (models.Student, error) {
	if schoolID == "" {
		return models.Student{}, apperr.NotFound("school")
	}
	clean(&in.Name, &in.Class)
	in.Email = strings.TrimSpace(in.Email)
	if err := inputval.Struct(in); err != nil {
		return models.Student{}, err
	}
	if in.Status == "" {
		in.Status = models.StudentActive
	}

	now := s.now()
	st := models.Student{
		ID:          models.NewID(),
		SchoolID:    schoolID,
		Name:        in.Name,
		NameCI:      text.Fold(in.Name),
		Email:       in.Email,
		Class:       in.Class,
		Guardians:   in.Guardians,
		FeeBalance:  in.FeeBalance,
		GPA:         in.GPA,
		Status:      in.Status,
		DateOfBirth: in.DateOfBirth,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.DisciplinePoints != nil {
		p := *in.DisciplinePoints
		st.DisciplinePoints = &p
	}
	if err := s.repo.CreateStudent(ctx, st); err != nil {
		return models.Student{}, apperr.Wrap(err, "create student")
	}
	s.log.Info("student created", zap.String("student_id", st.ID), zap.String("school_id", schoolID))
	return st, nil
}

// GetStudent returns one student.
func (s *Service) GetStudent(ctx context.Context, id string) (models.Student, error) {
	if id == "" {
		return models.Student{}, apperr.NotFound("student")
	}
	return s.repo.GetStudent(ctx, id)
}

// GetStudentInSchool returns a student, treating one from another school
// as missing.
func (s *Service) GetStudentInSchool(ctx context.Context, schoolID, id string) (models.Student, error) {
	st, err := s.GetStudent(ctx, id)
	if err != nil {
		return models.Student{}, err
	}
	if st.SchoolID != schoolID {
		return models.Student{}, apperr.NotFound("student")
	}
	return st, nil
}

// StudentFilter narrows ListStudents. Empty fields match everything.
type StudentFilter struct {
	Class  string
	Status string
}

// ListStudents returns a school's students ordered by name.
func (s *Service) ListStudents(ctx context.Context, schoolID string, f StudentFilter) ([]models.Student, error) {
	all, err := s.repo.ListStudentsBySchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if f.Class == "" && f.Status == "" {
		return all, nil
	}
	out := all[:0:0]
	for _, st := range all {
		if f.Class != "" && st.Class != f.Class {
			continue
		}
		if f.Status != "" && st.Status != f.Status {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// CreateUser adds a staff member, parent or student account to the directory.
func (s *Service) CreateUser(ctx context.Context, schoolID string, in UserInput) (models.User, error) {
	if schoolID == "" {
		return models.User{}, apperr.NotFound("school")
	}
	clean(&in.Name, &in.Class, &in.Subject, &in.Phone, &in.Occupation, &in.Address)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := inputval.Struct(in); err != nil {
		return models.User{}, err
	}
	if in.Status == "" {
		in.Status = "active"
	}

	now := s.now()
	u := models.User{
		ID:         models.NewID(),
		SchoolID:   schoolID,
		Name:       in.Name,
		NameCI:     text.Fold(in.Name),
		Email:      in.Email,
		Role:       in.Role,
		Class:      in.Class,
		Subject:    in.Subject,
		Phone:      in.Phone,
		Occupation: in.Occupation,
		Address:    in.Address,
		Status:     in.Status,
		JoinDate:   in.JoinDate,
		Children:   in.Children,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return models.User{}, apperr.Wrap(err, "create user")
	}
	s.log.Info("user created", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

// ListUsers returns a school's directory users ordered by name.
func (s *Service) ListUsers(ctx context.Context, schoolID string) ([]models.User, error) {
	return s.repo.ListUsersBySchool(ctx, schoolID)
}
