// Package catalog manages each school's offence catalog.
package catalog

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

// Repository persists offences. Get, update and delete return
// apperr.NotFound("offence") for unknown ids. Lists are ordered by folded
// name, then id.
type Repository interface {
	CreateOffence(ctx context.Context, o models.Offence) error
	GetOffence(ctx context.Context, id string) (models.Offence, error)
	UpdateOffence(ctx context.Context, id string, u models.OffenceUpdate, at time.Time) (models.Offence, error)
	DeleteOffence(ctx context.Context, id string) error
	ListOffencesBySchool(ctx context.Context, schoolID string) ([]models.Offence, error)
}

// Service validates and stores offences.
type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

// New returns a catalog Service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, log: logger, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

// offenceFields mirrors the validated subset of an offence.
type offenceFields struct {
	SchoolID       string `json:"school_id" validate:"required"`
	Name           string `json:"name" validate:"required,max=120"`
	Description    string `json:"description" validate:"required,max=500"`
	PointsToDeduct int    `json:"points_to_deduct" validate:"gte=1,lte=100"`
}

// CreateOffence adds an offence to a school's catalog. Name and description
// are stripped of markup and must be non-empty; points must be 1 to 100.
func (s *Service) CreateOffence(ctx context.Context, schoolID, name, description string, pointsToDeduct int) (models.Offence, error) {
	f := offenceFields{
		SchoolID:       strings.TrimSpace(schoolID),
		Name:           htmlsanitize.PlainText(name),
		Description:    htmlsanitize.PlainText(description),
		PointsToDeduct: pointsToDeduct,
	}
	if err := inputval.Struct(f); err != nil {
		return models.Offence{}, err
	}

	now := s.now()
	o := models.Offence{
		ID:             models.NewID(),
		SchoolID:       f.SchoolID,
		Name:           f.Name,
		NameCI:         text.Fold(f.Name),
		Description:    f.Description,
		PointsToDeduct: f.PointsToDeduct,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateOffence(ctx, o); err != nil {
		return models.Offence{}, apperr.Wrap(err, "create offence")
	}
	s.log.Info("offence created",
		zap.String("offence_id", o.ID),
		zap.String("school_id", o.SchoolID),
		zap.Int("points", o.PointsToDeduct))
	return o, nil
}

// GetOffence returns one offence.
func (s *Service) GetOffence(ctx context.Context, id string) (models.Offence, error) {
	if strings.TrimSpace(id) == "" {
		return models.Offence{}, apperr.NotFound("offence")
	}
	return s.repo.GetOffence(ctx, id)
}

// UpdateOffence applies the non-nil fields of u, with the same rules as
// CreateOffence for each supplied field.
func (s *Service) UpdateOffence(ctx context.Context, id string, u models.OffenceUpdate) (models.Offence, error) {
	if strings.TrimSpace(id) == "" {
		return models.Offence{}, apperr.NotFound("offence")
	}
	if u.Empty() {
		return models.Offence{}, apperr.Validation("no fields to update")
	}

	u.Name = htmlsanitize.PlainTextPtr(u.Name)
	u.Description = htmlsanitize.PlainTextPtr(u.Description)

	var fields []apperr.FieldError
	if u.Name != nil && (*u.Name == "" || len(*u.Name) > 120) {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "must be 1 to 120 characters"})
	}
	if u.Description != nil && (*u.Description == "" || len(*u.Description) > 500) {
		fields = append(fields, apperr.FieldError{Field: "description", Message: "must be 1 to 500 characters"})
	}
	if u.PointsToDeduct != nil && (*u.PointsToDeduct < models.MinOffencePoints || *u.PointsToDeduct > models.MaxOffencePoints) {
		fields = append(fields, apperr.FieldError{Field: "points_to_deduct", Message: "must be between 1 and 100"})
	}
	if len(fields) > 0 {
		return models.Offence{}, apperr.Validation("invalid offence update", fields...)
	}

	o, err := s.repo.UpdateOffence(ctx, id, u, s.now())
	if err != nil {
		return models.Offence{}, err
	}
	s.log.Info("offence updated", zap.String("offence_id", id))
	return o, nil
}

// DeleteOffence removes an offence. Discipline records keep their copies
// of its name, description and points.
func (s *Service) DeleteOffence(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.NotFound("offence")
	}
	if err := s.repo.DeleteOffence(ctx, id); err != nil {
		return err
	}
	s.log.Info("offence deleted", zap.String("offence_id", id))
	return nil
}

// ListOffencesBySchool returns a school's offences ordered by name.
func (s *Service) ListOffencesBySchool(ctx context.Context, schoolID string) ([]models.Offence, error) {
	return s.repo.ListOffencesBySchool(ctx, schoolID)
}
