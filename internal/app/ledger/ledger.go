// Package ledger applies discipline deductions, merit awards and fee
// payments to student balances. Every change writes the new balance and an
// immutable history row in one transaction.
package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/auditlog"
	"github.com/dalemusser/mwanacheck/internal/app/system/events"
	"github.com/dalemusser/mwanacheck/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mwanacheck/internal/app/system/inputval"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"github.com/dalemusser/mwanacheck/internal/app/system/txn"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the optimistic retry loop.
const DefaultMaxAttempts = 5

// Publisher receives events after a commit.
type Publisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// Config tunes the ledger.
type Config struct {
	MaxAttempts int           // conflicts retried up to this many runs
	Timeout     time.Duration // bound on a whole call; timeouts.Ledger() when zero
	Events      Publisher     // optional
	Audit       *auditlog.Logger
}

// Service runs ledger transactions.
type Service struct {
	store       Store
	events      Publisher
	audit       *auditlog.Logger
	log         *zap.Logger
	maxAttempts int
	timeout     time.Duration
	now         func() time.Time
}

// New returns a ledger Service.
func New(store Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Service{
		store:       store,
		events:      cfg.Events,
		audit:       cfg.Audit,
		log:         logger,
		maxAttempts: cfg.MaxAttempts,
		timeout:     cfg.Timeout,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// IssueRequest asks for an offence to be recorded against a student.
type IssueRequest struct {
	SchoolID    string `json:"school_id" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	OffenceID   string `json:"offence_id" validate:"required"`
	TeacherID   string `json:"teacher_id" validate:"required"`
	TeacherName string `json:"teacher_name"`
	TeacherRole string `json:"teacher_role"`
}

// MeritRequest asks for discipline points to be restored.
type MeritRequest struct {
	SchoolID      string `json:"school_id" validate:"required"`
	StudentID     string `json:"student_id" validate:"required"`
	Title         string `json:"title" validate:"required,max=120"`
	Description   string `json:"description" validate:"max=500"`
	Points        int    `json:"points" validate:"gte=1,lte=100"`
	AwardedBy     string `json:"awarded_by" validate:"required"`
	AwardedByName string `json:"awarded_by_name"`
	AwardedByRole string `json:"awarded_by_role"`
}

// PaymentRequest records a fee payment.
type PaymentRequest struct {
	SchoolID       string `json:"school_id" validate:"required"`
	StudentID      string `json:"student_id" validate:"required"`
	Amount         int64  `json:"amount" validate:"gt=0"`
	Method         string `json:"method" validate:"required,payment_method"`
	Reference      string `json:"reference" validate:"max=64"`
	RecordedBy     string `json:"recorded_by" validate:"required"`
	RecordedByName string `json:"recorded_by_name"`
	RecordedByRole string `json:"recorded_by_role"`
}

func (s *Service) bound(ctx context.Context, op string) (context.Context, context.CancelFunc) {
	d := s.timeout
	if d <= 0 {
		d = timeouts.Ledger()
	}
	return timeouts.WithTimeout(ctx, d, s.log, op)
}

// run executes fn in a store transaction, retrying on write conflicts.
func (s *Service) run(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return txn.Retry(ctx, s.maxAttempts, func(ctx context.Context) error {
		return s.store.WithTx(ctx, fn)
	})
}

// loadStudent reads a student, treating one from another school as missing.
func loadStudent(ctx context.Context, tx Tx, id, schoolID string) (models.Student, error) {
	st, err := tx.Student(ctx, id)
	if err != nil {
		return models.Student{}, err
	}
	if st.SchoolID != schoolID {
		return models.Student{}, apperr.NotFound("student")
	}
	return st, nil
}

// IssueDisciplineRecord deducts an offence's points from a student, never
// going below zero, and writes the matching discipline record. The record
// copies the offence's name, description and points.
func (s *Service) IssueDisciplineRecord(ctx context.Context, req IssueRequest) (models.DisciplineRecord, error) {
	if err := inputval.Struct(req); err != nil {
		return models.DisciplineRecord{}, err
	}
	ctx, cancel := s.bound(ctx, "issue discipline record")
	defer cancel()

	var rec models.DisciplineRecord
	err := s.run(ctx, func(ctx context.Context, tx Tx) error {
		off, err := tx.Offence(ctx, req.OffenceID)
		if err != nil {
			return err
		}
		if off.SchoolID != req.SchoolID {
			return apperr.NotFound("offence")
		}
		st, err := loadStudent(ctx, tx, req.StudentID, req.SchoolID)
		if err != nil {
			return err
		}

		prev := st.Points()
		next := max(models.MinDisciplinePoints, prev-off.PointsToDeduct)
		now := s.now()

		rec = models.DisciplineRecord{
			ID:                 models.NewID(),
			SchoolID:           req.SchoolID,
			StudentID:          st.ID,
			TeacherID:          req.TeacherID,
			TeacherName:        req.TeacherName,
			OffenceID:          off.ID,
			OffenceName:        off.Name,
			OffenceDescription: off.Description,
			PointsDeducted:     off.PointsToDeduct,
			PreviousPoints:     prev,
			NewPoints:          next,
			CreatedAt:          now,
		}
		if err := tx.SetDisciplinePoints(ctx, st.ID, st.DisciplinePoints, next, now); err != nil {
			return err
		}
		return tx.InsertDisciplineRecord(ctx, rec)
	})
	if err != nil {
		s.logFailure("issue discipline record failed", err,
			zap.String("student_id", req.StudentID), zap.String("offence_id", req.OffenceID))
		return models.DisciplineRecord{}, err
	}

	s.log.Info("discipline record issued",
		zap.String("record_id", rec.ID),
		zap.String("student_id", rec.StudentID),
		zap.Int("previous_points", rec.PreviousPoints),
		zap.Int("new_points", rec.NewPoints))

	actor := models.Actor{ID: req.TeacherID, Name: req.TeacherName, Role: req.TeacherRole, SchoolID: req.SchoolID}
	s.afterCommit(ctx, events.New(events.DisciplineIssued, rec.SchoolID, rec.StudentID, rec.TeacherID, rec.CreatedAt, rec))
	s.audit.DisciplineIssued(context.WithoutCancel(ctx), actor, rec)
	return rec, nil
}

// AwardMerit adds a merit's points to a student, never going above 100,
// and writes the merit.
func (s *Service) AwardMerit(ctx context.Context, req MeritRequest) (models.Merit, error) {
	req.Title = htmlsanitize.PlainText(req.Title)
	req.Description = htmlsanitize.PlainText(req.Description)
	if err := inputval.Struct(req); err != nil {
		return models.Merit{}, err
	}
	ctx, cancel := s.bound(ctx, "award merit")
	defer cancel()

	var m models.Merit
	err := s.run(ctx, func(ctx context.Context, tx Tx) error {
		st, err := loadStudent(ctx, tx, req.StudentID, req.SchoolID)
		if err != nil {
			return err
		}

		prev := st.Points()
		next := min(models.MaxDisciplinePoints, prev+req.Points)
		now := s.now()

		m = models.Merit{
			ID:             models.NewID(),
			SchoolID:       req.SchoolID,
			StudentID:      st.ID,
			Title:          req.Title,
			Description:    req.Description,
			Points:         req.Points,
			AwardedBy:      req.AwardedBy,
			AwardedByName:  req.AwardedByName,
			PreviousPoints: prev,
			NewPoints:      next,
			CreatedAt:      now,
		}
		if err := tx.SetDisciplinePoints(ctx, st.ID, st.DisciplinePoints, next, now); err != nil {
			return err
		}
		return tx.InsertMerit(ctx, m)
	})
	if err != nil {
		s.logFailure("award merit failed", err, zap.String("student_id", req.StudentID))
		return models.Merit{}, err
	}

	s.log.Info("merit awarded",
		zap.String("merit_id", m.ID),
		zap.String("student_id", m.StudentID),
		zap.Int("new_points", m.NewPoints))

	actor := models.Actor{ID: req.AwardedBy, Name: req.AwardedByName, Role: req.AwardedByRole, SchoolID: req.SchoolID}
	s.afterCommit(ctx, events.New(events.MeritAwarded, m.SchoolID, m.StudentID, m.AwardedBy, m.CreatedAt, m))
	s.audit.MeritAwarded(context.WithoutCancel(ctx), actor, m)
	return m, nil
}

// RecordPayment subtracts a payment from a student's fee balance and
// writes the payment. The balance may go negative, which is a credit.
func (s *Service) RecordPayment(ctx context.Context, req PaymentRequest) (models.Payment, error) {
	req.Reference = htmlsanitize.PlainText(req.Reference)
	if err := inputval.Struct(req); err != nil {
		return models.Payment{}, err
	}
	ctx, cancel := s.bound(ctx, "record payment")
	defer cancel()

	var p models.Payment
	err := s.run(ctx, func(ctx context.Context, tx Tx) error {
		st, err := loadStudent(ctx, tx, req.StudentID, req.SchoolID)
		if err != nil {
			return err
		}

		prev := st.FeeBalance
		next := prev - req.Amount
		now := s.now()

		p = models.Payment{
			ID:              models.NewID(),
			SchoolID:        req.SchoolID,
			StudentID:       st.ID,
			Amount:          req.Amount,
			Method:          req.Method,
			Reference:       req.Reference,
			RecordedBy:      req.RecordedBy,
			PreviousBalance: prev,
			NewBalance:      next,
			CreatedAt:       now,
		}
		if err := tx.SetFeeBalance(ctx, st.ID, prev, next, now); err != nil {
			return err
		}
		return tx.InsertPayment(ctx, p)
	})
	if err != nil {
		s.logFailure("record payment failed", err, zap.String("student_id", req.StudentID))
		return models.Payment{}, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", p.ID),
		zap.String("student_id", p.StudentID),
		zap.String("amount", strconv.FormatInt(p.Amount, 10)))

	actor := models.Actor{ID: req.RecordedBy, Name: req.RecordedByName, Role: req.RecordedByRole, SchoolID: req.SchoolID}
	s.afterCommit(ctx, events.New(events.PaymentRecorded, p.SchoolID, p.StudentID, p.RecordedBy, p.CreatedAt, p))
	s.audit.PaymentRecorded(context.WithoutCancel(ctx), actor, p)
	return p, nil
}

// SchoolStats returns headline counts for a school.
func (s *Service) SchoolStats(ctx context.Context, schoolID string) (models.SchoolStats, error) {
	if schoolID == "" {
		return models.SchoolStats{}, apperr.NotFound("school")
	}
	st, err := s.store.SchoolStats(ctx, schoolID)
	if err != nil {
		return models.SchoolStats{}, err
	}
	st.SchoolID = schoolID
	return st, nil
}

// afterCommit publishes evt. Failures are logged; the write already happened.
func (s *Service) afterCommit(ctx context.Context, evt events.Event) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn("event publish failed",
			zap.Error(err),
			zap.String("event_type", evt.Type),
			zap.String("event_id", evt.ID))
	}
}

func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindForbidden:
		return
	case apperr.KindConflict, apperr.KindUnavailable:
		s.log.Warn(msg, append(fields, zap.Error(err))...)
	default:
		s.log.Error(msg, append(fields, zap.Error(err))...)
	}
}
