// internal/app/ledger/store.go
package ledger

import (
	"context"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
)

// Tx is the view of the store inside one transaction. Reads see a
// consistent snapshot; writes become visible together on commit or not
// at all.
//
// Offence and Student return apperr.NotFound for unknown ids.
type Tx interface {
	Offence(ctx context.Context, id string) (models.Offence, error)
	Student(ctx context.Context, id string) (models.Student, error)

	// SetDisciplinePoints writes next only if the stored balance still
	// equals prev (nil meaning no balance stored). A mismatch returns an
	// error wrapping txn.ErrConflict.
	SetDisciplinePoints(ctx context.Context, studentID string, prev *int, next int, at time.Time) error
	// SetFeeBalance is the fee balance counterpart of SetDisciplinePoints.
	SetFeeBalance(ctx context.Context, studentID string, prev, next int64, at time.Time) error

	InsertDisciplineRecord(ctx context.Context, rec models.DisciplineRecord) error
	InsertMerit(ctx context.Context, m models.Merit) error
	InsertPayment(ctx context.Context, p models.Payment) error
}

// Store is the persistence the ledger needs. WithTx is the only path that
// may change a student's discipline points or fee balance.
//
// History reads return rows newest first in (created_at, id) order, strictly
// older than before when before is non-nil, at most limit rows.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	DisciplineHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.DisciplineRecord, error)
	MeritHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Merit, error)
	PaymentHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Payment, error)

	SchoolStats(ctx context.Context, schoolID string) (models.SchoolStats, error)
}
