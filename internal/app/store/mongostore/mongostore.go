// internal/app/store/mongostore/mongostore.go
package mongostore

import (
	"context"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	ledgerstore "github.com/dalemusser/mwanacheck/internal/app/store/ledger"
	offencestore "github.com/dalemusser/mwanacheck/internal/app/store/offences"
	schoolstore "github.com/dalemusser/mwanacheck/internal/app/store/schools"
	studentstore "github.com/dalemusser/mwanacheck/internal/app/store/students"
	userstore "github.com/dalemusser/mwanacheck/internal/app/store/users"
	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Backend bundles the per-collection stores behind the repository
// interfaces the services use.
type Backend struct {
	client *mongo.Client

	Schools  *schoolstore.Store
	Students *studentstore.Store
	Users    *userstore.Store
	Offences *offencestore.Store
	Ledger   *ledgerstore.Store
	Audit    *audit.Store
}

// New builds a Backend over db. client runs the ledger transactions.
func New(client *mongo.Client, db *mongo.Database) *Backend {
	return &Backend{
		client:   client,
		Schools:  schoolstore.New(db),
		Students: studentstore.New(db),
		Users:    userstore.New(db),
		Offences: offencestore.New(db),
		Ledger:   ledgerstore.New(client, db),
		Audit:    audit.New(db),
	}
}

// Ping checks the primary is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx, readpref.Primary())
}

func (b *Backend) CreateSchool(ctx context.Context, s models.School) error {
	return b.Schools.CreateSchool(ctx, s)
}

func (b *Backend) GetSchool(ctx context.Context, id string) (models.School, error) {
	return b.Schools.GetSchool(ctx, id)
}

func (b *Backend) CreateStudent(ctx context.Context, s models.Student) error {
	return b.Students.CreateStudent(ctx, s)
}

func (b *Backend) GetStudent(ctx context.Context, id string) (models.Student, error) {
	return b.Students.GetStudent(ctx, id)
}

func (b *Backend) ListStudentsBySchool(ctx context.Context, schoolID string) ([]models.Student, error) {
	return b.Students.ListStudentsBySchool(ctx, schoolID)
}

func (b *Backend) CreateUser(ctx context.Context, u models.User) error {
	return b.Users.CreateUser(ctx, u)
}

func (b *Backend) GetUser(ctx context.Context, id string) (models.User, error) {
	return b.Users.GetUser(ctx, id)
}

func (b *Backend) ListUsersBySchool(ctx context.Context, schoolID string) ([]models.User, error) {
	return b.Users.ListUsersBySchool(ctx, schoolID)
}

func (b *Backend) CreateOffence(ctx context.Context, o models.Offence) error {
	return b.Offences.CreateOffence(ctx, o)
}

func (b *Backend) GetOffence(ctx context.Context, id string) (models.Offence, error) {
	return b.Offences.GetOffence(ctx, id)
}

func (b *Backend) UpdateOffence(ctx context.Context, id string, u models.OffenceUpdate, at time.Time) (models.Offence, error) {
	return b.Offences.UpdateOffence(ctx, id, u, at)
}

func (b *Backend) DeleteOffence(ctx context.Context, id string) error {
	return b.Offences.DeleteOffence(ctx, id)
}

func (b *Backend) ListOffencesBySchool(ctx context.Context, schoolID string) ([]models.Offence, error) {
	return b.Offences.ListOffencesBySchool(ctx, schoolID)
}

func (b *Backend) WithTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return b.Ledger.WithTx(ctx, fn)
}

func (b *Backend) DisciplineHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.DisciplineRecord, error) {
	return b.Ledger.DisciplineHistory(ctx, studentID, before, limit)
}

func (b *Backend) MeritHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Merit, error) {
	return b.Ledger.MeritHistory(ctx, studentID, before, limit)
}

func (b *Backend) PaymentHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Payment, error) {
	return b.Ledger.PaymentHistory(ctx, studentID, before, limit)
}

func (b *Backend) SchoolStats(ctx context.Context, schoolID string) (models.SchoolStats, error) {
	return b.Ledger.SchoolStats(ctx, schoolID)
}
