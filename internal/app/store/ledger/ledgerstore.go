// internal/app/store/ledger/ledgerstore.go
package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/app/system/txn"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// Collection names.
const (
	DisciplineRecords = "discipline_records"
	Merits            = "merits"
	Payments          = "payments"
)

// Store is the MongoDB ledger. Balance changes and ledger inserts run in
// one multi-document transaction, so the deployment must be a replica set.
type Store struct {
	client   *mongo.Client
	students *mongo.Collection
	offences *mongo.Collection
	users    *mongo.Collection
	records  *mongo.Collection
	merits   *mongo.Collection
	payments *mongo.Collection
}

func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:   client,
		students: db.Collection("students"),
		offences: db.Collection("offences"),
		users:    db.Collection("users"),
		records:  db.Collection(DisciplineRecords),
		merits:   db.Collection(Merits),
		payments: db.Collection(Payments),
	}
}

var _ ledger.Store = (*Store)(nil)

// WithTx runs fn in a MongoDB transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return txn.Mongo(ctx, s.client, func(sc mongo.SessionContext) error {
		return fn(sc, mongoTx{s: s})
	})
}

// mongoTx issues its operations on the session context it is handed,
// which carries the transaction.
type mongoTx struct {
	s *Store
}

func (t mongoTx) Offence(ctx context.Context, id string) (models.Offence, error) {
	var o models.Offence
	err := t.s.offences.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Offence{}, apperr.NotFound("offence")
	}
	return o, err
}

func (t mongoTx) Student(ctx context.Context, id string) (models.Student, error) {
	var st models.Student
	err := t.s.students.FindOne(ctx, bson.M{"_id": id}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Student{}, apperr.NotFound("student")
	}
	return st, err
}

func (t mongoTx) SetDisciplinePoints(ctx context.Context, studentID string, prev *int, next int, at time.Time) error {
	filter := bson.M{"_id": studentID}
	if prev == nil {
		// Matches a missing field as well as an explicit null.
		filter["discipline_points"] = nil
	} else {
		filter["discipline_points"] = *prev
	}
	return t.compareAndSet(ctx, filter, bson.M{"discipline_points": next, "updated_at": at}, studentID)
}

func (t mongoTx) SetFeeBalance(ctx context.Context, studentID string, prev, next int64, at time.Time) error {
	filter := bson.M{"_id": studentID, "fee_balance": prev}
	return t.compareAndSet(ctx, filter, bson.M{"fee_balance": next, "updated_at": at}, studentID)
}

func (t mongoTx) compareAndSet(ctx context.Context, filter, set bson.M, studentID string) error {
	res, err := t.s.students.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("student %s changed: %w", studentID, txn.ErrConflict)
	}
	return nil
}

func (t mongoTx) InsertDisciplineRecord(ctx context.Context, rec models.DisciplineRecord) error {
	_, err := t.s.records.InsertOne(ctx, rec)
	return err
}

func (t mongoTx) InsertMerit(ctx context.Context, m models.Merit) error {
	_, err := t.s.merits.InsertOne(ctx, m)
	return err
}

func (t mongoTx) InsertPayment(ctx context.Context, p models.Payment) error {
	_, err := t.s.payments.InsertOne(ctx, p)
	return err
}

// history reads a student's rows newest first, older than before.
func history[T any](ctx context.Context, c *mongo.Collection, studentID string, before *paging.Cursor, limit int) ([]T, error) {
	filter := bson.M{"student_id": studentID}
	if before != nil {
		for k, v := range paging.MongoBefore(*before) {
			filter[k] = v
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]T, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DisciplineHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.DisciplineRecord, error) {
	return history[models.DisciplineRecord](ctx, s.records, studentID, before, limit)
}

func (s *Store) MeritHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Merit, error) {
	return history[models.Merit](ctx, s.merits, studentID, before, limit)
}

func (s *Store) PaymentHistory(ctx context.Context, studentID string, before *paging.Cursor, limit int) ([]models.Payment, error) {
	return history[models.Payment](ctx, s.payments, studentID, before, limit)
}

// SchoolStats counts a school's rows, one query per collection in parallel.
func (s *Store) SchoolStats(ctx context.Context, schoolID string) (models.SchoolStats, error) {
	st := models.SchoolStats{SchoolID: schoolID}
	filter := bson.M{"school_id": schoolID}

	g, gctx := errgroup.WithContext(ctx)
	count := func(c *mongo.Collection, dst *int64) {
		g.Go(func() error {
			n, err := c.CountDocuments(gctx, filter)
			*dst = n
			return err
		})
	}
	count(s.students, &st.Students)
	count(s.users, &st.Users)
	count(s.merits, &st.Merits)
	count(s.records, &st.DisciplineRecords)

	if err := g.Wait(); err != nil {
		return models.SchoolStats{}, err
	}
	return st, nil
}
