// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"errors"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "students"

// Store reads and creates students. Balances are changed only through the
// ledger store's transactions.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) CreateStudent(ctx context.Context, st models.Student) error {
	st.NameCI = text.Fold(st.Name)
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict("student already exists", err)
		}
		return err
	}
	return nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (models.Student, error) {
	var st models.Student
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Student{}, apperr.NotFound("student")
	}
	if err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// ListStudentsBySchool returns a school's students ordered by folded name.
func (s *Store) ListStudentsBySchool(ctx context.Context, schoolID string) ([]models.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"school_id": schoolID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Student, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountBySchool counts a school's students.
func (s *Store) CountBySchool(ctx context.Context, schoolID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"school_id": schoolID})
}
