// internal/app/store/schools/schoolstore.go
package schoolstore

import (
	"context"
	"errors"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const Collection = "schools"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) CreateSchool(ctx context.Context, sc models.School) error {
	sc.NameCI = text.Fold(sc.Name)
	if _, err := s.c.InsertOne(ctx, sc); err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict("school already exists", err)
		}
		return err
	}
	return nil
}

func (s *Store) GetSchool(ctx context.Context, id string) (models.School, error) {
	var sc models.School
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.School{}, apperr.NotFound("school")
	}
	if err != nil {
		return models.School{}, err
	}
	return sc, nil
}
