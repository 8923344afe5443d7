// internal/app/store/offences/offencestore.go
package offencestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "offences"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) CreateOffence(ctx context.Context, o models.Offence) error {
	o.NameCI = text.Fold(o.Name)
	if _, err := s.c.InsertOne(ctx, o); err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict("offence name already in use", err)
		}
		return err
	}
	return nil
}

func (s *Store) GetOffence(ctx context.Context, id string) (models.Offence, error) {
	var o models.Offence
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Offence{}, apperr.NotFound("offence")
	}
	if err != nil {
		return models.Offence{}, err
	}
	return o, nil
}

// UpdateOffence applies the non-nil fields of u and returns the result.
func (s *Store) UpdateOffence(ctx context.Context, id string, u models.OffenceUpdate, at time.Time) (models.Offence, error) {
	set := bson.M{"updated_at": at}
	if u.Name != nil {
		set["name"] = *u.Name
		set["name_ci"] = text.Fold(*u.Name)
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.PointsToDeduct != nil {
		set["points_to_deduct"] = *u.PointsToDeduct
	}

	var o models.Offence
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Offence{}, apperr.NotFound("offence")
	}
	if wafflemongo.IsDup(err) {
		return models.Offence{}, apperr.Conflict("offence name already in use", err)
	}
	if err != nil {
		return models.Offence{}, err
	}
	return o, nil
}

// DeleteOffence removes the catalog entry. Discipline records keep their
// own copy of its fields and are not touched.
func (s *Store) DeleteOffence(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("offence")
	}
	return nil
}

// ListOffencesBySchool returns a school's offences ordered by folded name.
func (s *Store) ListOffencesBySchool(ctx context.Context, schoolID string) ([]models.Offence, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"school_id": schoolID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Offence, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
