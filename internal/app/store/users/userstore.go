// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "users"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// CreateUser inserts a directory user. Emails are unique per school through
// the (school_id, email) index.
func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	u.NameCI = text.Fold(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict("email already in use", err)
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperr.NotFound("user")
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail looks a user up within a school.
func (s *Store) GetByEmail(ctx context.Context, schoolID, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{
		"school_id": schoolID,
		"email":     strings.ToLower(strings.TrimSpace(email)),
	}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperr.NotFound("user")
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// ListUsersBySchool returns a school's users ordered by folded name.
func (s *Store) ListUsersBySchool(ctx context.Context, schoolID string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"school_id": schoolID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.User, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountBySchool counts a school's users.
func (s *Store) CountBySchool(ctx context.Context, schoolID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"school_id": schoolID})
}
