// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/mwanacheck/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("schools", schoolsSchema())
	ensure("users", usersSchema())
	ensure("students", studentsSchema())
	ensure("offences", offencesSchema())

	// Ledger collections are append-only.
	ensure("discipline_records", disciplineRecordsSchema())
	ensure("merits", meritsSchema())
	ensure("payments", paymentsSchema())

	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	integer   = bson.A{"int", "long"}
	number    = bson.A{"int", "long", "double"}
	nonBlank  = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	timestamp = bson.M{"bsonType": "date"}
)

func points(lo, hi int) bson.M {
	return bson.M{"bsonType": integer, "minimum": lo, "maximum": hi}
}

func schema(required bson.A, props bson.M) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": props,
		},
	}
}

func schoolsSchema() bson.M {
	return schema(bson.A{"name", "name_ci"}, bson.M{
		"name":    nonBlank,
		"name_ci": nonBlank,
	})
}

func usersSchema() bson.M {
	return schema(bson.A{"school_id", "name", "email", "role"}, bson.M{
		"school_id": nonBlank,
		"name":      nonBlank,
		"email":     nonBlank,
		"role":      bson.M{"enum": bson.A{models.RoleAdmin, models.RoleTeacher, models.RoleParent, models.RoleStudent}},
		"status":    bson.M{"enum": bson.A{"active", "inactive"}},
	})
}

// The balance may be absent (meaning the default) but never out of range.
func studentsSchema() bson.M {
	return schema(bson.A{"school_id", "name", "fee_balance", "status"}, bson.M{
		"school_id":         nonBlank,
		"name":              nonBlank,
		"discipline_points": points(models.MinDisciplinePoints, models.MaxDisciplinePoints),
		"fee_balance":       bson.M{"bsonType": integer},
		"gpa":               bson.M{"bsonType": number, "minimum": 0, "maximum": 4},
		"status": bson.M{"enum": bson.A{
			models.StudentActive, models.StudentInactive, models.StudentSuspended, models.StudentGraduated,
		}},
	})
}

func offencesSchema() bson.M {
	return schema(bson.A{"school_id", "name", "description", "points_to_deduct"}, bson.M{
		"school_id":        nonBlank,
		"name":             nonBlank,
		"description":      nonBlank,
		"points_to_deduct": points(models.MinOffencePoints, models.MaxOffencePoints),
		"created_at":       timestamp,
		"updated_at":       timestamp,
	})
}

func disciplineRecordsSchema() bson.M {
	return schema(bson.A{"school_id", "student_id", "teacher_id", "offence_id", "points_deducted", "previous_points", "new_points", "created_at"}, bson.M{
		"school_id":       nonBlank,
		"student_id":      nonBlank,
		"teacher_id":      nonBlank,
		"offence_id":      nonBlank,
		"points_deducted": points(models.MinOffencePoints, models.MaxOffencePoints),
		"previous_points": points(models.MinDisciplinePoints, models.MaxDisciplinePoints),
		"new_points":      points(models.MinDisciplinePoints, models.MaxDisciplinePoints),
		"created_at":      timestamp,
	})
}

func meritsSchema() bson.M {
	return schema(bson.A{"school_id", "student_id", "title", "points", "awarded_by", "created_at"}, bson.M{
		"school_id":  nonBlank,
		"student_id": nonBlank,
		"title":      nonBlank,
		"points":     points(models.MinMeritPoints, models.MaxMeritPoints),
		"new_points": points(models.MinDisciplinePoints, models.MaxDisciplinePoints),
		"created_at": timestamp,
	})
}

func paymentsSchema() bson.M {
	return schema(bson.A{"school_id", "student_id", "amount", "method", "created_at"}, bson.M{
		"school_id":  nonBlank,
		"student_id": nonBlank,
		"amount":     bson.M{"bsonType": integer, "minimum": 1},
		"method":     bson.M{"enum": bson.A{models.PaymentMpesa, models.PaymentCard, models.PaymentBank}},
		"created_at": timestamp,
	})
}
