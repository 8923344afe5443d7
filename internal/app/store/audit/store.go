// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryLedger  = "ledger"
	CategoryCatalog = "catalog"
	CategoryAuth    = "auth"
)

// Event types
const (
	EventDisciplineIssued = "discipline_issued"
	EventMeritAwarded     = "merit_awarded"
	EventPaymentRecorded  = "payment_recorded"
	EventOffenceCreated   = "offence_created"
	EventOffenceUpdated   = "offence_updated"
	EventOffenceDeleted   = "offence_deleted"
	EventSessionStarted   = "session_started"
	EventSessionEnded     = "session_ended"
	EventSessionRejected  = "session_rejected"
)

// Event is one audit trail entry.
type Event struct {
	ID        string    `bson:"_id"`
	Timestamp time.Time `bson:"timestamp"`
	SchoolID  string    `bson:"school_id,omitempty"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	ActorID   string `bson:"actor_id,omitempty"`
	ActorRole string `bson:"actor_role,omitempty"`
	SubjectID string `bson:"subject_id,omitempty"` // student or offence acted on

	IP string `bson:"ip,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// Normalize fills in a missing id and timestamp.
func (e *Event) Normalize() {
	if e.ID == "" {
		e.ID = models.NewID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}

// Store writes audit events to the audit_events collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	event.Normalize()
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// QueryFilter narrows an audit query. Zero fields match everything.
type QueryFilter struct {
	Category  string
	EventType string
	SubjectID string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// DefaultLimit applies when a filter names no limit.
const DefaultLimit = 100

// Matches reports whether e passes the filter, ignoring limit and offset.
func (f QueryFilter) Matches(e Event) bool {
	switch {
	case f.Category != "" && e.Category != f.Category:
		return false
	case f.EventType != "" && e.EventType != f.EventType:
		return false
	case f.SubjectID != "" && e.SubjectID != f.SubjectID:
		return false
	case f.StartTime != nil && e.Timestamp.Before(*f.StartTime):
		return false
	case f.EndTime != nil && e.Timestamp.After(*f.EndTime):
		return false
	}
	return true
}

// Reader lists a school's audit events newest first.
type Reader interface {
	QueryAudit(ctx context.Context, schoolID string, f QueryFilter) ([]Event, error)
	CountAudit(ctx context.Context, schoolID string, f QueryFilter) (int64, error)
}

func (f QueryFilter) mongo(schoolID string) bson.M {
	m := bson.M{"school_id": schoolID}
	if f.Category != "" {
		m["category"] = f.Category
	}
	if f.EventType != "" {
		m["event_type"] = f.EventType
	}
	if f.SubjectID != "" {
		m["subject_id"] = f.SubjectID
	}
	if f.StartTime != nil || f.EndTime != nil {
		ts := bson.M{}
		if f.StartTime != nil {
			ts["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			ts["$lte"] = *f.EndTime
		}
		m["timestamp"] = ts
	}
	return m
}

// QueryAudit returns a school's events matching f, newest first.
func (s *Store) QueryAudit(ctx context.Context, schoolID string, f QueryFilter) ([]Event, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(f.Limit)
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}

	cur, err := s.c.Find(ctx, f.mongo(schoolID), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountAudit counts a school's events matching f.
func (s *Store) CountAudit(ctx context.Context, schoolID string, f QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.mongo(schoolID))
}
