// internal/domain/models/merit.go
package models

import "time"

// Merit point limits.
const (
	MinMeritPoints = 1
	MaxMeritPoints = 100
)

// Merit is an immutable award that restores discipline points.
type Merit struct {
	ID             string    `bson:"_id" json:"id"`
	SchoolID       string    `bson:"school_id" json:"school_id"`
	StudentID      string    `bson:"student_id" json:"student_id"`
	Title          string    `bson:"title" json:"title"`
	Description    string    `bson:"description,omitempty" json:"description,omitempty"`
	Points         int       `bson:"points" json:"points"`
	AwardedBy      string    `bson:"awarded_by" json:"awarded_by"`
	AwardedByName  string    `bson:"awarded_by_name" json:"awarded_by_name"`
	PreviousPoints int       `bson:"previous_points" json:"previous_points"`
	NewPoints      int       `bson:"new_points" json:"new_points"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
