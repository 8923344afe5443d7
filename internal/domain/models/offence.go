// internal/domain/models/offence.go
package models

import "time"

// Offence point limits.
const (
	MinOffencePoints = 1
	MaxOffencePoints = 100
)

// Severity labels derived from an offence's point value.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Offence is a catalog entry a school defines for disciplinary infractions.
type Offence struct {
	ID             string    `bson:"_id" json:"id"`
	SchoolID       string    `bson:"school_id" json:"school_id"`
	Name           string    `bson:"name" json:"name"`
	NameCI         string    `bson:"name_ci" json:"-"` // folded for ordering
	Description    string    `bson:"description" json:"description"`
	PointsToDeduct int       `bson:"points_to_deduct" json:"points_to_deduct"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// Severity classifies the offence by its points.
func (o Offence) Severity() string {
	return Severity(o.PointsToDeduct)
}

// Severity returns the severity label for a point value:
// 15 and above is high, 8 and above is medium, anything else is low.
func Severity(points int) string {
	switch {
	case points >= 15:
		return SeverityHigh
	case points >= 8:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// OffenceUpdate carries the fields of a partial offence update.
// Nil fields are left unchanged.
type OffenceUpdate struct {
	Name           *string
	Description    *string
	PointsToDeduct *int
}

// Empty reports whether the update changes nothing.
func (u OffenceUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.PointsToDeduct == nil
}
