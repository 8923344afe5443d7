// internal/domain/models/student.go
package models

import "time"

// Discipline point bounds. A student with no recorded balance holds the default.
const (
	MinDisciplinePoints     = 0
	MaxDisciplinePoints     = 100
	DefaultDisciplinePoints = 100
)

// Student statuses.
const (
	StudentActive    = "active"
	StudentInactive  = "inactive"
	StudentSuspended = "suspended"
	StudentGraduated = "graduated"
)

// Student is a pupil enrolled in a school.
//
// DisciplinePoints is optional; a missing value means the student still holds
// the default balance. The balance is only ever written by the ledger.
type Student struct {
	ID               string     `bson:"_id" json:"id"`
	SchoolID         string     `bson:"school_id" json:"school_id"`
	Name             string     `bson:"name" json:"name"`
	NameCI           string     `bson:"name_ci" json:"-"`
	Email            string     `bson:"email,omitempty" json:"email,omitempty"`
	Class            string     `bson:"class,omitempty" json:"class,omitempty"`
	Guardians        []string   `bson:"guardians,omitempty" json:"guardians,omitempty"` // parent user ids
	DisciplinePoints *int       `bson:"discipline_points,omitempty" json:"discipline_points,omitempty"`
	FeeBalance       int64      `bson:"fee_balance" json:"fee_balance"` // minor currency units
	GPA              float64    `bson:"gpa" json:"gpa"`
	Status           string     `bson:"status" json:"status"`
	DateOfBirth      *time.Time `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updated_at"`
}

// Points returns the student's current discipline balance, treating an
// absent value as the default. A stored zero stays zero.
func (s Student) Points() int {
	return PointsOrDefault(s.DisciplinePoints)
}

// PointsOrDefault dereferences p, falling back to DefaultDisciplinePoints.
func PointsOrDefault(p *int) int {
	if p == nil {
		return DefaultDisciplinePoints
	}
	return *p
}

// HasGuardian reports whether userID is one of the student's guardians.
func (s Student) HasGuardian(userID string) bool {
	for _, g := range s.Guardians {
		if g == userID {
			return true
		}
	}
	return false
}

// ValidStudentStatus reports whether st is a known student status.
func ValidStudentStatus(st string) bool {
	switch st {
	case StudentActive, StudentInactive, StudentSuspended, StudentGraduated:
		return true
	}
	return false
}
