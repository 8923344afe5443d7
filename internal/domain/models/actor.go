// internal/domain/models/actor.go
package models

// Actor is the resolved identity making a request. It is passed explicitly
// to every operation that needs to know who is acting.
type Actor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SchoolID  string `json:"school_id"`
	StudentID string `json:"student_id,omitempty"` // set for student accounts
}

// IsStaff reports whether the actor is an admin or teacher.
func (a Actor) IsStaff() bool { return IsStaff(a.Role) }
