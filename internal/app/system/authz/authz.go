// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
)

// Actor returns the request's actor with its role lowercased. ok is false
// for anonymous requests and for actors without a school.
func Actor(r *http.Request) (models.Actor, bool) {
	a, ok := auth.CurrentActor(r)
	if !ok || a.ID == "" || a.SchoolID == "" {
		return models.Actor{}, false
	}
	a.Role = strings.ToLower(a.Role)
	return a, true
}

// IsAdmin reports whether the request's actor is a school administrator.
func IsAdmin(r *http.Request) bool {
	a, ok := Actor(r)
	return ok && a.Role == models.RoleAdmin
}

// IsStaff reports whether the request's actor is a teacher or administrator.
func IsStaff(r *http.Request) bool {
	a, ok := Actor(r)
	return ok && a.IsStaff()
}

// SchoolID returns the request actor's school, or "".
func SchoolID(r *http.Request) string {
	a, _ := Actor(r)
	return a.SchoolID
}

// CanViewStudent reports whether a may read st's ledger: staff of st's
// school, a guardian of st, or st themself.
func CanViewStudent(a models.Actor, st models.Student) bool {
	if a.SchoolID == "" || a.SchoolID != st.SchoolID {
		return false
	}
	switch strings.ToLower(a.Role) {
	case models.RoleAdmin, models.RoleTeacher:
		return true
	case models.RoleParent:
		return st.HasGuardian(a.ID)
	case models.RoleStudent:
		return a.StudentID != "" && a.StudentID == st.ID
	}
	return false
}

// CanRecordPayment reports whether a may record a fee payment for st:
// administrators of st's school and st's guardians.
func CanRecordPayment(a models.Actor, st models.Student) bool {
	if a.SchoolID == "" || a.SchoolID != st.SchoolID {
		return false
	}
	switch strings.ToLower(a.Role) {
	case models.RoleAdmin:
		return true
	case models.RoleParent:
		return st.HasGuardian(a.ID)
	}
	return false
}
