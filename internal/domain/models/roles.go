// internal/domain/models/roles.go
package models

// Roles recognised by the service.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
	RoleStudent = "student"
)

// IsStaff reports whether role belongs to school staff.
func IsStaff(role string) bool {
	return role == RoleAdmin || role == RoleTeacher
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleParent, RoleStudent:
		return true
	}
	return false
}
