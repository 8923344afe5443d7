// internal/app/system/search/entry.go
package search

import (
	"strconv"
	"strings"
	"time"
)

// Entry types.
const (
	TypeStudent = "student"
	TypeTeacher = "teacher"
	TypeParent  = "parent"
	TypeSchool  = "school"
	TypeUser    = "user" // admins and any other account
)

// Entry is one row of a school's directory.
//
// GPA and DisciplinePoints are only set for students. Title, Subtitle and
// Description are display strings. Highlighting works on them and scoring
// ignores them.
type Entry struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Name             string     `json:"name"`
	Email            string     `json:"email,omitempty"`
	Class            string     `json:"class,omitempty"`
	Subject          string     `json:"subject,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Address          string     `json:"address,omitempty"`
	Occupation       string     `json:"occupation,omitempty"`
	Status           string     `json:"status,omitempty"`
	GPA              *float64   `json:"gpa,omitempty"`
	DisciplinePoints *int       `json:"discipline_points,omitempty"`
	JoinDate         *time.Time `json:"join_date,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`

	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
}

// EffectiveStatus is the entry's status, "active" when unset.
func (e Entry) EffectiveStatus() string {
	if e.Status == "" {
		return "active"
	}
	return e.Status
}

// date is the value the date sort uses: join date, else date of birth,
// else the zero Unix time.
func (e Entry) date() time.Time {
	switch {
	case e.JoinDate != nil:
		return *e.JoinDate
	case e.DateOfBirth != nil:
		return *e.DateOfBirth
	default:
		return time.Unix(0, 0)
	}
}

// text returns the record's own field values lowercased and joined, for the
// catch-all match in scoring. The type and the display strings are left out.
func (e Entry) text() string {
	parts := []string{
		e.ID, e.Name, e.Email, e.Class, e.Subject, e.Phone,
		e.Address, e.Occupation, e.Status,
	}
	if e.GPA != nil {
		parts = append(parts, strconv.FormatFloat(*e.GPA, 'f', -1, 64))
	}
	if e.DisciplinePoints != nil {
		parts = append(parts, strconv.Itoa(*e.DisciplinePoints))
	}
	if e.JoinDate != nil {
		parts = append(parts, e.JoinDate.Format(time.DateOnly))
	}
	if e.DateOfBirth != nil {
		parts = append(parts, e.DateOfBirth.Format(time.DateOnly))
	}
	return strings.ToLower(strings.Join(parts, "\x00"))
}
