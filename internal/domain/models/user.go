// internal/domain/models/user.go
package models

import "time"

// User is a staff member, parent, or student account listed in a school's
// directory. Sign-in is handled by the identity provider; the directory
// only keeps profile details.
type User struct {
	ID         string     `bson:"_id" json:"id"`
	SchoolID   string     `bson:"school_id" json:"school_id"`
	Name       string     `bson:"name" json:"name"`
	NameCI     string     `bson:"name_ci" json:"-"`
	Email      string     `bson:"email" json:"email"`
	Role       string     `bson:"role" json:"role"` // admin | teacher | parent | student
	Class      string     `bson:"class,omitempty" json:"class,omitempty"`
	Subject    string     `bson:"subject,omitempty" json:"subject,omitempty"`
	Phone      string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Occupation string     `bson:"occupation,omitempty" json:"occupation,omitempty"`
	Address    string     `bson:"address,omitempty" json:"address,omitempty"`
	Status     string     `bson:"status,omitempty" json:"status,omitempty"`
	JoinDate   *time.Time `bson:"join_date,omitempty" json:"join_date,omitempty"`
	Children   []string   `bson:"children,omitempty" json:"children,omitempty"` // student ids
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}
