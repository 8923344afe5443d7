// internal/domain/models/school.go
package models

import "time"

// School is a tenant. Every other entity is scoped to one school.
type School struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	NameCI    string    `bson:"name_ci" json:"-"`
	Type      string    `bson:"type,omitempty" json:"type,omitempty"` // primary | secondary | ...
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SchoolStats holds headline counts for a school dashboard.
type SchoolStats struct {
	SchoolID          string `json:"school_id"`
	Students          int64  `json:"students"`
	Users             int64  `json:"users"`
	Merits            int64  `json:"merits"`
	DisciplineRecords int64  `json:"discipline_records"`
}
