// internal/domain/models/disciplinerecord.go
package models

import "time"

// DisciplineRecord is the immutable ledger entry written when a teacher
// issues an offence against a student. The offence fields are copied at
// issue time so later catalog edits never change history.
type DisciplineRecord struct {
	ID                 string    `bson:"_id" json:"id"`
	SchoolID           string    `bson:"school_id" json:"school_id"`
	StudentID          string    `bson:"student_id" json:"student_id"`
	TeacherID          string    `bson:"teacher_id" json:"teacher_id"`
	TeacherName        string    `bson:"teacher_name" json:"teacher_name"`
	OffenceID          string    `bson:"offence_id" json:"offence_id"`
	OffenceName        string    `bson:"offence_name" json:"offence_name"`
	OffenceDescription string    `bson:"offence_description" json:"offence_description"`
	PointsDeducted     int       `bson:"points_deducted" json:"points_deducted"`
	PreviousPoints     int       `bson:"previous_points" json:"previous_points"`
	NewPoints          int       `bson:"new_points" json:"new_points"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}
