// internal/app/store/sqlstore/rows.go
package sqlstore

import (
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/uptrace/bun"
)

type schoolRow struct {
	bun.BaseModel `bun:"table:schools,alias:sc"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	NameCI    string    `bun:"name_ci,notnull"`
	Type      string    `bun:"type"`
	Address   string    `bun:"address"`
	Email     string    `bun:"email"`
	Phone     string    `bun:"phone"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func schoolToRow(s models.School) *schoolRow {
	return &schoolRow{
		ID: s.ID, Name: s.Name, NameCI: s.NameCI, Type: s.Type, Address: s.Address,
		Email: s.Email, Phone: s.Phone, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (r schoolRow) model() models.School {
	return models.School{
		ID: r.ID, Name: r.Name, NameCI: r.NameCI, Type: r.Type, Address: r.Address,
		Email: r.Email, Phone: r.Phone, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         string     `bun:"id,pk"`
	SchoolID   string     `bun:"school_id,notnull,unique:users_school_email"`
	Name       string     `bun:"name,notnull"`
	NameCI     string     `bun:"name_ci,notnull"`
	Email      string     `bun:"email,notnull,unique:users_school_email"`
	Role       string     `bun:"role,notnull"`
	Class      string     `bun:"class"`
	Subject    string     `bun:"subject"`
	Phone      string     `bun:"phone"`
	Occupation string     `bun:"occupation"`
	Address    string     `bun:"address"`
	Status     string     `bun:"status"`
	JoinDate   *time.Time `bun:"join_date"`
	Children   []string   `bun:"children,array"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`
}

func userToRow(u models.User) *userRow {
	return &userRow{
		ID: u.ID, SchoolID: u.SchoolID, Name: u.Name, NameCI: u.NameCI, Email: u.Email,
		Role: u.Role, Class: u.Class, Subject: u.Subject, Phone: u.Phone,
		Occupation: u.Occupation, Address: u.Address, Status: u.Status,
		JoinDate: u.JoinDate, Children: u.Children, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (r userRow) model() models.User {
	return models.User{
		ID: r.ID, SchoolID: r.SchoolID, Name: r.Name, NameCI: r.NameCI, Email: r.Email,
		Role: r.Role, Class: r.Class, Subject: r.Subject, Phone: r.Phone,
		Occupation: r.Occupation, Address: r.Address, Status: r.Status,
		JoinDate: utcPtr(r.JoinDate), Children: r.Children, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type studentRow struct {
	bun.BaseModel `bun:"table:students,alias:st"`

	ID               string     `bun:"id,pk"`
	SchoolID         string     `bun:"school_id,notnull"`
	Name             string     `bun:"name,notnull"`
	NameCI           string     `bun:"name_ci,notnull"`
	Email            string     `bun:"email"`
	Class            string     `bun:"class"`
	Guardians        []string   `bun:"guardians,array"`
	DisciplinePoints *int       `bun:"discipline_points"`
	FeeBalance       int64      `bun:"fee_balance,notnull"`
	GPA              float64    `bun:"gpa,notnull"`
	Status           string     `bun:"status,notnull"`
	DateOfBirth      *time.Time `bun:"date_of_birth"`
	CreatedAt        time.Time  `bun:"created_at,notnull"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull"`
}

func studentToRow(s models.Student) *studentRow {
	return &studentRow{
		ID: s.ID, SchoolID: s.SchoolID, Name: s.Name, NameCI: s.NameCI, Email: s.Email,
		Class: s.Class, Guardians: s.Guardians, DisciplinePoints: s.DisciplinePoints,
		FeeBalance: s.FeeBalance, GPA: s.GPA, Status: s.Status, DateOfBirth: s.DateOfBirth,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (r studentRow) model() models.Student {
	return models.Student{
		ID: r.ID, SchoolID: r.SchoolID, Name: r.Name, NameCI: r.NameCI, Email: r.Email,
		Class: r.Class, Guardians: r.Guardians, DisciplinePoints: r.DisciplinePoints,
		FeeBalance: r.FeeBalance, GPA: r.GPA, Status: r.Status, DateOfBirth: utcPtr(r.DateOfBirth),
		CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type offenceRow struct {
	bun.BaseModel `bun:"table:offences,alias:o"`

	ID             string    `bun:"id,pk"`
	SchoolID       string    `bun:"school_id,notnull"`
	Name           string    `bun:"name,notnull"`
	NameCI         string    `bun:"name_ci,notnull"`
	Description    string    `bun:"description,notnull"`
	PointsToDeduct int       `bun:"points_to_deduct,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func offenceToRow(o models.Offence) *offenceRow {
	return &offenceRow{
		ID: o.ID, SchoolID: o.SchoolID, Name: o.Name, NameCI: o.NameCI, Description: o.Description,
		PointsToDeduct: o.PointsToDeduct, CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
	}
}

func (r offenceRow) model() models.Offence {
	return models.Offence{
		ID: r.ID, SchoolID: r.SchoolID, Name: r.Name, NameCI: r.NameCI, Description: r.Description,
		PointsToDeduct: r.PointsToDeduct, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type disciplineRecordRow struct {
	bun.BaseModel `bun:"table:discipline_records,alias:dr"`

	ID                 string    `bun:"id,pk"`
	SchoolID           string    `bun:"school_id,notnull"`
	StudentID          string    `bun:"student_id,notnull"`
	TeacherID          string    `bun:"teacher_id,notnull"`
	TeacherName        string    `bun:"teacher_name"`
	OffenceID          string    `bun:"offence_id,notnull"`
	OffenceName        string    `bun:"offence_name,notnull"`
	OffenceDescription string    `bun:"offence_description"`
	PointsDeducted     int       `bun:"points_deducted,notnull"`
	PreviousPoints     int       `bun:"previous_points,notnull"`
	NewPoints          int       `bun:"new_points,notnull"`
	CreatedAt          time.Time `bun:"created_at,notnull"`
}

func (r disciplineRecordRow) model() models.DisciplineRecord {
	return models.DisciplineRecord{
		ID: r.ID, SchoolID: r.SchoolID, StudentID: r.StudentID, TeacherID: r.TeacherID,
		TeacherName: r.TeacherName, OffenceID: r.OffenceID, OffenceName: r.OffenceName,
		OffenceDescription: r.OffenceDescription, PointsDeducted: r.PointsDeducted,
		PreviousPoints: r.PreviousPoints, NewPoints: r.NewPoints, CreatedAt: r.CreatedAt.UTC(),
	}
}

type meritRow struct {
	bun.BaseModel `bun:"table:merits,alias:m"`

	ID             string    `bun:"id,pk"`
	SchoolID       string    `bun:"school_id,notnull"`
	StudentID      string    `bun:"student_id,notnull"`
	Title          string    `bun:"title,notnull"`
	Description    string    `bun:"description"`
	Points         int       `bun:"points,notnull"`
	AwardedBy      string    `bun:"awarded_by,notnull"`
	AwardedByName  string    `bun:"awarded_by_name"`
	PreviousPoints int       `bun:"previous_points,notnull"`
	NewPoints      int       `bun:"new_points,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

func (r meritRow) model() models.Merit {
	return models.Merit{
		ID: r.ID, SchoolID: r.SchoolID, StudentID: r.StudentID, Title: r.Title,
		Description: r.Description, Points: r.Points, AwardedBy: r.AwardedBy,
		AwardedByName: r.AwardedByName, PreviousPoints: r.PreviousPoints,
		NewPoints: r.NewPoints, CreatedAt: r.CreatedAt.UTC(),
	}
}

type paymentRow struct {
	bun.BaseModel `bun:"table:payments,alias:p"`

	ID              string    `bun:"id,pk"`
	SchoolID        string    `bun:"school_id,notnull"`
	StudentID       string    `bun:"student_id,notnull"`
	Amount          int64     `bun:"amount,notnull"`
	Method          string    `bun:"method,notnull"`
	Reference       string    `bun:"reference"`
	RecordedBy      string    `bun:"recorded_by,notnull"`
	PreviousBalance int64     `bun:"previous_balance,notnull"`
	NewBalance      int64     `bun:"new_balance,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

func (r paymentRow) model() models.Payment {
	return models.Payment{
		ID: r.ID, SchoolID: r.SchoolID, StudentID: r.StudentID, Amount: r.Amount,
		Method: r.Method, Reference: r.Reference, RecordedBy: r.RecordedBy,
		PreviousBalance: r.PreviousBalance, NewBalance: r.NewBalance, CreatedAt: r.CreatedAt.UTC(),
	}
}

type auditRow struct {
	bun.BaseModel `bun:"table:audit_events,alias:ae"`

	ID            string            `bun:"id,pk"`
	Timestamp     time.Time         `bun:"timestamp,notnull"`
	SchoolID      string            `bun:"school_id"`
	Category      string            `bun:"category,notnull"`
	EventType     string            `bun:"event_type,notnull"`
	ActorID       string            `bun:"actor_id"`
	ActorRole     string            `bun:"actor_role"`
	SubjectID     string            `bun:"subject_id"`
	IP            string            `bun:"ip"`
	Success       bool              `bun:"success,notnull"`
	FailureReason string            `bun:"failure_reason"`
	Details       map[string]string `bun:"details,type:jsonb"`
}

func auditToRow(e audit.Event) *auditRow {
	return &auditRow{
		ID: e.ID, Timestamp: e.Timestamp, SchoolID: e.SchoolID, Category: e.Category,
		EventType: e.EventType, ActorID: e.ActorID, ActorRole: e.ActorRole, SubjectID: e.SubjectID,
		IP: e.IP, Success: e.Success, FailureReason: e.FailureReason, Details: e.Details,
	}
}

func (r auditRow) model() audit.Event {
	return audit.Event{
		ID: r.ID, Timestamp: r.Timestamp.UTC(), SchoolID: r.SchoolID, Category: r.Category,
		EventType: r.EventType, ActorID: r.ActorID, ActorRole: r.ActorRole, SubjectID: r.SubjectID,
		IP: r.IP, Success: r.Success, FailureReason: r.FailureReason, Details: r.Details,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
