// internal/domain/models/payment.go
package models

import "time"

// Payment methods.
const (
	PaymentMpesa = "mpesa"
	PaymentCard  = "card"
	PaymentBank  = "bank"
)

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMpesa, PaymentCard, PaymentBank:
		return true
	}
	return false
}

// Payment is an immutable fee payment. Amounts are in minor currency units.
type Payment struct {
	ID              string    `bson:"_id" json:"id"`
	SchoolID        string    `bson:"school_id" json:"school_id"`
	StudentID       string    `bson:"student_id" json:"student_id"`
	Amount          int64     `bson:"amount" json:"amount"`
	Method          string    `bson:"method" json:"method"`
	Reference       string    `bson:"reference,omitempty" json:"reference,omitempty"`
	RecordedBy      string    `bson:"recorded_by" json:"recorded_by"`
	PreviousBalance int64     `bson:"previous_balance" json:"previous_balance"`
	NewBalance      int64     `bson:"new_balance" json:"new_balance"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
