package domain

import "time"

// PaymentStatus is the review state of a payment proof.
type PaymentStatus int

const (
	PaymentPending  PaymentStatus = 0
	PaymentApproved PaymentStatus = 1
	PaymentRejected PaymentStatus = 2
)

// Valid reports whether s is a known review state.
func (s PaymentStatus) Valid() bool {
	return s >= PaymentPending && s <= PaymentRejected
}

// Enrollment links a user to a course.
type Enrollment struct {
	ID       int64     `json:"id,omitempty"`
	UserID   int64     `json:"userId"`
	CourseID int64     `json:"courseId"`
	Date     time.Time `json:"date,omitempty"`
}

// Payment is a submitted payment proof. Older records carry the review
// state in "state" instead of "status".
type Payment struct {
	ID       int64         `json:"id"`
	UserID   int64         `json:"userId"`
	CourseID int64         `json:"courseId"`
	Status   PaymentStatus `json:"status"`
	State    PaymentStatus `json:"state,omitempty"`
	File     string        `json:"file,omitempty"`
}

// EffectiveStatus returns Status, falling back to State when Status is unset.
func (p Payment) EffectiveStatus() PaymentStatus {
	if p.Status != PaymentPending {
		return p.Status
	}
	return p.State
}

// Approved reports whether the payment grants access to its course.
func (p Payment) Approved() bool {
	return p.EffectiveStatus() == PaymentApproved
}
