package models

import "time"

// Purchase is one buyer's attempt to acquire one book.
type Purchase struct {
	ID         int32      `json:"id"`
	BuyerID    int32      `json:"buyer_id"`
	BookID     int32      `json:"book_id"`
	Status     StatusType `json:"status"`
	AmountPaid int64      `json:"amount_paid"`
	SessionRef string     `json:"session_ref,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type StatusType string

const (
	StatusPending   StatusType = "pending"
	StatusCompleted StatusType = "completed"
	StatusFailed    StatusType = "failed"
)

// Valid reports whether s is a known purchase status.
func (s StatusType) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s StatusType) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
