package models

import "time"

// Member represents a registered member of the mediatheque.
type Member struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Borrower is the loan-eligibility identity linked 1:1 to a Member.
// It is created lazily on the member's first borrow. Eligibility is never
// stored here; it is recomputed from open loans on every check.
type Borrower struct {
	ID        int64     `json:"id" db:"id"`
	MemberID  int64     `json:"member_id" db:"member_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Member    *Member   `json:"member,omitempty"` // For joining with Member details
}
