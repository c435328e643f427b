package models

import "time"

// Loan ties a borrower to a media item over a date range.
// A nil ReturnDate means the loan is open and the item is out.
type Loan struct {
	ID          int64      `json:"id" db:"id"`
	BorrowerID  int64      `json:"borrower_id" db:"borrower_id"`
	MediaItemID int64      `json:"media_item_id" db:"media_item_id"`
	LoanDate    time.Time  `json:"loan_date" db:"loan_date"`
	ReturnDate  *time.Time `json:"return_date,omitempty" db:"return_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	MediaItem   *MediaItem `json:"media_item,omitempty"` // For joining with MediaItem details
}

// Open reports whether the loan has not been returned yet.
func (l *Loan) Open() bool {
	return l.ReturnDate == nil
}

// LoanFilters defines the available filters for querying loan history.
type LoanFilters struct {
	BorrowerID  *int64 `form:"borrower_id"`
	MediaItemID *int64 `form:"media_item_id"`
	OpenOnly    bool   `form:"open_only"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}
