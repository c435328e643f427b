package models

import "time"

// MediaKind defines the type for the catalog's media kinds.
type MediaKind string

const (
	MediaKindBook      MediaKind = "book"
	MediaKindCD        MediaKind = "cd"
	MediaKindDVD       MediaKind = "dvd"
	MediaKindBoardGame MediaKind = "board_game"
)

// IsValidMediaKind checks if the provided kind string is a known MediaKind.
func IsValidMediaKind(kind string) bool {
	switch MediaKind(kind) {
	case MediaKindBook, MediaKindCD, MediaKindDVD, MediaKindBoardGame:
		return true
	default:
		return false
	}
}

// Lendable reports whether items of this kind may be borrowed at all.
// Board games are catalog-only: they are listed but never leave the building.
func (k MediaKind) Lendable() bool {
	return k != MediaKindBoardGame
}

// CreatorRole returns the label for the kind-specific creator field
// (author for books, artist for CDs, director for DVDs, designer for board games).
func (k MediaKind) CreatorRole() string {
	switch k {
	case MediaKindBook:
		return "author"
	case MediaKindCD:
		return "artist"
	case MediaKindDVD:
		return "director"
	case MediaKindBoardGame:
		return "designer"
	default:
		return "creator"
	}
}

// MediaItem represents one catalog entry of any kind.
// Invariant maintained by the loan service: Available == false exactly when
// LoanDate and BorrowerID are set, and the three only change together.
type MediaItem struct {
	ID          int64      `json:"id" db:"id"`
	Kind        MediaKind  `json:"kind" db:"kind"`
	Title       string     `json:"title" db:"title"`
	Creator     string     `json:"creator" db:"creator"`
	CreatorRole string     `json:"creator_role"`
	Available   bool       `json:"available" db:"available"`
	LoanDate    *time.Time `json:"loan_date,omitempty" db:"loan_date"`
	BorrowerID  *int64     `json:"borrower_id,omitempty" db:"borrower_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// MediaFilters defines the available filters for querying the catalog.
type MediaFilters struct {
	Kind          *string `form:"kind"`
	AvailableOnly bool    `form:"available_only"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}
