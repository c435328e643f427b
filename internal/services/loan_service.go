package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediatheque_backend/internal/models"
	"mediatheque_backend/internal/repositories"
	"mediatheque_backend/pkg/utils"
)

// Borrowing policy constants.
const (
	// MaxConcurrentLoans caps the number of simultaneously open loans per
	// borrower. A borrow is allowed only with strictly fewer open loans.
	MaxConcurrentLoans = 3

	// LoanPeriodDays is the loan period. An open loan is overdue once it is
	// older than this; a loan taken exactly LoanPeriodDays ago is not overdue.
	LoanPeriodDays = 7
)

// --- Custom Service Errors for Loans ---
var (
	ErrMediaItemNotFound         = errors.New("media item not found")
	ErrMemberNotFound            = errors.New("member not found")
	ErrLoanNotFound              = errors.New("loan not found")
	ErrNotLendable               = errors.New("this kind of media cannot be borrowed")
	ErrNotEligible               = errors.New("borrower is not eligible to borrow (overdue loan or loan cap reached)")
	ErrAlreadyBorrowed           = errors.New("media item is already borrowed")
	ErrNotBorrowedByThisBorrower = errors.New("media item is not borrowed by this member")
	ErrAlreadyClosed             = errors.New("loan is already closed")
	ErrInconsistentState         = errors.New("catalog and loan ledger are inconsistent")
)

// --- LoanService Interface ---
// LoanService is the borrowing policy engine: it decides whether a member may
// take or return an item and keeps the catalog and the loan ledger consistent.
type LoanService interface {
	Borrow(memberID, mediaItemID int64) (*models.Loan, error)
	Return(memberID, mediaItemID int64) (*models.Loan, error)
	IsEligible(memberID int64) (bool, error)
	GetActiveLoans(memberID int64) ([]models.Loan, error)
	GetLoans(filters models.LoanFilters) ([]models.Loan, int, error)
}

// --- loanService Implementation ---
type loanService struct {
	loanRepo     repositories.LoanRepository
	mediaRepo    repositories.MediaRepository
	borrowerRepo repositories.BorrowerRepository
	memberRepo   repositories.MemberRepository
	db           *sql.DB          // For managing transactions
	now          func() time.Time // Injected clock, overridable in tests
}

// NewLoanService creates a new instance of LoanService.
func NewLoanService(
	lr repositories.LoanRepository,
	mr repositories.MediaRepository,
	br repositories.BorrowerRepository,
	mem repositories.MemberRepository,
	db *sql.DB,
) LoanService {
	return &loanService{
		loanRepo:     lr,
		mediaRepo:    mr,
		borrowerRepo: br,
		memberRepo:   mem,
		db:           db,
		now:          time.Now,
	}
}

// truncateToDay drops the time-of-day component; loan policy works in whole days.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// overdueOn reports whether a loan taken on loanDate is overdue as of today.
// Strict comparison: a loan aged exactly LoanPeriodDays is still on time.
func overdueOn(loanDate, today time.Time) bool {
	days := int(truncateToDay(today).Sub(truncateToDay(loanDate)).Hours() / 24)
	return days > LoanPeriodDays
}

// hasOverdueLoan reports whether any of the given open loans is overdue.
func hasOverdueLoan(openLoans []models.Loan, today time.Time) bool {
	for i := range openLoans {
		if overdueOn(openLoans[i].LoanDate, today) {
			return true
		}
	}
	return false
}

// eligible recomputes borrowing eligibility from live loan state. There is no
// stored "blocked" flag: returning the overdue item restores eligibility on
// the next check.
func eligible(openLoans []models.Loan, today time.Time) bool {
	return !hasOverdueLoan(openLoans, today) && len(openLoans) < MaxConcurrentLoans
}

// Borrow lends a media item to a member. Checks run in policy order: kind
// lendability, borrower eligibility, item availability. On success the loan
// ledger append and the catalog flip happen inside one transaction, so a
// failure of either leaves no partial state behind.
//
// Single-actor deployment today; a multi-actor one would additionally need
// per-item mutual exclusion around the availability check.
func (s *loanService) Borrow(memberID, mediaItemID int64) (*models.Loan, error) {
	item, err := s.mediaRepo.GetMediaItemByID(mediaItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMediaItemNotFound
		}
		return nil, fmt.Errorf("failed to load media item for borrow: %w", err)
	}

	if !item.Kind.Lendable() {
		return nil, ErrNotLendable
	}

	if _, err := s.memberRepo.GetMemberByID(memberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member for borrow: %w", err)
	}

	borrower, err := s.borrowerRepo.GetOrCreateByMemberID(s.db, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve borrower: %w", err)
	}

	openLoans, err := s.loanRepo.GetOpenLoansByBorrower(borrower.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open loans for eligibility check: %w", err)
	}

	today := s.now()
	if !eligible(openLoans, today) {
		return nil, ErrNotEligible
	}
	if !item.Available {
		return nil, ErrAlreadyBorrowed
	}

	// The ledger append and the catalog flip must land together; everything
	// above was read-only.
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin borrow transaction: %w", err)
	}
	defer tx.Rollback()

	loan := &models.Loan{
		BorrowerID:  borrower.ID,
		MediaItemID: item.ID,
		LoanDate:    truncateToDay(today),
	}
	if _, err := s.loanRepo.CreateLoan(tx, loan); err != nil {
		return nil, fmt.Errorf("failed to open loan: %w", err)
	}

	if err := s.mediaRepo.MarkBorrowed(tx, item.ID, borrower.ID, loan.LoanDate); err != nil {
		// The guarded UPDATE matched no row: availability changed since our
		// read. The rollback discards the just-created loan.
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAlreadyBorrowed
		}
		return nil, fmt.Errorf("failed to mark media item borrowed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit borrow transaction: %w", err)
	}
	return loan, nil
}

// Return takes a media item back from a member, closing the open loan and
// freeing the catalog entry in one transaction.
func (s *loanService) Return(memberID, mediaItemID int64) (*models.Loan, error) {
	item, err := s.mediaRepo.GetMediaItemByID(mediaItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMediaItemNotFound
		}
		return nil, fmt.Errorf("failed to load media item for return: %w", err)
	}

	borrower, err := s.borrowerRepo.GetBorrowerByMemberID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Member never borrowed anything, so certainly not this item.
			return nil, ErrNotBorrowedByThisBorrower
		}
		return nil, fmt.Errorf("failed to resolve borrower for return: %w", err)
	}

	if item.BorrowerID == nil || *item.BorrowerID != borrower.ID {
		return nil, ErrNotBorrowedByThisBorrower
	}

	loan, err := s.loanRepo.GetOpenLoanByMediaItem(item.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// The catalog says the item is out but the ledger has no open
			// loan. This is an invariant violation, not a user error.
			utils.LogError(ErrInconsistentState,
				fmt.Sprintf("media item %d marked unavailable with no open loan", item.ID))
			return nil, ErrInconsistentState
		}
		return nil, fmt.Errorf("failed to locate open loan for return: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin return transaction: %w", err)
	}
	defer tx.Rollback()

	returnDate := truncateToDay(s.now())
	if err := s.loanRepo.CloseLoan(tx, loan.ID, returnDate); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAlreadyClosed
		}
		return nil, fmt.Errorf("failed to close loan: %w", err)
	}

	if err := s.mediaRepo.MarkReturned(tx, item.ID); err != nil {
		return nil, fmt.Errorf("failed to mark media item returned: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit return transaction: %w", err)
	}

	loan.ReturnDate = &returnDate
	return loan, nil
}

// IsEligible reports whether a member may currently borrow another item.
// Members without a borrower record have no loans and are trivially eligible.
func (s *loanService) IsEligible(memberID int64) (bool, error) {
	if _, err := s.memberRepo.GetMemberByID(memberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, ErrMemberNotFound
		}
		return false, fmt.Errorf("failed to load member for eligibility check: %w", err)
	}

	borrower, err := s.borrowerRepo.GetBorrowerByMemberID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("failed to resolve borrower for eligibility check: %w", err)
	}

	openLoans, err := s.loanRepo.GetOpenLoansByBorrower(borrower.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load open loans for eligibility check: %w", err)
	}
	return eligible(openLoans, s.now()), nil
}

// GetActiveLoans returns a member's open loans, oldest first.
func (s *loanService) GetActiveLoans(memberID int64) ([]models.Loan, error) {
	if _, err := s.memberRepo.GetMemberByID(memberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member for active loans: %w", err)
	}

	borrower, err := s.borrowerRepo.GetBorrowerByMemberID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return []models.Loan{}, nil
		}
		return nil, fmt.Errorf("failed to resolve borrower for active loans: %w", err)
	}

	loans, err := s.loanRepo.GetOpenLoansByBorrower(borrower.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active loans: %w", err)
	}
	return loans, nil
}

// GetLoans returns loan history with filters and pagination.
func (s *loanService) GetLoans(filters models.LoanFilters) ([]models.Loan, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 10
	}

	loans, totalCount, err := s.loanRepo.GetLoans(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get loans: %w", err)
	}
	return loans, totalCount, nil
}
