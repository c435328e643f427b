package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mediatheque_backend/internal/models"
	"mediatheque_backend/internal/repositories"
)

// --- Custom Service Errors for Members ---
var (
	ErrMemberValidation   = errors.New("member data validation error")
	ErrMemberHasOpenLoans = errors.New("member still has open loans")
	ErrMemberHasLoans     = errors.New("member has loan history and cannot be deleted")
)

// --- Member DTOs ---
type CreateMemberRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateMemberRequest struct {
	Name string `json:"name" binding:"required"`
}

// --- MemberService Interface ---
type MemberService interface {
	CreateMember(req CreateMemberRequest) (*models.Member, error)
	GetMemberByID(memberID int64) (*models.Member, error)
	GetMembers(page, pageSize int, searchTerm *string) ([]models.Member, int, error)
	UpdateMember(memberID int64, req UpdateMemberRequest) (*models.Member, error)
	DeleteMember(memberID int64) error
}

// --- memberService Implementation ---
type memberService struct {
	memberRepo   repositories.MemberRepository
	borrowerRepo repositories.BorrowerRepository
	loanRepo     repositories.LoanRepository
	db           *sql.DB
}

// NewMemberService creates a new instance of MemberService.
func NewMemberService(
	mr repositories.MemberRepository,
	br repositories.BorrowerRepository,
	lr repositories.LoanRepository,
	db *sql.DB,
) MemberService {
	return &memberService{
		memberRepo:   mr,
		borrowerRepo: br,
		loanRepo:     lr,
		db:           db,
	}
}

func (s *memberService) CreateMember(req CreateMemberRequest) (*models.Member, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrMemberValidation)
	}

	member := &models.Member{Name: name}
	if _, err := s.memberRepo.CreateMember(s.db, member); err != nil {
		return nil, fmt.Errorf("failed to create member in repository: %w", err)
	}
	return member, nil
}

func (s *memberService) GetMemberByID(memberID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by ID: %w", err)
	}
	return member, nil
}

func (s *memberService) GetMembers(page, pageSize int, searchTerm *string) ([]models.Member, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	members, totalCount, err := s.memberRepo.GetMembers(page, pageSize, searchTerm)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get members: %w", err)
	}
	return members, totalCount, nil
}

func (s *memberService) UpdateMember(memberID int64, req UpdateMemberRequest) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member for update: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrMemberValidation)
	}
	member.Name = name

	if err := s.memberRepo.UpdateMember(s.db, member); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to update member in repository: %w", err)
	}
	return member, nil
}

// DeleteMember removes a member. A member whose borrower record has open
// loans cannot be deleted; one with a closed loan history is kept as well so
// the ledger stays referentially intact.
func (s *memberService) DeleteMember(memberID int64) error {
	if _, err := s.memberRepo.GetMemberByID(memberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find member for deletion: %w", err)
	}

	borrower, err := s.borrowerRepo.GetBorrowerByMemberID(memberID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to resolve borrower for member deletion: %w", err)
	}

	if borrower != nil {
		openLoans, err := s.loanRepo.GetOpenLoansByBorrower(borrower.ID)
		if err != nil {
			return fmt.Errorf("failed to check open loans for member deletion: %w", err)
		}
		if len(openLoans) > 0 {
			return ErrMemberHasOpenLoans
		}

		_, totalCount, err := s.loanRepo.GetLoans(models.LoanFilters{
			BorrowerID: &borrower.ID, Page: 1, PageSize: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to check loan history for member deletion: %w", err)
		}
		if totalCount > 0 {
			return ErrMemberHasLoans
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin member deletion transaction: %w", err)
	}
	defer tx.Rollback()

	if borrower != nil {
		if err := s.borrowerRepo.DeleteBorrower(tx, borrower.ID); err != nil {
			return fmt.Errorf("failed to delete borrower record: %w", err)
		}
	}

	if err := s.memberRepo.DeleteMember(tx, memberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to delete member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit member deletion transaction: %w", err)
	}
	return nil
}
