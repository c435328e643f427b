package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediatheque_backend/internal/models"
)

// BorrowerRepository defines the interface for borrower-related database operations.
// Borrowers carry no cached eligibility state; they only anchor loans to a member.
type BorrowerRepository interface {
	CreateBorrower(executor SQLExecutor, borrower *models.Borrower) (int64, error)
	GetBorrowerByID(id int64) (*models.Borrower, error)
	GetBorrowerByMemberID(memberID int64) (*models.Borrower, error)
	GetOrCreateByMemberID(executor SQLExecutor, memberID int64) (*models.Borrower, error)
	DeleteBorrower(executor SQLExecutor, id int64) error
}

type borrowerRepository struct {
	db *sql.DB
}

// NewBorrowerRepository creates a new instance of BorrowerRepository.
func NewBorrowerRepository(db *sql.DB) BorrowerRepository {
	return &borrowerRepository{db: db}
}

// CreateBorrower inserts a new borrower record for a member.
func (r *borrowerRepository) CreateBorrower(executor SQLExecutor, borrower *models.Borrower) (int64, error) {
	query := `INSERT INTO borrowers (member_id, created_at)
	          VALUES ($1, $2)
	          RETURNING id`

	if borrower.CreatedAt.IsZero() {
		borrower.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query, borrower.MemberID, borrower.CreatedAt).Scan(&borrower.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating borrower for member %d: %v", ErrDatabaseError, borrower.MemberID, err)
	}
	return borrower.ID, nil
}

// GetBorrowerByID retrieves a borrower with their member details.
func (r *borrowerRepository) GetBorrowerByID(id int64) (*models.Borrower, error) {
	borrower := &models.Borrower{}
	member := &models.Member{}
	query := `SELECT b.id, b.member_id, b.created_at, m.id, m.name, m.created_at, m.updated_at
	          FROM borrowers b
	          JOIN members m ON b.member_id = m.id
	          WHERE b.id = $1`

	err := r.db.QueryRow(query, id).Scan(
		&borrower.ID, &borrower.MemberID, &borrower.CreatedAt,
		&member.ID, &member.Name, &member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting borrower by ID %d: %v", ErrDatabaseError, id, err)
	}
	borrower.Member = member
	return borrower, nil
}

// GetBorrowerByMemberID retrieves the borrower record attached to a member, if any.
func (r *borrowerRepository) GetBorrowerByMemberID(memberID int64) (*models.Borrower, error) {
	borrower := &models.Borrower{}
	query := `SELECT id, member_id, created_at FROM borrowers WHERE member_id = $1`

	err := r.db.QueryRow(query, memberID).Scan(&borrower.ID, &borrower.MemberID, &borrower.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting borrower by member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	return borrower, nil
}

// GetOrCreateByMemberID returns the member's borrower record, creating it on
// first use. Loans are the only reason a borrower record exists, so creation
// is deferred until the first borrow attempt.
func (r *borrowerRepository) GetOrCreateByMemberID(executor SQLExecutor, memberID int64) (*models.Borrower, error) {
	borrower := &models.Borrower{}
	query := `SELECT id, member_id, created_at FROM borrowers WHERE member_id = $1`

	err := executor.QueryRow(query, memberID).Scan(&borrower.ID, &borrower.MemberID, &borrower.CreatedAt)
	if err == nil {
		return borrower, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: looking up borrower for member %d: %v", ErrDatabaseError, memberID, err)
	}

	borrower = &models.Borrower{MemberID: memberID}
	if _, err := r.CreateBorrower(executor, borrower); err != nil {
		return nil, err
	}
	return borrower, nil
}

// DeleteBorrower removes a borrower record.
func (r *borrowerRepository) DeleteBorrower(executor SQLExecutor, id int64) error {
	query := `DELETE FROM borrowers WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting borrower ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
