package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediatheque_backend/internal/models"
)

// LoanRepository defines the interface for the loan ledger.
// It performs no policy validation; that is the loan service's job.
type LoanRepository interface {
	CreateLoan(executor SQLExecutor, loan *models.Loan) (*models.Loan, error)
	CloseLoan(executor SQLExecutor, loanID int64, returnDate time.Time) error
	GetLoanByID(id int64) (*models.Loan, error)
	GetOpenLoansByBorrower(borrowerID int64) ([]models.Loan, error)
	GetOpenLoanByMediaItem(mediaItemID int64) (*models.Loan, error)
	GetLoans(filters models.LoanFilters) ([]models.Loan, int, error) // Loans, total count. Joins media details.
}

type loanRepository struct {
	db *sql.DB
}

// NewLoanRepository creates a new instance of LoanRepository.
func NewLoanRepository(db *sql.DB) LoanRepository {
	return &loanRepository{db: db}
}

// scanLoanRow scans a loan row with its joined media item details.
func scanLoanRow(row scanner, isList bool) (*models.Loan, int, error) {
	var loan models.Loan
	var item models.MediaItem
	var returnDate sql.NullTime
	var itemLoanDate sql.NullTime
	var itemBorrowerID sql.NullInt64
	var totalCount int

	scanDest := []interface{}{
		&loan.ID, &loan.BorrowerID, &loan.MediaItemID, &loan.LoanDate, &returnDate,
		&loan.CreatedAt, &loan.UpdatedAt,
		&item.ID, &item.Kind, &item.Title, &item.Creator, &item.Available,
		&itemLoanDate, &itemBorrowerID, &item.CreatedAt, &item.UpdatedAt,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	if err := row.Scan(scanDest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning loan with details: %v", ErrDatabaseError, err)
	}

	if returnDate.Valid {
		loan.ReturnDate = &returnDate.Time
	}
	if itemLoanDate.Valid {
		item.LoanDate = &itemLoanDate.Time
	}
	if itemBorrowerID.Valid {
		item.BorrowerID = &itemBorrowerID.Int64
	}
	item.CreatorRole = item.Kind.CreatorRole()
	loan.MediaItem = &item
	return &loan, totalCount, nil
}

const selectLoanFields = `
	l.id, l.borrower_id, l.media_item_id, l.loan_date, l.return_date, l.created_at, l.updated_at,
	mi.id, mi.kind, mi.title, mi.creator, mi.available, mi.loan_date, mi.borrower_id, mi.created_at, mi.updated_at
`
const loanJoins = `
	FROM loans l
	JOIN media_items mi ON l.media_item_id = mi.id
`

// CreateLoan appends a new open loan to the ledger.
func (r *loanRepository) CreateLoan(executor SQLExecutor, loan *models.Loan) (*models.Loan, error) {
	query := `INSERT INTO loans (borrower_id, media_item_id, loan_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	currentTime := time.Now()
	loan.CreatedAt = currentTime
	loan.UpdatedAt = currentTime
	loan.ReturnDate = nil

	err := executor.QueryRow(query,
		loan.BorrowerID, loan.MediaItemID, loan.LoanDate, loan.CreatedAt, loan.UpdatedAt,
	).Scan(&loan.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: creating loan: %v", ErrDatabaseError, err)
	}
	return loan, nil
}

// CloseLoan sets the return date on an open loan. The WHERE guard makes the
// statement match only open loans; zero affected rows yields ErrNotFound,
// which callers map to "already closed" when the loan is known to exist.
func (r *loanRepository) CloseLoan(executor SQLExecutor, loanID int64, returnDate time.Time) error {
	query := `UPDATE loans SET return_date = $1, updated_at = $2
	          WHERE id = $3 AND return_date IS NULL`

	result, err := executor.Exec(query, returnDate, time.Now(), loanID)
	if err != nil {
		return fmt.Errorf("%w: closing loan ID %d: %v", ErrDatabaseError, loanID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetLoanByID retrieves a single loan with media details.
func (r *loanRepository) GetLoanByID(id int64) (*models.Loan, error) {
	query := "SELECT " + selectLoanFields + loanJoins + " WHERE l.id = $1"
	loan, _, err := scanLoanRow(r.db.QueryRow(query, id), false)
	return loan, err
}

// GetOpenLoansByBorrower retrieves all of a borrower's loans with no return date.
func (r *loanRepository) GetOpenLoansByBorrower(borrowerID int64) ([]models.Loan, error) {
	query := "SELECT " + selectLoanFields + loanJoins +
		" WHERE l.borrower_id = $1 AND l.return_date IS NULL ORDER BY l.loan_date ASC"

	rows, err := r.db.Query(query, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying open loans for borrower %d: %v", ErrDatabaseError, borrowerID, err)
	}
	defer rows.Close()

	loans := []models.Loan{}
	for rows.Next() {
		loan, _, scanErr := scanLoanRow(rows, false)
		if scanErr != nil {
			return nil, scanErr
		}
		loans = append(loans, *loan)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating open loan rows: %v", ErrDatabaseError, err)
	}
	return loans, nil
}

// GetOpenLoanByMediaItem retrieves the single open loan for an item, if any.
// A partial unique index on the loans table enforces the at-most-one invariant.
func (r *loanRepository) GetOpenLoanByMediaItem(mediaItemID int64) (*models.Loan, error) {
	query := "SELECT " + selectLoanFields + loanJoins +
		" WHERE l.media_item_id = $1 AND l.return_date IS NULL"
	loan, _, err := scanLoanRow(r.db.QueryRow(query, mediaItemID), false)
	return loan, err
}

// GetLoans retrieves loan history with filters and pagination.
func (r *loanRepository) GetLoans(filters models.LoanFilters) ([]models.Loan, int, error) {
	loans := []models.Loan{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectLoanFields + ", COUNT(*) OVER() as total_count " + loanJoins)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.BorrowerID != nil {
		conditions = append(conditions, fmt.Sprintf("l.borrower_id = $%d", argCount))
		args = append(args, *filters.BorrowerID)
		argCount++
	}
	if filters.MediaItemID != nil {
		conditions = append(conditions, fmt.Sprintf("l.media_item_id = $%d", argCount))
		args = append(args, *filters.MediaItemID)
		argCount++
	}
	if filters.OpenOnly {
		conditions = append(conditions, "l.return_date IS NULL")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY l.loan_date DESC, l.id DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying loans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		loan, scannedTotalCount, scanErr := scanLoanRow(rows, true)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		loans = append(loans, *loan)
		totalCount = scannedTotalCount
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating loan rows: %v", ErrDatabaseError, err)
	}
	if len(loans) == 0 {
		totalCount = 0
	}
	return loans, totalCount, nil
}
