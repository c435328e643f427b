package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediatheque_backend/internal/models"
)

// MediaRepository defines the interface for catalog database operations.
// Availability transitions are guarded single UPDATEs so the three linked
// fields (available, loan_date, borrower_id) can never be observed half-set.
type MediaRepository interface {
	CreateMediaItem(executor SQLExecutor, item *models.MediaItem) (int64, error)
	GetMediaItemByID(id int64) (*models.MediaItem, error)
	GetMediaItems(filters models.MediaFilters) ([]models.MediaItem, int, error) // Items, total count, error
	UpdateMediaItem(executor SQLExecutor, item *models.MediaItem) error
	DeleteMediaItem(executor SQLExecutor, id int64) error
	MarkBorrowed(executor SQLExecutor, itemID, borrowerID int64, loanDate time.Time) error
	MarkReturned(executor SQLExecutor, itemID int64) error
}

type mediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new instance of MediaRepository.
func NewMediaRepository(db *sql.DB) MediaRepository {
	return &mediaRepository{db: db}
}

// scanMediaItemRow scans one catalog row; used by GetMediaItemByID and GetMediaItems.
func scanMediaItemRow(row scanner, isList bool) (*models.MediaItem, int, error) {
	var item models.MediaItem
	var loanDate sql.NullTime
	var borrowerID sql.NullInt64
	var totalCount int

	scanDest := []interface{}{
		&item.ID, &item.Kind, &item.Title, &item.Creator, &item.Available,
		&loanDate, &borrowerID, &item.CreatedAt, &item.UpdatedAt,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	if err := row.Scan(scanDest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning media item: %v", ErrDatabaseError, err)
	}

	if loanDate.Valid {
		item.LoanDate = &loanDate.Time
	}
	if borrowerID.Valid {
		item.BorrowerID = &borrowerID.Int64
	}
	item.CreatorRole = item.Kind.CreatorRole()
	return &item, totalCount, nil
}

const selectMediaFields = `id, kind, title, creator, available, loan_date, borrower_id, created_at, updated_at`

// CreateMediaItem inserts a new catalog entry, available by default.
func (r *mediaRepository) CreateMediaItem(executor SQLExecutor, item *models.MediaItem) (int64, error) {
	query := `INSERT INTO media_items (kind, title, creator, available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	currentTime := time.Now()
	item.Available = true
	item.CreatedAt = currentTime
	item.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		item.Kind, item.Title, item.Creator, item.Available, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating media item: %v", ErrDatabaseError, err)
	}
	item.CreatorRole = item.Kind.CreatorRole()
	return item.ID, nil
}

// GetMediaItemByID retrieves a catalog entry by its ID.
func (r *mediaRepository) GetMediaItemByID(id int64) (*models.MediaItem, error) {
	query := `SELECT ` + selectMediaFields + ` FROM media_items WHERE id = $1`
	item, _, err := scanMediaItemRow(r.db.QueryRow(query, id), false)
	return item, err
}

// GetMediaItems retrieves catalog entries ordered by title, optionally
// restricted to one kind or to currently available items.
func (r *mediaRepository) GetMediaItems(filters models.MediaFilters) ([]models.MediaItem, int, error) {
	items := []models.MediaItem{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + selectMediaFields + `, COUNT(*) OVER() as total_count FROM media_items`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Kind != nil && *filters.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argCount))
		args = append(args, *filters.Kind)
		argCount++
	}
	if filters.AvailableOnly {
		conditions = append(conditions, "available = TRUE")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY title ASC")

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
		return nil, 0, fmt.Errorf("%w: querying media items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, scannedTotalCount, scanErr := scanMediaItemRow(rows, true)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		items = append(items, *item)
		totalCount = scannedTotalCount
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating media item rows: %v", ErrDatabaseError, err)
	}
	if len(items) == 0 {
		totalCount = 0
	}
	return items, totalCount, nil
}

// UpdateMediaItem updates the descriptive fields of a catalog entry.
// Availability and loan metadata are only touched via MarkBorrowed/MarkReturned.
func (r *mediaRepository) UpdateMediaItem(executor SQLExecutor, item *models.MediaItem) error {
	query := `UPDATE media_items SET title = $1, creator = $2, updated_at = $3 WHERE id = $4`
	item.UpdatedAt = time.Now()

	result, err := executor.Exec(query, item.Title, item.Creator, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("%w: updating media item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMediaItem removes a catalog entry.
func (r *mediaRepository) DeleteMediaItem(executor SQLExecutor, id int64) error {
	query := `DELETE FROM media_items WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting media item ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkBorrowed flips an available item to borrowed in one guarded statement.
// Returns ErrNotFound when no row matched, i.e. the item does not exist or is
// already out; the caller distinguishes the two from its prior read.
func (r *mediaRepository) MarkBorrowed(executor SQLExecutor, itemID, borrowerID int64, loanDate time.Time) error {
	query := `UPDATE media_items
	          SET available = FALSE, loan_date = $1, borrower_id = $2, updated_at = $3
	          WHERE id = $4 AND available = TRUE`

	result, err := executor.Exec(query, loanDate, borrowerID, time.Now(), itemID)
	if err != nil {
		return fmt.Errorf("%w: marking media item %d borrowed: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReturned flips an item back to available and clears loan metadata.
// Safe to call on an already-available item; that is a no-op by construction.
func (r *mediaRepository) MarkReturned(executor SQLExecutor, itemID int64) error {
	query := `UPDATE media_items
	          SET available = TRUE, loan_date = NULL, borrower_id = NULL, updated_at = $1
	          WHERE id = $2`

	result, err := executor.Exec(query, time.Now(), itemID)
	if err != nil {
		return fmt.Errorf("%w: marking media item %d returned: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
