package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediatheque_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// AuthRepository defines the interface for librarian account operations.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, passwordHash string) (int64, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int64) (*models.User, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new librarian account.
func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, passwordHash string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, full_name, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	currentTime := time.Now()
	user.IsActive = true
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		user.Username, passwordHash, user.FullName, user.IsActive, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return user.ID, nil
}

// GetUserByUsername retrieves a librarian account by username, hash included.
func (r *authRepository) GetUserByUsername(username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, full_name, is_active, created_at, updated_at
	          FROM users WHERE username = $1`

	err := r.db.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user by username: %v", ErrDatabaseError, err)
	}
	return user, nil
}

// GetUserByID retrieves a librarian account by ID.
func (r *authRepository) GetUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, full_name, is_active, created_at, updated_at
	          FROM users WHERE id = $1`

	err := r.db.QueryRow(query, id).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user by ID %d: %v", ErrDatabaseError, id, err)
	}
	return user, nil
}
