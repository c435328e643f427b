package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediatheque_backend/internal/models"
)

// MemberRepository defines the interface for member-related database operations.
type MemberRepository interface {
	CreateMember(executor SQLExecutor, member *models.Member) (int64, error)
	GetMemberByID(id int64) (*models.Member, error)
	GetMembers(page, pageSize int, searchTerm *string) ([]models.Member, int, error) // Members, total count, error
	UpdateMember(executor SQLExecutor, member *models.Member) error
	DeleteMember(executor SQLExecutor, id int64) error
}

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new instance of MemberRepository.
func NewMemberRepository(db *sql.DB) MemberRepository {
	return &memberRepository{db: db}
}

// CreateMember inserts a new member into the database.
func (r *memberRepository) CreateMember(executor SQLExecutor, member *models.Member) (int64, error) {
	query := `INSERT INTO members (name, created_at, updated_at)
	          VALUES ($1, $2, $3)
	          RETURNING id`

	currentTime := time.Now()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = currentTime
	}
	member.UpdatedAt = currentTime

	err := executor.QueryRow(query, member.Name, member.CreatedAt, member.UpdatedAt).Scan(&member.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating member: %v", ErrDatabaseError, err)
	}
	return member.ID, nil
}

// GetMemberByID retrieves a member by their ID.
func (r *memberRepository) GetMemberByID(id int64) (*models.Member, error) {
	member := &models.Member{}
	query := `SELECT id, name, created_at, updated_at FROM members WHERE id = $1`

	err := r.db.QueryRow(query, id).Scan(&member.ID, &member.Name, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by ID %d: %v", ErrDatabaseError, id, err)
	}
	return member, nil
}

// GetMembers retrieves members with pagination and an optional name search.
func (r *memberRepository) GetMembers(page, pageSize int, searchTerm *string) ([]models.Member, int, error) {
	members := []models.Member{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, name, created_at, updated_at, COUNT(*) OVER() as total_count FROM members`)

	var args []interface{}
	argCount := 1

	if searchTerm != nil && strings.TrimSpace(*searchTerm) != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE LOWER(name) LIKE LOWER($%d)", argCount))
		args = append(args, "%"+strings.TrimSpace(*searchTerm)+"%")
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY name ASC")

	if pageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, pageSize)
		argCount++
		if page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (page-1)*pageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying members: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var member models.Member
		if err := rows.Scan(&member.ID, &member.Name, &member.CreatedAt, &member.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning member row: %v", ErrDatabaseError, err)
		}
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating member rows: %v", ErrDatabaseError, err)
	}
	return members, totalCount, nil
}

// UpdateMember updates a member's name.
func (r *memberRepository) UpdateMember(executor SQLExecutor, member *models.Member) error {
	query := `UPDATE members SET name = $1, updated_at = $2 WHERE id = $3`
	member.UpdatedAt = time.Now()

	result, err := executor.Exec(query, member.Name, member.UpdatedAt, member.ID)
	if err != nil {
		return fmt.Errorf("%w: updating member ID %d: %v", ErrDatabaseError, member.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMember removes a member record.
func (r *memberRepository) DeleteMember(executor SQLExecutor, id int64) error {
	query := `DELETE FROM members WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting member ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
