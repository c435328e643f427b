package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediatheque_backend/internal/models"
	"mediatheque_backend/internal/repositories"
)

// --- Custom Service Errors for the Catalog ---
var (
	ErrMediaValidation = errors.New("media item data validation error")
	ErrMediaItemOnLoan = errors.New("media item is currently on loan")
)

// --- Catalog DTOs ---
type CreateMediaItemRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Creator string `json:"creator" binding:"required"`
}

type UpdateMediaItemRequest struct {
	Title   *string `json:"title"`
	Creator *string `json:"creator"`
}

// --- CatalogService Interface ---
type CatalogService interface {
	CreateMediaItem(req CreateMediaItemRequest) (*models.MediaItem, error)
	GetMediaItemByID(itemID int64) (*models.MediaItem, error)
	GetMediaItems(filters models.MediaFilters) ([]models.MediaItem, int, error)
	UpdateMediaItem(itemID int64, req UpdateMediaItemRequest) (*models.MediaItem, error)
	DeleteMediaItem(itemID int64) error
	IsOverdue(itemID int64) (bool, error)
}

// --- catalogService Implementation ---
type catalogService struct {
	mediaRepo repositories.MediaRepository
	db        *sql.DB
	now       func() time.Time
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(mr repositories.MediaRepository, db *sql.DB) CatalogService {
	return &catalogService{
		mediaRepo: mr,
		db:        db,
		now:       time.Now,
	}
}

func (s *catalogService) CreateMediaItem(req CreateMediaItemRequest) (*models.MediaItem, error) {
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if !models.IsValidMediaKind(kind) {
		return nil, fmt.Errorf("%w: unknown kind '%s'", ErrMediaValidation, req.Kind)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrMediaValidation)
	}
	creator := strings.TrimSpace(req.Creator)
	if creator == "" {
		return nil, fmt.Errorf("%w: creator must not be empty", ErrMediaValidation)
	}

	item := &models.MediaItem{
		Kind:    models.MediaKind(kind),
		Title:   title,
		Creator: creator,
	}
	if _, err := s.mediaRepo.CreateMediaItem(s.db, item); err != nil {
		return nil, fmt.Errorf("failed to create media item in repository: %w", err)
	}
	return item, nil
}

func (s *catalogService) GetMediaItemByID(itemID int64) (*models.MediaItem, error) {
	item, err := s.mediaRepo.GetMediaItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMediaItemNotFound
		}
		return nil, fmt.Errorf("failed to get media item by ID: %w", err)
	}
	return item, nil
}

func (s *catalogService) GetMediaItems(filters models.MediaFilters) ([]models.MediaItem, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	if filters.Kind != nil && *filters.Kind != "" && !models.IsValidMediaKind(*filters.Kind) {
		return nil, 0, fmt.Errorf("%w: unknown kind '%s'", ErrMediaValidation, *filters.Kind)
	}

	items, totalCount, err := s.mediaRepo.GetMediaItems(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get media items: %w", err)
	}
	return items, totalCount, nil
}

func (s *catalogService) UpdateMediaItem(itemID int64, req UpdateMediaItemRequest) (*models.MediaItem, error) {
	item, err := s.mediaRepo.GetMediaItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMediaItemNotFound
		}
		return nil, fmt.Errorf("failed to find media item for update: %w", err)
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrMediaValidation)
		}
		item.Title = title
	}
	if req.Creator != nil {
		creator := strings.TrimSpace(*req.Creator)
		if creator == "" {
			return nil, fmt.Errorf("%w: creator must not be empty", ErrMediaValidation)
		}
		item.Creator = creator
	}

	if err := s.mediaRepo.UpdateMediaItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMediaItemNotFound
		}
		return nil, fmt.Errorf("failed to update media item in repository: %w", err)
	}
	return item, nil
}

// DeleteMediaItem removes a catalog entry. Items currently out on loan cannot
// be deleted; the loan must be returned first.
func (s *catalogService) DeleteMediaItem(itemID int64) error {
	item, err := s.mediaRepo.GetMediaItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMediaItemNotFound
		}
		return fmt.Errorf("failed to find media item for deletion: %w", err)
	}
	if !item.Available {
		return ErrMediaItemOnLoan
	}

	if err := s.mediaRepo.DeleteMediaItem(s.db, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMediaItemNotFound
		}
		return fmt.Errorf("failed to delete media item: %w", err)
	}
	return nil
}

// IsOverdue reports whether an item's current loan has exceeded the loan
// period. An available item is never overdue.
func (s *catalogService) IsOverdue(itemID int64) (bool, error) {
	item, err := s.mediaRepo.GetMediaItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, ErrMediaItemNotFound
		}
		return false, fmt.Errorf("failed to get media item for overdue check: %w", err)
	}
	if item.LoanDate == nil {
		return false, nil
	}
	return overdueOn(*item.LoanDate, s.now()), nil
}
