package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mediatheque_backend/internal/models"
	"mediatheque_backend/internal/services"
	"mediatheque_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MediaHandler holds the catalog service.
type MediaHandler struct {
	catalogService services.CatalogService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(cs services.CatalogService) *MediaHandler {
	return &MediaHandler{catalogService: cs}
}

// CreateMediaItem handles adding a new catalog entry.
func (h *MediaHandler) CreateMediaItem(c *gin.Context) {
	var req services.CreateMediaItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.catalogService.CreateMediaItem(req)
	if err != nil {
		utils.LogError(err, "CreateMediaItem: Error from catalogService.CreateMediaItem")
		if errors.Is(err, services.ErrMediaValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create media item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetMediaItems handles listing the catalog with pagination and filters.
func (h *MediaHandler) GetMediaItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var filters models.MediaFilters
	filters.Page = page
	filters.PageSize = pageSize

	if kind := c.Query("kind"); kind != "" {
		if !models.IsValidMediaKind(kind) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid kind value.", "kind: "+kind))
			return
		}
		filters.Kind = &kind
	}
	filters.AvailableOnly = c.Query("available_only") == "true"

	items, totalCount, err := h.catalogService.GetMediaItems(filters)
	if err != nil {
		utils.LogError(err, "GetMediaItems: Error from catalogService.GetMediaItems")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch media items.", "Internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      items,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetMediaItemByID handles fetching a single catalog entry.
func (h *MediaHandler) GetMediaItemByID(c *gin.Context) {
	itemID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid media item ID format.", err.Error()))
		return
	}

	item, err := h.catalogService.GetMediaItemByID(itemID)
	if err != nil {
		utils.LogError(err, "GetMediaItemByID: Error from catalogService.GetMediaItemByID")
		if errors.Is(err, services.ErrMediaItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Media item not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch media item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateMediaItem handles updating a catalog entry's descriptive fields.
func (h *MediaHandler) UpdateMediaItem(c *gin.Context) {
	itemID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid media item ID format.", err.Error()))
		return
	}

	var req services.UpdateMediaItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.catalogService.UpdateMediaItem(itemID, req)
	if err != nil {
		utils.LogError(err, "UpdateMediaItem: Error from catalogService.UpdateMediaItem")
		if errors.Is(err, services.ErrMediaItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Media item not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrMediaValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update media item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteMediaItem handles removing a catalog entry.
func (h *MediaHandler) DeleteMediaItem(c *gin.Context) {
	itemID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid media item ID format.", err.Error()))
		return
	}

	if err := h.catalogService.DeleteMediaItem(itemID); err != nil {
		utils.LogError(err, "DeleteMediaItem: Error from catalogService.DeleteMediaItem")
		if errors.Is(err, services.ErrMediaItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Media item not found to delete.", err.Error()))
		} else if errors.Is(err, services.ErrMediaItemOnLoan) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete media item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Media item deleted successfully"})
}

// GetMediaItemOverdue handles checking whether an item's current loan is overdue.
func (h *MediaHandler) GetMediaItemOverdue(c *gin.Context) {
	itemID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid media item ID format.", err.Error()))
		return
	}

	overdue, err := h.catalogService.IsOverdue(itemID)
	if err != nil {
		utils.LogError(err, "GetMediaItemOverdue: Error from catalogService.IsOverdue")
		if errors.Is(err, services.ErrMediaItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Media item not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to check overdue status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"media_item_id": itemID, "overdue": overdue})
}
