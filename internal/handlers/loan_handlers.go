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

// LoanHandler holds the loan service.
type LoanHandler struct {
	loanService services.LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(ls services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: ls}
}

// BorrowRequest is the payload for borrowing a media item.
type BorrowRequest struct {
	MemberID    int64 `json:"member_id" binding:"required"`
	MediaItemID int64 `json:"media_item_id" binding:"required"`
}

// ReturnRequest is the payload for returning a media item.
type ReturnRequest struct {
	MemberID    int64 `json:"member_id" binding:"required"`
	MediaItemID int64 `json:"media_item_id" binding:"required"`
}

// respondLoanPolicyError maps policy-engine errors to HTTP responses. Policy
// violations are expected outcomes and come back as 409 with a readable
// reason; only the invariant violation is an internal error.
func respondLoanPolicyError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, services.ErrMemberNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
	case errors.Is(err, services.ErrMediaItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Media item not found.", err.Error()))
	case errors.Is(err, services.ErrNotLendable),
		errors.Is(err, services.ErrNotEligible),
		errors.Is(err, services.ErrAlreadyBorrowed),
		errors.Is(err, services.ErrNotBorrowedByThisBorrower),
		errors.Is(err, services.ErrAlreadyClosed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodePolicyViolation, err.Error(), err.Error()))
	case errors.Is(err, services.ErrInconsistentState):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Catalog and loan ledger disagree; operation aborted.", "Internal error"))
	default:
		return false
	}
	return true
}

// BorrowMediaItem handles lending a media item to a member.
func (h *LoanHandler) BorrowMediaItem(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	loan, err := h.loanService.Borrow(req.MemberID, req.MediaItemID)
	if err != nil {
		utils.LogError(err, "BorrowMediaItem: Error from loanService.Borrow")
		if !respondLoanPolicyError(c, err) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to borrow media item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, loan)
}

// ReturnMediaItem handles taking a media item back from a member.
func (h *LoanHandler) ReturnMediaItem(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	loan, err := h.loanService.Return(req.MemberID, req.MediaItemID)
	if err != nil {
		utils.LogError(err, "ReturnMediaItem: Error from loanService.Return")
		if !respondLoanPolicyError(c, err) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to return media item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, loan)
}

// GetLoans handles fetching loan history with pagination and filters.
func (h *LoanHandler) GetLoans(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	var filters models.LoanFilters
	filters.Page = page
	filters.PageSize = pageSize

	if borrowerIDStr := c.Query("borrower_id"); borrowerIDStr != "" {
		id, err := strconv.ParseInt(borrowerIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid borrower_id format.", err.Error()))
			return
		}
		filters.BorrowerID = &id
	}
	if mediaItemIDStr := c.Query("media_item_id"); mediaItemIDStr != "" {
		id, err := strconv.ParseInt(mediaItemIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid media_item_id format.", err.Error()))
			return
		}
		filters.MediaItemID = &id
	}
	filters.OpenOnly = c.Query("open_only") == "true"

	loans, totalCount, err := h.loanService.GetLoans(filters)
	if err != nil {
		utils.LogError(err, "GetLoans: Error from loanService.GetLoans")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch loans.", "Internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      loans,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetMemberActiveLoans handles fetching a member's open loans.
func (h *LoanHandler) GetMemberActiveLoans(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	loans, err := h.loanService.GetActiveLoans(memberID)
	if err != nil {
		utils.LogError(err, "GetMemberActiveLoans: Error from loanService.GetActiveLoans")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch active loans.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": loans, "total": len(loans)})
}

// GetMemberEligibility handles checking whether a member may borrow another item.
func (h *LoanHandler) GetMemberEligibility(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	eligible, err := h.loanService.IsEligible(memberID)
	if err != nil {
		utils.LogError(err, "GetMemberEligibility: Error from loanService.IsEligible")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to check eligibility.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"member_id": memberID, "eligible": eligible})
}
