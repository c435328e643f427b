package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mediatheque_backend/internal/services"
	"mediatheque_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MemberHandler holds the member service.
type MemberHandler struct {
	memberService services.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(ms services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: ms}
}

// CreateMember handles registering a new member.
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req services.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	member, err := h.memberService.CreateMember(req)
	if err != nil {
		utils.LogError(err, "CreateMember: Error from memberService.CreateMember")
		if errors.Is(err, services.ErrMemberValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, member)
}

// GetMembers handles listing members with pagination and an optional name search.
func (h *MemberHandler) GetMembers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var searchTerm *string
	if search := c.Query("search"); search != "" {
		searchTerm = &search
	}

	members, totalCount, err := h.memberService.GetMembers(page, pageSize, searchTerm)
	if err != nil {
		utils.LogError(err, "GetMembers: Error from memberService.GetMembers")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch members.", "Internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      members,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetMemberByID handles fetching a single member.
func (h *MemberHandler) GetMemberByID(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	member, err := h.memberService.GetMemberByID(memberID)
	if err != nil {
		utils.LogError(err, "GetMemberByID: Error from memberService.GetMemberByID")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, member)
}

// UpdateMember handles renaming a member.
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	var req services.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	member, err := h.memberService.UpdateMember(memberID, req)
	if err != nil {
		utils.LogError(err, "UpdateMember: Error from memberService.UpdateMember")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrMemberValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeleteMember handles removing a member without loan history.
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	if err := h.memberService.DeleteMember(memberID); err != nil {
		utils.LogError(err, "DeleteMember: Error from memberService.DeleteMember")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found to delete.", err.Error()))
		} else if errors.Is(err, services.ErrMemberHasOpenLoans) || errors.Is(err, services.ErrMemberHasLoans) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member deleted successfully"})
}
