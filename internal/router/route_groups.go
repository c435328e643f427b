package router

import (
	"mediatheque_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes sets up the authentication routes that need no token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterUser)
	group.POST("/login", authHandler.LoginUser)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

// SetupAuthenticatedAuthRoutes sets up the authenticated auth routes.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupMemberRoutes sets up the member directory routes.
func SetupMemberRoutes(authenticatedGroup *gin.RouterGroup, memberHandler *handlers.MemberHandler, loanHandler *handlers.LoanHandler) {
	memberRoutes := authenticatedGroup.Group("/members")
	{
		memberRoutes.POST("", memberHandler.CreateMember)
		memberRoutes.GET("", memberHandler.GetMembers)
		memberRoutes.GET("/:id", memberHandler.GetMemberByID)
		memberRoutes.PUT("/:id", memberHandler.UpdateMember)
		memberRoutes.DELETE("/:id", memberHandler.DeleteMember)
		memberRoutes.GET("/:id/loans", loanHandler.GetMemberActiveLoans)
		memberRoutes.GET("/:id/eligibility", loanHandler.GetMemberEligibility)
	}
}

// SetupMediaRoutes sets up the media catalog routes.
func SetupMediaRoutes(authenticatedGroup *gin.RouterGroup, mediaHandler *handlers.MediaHandler) {
	mediaRoutes := authenticatedGroup.Group("/media")
	{
		mediaRoutes.POST("", mediaHandler.CreateMediaItem)
		mediaRoutes.GET("", mediaHandler.GetMediaItems)
		mediaRoutes.GET("/:id", mediaHandler.GetMediaItemByID)
		mediaRoutes.PUT("/:id", mediaHandler.UpdateMediaItem)
		mediaRoutes.DELETE("/:id", mediaHandler.DeleteMediaItem)
		mediaRoutes.GET("/:id/overdue", mediaHandler.GetMediaItemOverdue)
	}
}

// SetupLoanRoutes sets up the lending routes.
func SetupLoanRoutes(authenticatedGroup *gin.RouterGroup, loanHandler *handlers.LoanHandler) {
	loanRoutes := authenticatedGroup.Group("/loans")
	{
		loanRoutes.POST("/borrow", loanHandler.BorrowMediaItem)
		loanRoutes.POST("/return", loanHandler.ReturnMediaItem)
		loanRoutes.GET("", loanHandler.GetLoans)
	}
}
