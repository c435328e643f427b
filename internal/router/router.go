package router

import (
	"database/sql"

	"mediatheque_backend/internal/handlers"
	"mediatheque_backend/internal/middleware"
	"mediatheque_backend/internal/repositories"
	"mediatheque_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	borrowerRepo := repositories.NewBorrowerRepository(db)
	mediaRepo := repositories.NewMediaRepository(db)
	loanRepo := repositories.NewLoanRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo, db)
	memberService := services.NewMemberService(memberRepo, borrowerRepo, loanRepo, db)
	catalogService := services.NewCatalogService(mediaRepo, db)
	loanService := services.NewLoanService(loanRepo, mediaRepo, borrowerRepo, memberRepo, db)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	memberHandler := handlers.NewMemberHandler(memberService)
	mediaHandler := handlers.NewMediaHandler(catalogService)
	loanHandler := handlers.NewLoanHandler(loanService)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupMemberRoutes(authenticated, memberHandler, loanHandler)
		SetupMediaRoutes(authenticated, mediaHandler)
		SetupLoanRoutes(authenticated, loanHandler)
	}
}
