package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"platita/internal/config"
	"platita/internal/database"
	"platita/internal/handlers"
	"platita/internal/logger"
	"platita/internal/middleware"
	"platita/internal/ratelimit"
	"platita/internal/rates"
	"platita/internal/services"
	"platita/internal/validator"

	_ "platita/internal/docs" // Import swagger docs
)

// @title           Platita API
// @version         1.0
// @description     Platita is a personal ledger that tracks movements, transfers, receivables, and balances across CLP and USD accounts.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	rateSource := rates.NewClient(&http.Client{Timeout: appConfig.RateHTTPTimeout}, appConfig.RateSourceURL)
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	rateService := services.NewRateService(db, rateSource, appConfig.RateFreshness)
	movementService := services.NewMovementService(db, accountService, rateService)
	transferService := services.NewTransferService(db, accountService, movementService, rateService)
	receivableService := services.NewReceivableService(db, accountService, movementService)
	splitService := services.NewSplitService(db, movementService)
	balanceService := services.NewBalanceService(db, accountService, rateService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService, balanceService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	movementHandler := handlers.NewMovementHandler(movementService, splitService, auditService)
	transferHandler := handlers.NewTransferHandler(transferService, auditService)
	receivableHandler := handlers.NewReceivableHandler(receivableService, auditService)
	reportHandler := handlers.NewReportHandler(balanceService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes, throttled per client IP
	authLimiter := ratelimit.NewFixedWindow(appConfig.AuthRateLimit, appConfig.AuthRateWindow)
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(authLimiter))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.GET("/:id/balance", accountHandler.GetAccountBalance)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeactivateAccount)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Movement routes
	movements := protected.Group("/movements")
	movements.POST("", movementHandler.CreateMovement)
	movements.GET("", movementHandler.ListMovements)
	movements.GET("/:id", movementHandler.GetMovementByID)
	movements.PUT("/:id", movementHandler.UpdateMovement)
	movements.DELETE("/:id", movementHandler.DeleteMovement)
	movements.POST("/:id/review", movementHandler.ConfirmReview)
	movements.POST("/:id/split", movementHandler.SplitMovement)
	movements.POST("/:id/convert-to-transfer", transferHandler.ConvertToTransfer)
	movements.POST("/:id/receivable", receivableHandler.MarkReceivable)
	movements.DELETE("/:id/receivable", receivableHandler.UnmarkReceivable)
	movements.POST("/:id/received", receivableHandler.MarkAsReceived)
	movements.POST("/:id/received/link", receivableHandler.LinkPayment)

	// Transfer routes
	transfers := protected.Group("/transfers")
	transfers.POST("", transferHandler.CreateTransfer)
	transfers.GET("/:id", transferHandler.GetTransfer)
	transfers.PUT("/:id", transferHandler.UpdateTransfer)
	transfers.DELETE("/:id", transferHandler.DeleteTransfer)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/balance", reportHandler.GetTotalBalance)
	reports.GET("/daily", reportHandler.GetDailyTotals)

	log.Infof("Starting Platita backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
