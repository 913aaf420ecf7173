package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exitprotocol/internal/config"
	"exitprotocol/internal/database"
	"exitprotocol/internal/handlers"
	"exitprotocol/internal/jobs"
	"exitprotocol/internal/jobs/inmemory"
	"exitprotocol/internal/logger"
	"exitprotocol/internal/middleware"
	"exitprotocol/internal/services"
	"exitprotocol/internal/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "exitprotocol/internal/docs" // Import swagger docs
)

// @title           Exit Protocol API
// @version         1.0
// @description     Forensic tracing of separate property through commingled accounts using the lowest intermediate balance rule.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey OperatorKey
// @in header
// @name X-API-Key

const shutdownTimeout = 30 * time.Second

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
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Recalculation queue
	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(appConfig.QueueSize, appConfig.WorkerCount, jobStore)
	locks := jobs.NewKeyedMutex()

	// Initialize services
	db := dbManager.DB()
	accountService := services.NewAccountService(db)
	snapshotService := services.NewSnapshotService(db)
	claimService := services.NewClaimService(db, accountService, snapshotService, queue, locks, appConfig.TraceMaxDays)
	transactionService := services.NewTransactionService(db, accountService, queue, locks)
	auditService := services.NewAuditService(db)

	// Workers outlive the signal context so that Stop can drain running jobs.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if err := queue.Start(workerCtx, services.RecalculationHandler(claimService)); err != nil {
		return fmt.Errorf("failed to start recalculation queue: %w", err)
	}

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	claimHandler := handlers.NewClaimHandler(claimService, accountService, queue, auditService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService, appConfig.ChartWindow)
	auditHandler := handlers.NewAuditHandler(auditService)
	jobHandler := handlers.NewJobHandler(jobStore)

	validator.Register()
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NoRoute)

	router.Use(cors.New(cors.Config{
		AllowOrigins:  appConfig.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", middleware.APIKeyHeader, "X-Actor", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")
	operatorLimiter, err := middleware.NewMemoryLimiter(appConfig.OperatorRateLimit)
	if err != nil {
		return fmt.Errorf("invalid OPERATOR_RATE_LIMIT %q: %w", appConfig.OperatorRateLimit, err)
	}
	operator := v1.Group("", middleware.RateLimit(operatorLimiter), middleware.APIKeyAuth(appConfig.OperatorAPIKey))

	// Account routes
	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.POST("/:id/transactions", transactionHandler.CreateTransaction)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)
	accounts.POST("/:id/claims", claimHandler.CreateClaim)
	accounts.GET("/:id/claims", claimHandler.GetAccountClaims)
	accounts.GET("/:id/chart", snapshotHandler.GetChart)
	accounts.GET("/:id/snapshots", snapshotHandler.GetSnapshots)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Claim routes
	claims := v1.Group("/claims")
	claims.GET("/:id", claimHandler.GetClaimByID)
	claims.DELETE("/:id", claimHandler.DeleteClaim)
	claims.GET("/:id/report", claimHandler.GetClaimReport)

	// Operator routes: imports and explicit recalculation
	operator.POST("/accounts/:id/transactions/import", transactionHandler.ImportTransactions)
	operator.POST("/accounts/:id/transactions/import/ofx", transactionHandler.ImportOFX)
	operator.POST("/accounts/:id/recalculate", claimHandler.RecalculateAccount)
	operator.POST("/claims/:id/calculate", claimHandler.CalculateClaim)

	// Job routes
	jobRoutes := v1.Group("/jobs")
	jobRoutes.GET("", jobHandler.ListJobs)
	jobRoutes.GET("/:id", jobHandler.GetJob)

	v1.GET("/audit-logs", auditHandler.ListAuditLogs)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Exit Protocol server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown error: %v", err)
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		log.Warnf("recalculation queue shutdown error: %v", err)
	}
	return nil
}
