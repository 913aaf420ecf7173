package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"exitprotocol/internal/database"
	"exitprotocol/internal/handlers"
	"exitprotocol/internal/jobs"
	"exitprotocol/internal/jobs/inmemory"
	"exitprotocol/internal/logger"
	"exitprotocol/internal/middleware"
	"exitprotocol/internal/services"
	"exitprotocol/internal/validator"
)

const operatorKey = "integration-operator-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Jobs   jobs.Store
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite. Recalculations run inline so that responses observe their results.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Recalculation
	store := inmemory.NewStore()
	dispatcher := &jobs.SyncDispatcher{Store: store}
	locks := jobs.NewKeyedMutex()

	// Services
	accountService := services.NewAccountService(db)
	snapshotService := services.NewSnapshotService(db)
	claimService := services.NewClaimService(db, accountService, snapshotService, dispatcher, locks, 20000)
	transactionService := services.NewTransactionService(db, accountService, dispatcher, locks)
	auditService := services.NewAuditService(db)
	dispatcher.Handler = services.RecalculationHandler(claimService)

	// Handlers
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	claimHandler := handlers.NewClaimHandler(claimService, accountService, dispatcher, auditService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService, 365)
	auditHandler := handlers.NewAuditHandler(auditService)
	jobHandler := handlers.NewJobHandler(store)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NoRoute)

	operatorLimiter, err := middleware.NewMemoryLimiter("1000-M")
	if err != nil {
		t.Fatalf("failed to build limiter: %v", err)
	}

	v1 := router.Group("/api/v1")
	operator := v1.Group("", middleware.RateLimit(operatorLimiter), middleware.APIKeyAuth(operatorKey))

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

	transactions := v1.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	claims := v1.Group("/claims")
	claims.GET("/:id", claimHandler.GetClaimByID)
	claims.DELETE("/:id", claimHandler.DeleteClaim)
	claims.GET("/:id/report", claimHandler.GetClaimReport)

	operator.POST("/accounts/:id/transactions/import", transactionHandler.ImportTransactions)
	operator.POST("/accounts/:id/transactions/import/ofx", transactionHandler.ImportOFX)
	operator.POST("/accounts/:id/recalculate", claimHandler.RecalculateAccount)
	operator.POST("/claims/:id/calculate", claimHandler.CalculateClaim)

	jobRoutes := v1.Group("/jobs")
	jobRoutes.GET("", jobHandler.ListJobs)
	jobRoutes.GET("/:id", jobHandler.GetJob)

	v1.GET("/audit-logs", auditHandler.ListAuditLogs)

	return &testApp{DB: db, Router: router, Jobs: store}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "examiner@firm.test")
	if apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// mustStatus fails the test unless rec carries the expected status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// createAccount opens a checking account and returns its ID.
func (app *testApp) createAccount(t *testing.T) string {
	t.Helper()
	rec := app.request(http.MethodPost, "/api/v1/accounts",
		`{"case_reference":"2024-FL-0042","name":"Joint Checking","institution":"First Bank","type":"checking"}`, "")
	mustStatus(t, rec, http.StatusCreated)
	account := parseJSON(t, rec)["account"].(map[string]interface{})
	return account["id"].(string)
}

// addTransaction records a signed amount on date and returns the transaction ID.
func (app *testApp) addTransaction(t *testing.T, accountID, date, amount, description string) string {
	t.Helper()
	body := fmt.Sprintf(`{"transaction_date":%q,"amount":%q,"description":%q}`, date, amount, description)
	rec := app.request(http.MethodPost, "/api/v1/accounts/"+accountID+"/transactions", body, "")
	mustStatus(t, rec, http.StatusCreated)
	txn := parseJSON(t, rec)["transaction"].(map[string]interface{})
	return txn["id"].(string)
}

// createClaim asserts a claim whose deposit is added to the ledger and returns
// the claim ID.
func (app *testApp) createClaim(t *testing.T, accountID, date, amount string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Inheritance from estate","source_type":"inheritance","initial_deposit_date":%q,"initial_amount":%q,"record_deposit":true}`, date, amount)
	rec := app.request(http.MethodPost, "/api/v1/accounts/"+accountID+"/claims", body, "")
	mustStatus(t, rec, http.StatusCreated)
	claim := parseJSON(t, rec)["claim"].(map[string]interface{})
	return claim["id"].(string)
}

// claimField fetches a claim and returns one of its JSON fields.
func (app *testApp) claimField(t *testing.T, claimID, field string) interface{} {
	t.Helper()
	rec := app.request(http.MethodGet, "/api/v1/claims/"+claimID, "", "")
	mustStatus(t, rec, http.StatusOK)
	claim := parseJSON(t, rec)["claim"].(map[string]interface{})
	return claim[field]
}
