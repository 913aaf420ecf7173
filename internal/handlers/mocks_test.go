package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"exitprotocol/internal/importer"
	"exitprotocol/internal/jobs"
	"exitprotocol/internal/logger"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/report"
	"exitprotocol/internal/services"
	"exitprotocol/internal/tracer"
	"exitprotocol/internal/validator"
)

const (
	testAccountID = "0190a1b2-0000-7000-8000-000000000001"
	testClaimID   = "0190a1b2-0000-7000-8000-000000000002"
	testTxnID     = "0190a1b2-0000-7000-8000-000000000003"
	testJobID     = "0190a1b2-0000-7000-8000-000000000004"
)

// --- mock account service ---

type mockAccountService struct {
	createAccountFn  func(in services.AccountInput) (*models.Account, error)
	getAccountsFn    func(caseReference string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	getAccountByIDFn func(accountID string) (*models.Account, error)
}

func (m *mockAccountService) CreateAccount(in services.AccountInput) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(in)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetAccounts(caseReference string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.getAccountsFn != nil {
		return m.getAccountsFn(caseReference, page)
	}
	return pagination.NewPageResponse([]models.Account{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
}

func (m *mockAccountService) GetAccountByID(accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(accountID)
	}
	return &models.Account{Base: models.Base{ID: accountID}}, nil
}

func (m *mockAccountService) RefreshBalance(_ context.Context, _ *gorm.DB, _ string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn      func(accountID string, in services.TransactionInput) (*models.Transaction, error)
	getAccountTransactionsFn func(accountID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn     func(transactionID string) (*models.Transaction, error)
	deleteTransactionFn      func(transactionID string) error
	importRecordsFn          func(accountID string, records []importer.Record, warnings []string) (*services.ImportResult, error)
}

func (m *mockTransactionService) CreateTransaction(_ context.Context, accountID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(accountID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetAccountTransactions(accountID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getAccountTransactionsFn != nil {
		return m.getAccountTransactionsFn(accountID, page, filter)
	}
	return pagination.NewPageResponse([]models.Transaction{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
}

func (m *mockTransactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(transactionID)
	}
	return nil
}

func (m *mockTransactionService) ImportRecords(_ context.Context, accountID string, records []importer.Record, warnings []string) (*services.ImportResult, error) {
	if m.importRecordsFn != nil {
		return m.importRecordsFn(accountID, records, warnings)
	}
	return &services.ImportResult{Imported: len(records), Warnings: warnings}, nil
}

// --- mock claim service ---

type mockClaimService struct {
	createClaimFn      func(accountID string, in services.ClaimInput) (*models.Claim, error)
	getClaimByIDFn     func(claimID string) (*models.Claim, error)
	getAccountClaimsFn func(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.Claim], error)
	deleteClaimFn      func(claimID string) error
	calculateFn        func(claimID string) (*services.ClaimResult, error)
	calculateAllFn     func(accountID string) ([]services.ClaimResult, error)
	getReportFn        func(claimID string) (*report.Report, error)
}

func (m *mockClaimService) CreateClaim(_ context.Context, accountID string, in services.ClaimInput) (*models.Claim, error) {
	if m.createClaimFn != nil {
		return m.createClaimFn(accountID, in)
	}
	return &models.Claim{}, nil
}

func (m *mockClaimService) GetClaimByID(claimID string) (*models.Claim, error) {
	if m.getClaimByIDFn != nil {
		return m.getClaimByIDFn(claimID)
	}
	return &models.Claim{}, nil
}

func (m *mockClaimService) GetAccountClaims(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.Claim], error) {
	if m.getAccountClaimsFn != nil {
		return m.getAccountClaimsFn(accountID, page)
	}
	return pagination.NewPageResponse([]models.Claim{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
}

func (m *mockClaimService) DeleteClaim(claimID string) error {
	if m.deleteClaimFn != nil {
		return m.deleteClaimFn(claimID)
	}
	return nil
}

func (m *mockClaimService) Calculate(_ context.Context, claimID string) (*services.ClaimResult, error) {
	if m.calculateFn != nil {
		return m.calculateFn(claimID)
	}
	return &services.ClaimResult{ClaimID: claimID, Status: models.StatusComplete}, nil
}

func (m *mockClaimService) CalculateAll(_ context.Context, accountID string) ([]services.ClaimResult, error) {
	if m.calculateAllFn != nil {
		return m.calculateAllFn(accountID)
	}
	return nil, nil
}

func (m *mockClaimService) GetReport(claimID string) (*report.Report, error) {
	if m.getReportFn != nil {
		return m.getReportFn(claimID)
	}
	return &report.Report{ClaimID: claimID}, nil
}

// --- mock snapshot service ---

type mockSnapshotService struct {
	getChartSeriesFn func(accountID string, window int) (*services.ChartSeries, error)
	getSnapshotsFn   func(accountID string, from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceSnapshot], error)
}

func (m *mockSnapshotService) Record(_ *gorm.DB, _ string, _ []tracer.Composition) (int, error) {
	return 0, nil
}

func (m *mockSnapshotService) GetChartSeries(accountID string, window int) (*services.ChartSeries, error) {
	if m.getChartSeriesFn != nil {
		return m.getChartSeriesFn(accountID, window)
	}
	return &services.ChartSeries{AccountID: accountID}, nil
}

func (m *mockSnapshotService) GetSnapshots(accountID string, from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceSnapshot], error) {
	if m.getSnapshotsFn != nil {
		return m.getSnapshotsFn(accountID, from, to, page)
	}
	return pagination.NewPageResponse([]models.BalanceSnapshot{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
}

// --- mock dispatcher ---

type mockDispatcher struct {
	dispatchFn func(kind jobs.Kind, targetID string) (*jobs.Job, error)
}

func (m *mockDispatcher) Dispatch(_ context.Context, kind jobs.Kind, targetID string) (*jobs.Job, error) {
	if m.dispatchFn != nil {
		return m.dispatchFn(kind, targetID)
	}
	return &jobs.Job{ID: testJobID, Kind: kind, TargetID: targetID, Status: jobs.StatusPending}, nil
}

type mockAuditService struct {
	actions        []string
	GetAuditLogsFn func(filter services.AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}

func (m *mockAuditService) Log(_, action, _, _, _ string, _ map[string]interface{}) {
	m.actions = append(m.actions, action)
}

func (m *mockAuditService) GetAuditLogs(filter services.AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	if m.GetAuditLogsFn != nil {
		return m.GetAuditLogsFn(filter, page)
	}
	return pagination.NewPageResponse([]models.AuditLog{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
}

// verify interface compliance
var (
	_ services.AccountServicer     = (*mockAccountService)(nil)
	_ services.TransactionServicer = (*mockTransactionService)(nil)
	_ services.ClaimServicer       = (*mockClaimService)(nil)
	_ services.SnapshotServicer    = (*mockSnapshotService)(nil)
	_ services.AuditServicer       = (*mockAuditService)(nil)
	_ jobs.Dispatcher              = (*mockDispatcher)(nil)
)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	logger.Init("test")
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
