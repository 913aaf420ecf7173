package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"exitprotocol/internal/importer"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/report"
	"exitprotocol/internal/tracer"
)

// AccountInput carries the fields accepted when opening an account.
type AccountInput struct {
	CaseReference string
	Name          string
	Institution   string
	AccountNumber string
	Type          models.AccountType
	Ownership     models.Ownership
	OpeningDate   *time.Time
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(in AccountInput) (*models.Account, error)
	GetAccounts(caseReference string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(accountID string) (*models.Account, error)
	RefreshBalance(ctx context.Context, tx *gorm.DB, accountID string) (decimal.Decimal, error)
}

// TransactionInput carries the fields accepted for a manually entered transaction.
type TransactionInput struct {
	Date               time.Time
	Description        string
	Amount             decimal.Decimal
	Type               models.TransactionType
	Category           string
	Memo               string
	CheckNumber        string
	ExternalID         string
	IsSeparateProperty bool
	ClaimID            *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
	JobID    string   `json:"job_id,omitempty"`
}

// TransactionServicer defines the contract for ledger writes and reads. Every
// write schedules a recalculation of the account.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, accountID string, in TransactionInput) (*models.Transaction, error)
	GetAccountTransactions(accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(transactionID string) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID string) error
	ImportRecords(ctx context.Context, accountID string, records []importer.Record, warnings []string) (*ImportResult, error)
}

// ClaimInput carries the fields accepted when asserting a separate property claim.
type ClaimInput struct {
	Name               string
	SourceType         models.SourceType
	Description        string
	InitialDepositDate time.Time
	InitialAmount      decimal.Decimal

	// RecordDeposit adds the deposit to the ledger when no matching
	// transaction exists on the deposit date.
	RecordDeposit bool
}

// ClaimResult is the outcome of one claim calculation.
type ClaimResult struct {
	ClaimID           string                   `json:"claim_id"`
	Status            models.CalculationStatus `json:"calculation_status"`
	InitialAmount     decimal.Decimal          `json:"initial_amount"`
	Traceable         decimal.Decimal          `json:"current_traceable_amount"`
	LowestBalance     decimal.Decimal          `json:"lowest_balance_amount"`
	LowestBalanceDate string                   `json:"lowest_balance_date,omitempty"`
	RetentionPct      decimal.Decimal          `json:"retention_pct"`
	Dips              []tracer.DipEvent        `json:"dip_events,omitempty"`
	DaysRecorded      int                      `json:"days_recorded"`
	Error             string                   `json:"error,omitempty"`
}

// ClaimServicer defines the claim lifecycle: creation, calculation, and reporting.
type ClaimServicer interface {
	CreateClaim(ctx context.Context, accountID string, in ClaimInput) (*models.Claim, error)
	GetClaimByID(claimID string) (*models.Claim, error)
	GetAccountClaims(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.Claim], error)
	DeleteClaim(claimID string) error
	Calculate(ctx context.Context, claimID string) (*ClaimResult, error)
	CalculateAll(ctx context.Context, accountID string) ([]ClaimResult, error)
	GetReport(claimID string) (*report.Report, error)
}

// ChartPoint marks a dip on the chart.
type ChartPoint struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// ChartSeries is the composition history of an account shaped for plotting.
type ChartSeries struct {
	AccountID string            `json:"account_id"`
	Dates     []string          `json:"dates"`
	Total     []decimal.Decimal `json:"total"`
	Separate  []decimal.Decimal `json:"separate"`
	Marital   []decimal.Decimal `json:"marital"`
	DipPoints []ChartPoint      `json:"dip_points"`
}

// SnapshotServicer records and reads daily balance compositions.
type SnapshotServicer interface {
	Record(tx *gorm.DB, accountID string, days []tracer.Composition) (int, error)
	GetChartSeries(accountID string, window int) (*ChartSeries, error)
	GetSnapshots(accountID string, from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceSnapshot], error)
}

// AuditFilter narrows audit log listings. Empty fields match everything.
type AuditFilter struct {
	ResourceType string
	ResourceID   string
	Actor        string
	Action       string
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actor, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
	GetAuditLogs(filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
