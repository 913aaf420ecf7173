package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeInterest    TransactionType = "interest"
	TransactionTypeDividend    TransactionType = "dividend"
	TransactionTypeFee         TransactionType = "fee"
	TransactionTypeAdjustment  TransactionType = "adjustment"
)

// Transaction is a signed movement of money on one account. Positive amounts
// are inflows, negative amounts outflows.
type Transaction struct {
	Base
	AccountID string `gorm:"type:uuid;not null;index:idx_txn_account_date,priority:1;uniqueIndex:idx_txn_account_external,priority:1;uniqueIndex:idx_txn_account_sequence,priority:1" json:"account_id"`

	// Sequence is the account-wide creation order, used to break same-day ties.
	Sequence        int64           `gorm:"not null;uniqueIndex:idx_txn_account_sequence,priority:2" json:"sequence"`
	TransactionDate time.Time       `gorm:"type:date;not null;index:idx_txn_account_date,priority:2" json:"transaction_date"`
	Description     string          `gorm:"size:512;not null" json:"description"`
	Amount          decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Type            TransactionType `gorm:"not null;default:'withdrawal'" json:"type"`
	Category        string          `gorm:"not null;default:'uncategorized'" json:"category"`
	Memo            string          `json:"memo,omitempty"`
	CheckNumber     string          `json:"check_number,omitempty"`

	IsSeparateProperty bool    `gorm:"default:false" json:"is_separate_property"`
	ClaimID            *string `gorm:"type:uuid;index" json:"claim_id,omitempty"`

	// RunningBalance is stamped by the tracer; it is derived state, never input.
	RunningBalance decimal.NullDecimal `gorm:"type:numeric(15,2)" json:"running_balance"`

	// ExternalID is the import idempotency key, unique per account when set.
	ExternalID *string    `gorm:"uniqueIndex:idx_txn_account_external,priority:2" json:"external_id,omitempty"`
	ImportedAt *time.Time `json:"imported_at,omitempty"`
}
