package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"exitprotocol/internal/models"
)

// counter provides unique, increasing values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Amount parses a decimal literal, failing the test on bad input.
func Amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// CreateTestAccount creates a joint checking account.
func CreateTestAccount(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()

	account := &models.Account{
		CaseReference: fmt.Sprintf("CASE-%d", nextID()),
		Name:          fmt.Sprintf("Joint Checking %d", nextID()),
		Institution:   "Test Bank",
		Type:          models.AccountTypeChecking,
		Ownership:     models.OwnershipJoint,
		IsActive:      true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestTransaction records a signed amount on date with the account's next
// sequence number, so fixtures created later sort later on the same day.
func CreateTestTransaction(t *testing.T, db *gorm.DB, accountID string, date time.Time, amount string) *models.Transaction {
	t.Helper()

	var last int64
	if err := db.Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		t.Fatalf("failed to read last sequence: %v", err)
	}
	return CreateTestTransactionWithSequence(t, db, accountID, date, amount, last+1)
}

// CreateTestTransactionWithSequence records a transaction with an explicit sequence number.
func CreateTestTransactionWithSequence(t *testing.T, db *gorm.DB, accountID string, date time.Time, amount string, seq int64) *models.Transaction {
	t.Helper()

	amt := Amount(t, amount)
	txType := models.TransactionTypeDeposit
	if amt.IsNegative() {
		txType = models.TransactionTypeWithdrawal
	}
	txn := &models.Transaction{
		AccountID:       accountID,
		Sequence:        seq,
		TransactionDate: models.NormalizeDate(date),
		Description:     fmt.Sprintf("Test %s %s", txType, amount),
		Amount:          amt,
		Type:            txType,
		Category:        "uncategorized",
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

// CreateTestClaim creates a pending inheritance claim.
func CreateTestClaim(t *testing.T, db *gorm.DB, accountID string, date time.Time, amount string) *models.Claim {
	t.Helper()

	claim := &models.Claim{
		AccountID:          accountID,
		Name:               fmt.Sprintf("Inheritance %d", nextID()),
		SourceType:         models.SourceInheritance,
		InitialDepositDate: models.NormalizeDate(date),
		InitialAmount:      Amount(t, amount),
		CalculationStatus:  models.StatusPending,
	}
	if err := db.Create(claim).Error; err != nil {
		t.Fatalf("failed to create test claim: %v", err)
	}
	return claim
}
