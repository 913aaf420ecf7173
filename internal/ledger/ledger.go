// Package ledger is the read-only view over an account's transactions that the
// tracer consumes. It performs no tracing logic.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"exitprotocol/internal/models"
	"exitprotocol/internal/tracer"
)

// Reader answers balance and ordering questions about one account's ledger.
type Reader interface {
	// AccountExists reports whether the account is present.
	AccountExists(ctx context.Context, accountID string) (bool, error)
	// BalanceAsOf sums every amount dated on or before date. Zero when none exist.
	BalanceAsOf(ctx context.Context, accountID string, date time.Time) (decimal.Decimal, error)
	// Balance sums the whole ledger.
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	// EntriesFrom lists entries dated on or after from, ordered by date then sequence.
	EntriesFrom(ctx context.Context, accountID string, from time.Time) ([]tracer.Entry, error)
}

type gormReader struct {
	db *gorm.DB
}

// NewReader returns a Reader backed by the transactions table.
func NewReader(db *gorm.DB) Reader {
	return &gormReader{db: db}
}

func (r *gormReader) AccountExists(ctx context.Context, accountID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("ledger: look up account %s: %w", accountID, err)
	}
	return count > 0, nil
}

func (r *gormReader) BalanceAsOf(ctx context.Context, accountID string, date time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, r.db.WithContext(ctx).
		Where("account_id = ? AND transaction_date <= ?", accountID, models.NormalizeDate(date)))
}

func (r *gormReader) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return r.sum(ctx, r.db.WithContext(ctx).Where("account_id = ?", accountID))
}

// sum adds amounts in decimal rather than with SQL SUM, which sqlite evaluates
// in floating point.
func (r *gormReader) sum(ctx context.Context, q *gorm.DB) (decimal.Decimal, error) {
	var rows []models.Transaction
	if err := q.Model(&models.Transaction{}).Select("amount").Find(&rows).Error; err != nil {
		return decimal.Zero, fmt.Errorf("ledger: sum amounts: %w", err)
	}
	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].Amount)
	}
	return total, nil
}

func (r *gormReader) EntriesFrom(ctx context.Context, accountID string, from time.Time) ([]tracer.Entry, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND transaction_date >= ?", accountID, models.NormalizeDate(from)).
		Order("transaction_date ASC, sequence ASC").
		Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("ledger: list entries for %s: %w", accountID, err)
	}

	entries := make([]tracer.Entry, 0, len(txns))
	for i := range txns {
		entries = append(entries, tracer.Entry{
			ID:          txns[i].ID,
			Date:        txns[i].TransactionDate,
			Amount:      txns[i].Amount,
			Description: txns[i].Description,
			Sequence:    txns[i].Sequence,
		})
	}
	return entries, nil
}
