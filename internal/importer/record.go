// Package importer produces normalized transaction records from upstream
// sources (JSON bulk payloads, OFX/QFX statements) for the ledger.
package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"exitprotocol/internal/models"
	"exitprotocol/internal/tracer"
)

// maxDescription matches the width of the transactions.description column.
const maxDescription = 512

// Record is one transaction ready to be written to an account's ledger.
type Record struct {
	ExternalID  string
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Category    string
	Memo        string
	CheckNumber string
}

// RecordInput is the JSON shape accepted by bulk imports.
type RecordInput struct {
	ExternalID      string          `json:"external_id"`
	TransactionDate string          `json:"transaction_date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type,omitempty"`
	Category        string          `json:"category,omitempty"`
	Memo            string          `json:"memo,omitempty"`
	CheckNumber     string          `json:"check_number,omitempty"`
}

// RowError reports the position and cause of a rejected input row.
type RowError struct {
	Row int
	Msg string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Msg)
}

// FromInputs validates and normalizes bulk rows. The first invalid row aborts
// the whole batch.
func FromInputs(inputs []RecordInput) ([]Record, error) {
	records := make([]Record, 0, len(inputs))
	for i, in := range inputs {
		date, err := time.Parse(tracer.DateLayout, strings.TrimSpace(in.TransactionDate))
		if err != nil {
			return nil, &RowError{Row: i, Msg: fmt.Sprintf("transaction_date %q is not YYYY-MM-DD", in.TransactionDate)}
		}
		if in.Amount.IsZero() {
			return nil, &RowError{Row: i, Msg: "amount must be non-zero"}
		}

		txType := models.TransactionType(in.Type)
		if txType == "" {
			txType = TypeForAmount(in.Amount)
		} else if !models.IsValidTransactionType(txType) {
			return nil, &RowError{Row: i, Msg: fmt.Sprintf("unknown type %q", in.Type)}
		}

		records = append(records, Record{
			ExternalID:  strings.TrimSpace(in.ExternalID),
			Date:        models.NormalizeDate(date),
			Description: Describe(in.Description),
			Amount:      in.Amount.Round(2),
			Type:        txType,
			Category:    in.Category,
			Memo:        in.Memo,
			CheckNumber: in.CheckNumber,
		})
	}
	return records, nil
}

// TypeForAmount picks deposit or withdrawal from the sign of amount.
func TypeForAmount(amount decimal.Decimal) models.TransactionType {
	if amount.IsNegative() {
		return models.TransactionTypeWithdrawal
	}
	return models.TransactionTypeDeposit
}

// Describe trims s to the stored width, defaulting blank descriptions.
func Describe(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "Transaction"
	}
	if len(s) > maxDescription {
		s = s[:maxDescription]
	}
	return s
}
