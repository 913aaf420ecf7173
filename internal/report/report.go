// Package report turns a claim's cached tracing results into the summary shown
// to users and exported with case files. It performs no calculation of its own.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"exitprotocol/internal/models"
	"exitprotocol/internal/tracer"
)

// Category names the narrative template a report was built from.
type Category string

const (
	CategoryFullRetention Category = "full_retention"
	CategoryPartial       Category = "partial"
	CategoryFullLoss      Category = "full_loss"
	CategoryPending       Category = "pending"
)

// PendingNarrative is shown for every claim that is not complete.
const PendingNarrative = "Analysis pending. Please wait for the LIBR calculation to complete."

var hundred = decimal.NewFromInt(100)

// Report is the display/export view of one claim.
type Report struct {
	ClaimID            string                   `json:"claim_id"`
	ClaimName          string                   `json:"claim_name"`
	AccountID          string                   `json:"account_id"`
	AccountName        string                   `json:"account_name,omitempty"`
	SourceType         models.SourceType        `json:"source_type"`
	InitialDepositDate string                   `json:"initial_deposit_date"`
	Initial            decimal.Decimal          `json:"initial"`
	CurrentTraceable   decimal.Decimal          `json:"current_traceable"`
	RetentionPct       decimal.Decimal          `json:"retention_pct"`
	LowestBalance      *decimal.Decimal         `json:"lowest_balance"`
	LowestBalanceDate  *string                  `json:"lowest_balance_date"`
	Status             models.CalculationStatus `json:"calculation_status"`
	LastCalculatedAt   *time.Time               `json:"last_calculated_at,omitempty"`
	Category           Category                 `json:"category"`
	Narrative          string                   `json:"narrative"`

	// RecalculationFailed marks an errored claim whose figures come from an
	// earlier successful run.
	RecalculationFailed bool   `json:"recalculation_failed,omitempty"`
	LastError           string `json:"last_error,omitempty"`
}

// Build derives the report for claim. accountName may be empty.
func Build(claim *models.Claim, accountName string) Report {
	r := Report{
		ClaimID:            claim.ID,
		ClaimName:          claim.Name,
		AccountID:          claim.AccountID,
		AccountName:        accountName,
		SourceType:         claim.SourceType,
		InitialDepositDate: claim.InitialDepositDate.Format(tracer.DateLayout),
		Initial:            claim.InitialAmount,
		CurrentTraceable:   claim.CurrentTraceableAmount,
		RetentionPct:       RetentionPct(claim.CurrentTraceableAmount, claim.InitialAmount),
		Status:             claim.CalculationStatus,
		LastCalculatedAt:   claim.LastCalculatedAt,
	}
	if claim.LowestBalanceAmount.Valid {
		lowest := claim.LowestBalanceAmount.Decimal
		r.LowestBalance = &lowest
	}
	if claim.LowestBalanceDate != nil {
		date := claim.LowestBalanceDate.Format(tracer.DateLayout)
		r.LowestBalanceDate = &date
	}

	if claim.CalculationStatus == models.StatusError {
		r.LastError = claim.LastError
		r.RecalculationFailed = claim.LastCalculatedAt != nil
	}

	if claim.CalculationStatus != models.StatusComplete {
		r.Category = CategoryPending
		r.Narrative = PendingNarrative
		return r
	}

	r.Category, r.Narrative = narrate(r)
	return r
}

// RetentionPct is traceable/initial*100 rounded half-even to two places, or
// zero when initial is zero.
func RetentionPct(traceable, initial decimal.Decimal) decimal.Decimal {
	if initial.IsZero() {
		return decimal.Zero
	}
	return traceable.Div(initial).Mul(hundred).RoundBank(2)
}

func narrate(r Report) (Category, string) {
	lowest := "$0.00"
	if r.LowestBalance != nil {
		lowest = FormatMoney(*r.LowestBalance)
	}
	date := "unknown date"
	if r.LowestBalanceDate != nil {
		date = *r.LowestBalanceDate
	}

	switch {
	case r.RetentionPct.Equal(hundred):
		return CategoryFullRetention, fmt.Sprintf(
			"Success: The entire %s remains traceable. The account never dipped below this amount.",
			FormatMoney(r.Initial))
	case r.RetentionPct.IsPositive():
		return CategoryPartial, fmt.Sprintf(
			"Partial Trace: %s (%s%%) remains. The account dipped to %s on %s.",
			FormatMoney(r.CurrentTraceable), r.RetentionPct.StringFixed(2), lowest, date)
	default:
		return CategoryFullLoss, fmt.Sprintf(
			"Trace Failed: The separate property was fully commingled. Account hit %s on %s.",
			lowest, date)
	}
}

// FormatMoney renders d as dollars with thousands separators, e.g. -$1,234.50.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + "." + frac
}
