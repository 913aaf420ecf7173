package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType is where the claimed separate property came from
type SourceType string

const (
	SourceInheritance    SourceType = "inheritance"
	SourceGift           SourceType = "gift"
	SourcePremarital     SourceType = "premarital"
	SourcePersonalInjury SourceType = "personal_injury"
	SourceTrust          SourceType = "trust"
	SourceOther          SourceType = "other"
)

// CalculationStatus is the lifecycle state of a claim's traced result.
type CalculationStatus string

const (
	StatusPending     CalculationStatus = "pending"
	StatusCalculating CalculationStatus = "calculating"
	StatusComplete    CalculationStatus = "complete"
	StatusError       CalculationStatus = "error"
)

// Claim asserts that InitialAmount deposited on InitialDepositDate is separate
// property. The result fields are written only by the recalculation path.
type Claim struct {
	Base
	AccountID          string          `gorm:"type:uuid;not null;index" json:"account_id"`
	Name               string          `gorm:"not null" json:"name"`
	SourceType         SourceType      `gorm:"not null" json:"source_type"`
	Description        string          `json:"description,omitempty"`
	InitialDepositDate time.Time       `gorm:"type:date;not null;index" json:"initial_deposit_date"`
	InitialAmount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"initial_amount"`

	// Cached LIBR results
	CurrentTraceableAmount decimal.Decimal     `gorm:"type:numeric(15,2);not null;default:0" json:"current_traceable_amount"`
	LowestBalanceAmount    decimal.NullDecimal `gorm:"type:numeric(15,2)" json:"lowest_balance_amount"`
	LowestBalanceDate      *time.Time          `gorm:"type:date" json:"lowest_balance_date,omitempty"`

	LastCalculatedAt  *time.Time        `json:"last_calculated_at,omitempty"`
	CalculationStatus CalculationStatus `gorm:"not null;default:'pending'" json:"calculation_status"`
	LastError         string            `json:"last_error,omitempty"`
}

// TableName keeps the table name aligned with the migrations.
func (Claim) TableName() string {
	return "separate_property_claims"
}
