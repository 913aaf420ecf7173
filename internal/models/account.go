package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the kind of financial account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeRetirement AccountType = "retirement"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeBusiness   AccountType = "business"
	AccountTypeOther      AccountType = "other"
)

// Ownership records who legally holds the account
type Ownership string

const (
	OwnershipJoint      Ownership = "joint"
	OwnershipPetitioner Ownership = "petitioner"
	OwnershipRespondent Ownership = "respondent"
	OwnershipBusiness   Ownership = "business"
)

// Account is a financial account within a case. It owns its transactions and
// separate property claims; deleting it cascades to both.
type Account struct {
	Base
	CaseReference string      `gorm:"index" json:"case_reference"`
	Name          string      `gorm:"not null" json:"name"`
	Institution   string      `gorm:"not null" json:"institution"`
	AccountNumber string      `json:"account_number,omitempty"` // last 4 digits only
	Type          AccountType `gorm:"not null" json:"type"`
	Ownership     Ownership   `gorm:"not null;default:'joint'" json:"ownership"`
	OpeningDate   *time.Time  `gorm:"type:date" json:"opening_date,omitempty"`
	ClosingDate   *time.Time  `gorm:"type:date" json:"closing_date,omitempty"`
	IsActive      bool        `gorm:"default:true" json:"is_active"`

	// CurrentBalance caches the ledger total; it is refreshed after every recalculation.
	CurrentBalance decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"current_balance"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
	Claims       []Claim       `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"claims,omitempty"`
}
