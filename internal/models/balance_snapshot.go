package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BalanceSnapshot is the materialized composition of an account on one calendar
// day. Rows are rewritten by every recalculation; (account, date) is unique.
type BalanceSnapshot struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_snapshot_account_date,priority:1" json:"account_id"`
	SnapshotDate    time.Time       `gorm:"type:date;not null;uniqueIndex:idx_snapshot_account_date,priority:2" json:"snapshot_date"`
	TotalBalance    decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_balance"`
	SeparateBalance decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"separate_balance"`
	MaritalBalance  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"marital_balance"`
	IsDipPoint      bool            `gorm:"not null;default:false" json:"is_dip_point"`
	CalculatedAt    time.Time       `gorm:"autoUpdateTime" json:"calculated_at"`

	Account *Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *BalanceSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		s.ID = id.String()
	}
	return nil
}
