package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables. Rows are hard-deleted: ledger
// history must disappear from balance queries the moment it is removed.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a time-ordered UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id.String()
	}
	return nil
}

// All returns every model in dependency order, for auto-migration.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Claim{},
		&Transaction{},
		&BalanceSnapshot{},
		&AuditLog{},
	}
}

// NormalizeDate truncates t to its calendar day in UTC. Every date column holds
// values in this form so that string-compared dates (sqlite) order correctly.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
