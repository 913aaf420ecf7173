package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"exitprotocol/internal/jobs"
	"exitprotocol/internal/logger"
	"exitprotocol/internal/models"
	"exitprotocol/internal/testutil"
)

func init() {
	logger.Init("test")
}

var day0 = testutil.Date(2024, time.January, 1)

func on(n int) time.Time { return day0.AddDate(0, 0, n) }

type testServices struct {
	accounts   AccountServicer
	snapshots  SnapshotServicer
	claims     ClaimServicer
	txns       TransactionServicer
	dispatcher *jobs.SyncDispatcher
}

// newTestServices wires the services the way cmd/api does. With dispatch set,
// writes recalculate inline through a SyncDispatcher.
func newTestServices(db *gorm.DB, dispatch bool, maxDays int) *testServices {
	locks := jobs.NewKeyedMutex()
	ts := &testServices{
		accounts:  NewAccountService(db),
		snapshots: NewSnapshotService(db),
	}

	var dispatcher jobs.Dispatcher
	if dispatch {
		ts.dispatcher = &jobs.SyncDispatcher{}
		dispatcher = ts.dispatcher
	}
	ts.claims = NewClaimService(db, ts.accounts, ts.snapshots, dispatcher, locks, maxDays)
	ts.txns = NewTransactionService(db, ts.accounts, dispatcher, locks)
	if dispatch {
		ts.dispatcher.Handler = RecalculationHandler(ts.claims)
	}
	return ts
}

func reloadClaim(t *testing.T, db *gorm.DB, id string) *models.Claim {
	t.Helper()
	var claim models.Claim
	if err := db.First(&claim, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload claim: %v", err)
	}
	return &claim
}

func snapshotsFor(t *testing.T, db *gorm.DB, accountID string) []models.BalanceSnapshot {
	t.Helper()
	var snaps []models.BalanceSnapshot
	if err := db.Where("account_id = ?", accountID).Order("snapshot_date ASC").Find(&snaps).Error; err != nil {
		t.Fatalf("failed to load snapshots: %v", err)
	}
	return snaps
}
