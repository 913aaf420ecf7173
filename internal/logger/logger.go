// Package logger provides the process-wide Zap logger.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global logger for env. "production" logs JSON at info,
// "test" discards everything, and anything else logs to the console at debug.
// LOG_LEVEL overrides the level when set to a valid zap level name.
func Init(env string) {
	once.Do(func() {
		if env == "test" {
			sugar = zap.NewNop().Sugar()
			return
		}

		cfg := zap.NewDevelopmentConfig()
		if env == "production" {
			cfg = zap.NewProductionConfig()
		}
		if raw := os.Getenv("LOG_LEVEL"); raw != "" {
			if level, err := zapcore.ParseLevel(raw); err == nil {
				cfg.Level = zap.NewAtomicLevelAt(level)
			}
		}

		base, err := cfg.Build()
		if err != nil {
			base = zap.NewNop()
		}
		sugar = base.Sugar()
	})
}

// Get returns the global sugared logger, initializing a development logger
// on first use.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// ForClaim returns a child logger tagged with the claim and its account.
func ForClaim(claimID, accountID string) *zap.SugaredLogger {
	return Get().With("claim_id", claimID, "account_id", accountID)
}

// ForJob returns a child logger tagged with a recalculation job.
func ForJob(jobID, kind, targetID string) *zap.SugaredLogger {
	return Get().With("job_id", jobID, "kind", kind, "target_id", targetID)
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
