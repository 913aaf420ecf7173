package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"exitprotocol/internal/database"
	"exitprotocol/internal/jobs"
	"exitprotocol/internal/services"
)

// app is the service graph a command runs against. Recalculations dispatched
// by services run inline on the command's goroutine.
type app struct {
	accounts     services.AccountServicer
	snapshots    services.SnapshotServicer
	claims       services.ClaimServicer
	transactions services.TransactionServicer
}

func init() {
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", "5432")
	viper.SetDefault("db_user", "exitprotocol")
	viper.SetDefault("db_password", "exitprotocol")
	viper.SetDefault("db_name", "exitprotocol")
	viper.SetDefault("db_sslmode", "disable")
}

func dbConfig() (*database.Config, error) {
	cfg := &database.Config{
		Driver:     viper.GetString("db_driver"),
		Host:       viper.GetString("db_host"),
		Port:       viper.GetString("db_port"),
		User:       viper.GetString("db_user"),
		Password:   viper.GetString("db_password"),
		DBName:     viper.GetString("db_name"),
		SSLMode:    viper.GetString("db_sslmode"),
		SQLitePath: viper.GetString("sqlite_path"),
	}
	if cfg.Driver != database.DriverPostgres && cfg.Driver != database.DriverSQLite {
		return nil, fmt.Errorf("unsupported db driver %q (use %s or %s)", cfg.Driver, database.DriverPostgres, database.DriverSQLite)
	}
	return cfg, nil
}

// openApp connects, migrates, and wires the services. The returned cleanup
// closes the database.
func openApp() (*app, func(), error) {
	cfg, err := dbConfig()
	if err != nil {
		return nil, nil, err
	}

	manager, err := database.NewManager(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = manager.Close() }

	if err := manager.Migrate(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db := manager.DB()
	locks := jobs.NewKeyedMutex()
	dispatcher := &jobs.SyncDispatcher{}

	a := &app{}
	a.accounts = services.NewAccountService(db)
	a.snapshots = services.NewSnapshotService(db)
	a.claims = services.NewClaimService(db, a.accounts, a.snapshots, dispatcher, locks, viper.GetInt("trace_max_days"))
	a.transactions = services.NewTransactionService(db, a.accounts, dispatcher, locks)
	dispatcher.Handler = services.RecalculationHandler(a.claims)

	return a, cleanup, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
