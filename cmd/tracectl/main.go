// Command tracectl runs claim calculations and reports against the database
// directly, without the API server or its background queue.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"exitprotocol/internal/logger"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tracectl",
		Short: "Operator tools for separate property tracing",
		Long: `tracectl recalculates separate property claims, prints their reports and
chart series, and imports bank statements. It reads the same DB_* settings as
the API server, from the environment or a config file.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./tracectl.yaml)")
	flags.String("db-driver", "sqlite", "database driver (postgres, sqlite)")
	flags.String("sqlite-path", "exitprotocol.db", "sqlite database file")
	flags.Int("trace-max-days", 20000, "longest span a single trace may cover")
	flags.String("env", "development", "logging environment (development, production, test)")

	_ = viper.BindPFlag("db_driver", flags.Lookup("db-driver"))
	_ = viper.BindPFlag("sqlite_path", flags.Lookup("sqlite-path"))
	_ = viper.BindPFlag("trace_max_days", flags.Lookup("trace-max-days"))
	_ = viper.BindPFlag("env", flags.Lookup("env"))

	root.AddCommand(recalcClaimCmd())
	root.AddCommand(recalcAccountCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(chartCmd())
	root.AddCommand(importOFXCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("tracectl")
		viper.SetConfigType("yaml")
	}

	// DB_DRIVER, DB_HOST, SQLITE_PATH and friends match the API server.
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.Init(viper.GetString("env"))
	return nil
}
