package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"exitprotocol/internal/importer"
	"exitprotocol/internal/logger"
)

func importOFXCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-ofx <account-id> <files...>",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX statements into an account. Each file is
imported in its own batch; transactions already imported (same FITID) are
skipped. The account's claims are recalculated after every file.

Examples:
  tracectl import-ofx 0190a1b2-... ~/Downloads/checking_2023.qfx
  tracectl import-ofx 0190a1b2-... ~/Downloads/*.ofx`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID := args[0]
			files, err := expandFiles(args[1:])
			if err != nil {
				return err
			}

			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			log := logger.Get()
			out := cmd.OutOrStdout()
			for _, path := range files {
				stmt, err := parseStatement(cmd, path)
				if err != nil {
					return err
				}
				for _, w := range stmt.Warnings {
					log.Warnw("Statement warning", "file", path, "warning", w)
				}
				if dryRun {
					fmt.Fprintf(out, "%s: %d transactions (dry run)\n", path, len(stmt.Records))
					continue
				}

				result, err := a.transactions.ImportRecords(cmd.Context(), accountID, stmt.Records, stmt.Warnings)
				if err != nil {
					return fmt.Errorf("failed to import %s: %w", path, err)
				}
				fmt.Fprintf(out, "%s: %d imported, %d skipped\n", path, result.Imported, result.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "parse files without importing")
	return cmd
}

func parseStatement(cmd *cobra.Command, path string) (*importer.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	stmt, err := importer.ParseOFX(cmd.Context(), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stmt, nil
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("no files found matching %s", pattern)
			}
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	return files, nil
}
