package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report <claim-id>",
		Short: "Print a claim's narrative report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := a.claims.GetReport(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), rep)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", rep.ClaimName, rep.SourceType)
			fmt.Fprintf(out, "Deposited:  %s on %s\n", rep.Initial.StringFixed(2), rep.InitialDepositDate)
			fmt.Fprintf(out, "Traceable:  %s (%s%%)\n", rep.CurrentTraceable.StringFixed(2), rep.RetentionPct.StringFixed(2))
			if rep.LowestBalance != nil && rep.LowestBalanceDate != nil {
				fmt.Fprintf(out, "Lowest:     %s on %s\n", rep.LowestBalance.StringFixed(2), *rep.LowestBalanceDate)
			}
			if rep.RecalculationFailed {
				fmt.Fprintf(out, "Last recalculation failed: %s\n", rep.LastError)
			}
			fmt.Fprintf(out, "\n%s\n", rep.Narrative)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func chartCmd() *cobra.Command {
	var window int

	cmd := &cobra.Command{
		Use:   "chart <account-id>",
		Short: "Print an account's chart series as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			series, err := a.snapshots.GetChartSeries(args[0], window)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), series)
		},
	}

	cmd.Flags().IntVarP(&window, "window", "w", 365, "most recent days to include")
	return cmd
}
