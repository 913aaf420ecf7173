package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func recalcClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc-claim <claim-id>",
		Short: "Recalculate one claim and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := a.claims.Calculate(cmd.Context(), args[0])
			if result != nil {
				if printErr := printJSON(cmd.OutOrStdout(), result); printErr != nil {
					return printErr
				}
			}
			return err
		},
	}
}

func recalcAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc-account <account-id>",
		Short: "Recalculate every claim on an account in creation order",
		Long: `Recalculate every claim on an account in creation order. A failing claim is
reported and the remaining claims are still calculated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := a.claims.CalculateAll(cmd.Context(), args[0])
			if results != nil {
				if printErr := printJSON(cmd.OutOrStdout(), results); printErr != nil {
					return printErr
				}
			}
			if err != nil {
				return fmt.Errorf("recalculation incomplete: %w", err)
			}
			return nil
		},
	}
}
