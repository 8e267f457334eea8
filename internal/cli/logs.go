package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wixxidevelop/blue/internal/app"
	"github.com/wixxidevelop/blue/internal/models"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List recorded transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				records, err := a.Admin.Transactions(ctx, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No transactions recorded.")
					return nil
				}
				for _, r := range records {
					fmt.Fprintf(out, "%-20s  pin=%-8s cot=%-8s tax=%-8s mining=%-6s commission=%-6s %s\n",
						r.Timestamp,
						models.MaskPin(r.WithdrawalPin),
						models.MaskPin(r.CotPin),
						r.TaxCode,
						r.MiningFee,
						r.Commission,
						r.IP)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 10, "Number of transactions to show (0 for all)")
	return cmd
}

func newClearLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-logs",
		Short: "Delete every recorded transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to clear the transaction log without --yes")
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Admin.ClearLogs(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Transaction log cleared.")
				return nil
			})
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm deletion")
	return cmd
}
