package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wixxidevelop/blue/internal/app"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system status and transaction totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				d, err := a.Admin.Dashboard(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "System:         %s\n", statusLabel(d.System.IsActive))
				fmt.Fprintf(out, "Transactions:   %d total, %d today\n", d.TotalTransactions, d.TodayTransactions)
				fmt.Fprintf(out, "Valid PINs:     %d\n", d.ValidPins)
				fmt.Fprintf(out, "Fees recorded:  %s\n", d.FeesRecorded)
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Documents:")
				for _, doc := range d.Documents {
					modified := "-"
					if !doc.Modified.IsZero() {
						modified = doc.Modified.UTC().Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(out, "  %-13s %s  %s\n", doc.Name, modified, doc.Location)
				}
				return nil
			})
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Switch the portal between active and inactive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				status, err := a.Admin.ToggleSystem(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "System is now %s\n", statusLabel(status.IsActive))
				return nil
			})
		},
	}
}

func statusLabel(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "INACTIVE"
}
