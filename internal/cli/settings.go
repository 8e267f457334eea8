package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wixxidevelop/blue/internal/app"
	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/repository"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change validation and fee settings",
	}
	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSetCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the settings document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				settings, err := a.Admin.Settings(ctx)
				if err != nil {
					return err
				}
				body, err := json.MarshalIndent(settings, "", "    ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			})
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings; only the flags given are updated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.NFlag() == 0 {
				return fmt.Errorf("no settings given")
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				current, err := a.Admin.Settings(ctx)
				if err != nil {
					return err
				}

				update := models.SettingsUpdate{
					WithdrawalPins: listFlag(flags, "withdrawal-pins"),
					CotPins:        listFlag(flags, "cot-pins"),
					TaxCodes:       listFlag(flags, "tax-codes"),
					MiningFee:      feeFlags(flags, "mining-fee", current.Fees.MiningFee),
					Commission:     feeFlags(flags, "commission", current.Fees.Commission),
				}

				settings, err := a.Admin.ApplySettings(ctx, update)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Settings updated: %d withdrawal PINs, %d COT PINs, %d tax codes\n",
					len(settings.ValidPins.Withdrawal), len(settings.ValidPins.Cot), len(settings.TaxCodes))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.String("withdrawal-pins", "", "Comma-separated withdrawal PINs")
	f.String("cot-pins", "", "Comma-separated COT PINs")
	f.String("tax-codes", "", "Comma-separated tax clearance codes")
	for _, fee := range []string{"mining-fee", "commission"} {
		f.Bool(fee+"-enabled", false, "Require the "+fee+" payment")
		f.String(fee+"-amount", "", "Amount shown for the "+fee)
		f.String(fee+"-message", "", "Message shown on the "+fee+" step")
	}
	return cmd
}

func listFlag(flags *pflag.FlagSet, name string) *[]string {
	if !flags.Changed(name) {
		return nil
	}
	raw, _ := flags.GetString(name)
	items := repository.SplitList(raw)
	return &items
}

// feeFlags overlays the changed fee flags on the current rule
func feeFlags(flags *pflag.FlagSet, prefix string, current models.FeeRule) *models.FeeRule {
	changed := false
	rule := current
	if flags.Changed(prefix + "-enabled") {
		rule.Enabled, _ = flags.GetBool(prefix + "-enabled")
		changed = true
	}
	if flags.Changed(prefix + "-amount") {
		rule.Amount, _ = flags.GetString(prefix + "-amount")
		changed = true
	}
	if flags.Changed(prefix + "-message") {
		rule.Message, _ = flags.GetString(prefix + "-message")
		changed = true
	}
	if !changed {
		return nil
	}
	return &rule
}
