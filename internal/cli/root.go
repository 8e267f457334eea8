// Package cli implements blue-admin, the operator command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wixxidevelop/blue/internal/app"
	"github.com/wixxidevelop/blue/internal/config"
)

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blue-admin",
		Short: "Operate the withdrawal portal's documents",
		Long: `blue-admin works directly on the configured document store.

It reads the same configuration as the server (CONFIG_FILE, STORE_BACKEND,
DATA_DIR, DATABASE_URL, MINIO_*, NATS_URL) and performs the admin panel's
actions without going through HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStatusCmd())
	root.AddCommand(newToggleCmd())
	root.AddCommand(newClearLogsCmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newSettingsCmd())
	return root
}

// Execute runs the root command
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// withApp opens the document store for the duration of fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
