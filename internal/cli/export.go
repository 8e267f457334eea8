package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wixxidevelop/blue/internal/app"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of all documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("out")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				snapshot, err := a.Admin.ExportSnapshot(ctx)
				if err != nil {
					return err
				}
				body, err := json.MarshalIndent(snapshot, "", "    ")
				if err != nil {
					return err
				}
				body = append(body, '\n')

				if path == "" {
					_, err = cmd.OutOrStdout().Write(body)
					return err
				}
				if err := os.WriteFile(path, body, 0o600); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transactions to %s\n", len(snapshot.Transactions), path)
				return nil
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	return cmd
}
