package cmd

import (
	"context"
	"io"

	"envdash/internal/backend"
	"envdash/internal/registry"

	"github.com/spf13/cobra"
)

func newServersCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "servers",
		Aliases: []string{"list", "ls"},
		Short:   "List the MCP servers managed by the backend",
		Long: `Fetches the current server inventory from the backend and prints it.

The server marked with '*' is the one the dashboard selects by default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			initCLILogging(cfg)

			return withBackend(commandContext(cmd.Context()), cfg, func(ctx context.Context, c *backend.Client) error {
				reg := registry.New(c)
				if err := reg.Refresh(ctx); err != nil {
					return err
				}
				snap := reg.Snapshot()
				return writeOutput(cmd.OutOrStdout(), format, snap.Servers, func(w io.Writer) {
					renderServersTable(w, snap)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	return cmd
}
