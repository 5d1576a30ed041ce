package cmd

import (
	"context"
	"fmt"
	"io"

	"envdash/internal/backend"
	"envdash/internal/registry"
	"envdash/internal/reload"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newReloadCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Reload the backend configuration",
		Long: `Asks the backend to reload its configuration and then refreshes the
server inventory, even if the reload failed, and prints it.`,
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
				reloadErr := reload.NewCoordinator(c, reg).ReloadConfig(ctx)

				snap := reg.Snapshot()
				out := cmd.OutOrStdout()
				if err := writeOutput(out, format, snap.Servers, func(w io.Writer) {
					if reloadErr == nil {
						fmt.Fprintln(w, text.FgGreen.Sprint("Configuration reloaded"))
					}
					renderServersTable(w, snap)
				}); err != nil {
					return err
				}
				return reloadErr
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	return cmd
}
