package cmd

import (
	"context"
	"io"

	"envdash/internal/api"
	"envdash/internal/backend"
	"envdash/internal/registry"

	"github.com/spf13/cobra"
)

func newSelectCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "select <server-id>",
		Short: "Select a server and show its details",
		Long: `Refreshes the server inventory, selects the given server and prints
its descriptor. Fails if the backend does not manage a server with that id.`,
		Args: cobra.ExactArgs(1),
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
				if err := reg.Select(args[0]); err != nil {
					return err
				}
				sel, _ := reg.Snapshot().Selected()
				return writeOutput(cmd.OutOrStdout(), format, sel, func(w io.Writer) {
					renderServerDetail(w, sel)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	return cmd
}

func renderServerDetail(w io.Writer, d api.ServerDescriptor) {
	renderKeyValueTable(w, [][2]string{
		{"ID", d.ID},
		{"Name", d.Label()},
		{"Type", nonEmpty(d.Type)},
		{"State", formatState(d.Status)},
		{"Health", formatHealth(d.Health)},
		{"Description", nonEmpty(d.Description)},
	})
}

func nonEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
