package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"envdash/internal/api"
	"envdash/internal/backend"
	"envdash/internal/registry"

	"github.com/spf13/cobra"
)

// statusReport is the machine-readable result of the status command.
type statusReport struct {
	Endpoint  string               `json:"endpoint"`
	Transport string               `json:"transport"`
	Status    api.ConnectionStatus `json:"status"`
	Servers   int                  `json:"servers"`
	Theme     api.ThemeMode        `json:"themeMode,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check connectivity to the backend",
		Long: `Connects to the backend once, lists the managed MCP servers and
reads the persisted theme, then reports the result.

The command exits non-zero when the backend cannot be reached.`,
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

			report := statusReport{
				Endpoint:  cfg.Backend.Endpoint,
				Transport: cfg.Backend.Transport,
				Status:    api.StatusDisconnected,
			}
			runErr := withBackend(commandContext(cmd.Context()), cfg, func(ctx context.Context, c *backend.Client) error {
				report.Status = api.StatusConnected
				reg := registry.New(c)
				if err := reg.Refresh(ctx); err != nil {
					return err
				}
				report.Servers = len(reg.Servers())
				if tc, err := c.FetchTheme(ctx); err == nil {
					report.Theme = tc.Mode
				}
				return nil
			})
			if runErr != nil {
				report.Error = runErr.Error()
			}

			if err := writeOutput(cmd.OutOrStdout(), format, report, func(w io.Writer) {
				renderStatusTable(w, report)
			}); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	return cmd
}

func renderStatusTable(w io.Writer, r statusReport) {
	rows := [][2]string{
		{"Endpoint", r.Endpoint},
		{"Transport", r.Transport},
		{"Status", formatConnectionStatus(r.Status)},
		{"Servers", strconv.Itoa(r.Servers)},
	}
	if r.Theme != "" {
		rows = append(rows, [2]string{"Theme", string(r.Theme)})
	}
	if r.Error != "" {
		rows = append(rows, [2]string{"Error", r.Error})
	}
	renderKeyValueTable(w, rows)
}

func formatConnectionStatus(s api.ConnectionStatus) string {
	switch s {
	case api.StatusConnected:
		return fmt.Sprintf("✅ %s", s)
	case api.StatusConnecting, api.StatusReconnecting:
		return fmt.Sprintf("⏳ %s", s)
	default:
		return fmt.Sprintf("❌ %s", s)
	}
}
