package cmd

import (
	"context"
	"io"
	"sort"

	"envdash/internal/api"
	"envdash/internal/backend"
	"envdash/internal/theme"

	"github.com/spf13/cobra"
)

// themeReport is the machine-readable result of the theme command.
type themeReport struct {
	Config     api.ThemeConfig   `json:"config"`
	Appearance api.Appearance    `json:"appearance"`
	Variables  map[string]string `json:"variables"`
}

func newThemeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the persisted theme and the effective appearance",
		Long: `Loads the theme configuration from the backend and resolves it against
the local light/dark preference. Falls back to the built-in defaults when
the backend has none.`,
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
				engine := theme.NewEngine(c, preferenceSource(cfg))
				defer engine.Close()
				// A failed load leaves the defaults in place and is already logged.
				_ = engine.Load(ctx)

				eff := engine.ResolveEffective()
				report := themeReport{
					Config:     engine.Config(),
					Appearance: eff.Appearance,
					Variables:  eff.Variables(),
				}
				return writeOutput(cmd.OutOrStdout(), format, report, func(w io.Writer) {
					renderThemeTable(w, report)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	return cmd
}

func renderThemeTable(w io.Writer, r themeReport) {
	rows := [][2]string{
		{"Mode", string(r.Config.Mode)},
		{"Appearance", string(r.Appearance)},
	}
	keys := make([]string, 0, len(r.Variables))
	for k := range r.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, [2]string{k, r.Variables[k]})
	}
	renderKeyValueTable(w, rows)
}
