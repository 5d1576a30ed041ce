package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	endpoint  string
	transport string
	logLevel  string
	timeout   time.Duration
}

var rootOpts rootOptions

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "envdash",
	Short: "Watch and control the MCP servers behind an orchestration backend",
	Long: `envdash is a terminal dashboard for an MCP aggregator backend.

It keeps a live session to the backend, tracks which MCP servers the
backend manages, lets you pick one, reload the backend configuration
and follows your light/dark preference.

Run 'envdash watch' for the interactive dashboard, or use the one-shot
commands (status, servers, select, reload, theme) from scripts.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. unknown server ids, unreachable backend)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "envdash version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpts.endpoint, "endpoint", "", "Backend MCP endpoint URL (default: from config)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.transport, "transport", "", "Transport to use (streamable-http, sse)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&rootOpts.timeout, "timeout", 0, "Timeout for one-shot commands (default: backend.requestTimeout)")

	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newServersCmd())
	rootCmd.AddCommand(newSelectCmd())
	rootCmd.AddCommand(newReloadCmd())
	rootCmd.AddCommand(newThemeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
