package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"envdash/internal/config"
	"envdash/internal/dashboard"
	"envdash/internal/events"
	"envdash/internal/tui"
	"envdash/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const eventBufferSize = 256

type watchOptions struct {
	noTUI bool
}

func newWatchCmd() *cobra.Command {
	opts := watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live dashboard",
		Long: `Opens a live session to the backend and shows the managed MCP servers,
the connection state and recent log output. The session reconnects with
backoff when the backend goes away.

With --no-tui the changes are printed line by line instead, which is
useful in CI logs or when piping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.noTUI {
				initCLILogging(cfg)
				return runConsole(commandContext(cmd.Context()), cmd.OutOrStdout(), cfg)
			}
			return runTUI(cfg)
		},
	}
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Print changes to stdout instead of starting the interactive dashboard")
	return cmd
}

func newDashboard(cfg config.DashboardConfig) *dashboard.Dashboard {
	return dashboard.New(dashboard.Options{
		Backend:     newBackendClient(cfg),
		Preference:  preferenceSource(cfg),
		Backoff:     backoffConfig(cfg),
		SyncTimeout: cfg.Backend.RequestTimeout,
	})
}

func runTUI(cfg config.DashboardConfig) error {
	logCh := logging.InitForDashboard(logLevel(cfg))
	defer logging.CloseDashboardChannel()

	d := newDashboard(cfg)
	defer d.Close()

	sub := d.Events(nil, eventBufferSize)
	if err := d.Start(); err != nil {
		return err
	}

	if _, err := tui.NewProgram(d, sub.C, logCh).Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}

func runConsole(ctx context.Context, out io.Writer, cfg config.DashboardConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := newDashboard(cfg)
	defer d.Close()

	sub := d.Events(nil, eventBufferSize)
	if err := d.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", cfg.Backend.Endpoint)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "Stopping...")
			return nil
		case e, ok := <-sub.C:
			if !ok {
				return nil
			}
			printEvent(out, e)
		}
	}
}

func printEvent(w io.Writer, e events.Event) {
	ts := e.Timestamp.Format("15:04:05")
	switch e.Type {
	case events.EventTypeConnection:
		fmt.Fprintf(w, "%s connection  %s\n", ts, formatConnectionStatus(e.Status))
	case events.EventTypeServers:
		selected := e.Registry.SelectedID
		if selected == "" {
			selected = "none"
		}
		fmt.Fprintf(w, "%s servers     %d servers, selected %s\n", ts, len(e.Registry.Servers), selected)
	case events.EventTypeTheme:
		fmt.Fprintf(w, "%s theme       %s accent=%s radius=%s\n", ts, e.Theme.Appearance, e.Theme.AccentColor, e.Theme.Radius)
	case events.EventTypeReload:
		if e.Err != nil {
			fmt.Fprintf(w, "%s reload      %s\n", ts, text.FgRed.Sprintf("failed: %v", e.Err))
			return
		}
		fmt.Fprintf(w, "%s reload      %s\n", ts, text.FgGreen.Sprint("ok"))
	case events.EventTypeError:
		fmt.Fprintf(w, "%s error       %s\n", ts, text.FgRed.Sprint(e.Err))
	}
}
