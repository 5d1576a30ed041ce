package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"envdash/internal/update"

	"github.com/spf13/cobra"
)

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update envdash to the latest version",
		Long: `Checks for the latest release of envdash on GitHub and
updates the current binary if a newer version is found.

Set ENVDASH_UPDATE_DISABLED=1 to turn this command off, e.g. for
package-manager installs.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := rootCmd.Version
	if currentVersion == "" || currentVersion == "dev" {
		return errors.New("cannot self-update a development version")
	}
	if update.IsDisabled() {
		return errors.New("self-update is disabled via ENVDASH_UPDATE_DISABLED")
	}

	var out io.Writer = os.Stdout
	ctx := context.Background()
	if cmd != nil {
		out = cmd.OutOrStdout()
		ctx = cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
	}

	updater, err := update.NewUpdater()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Current version: %s\n", currentVersion)
	fmt.Fprintln(out, "Checking for updates...")
	info, err := updater.CheckLatest(ctx, currentVersion)
	if err != nil {
		return fmt.Errorf("error checking for updates: %w", err)
	}
	if !info.UpdateAvailable {
		fmt.Fprintf(out, "Current version %s is the latest.\n", currentVersion)
		return nil
	}

	fmt.Fprintf(out, "Updating to %s...\n", info.LatestVersion)
	if err := updater.Apply(ctx, info.Release); err != nil {
		return err
	}
	fmt.Fprintf(out, "Successfully updated to version %s\n", info.LatestVersion)
	if info.ReleaseURL != "" {
		fmt.Fprintf(out, "Release notes: %s\n", info.ReleaseURL)
	}
	return nil
}
