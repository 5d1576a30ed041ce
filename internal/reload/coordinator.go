// Package reload runs a backend configuration reload followed by an
// inventory refresh.
package reload

import (
	"context"

	"envdash/internal/api"
	"envdash/pkg/logging"
)

const subsystem = "Reload"

// Refresher is the part of the server registry the coordinator drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Coordinator composes the backend reload call with a registry refresh. It
// holds no state of its own.
type Coordinator struct {
	reloader  api.ConfigReloader
	refresher Refresher
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(reloader api.ConfigReloader, refresher Refresher) *Coordinator {
	return &Coordinator{reloader: reloader, refresher: refresher}
}

// ReloadConfig asks the backend to reload, then refreshes the registry
// exactly once whatever the reload returned, since a partly applied reload
// may still have changed the inventory. It returns after both steps with a
// ReloadFailed condition if either failed.
func (c *Coordinator) ReloadConfig(ctx context.Context) error {
	logging.Info(subsystem, "Reloading backend configuration")

	reloadErr := c.reloader.ReloadConfig(ctx)
	if reloadErr != nil {
		logging.Warn(subsystem, "Backend reload failed, refreshing inventory anyway: %v", reloadErr)
	}

	refreshErr := c.refresher.Refresh(ctx)
	if refreshErr != nil {
		logging.Warn(subsystem, "Inventory refresh after reload failed: %v", refreshErr)
	}

	if reloadErr != nil || refreshErr != nil {
		return &api.ReloadFailedError{ReloadErr: reloadErr, RefreshErr: refreshErr}
	}
	logging.Info(subsystem, "Reload complete")
	return nil
}
