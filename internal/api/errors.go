package api

import (
	"errors"
	"fmt"
)

// Sentinel conditions. Typed errors below match them through errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrFetchFailed      = errors.New("fetch failed")
	ErrReloadFailed     = errors.New("reload failed")
	ErrAlreadyConnected = errors.New("connection already active")
)

// NotFoundError is returned when a server id is not in the inventory.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("server %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// FetchFailedError is a transient pull-request failure. The component that
// returned it kept its previous state.
type FetchFailedError struct {
	Op    string
	Cause error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("%s: fetch failed: %v", e.Op, e.Cause)
}

func (e *FetchFailedError) Unwrap() error { return e.Cause }

func (e *FetchFailedError) Is(target error) bool { return target == ErrFetchFailed }

// ReloadFailedError reports a reload where the backend reload call, the
// inventory refresh that always follows it, or both failed.
type ReloadFailedError struct {
	ReloadErr  error
	RefreshErr error
}

func (e *ReloadFailedError) Error() string {
	switch {
	case e.ReloadErr != nil && e.RefreshErr != nil:
		return fmt.Sprintf("reload failed: %v; refresh failed: %v", e.ReloadErr, e.RefreshErr)
	case e.ReloadErr != nil:
		return fmt.Sprintf("reload failed: %v", e.ReloadErr)
	default:
		return fmt.Sprintf("reload failed: refresh after reload: %v", e.RefreshErr)
	}
}

// Unwrap exposes both causes to errors.Is / errors.As.
func (e *ReloadFailedError) Unwrap() []error {
	var errs []error
	if e.ReloadErr != nil {
		errs = append(errs, e.ReloadErr)
	}
	if e.RefreshErr != nil {
		errs = append(errs, e.RefreshErr)
	}
	return errs
}

func (e *ReloadFailedError) Is(target error) bool { return target == ErrReloadFailed }

// IsNotFound reports whether err is a NotFound condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsFetchFailed reports whether err is a FetchFailed condition.
func IsFetchFailed(err error) bool { return errors.Is(err, ErrFetchFailed) }

// IsReloadFailed reports whether err is a ReloadFailed condition.
func IsReloadFailed(err error) bool { return errors.Is(err, ErrReloadFailed) }
