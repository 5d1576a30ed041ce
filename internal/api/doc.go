// Package api holds the shared vocabulary of the dashboard view-model.
//
// It contains the data types exchanged between the backend client and the
// state components (ServerDescriptor, ThemeConfig, ConnectionStatus), the
// condition errors every component reports (NotFound, FetchFailed,
// ReloadFailed), and the narrow collaborator interfaces each component
// depends on. Keeping them here lets internal/backend implement the
// interfaces without the state packages importing mcp-go.
//
// Condition errors:
//
//   - NotFoundError: select on an id that is not in the current inventory
//   - FetchFailedError: a pull request failed; prior state is retained
//   - ReloadFailedError: the reload call, the follow-up refresh, or both failed
//
// Use errors.Is with ErrNotFound, ErrFetchFailed and ErrReloadFailed, or
// the IsNotFound / IsFetchFailed / IsReloadFailed helpers.
package api
