// Package theme resolves the dashboard's effective presentation theme.
//
// Engine holds the ThemeConfig (loaded once from the backend, then edited
// locally) and reduces it to an Effective theme: a binary light/dark
// appearance plus the accent color and corner radius tokens. When the mode
// is "system" the appearance follows a PreferenceSource, and the engine
// holds exactly one subscription to it for as long as the mode stays
// "system". Switching to light or dark, or closing the engine, releases
// that subscription before the call returns.
//
// Sources:
//
//   - TerminalSource: polls the terminal background (lipgloss)
//   - FileSource: watches a file containing "dark" or "light" (fsnotify)
//   - StaticSource: a fixed value that can be changed programmatically
//
// Sources must not invoke listeners synchronously from Subscribe, and their
// unsubscribe functions must not wait for in-flight listener calls.
package theme
