// Package backend talks to the orchestration backend over MCP.
//
// The backend is an MCP aggregator. Pull endpoints (theme, server inventory,
// configuration reload) are tool calls whose result is a single JSON text
// content. The push channel is the live MCP session itself: list_changed
// notifications arrive through it and a periodic ping detects loss.
package backend
