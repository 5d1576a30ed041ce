// Package connection owns the single live session to the backend aggregator.
//
// Manager dials a session through an api.Dialer, reports connectivity as an
// api.ConnectionStatus and redials automatically after the session is lost.
// Status listeners see every transition, in order, on the goroutine that
// performed it:
//
//	Connect:          Connecting -> Connected
//	session lost:     Connected -> Reconnecting -> Connecting -> Connected
//	dial failure:     Connecting -> Reconnecting -> Connecting -> ...
//	Close:            any -> Disconnected (listeners released afterwards)
//
// Dial failures never reach the caller of Connect; they only move the status
// to Reconnecting and schedule another attempt.
//
// # Reconnect backoff
//
// The delay between attempts is a capped, jittered exponential backoff
// (wait.Backoff from k8s.io/apimachinery). Defaults: 500ms initial delay,
// factor 2, cap 30s, jitter 0.2, so a single wait never exceeds
// Max*(1+Jitter). The delay resets after every successful connection. These
// values are a local policy choice; the backend does not prescribe them.
package connection
