// Package connection owns one socket to the application's listener.
//
// A Connection is either connected or disconnected, and never reconnects on
// its own. Execute is the resilient entry point: it probes liveness,
// reconnects when needed and retries connection failures within a fixed
// budget. Remote command failures and timeouts are never retried, since the
// command may already have had side effects.
//
// A Connection is not safe for concurrent use; exactly one command is in
// flight at a time.
package connection
