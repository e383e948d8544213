// Package session supervises one application instance: it decides between
// attaching to a running listener and launching a new one, tracks whether
// the process is owned, and recovers from crashes.
//
// A Session is not safe for concurrent use. Callers sharing one across
// goroutines must serialize Start, Stop, Recover and Execute themselves.
package session
