// Package listener implements the child side of the claudemol wire protocol.
//
// A Server accepts loopback connections, reads one execute request at a time
// from each client, runs it through an Executor and writes back exactly one
// response. Command failures are reported in the response and never stop the
// server. Commands run one at a time regardless of how many clients are
// connected.
//
// By default a newly accepted client supersedes the previous one, which is
// closed (PolicySupersede). PolicyShared keeps every client open, which lets
// several supervisors attach to one application.
//
// The real application ships its own listener plugin; this package exists so
// clients can be exercised without it (tests and `claudemol serve`).
package listener
