// Package errors defines error types for claudemol sessions.
//
// This package provides structured error types for every failure class a
// session can report: transport failures, deadlines, remote command failures,
// configuration problems and child processes that die during startup. All
// error types support error unwrapping and can be checked using errors.Is,
// errors.As, and errors.AsType.
package errors
