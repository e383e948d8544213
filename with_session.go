package claudemol

import (
	"context"
	"fmt"
)

// WithSession manages session lifecycle with automatic cleanup.
//
// This helper creates a session, starts it, executes the callback and
// always stops the session when done. An instance the session attached to
// rather than launched is left running.
//
// Example usage:
//
//	err := claudemol.WithSession(ctx, func(s claudemol.Session) error {
//	    _, err := s.Execute(ctx, "cmd.load('1abc.pdb')", true)
//	    return err
//	},
//	    claudemol.WithLogger(log),
//	)
func WithSession(ctx context.Context, fn func(Session) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s := NewSession(opts...)
	if err := s.Start(ctx, 0); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	defer s.Stop(0)

	return fn(s)
}
