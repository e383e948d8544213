package claudemol

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry holds at most one Session per endpoint for the whole process.
// It is safe for concurrent use; the Sessions it hands out are not.
type Registry struct {
	log  *slog.Logger
	opts []Option

	mu       sync.Mutex
	sessions map[Endpoint]Session
	closed   bool
}

// NewRegistry creates an empty Registry whose sessions get opts applied
// before any per-call options.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		log:      applyOptions(opts).Resolve().Logger.With("component", "registry"),
		opts:     opts,
		sessions: make(map[Endpoint]Session, 1),
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry()
})

// DefaultRegistry returns the process-wide Registry.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// GetOrCreate returns the Session for the endpoint the options resolve to,
// creating an idle one on first use. Returns ErrSessionClosed after Close.
func (r *Registry) GetOrCreate(opts ...Option) (Session, error) {
	all := append(append([]Option(nil), r.opts...), opts...)
	options := applyOptions(all)
	key := options.Resolve().Endpoint

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrSessionClosed
	}

	if s, ok := r.sessions[key]; ok {
		return s, nil
	}

	s := NewSession(all...)
	r.sessions[key] = s

	r.log.Debug("Session registered", "endpoint", key.String())

	return s, nil
}

// EnsureRunning returns a healthy Session: an unhealthy connected session is
// recovered, a disconnected one is started.
func (r *Registry) EnsureRunning(ctx context.Context, opts ...Option) (Session, error) {
	s, err := r.GetOrCreate(opts...)
	if err != nil {
		return nil, err
	}

	if s.IsHealthy(ctx) {
		return s, nil
	}

	if s.IsConnected() {
		err = s.Recover(ctx, 0)
	} else {
		err = s.Start(ctx, 0)
	}

	if err != nil {
		return nil, err
	}

	return s, nil
}

// ShutdownAndClear stops every session in parallel and empties the
// registry. It returns ctx.Err() if ctx ends before all stops finish; the
// stops keep running in the background.
func (r *Registry) ShutdownAndClear(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[Endpoint]Session, 1)
	r.mu.Unlock()

	r.log.Info("Stopping registered sessions", "count", len(sessions))

	eg, ctx := errgroup.WithContext(ctx)

	for _, s := range sessions {
		eg.Go(func() error {
			done := make(chan struct{})

			go func() {
				defer close(done)

				s.Stop(0)
			}()

			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	return eg.Wait()
}

// Close shuts down and clears the registry and refuses further sessions.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	return r.ShutdownAndClear(ctx)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
