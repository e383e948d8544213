package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/claudemol-go/internal/config"
	cmerrors "github.com/wagiedev/claudemol-go/internal/errors"
	"github.com/wagiedev/claudemol-go/internal/transport"
)

// Policy controls what happens to existing clients when a new one connects.
type Policy int

const (
	// PolicySupersede closes the previous client when a new one is accepted.
	PolicySupersede Policy = iota
	// PolicyShared keeps all clients connected.
	PolicyShared
)

// Executor runs one command and returns its captured output.
type Executor interface {
	Execute(ctx context.Context, code string) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, code string) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, code string) (string, error) {
	return f(ctx, code)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. A nil logger keeps the silent default.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPolicy sets the client policy.
func WithPolicy(p Policy) Option {
	return func(s *Server) {
		s.policy = p
	}
}

// Server is a loopback listener speaking the execute protocol.
type Server struct {
	log    *slog.Logger
	addr   string
	exec   Executor
	policy Policy

	mu      sync.Mutex
	ln      net.Listener
	clients map[net.Conn]struct{}
	active  net.Conn

	// execMu serializes command execution across clients.
	execMu sync.Mutex

	eg     *errgroup.Group
	cancel context.CancelFunc
}

// New creates a server that will listen on addr (host:port; port 0 picks a
// free one).
func New(addr string, exec Executor, opts ...Option) *Server {
	s := &Server{
		log:     config.NopLogger(),
		addr:    addr,
		exec:    exec,
		clients: make(map[net.Conn]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.With("component", "listener")

	return s
}

// Start binds the listener and begins accepting in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.ln = ln
	s.cancel = cancel
	s.mu.Unlock()

	eg, egCtx := errgroup.WithContext(ctx)
	s.eg = eg

	eg.Go(func() error {
		return s.acceptLoop(egCtx, eg)
	})

	eg.Go(func() error {
		<-egCtx.Done()
		s.closeAll()

		return nil
	})

	s.log.Info("Listener active", "addr", ln.Addr().String())

	return nil
}

// Serve starts the server and blocks until ctx is done or accepting fails.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	return s.Wait()
}

// Wait blocks until the server has fully stopped.
func (s *Server) Wait() error {
	if s.eg == nil {
		return nil
	}

	return s.eg.Wait()
}

// Close stops accepting, disconnects every client and waits for handlers to
// finish. It is safe to call more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	return s.Wait()
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}

	return s.ln.Addr()
}

// Port returns the bound TCP port, or 0 before Start.
func (s *Server) Port() int {
	addr, ok := s.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}

	return addr.Port
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.clients)
}

func (s *Server) acceptLoop(ctx context.Context, eg *errgroup.Group) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			s.log.Error("Accept failed", "error", err)

			return fmt.Errorf("accept: %w", err)
		}

		s.adopt(conn)

		eg.Go(func() error {
			s.handle(ctx, conn)

			return nil
		})
	}
}

// adopt registers conn, closing the previous client under PolicySupersede.
func (s *Server) adopt(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy == PolicySupersede && s.active != nil {
		s.log.Debug("Superseding previous client", "remote", s.active.RemoteAddr().String())

		_ = s.active.Close()
		delete(s.clients, s.active)
	}

	s.active = conn
	s.clients[conn] = struct{}{}

	s.log.Debug("Client connected", "remote", conn.RemoteAddr().String())
}

func (s *Server) release(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = conn.Close()
	delete(s.clients, conn)

	if s.active == conn {
		s.active = nil
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		_ = s.ln.Close()
	}

	for conn := range s.clients {
		_ = conn.Close()
		delete(s.clients, conn)
	}

	s.active = nil
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.release(conn)

	for {
		var req transport.Request

		if err := transport.Receive(conn, &req); err != nil {
			if !errors.Is(err, cmerrors.ErrConnectionClosed) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("Client error", "error", err)
			}

			return
		}

		resp := s.run(ctx, &req)

		if err := transport.Send(conn, resp); err != nil {
			s.log.Debug("Failed to send response", "error", err)

			return
		}
	}
}

// run executes one request. It never panics and never returns nil.
func (s *Server) run(ctx context.Context, req *transport.Request) (resp *transport.Response) {
	if req.Type != "" && req.Type != transport.TypeExecute {
		return &transport.Response{Status: transport.StatusError, Error: "Unsupported request type: " + req.Type}
	}

	if req.Code == "" {
		return &transport.Response{Status: transport.StatusError, Error: "No code provided"}
	}

	s.execMu.Lock()
	defer s.execMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Executor panicked", "panic", r)

			resp = &transport.Response{Status: transport.StatusError, Error: fmt.Sprint(r)}
		}
	}()

	output, err := s.exec.Execute(ctx, req.Code)
	if err != nil {
		return &transport.Response{Status: transport.StatusError, Error: err.Error()}
	}

	if output == "" {
		output = "OK"
	}

	return &transport.Response{Status: transport.StatusSuccess, Output: output}
}
