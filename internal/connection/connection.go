package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/claudemol-go/internal/config"
	cmerrors "github.com/wagiedev/claudemol-go/internal/errors"
	"github.com/wagiedev/claudemol-go/internal/poll"
	"github.com/wagiedev/claudemol-go/internal/transport"
)

// Connection manages one socket to an Endpoint.
type Connection struct {
	log            *slog.Logger
	endpoint       config.Endpoint
	connectTimeout time.Duration
	readTimeout    time.Duration
	retryAttempts  int
	retryBackoff   time.Duration

	conn net.Conn
}

// New creates a disconnected Connection. Unset options take their defaults.
func New(options *config.Options) *Connection {
	opts := options.Resolve()

	return &Connection{
		log:            opts.Logger.With("component", "connection", "endpoint", opts.Endpoint.String()),
		endpoint:       opts.Endpoint,
		connectTimeout: opts.ConnectTimeout,
		readTimeout:    opts.ReadTimeout,
		retryAttempts:  opts.RetryAttempts,
		retryBackoff:   opts.RetryBackoff,
	}
}

// Endpoint returns the endpoint this connection targets.
func (c *Connection) Endpoint() config.Endpoint {
	return c.endpoint
}

// Connect opens the socket with the given connect timeout (the configured
// default if timeout <= 0). It is a no-op if already connected. On failure
// the connection stays disconnected and a ConnectionError is returned.
func (c *Connection) Connect(ctx context.Context, timeout time.Duration) error {
	if c.conn != nil {
		return nil
	}

	if timeout <= 0 {
		timeout = c.connectTimeout
	}

	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.endpoint.String())
	if err != nil {
		cause := err
		if isTimeout(err) {
			cause = &cmerrors.TimeoutError{Op: "connect", Endpoint: c.endpoint.String(), After: timeout, Err: err}
		}

		return &cmerrors.ConnectionError{
			Endpoint: c.endpoint.String(),
			Reason:   "cannot connect",
			Err:      cause,
		}
	}

	c.conn = conn
	c.log.Debug("Connected")

	return nil
}

// Disconnect closes the socket if open. Close errors are ignored.
func (c *Connection) Disconnect() {
	if c.conn == nil {
		return
	}

	_ = c.conn.Close()
	c.conn = nil

	c.log.Debug("Disconnected")
}

// IsConnected probes the socket without consuming data. A peer that has
// closed, or any socket error, disconnects the Connection.
func (c *Connection) IsConnected() bool {
	if c.conn == nil {
		return false
	}

	alive, err := peek(c.conn)
	if err != nil || !alive {
		c.log.Debug("Liveness probe failed", "error", err, "peer_closed", err == nil)
		c.Disconnect()

		return false
	}

	return true
}

// SendCommand sends one execute request and waits for its response.
//
// A read deadline produces a TimeoutError; any other I/O failure produces a
// ConnectionError. Both disconnect the Connection, since a late or partial
// response would otherwise be read as the answer to the next command.
func (c *Connection) SendCommand(ctx context.Context, code string) (*transport.Response, error) {
	if c.conn == nil {
		return nil, &cmerrors.ConnectionError{Endpoint: c.endpoint.String(), Err: cmerrors.ErrNotConnected}
	}

	conn := c.conn

	deadline := time.Now().Add(c.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := conn.SetDeadline(deadline); err != nil {
		c.Disconnect()

		return nil, &cmerrors.ConnectionError{Endpoint: c.endpoint.String(), Reason: "communication error", Err: err}
	}

	// An idle connection must not trip over a stale deadline in the probe.
	defer func() {
		_ = conn.SetDeadline(time.Time{})
	}()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	var resp transport.Response

	err := transport.Send(conn, transport.NewExecute(code))
	if err == nil {
		err = transport.Receive(conn, &resp)
	}

	if err != nil {
		c.Disconnect()

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if isTimeout(err) {
			return nil, &cmerrors.TimeoutError{
				Op:       "receive",
				Endpoint: c.endpoint.String(),
				After:    c.readTimeout,
				Err:      err,
			}
		}

		return nil, &cmerrors.ConnectionError{Endpoint: c.endpoint.String(), Reason: "communication error", Err: err}
	}

	return &resp, nil
}

// Execute runs code, reconnecting when the socket is not live. Connection
// failures are retried up to the configured attempt budget with a fixed
// backoff. A reported command failure returns a CommandError.
func (c *Connection) Execute(ctx context.Context, code string) (string, error) {
	log := c.log.With("request_id", ulid.Make().String())

	var lastErr error

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		output, err := c.executeOnce(ctx, code)
		if err == nil {
			return output, nil
		}

		if !cmerrors.IsRetryable(err) {
			return "", err
		}

		lastErr = err

		log.Debug("Execute attempt failed", "attempt", attempt, "error", err)

		if attempt < c.retryAttempts {
			if err := poll.Sleep(ctx, c.retryBackoff); err != nil {
				return "", err
			}
		}
	}

	log.Warn("Execute exhausted retries", "attempts", c.retryAttempts, "error", lastErr)

	return "", &cmerrors.ConnectionError{
		Endpoint: c.endpoint.String(),
		Err:      fmt.Errorf("%w after %d attempts: %w", cmerrors.ErrExhaustedRetries, c.retryAttempts, lastErr),
	}
}

func (c *Connection) executeOnce(ctx context.Context, code string) (string, error) {
	if !c.IsConnected() {
		if err := c.Connect(ctx, 0); err != nil {
			return "", err
		}
	}

	resp, err := c.SendCommand(ctx, code)
	if err != nil {
		return "", err
	}

	if !resp.OK() {
		msg := resp.Error
		if msg == "" {
			msg = "Unknown error"
		}

		return "", &cmerrors.CommandError{Message: msg}
	}

	return resp.Output, nil
}

// isTimeout reports whether err is a deadline or net timeout error.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	if netErr, ok := errors.AsType[net.Error](err); ok && netErr.Timeout() {
		return true
	}

	return false
}
