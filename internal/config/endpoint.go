package config

import (
	"context"
	"net"
	"strconv"
)

// Endpoint identifies where the child application's listener is expected.
// It is immutable for a session's lifetime.
type Endpoint struct {
	Host string
	Port int
}

// String returns host:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// PortScavenger kills whatever process is bound to a port, regardless of who
// launched it. Implementations are best-effort and platform dependent: when
// the discovery mechanism is unavailable they should return nil.
type PortScavenger interface {
	Scavenge(ctx context.Context, port int) error
}
