package session

import (
	"context"
	"log/slog"

	"github.com/wagiedev/claudemol-go/internal/config"
)

// NopScavenger never kills anything.
type NopScavenger struct{}

// Compile-time verification that NopScavenger implements PortScavenger.
var _ config.PortScavenger = NopScavenger{}

// Scavenge implements config.PortScavenger.
func (NopScavenger) Scavenge(context.Context, int) error {
	return nil
}

// ScavengerFunc adapts a function to config.PortScavenger.
type ScavengerFunc func(ctx context.Context, port int) error

// Scavenge implements config.PortScavenger.
func (f ScavengerFunc) Scavenge(ctx context.Context, port int) error {
	return f(ctx, port)
}

// DefaultScavenger returns the platform scavenger.
func DefaultScavenger(log *slog.Logger) config.PortScavenger {
	return defaultScavenger(log)
}
