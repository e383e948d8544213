//go:build !unix

package session

import (
	"log/slog"

	"github.com/wagiedev/claudemol-go/internal/config"
)

func defaultScavenger(*slog.Logger) config.PortScavenger {
	return NopScavenger{}
}
