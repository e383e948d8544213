//go:build unix

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/wagiedev/claudemol-go/internal/config"
)

// LsofTimeout bounds the lsof lookup.
const LsofTimeout = 5 * time.Second

// LsofScavenger SIGKILLs every process other than the current one that
// lsof reports listening on the port. A missing lsof makes it a no-op.
type LsofScavenger struct {
	Log *slog.Logger
}

// Compile-time verification that LsofScavenger implements PortScavenger.
var _ config.PortScavenger = (*LsofScavenger)(nil)

func defaultScavenger(log *slog.Logger) config.PortScavenger {
	return &LsofScavenger{Log: log}
}

// Scavenge implements config.PortScavenger.
func (l *LsofScavenger) Scavenge(ctx context.Context, port int) error {
	log := l.Log
	if log == nil {
		log = config.NopLogger()
	}

	log = log.With("component", "scavenger", "port", port)

	lsof, err := exec.LookPath("lsof")
	if err != nil {
		log.Debug("lsof not available, skipping")

		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, LsofTimeout)
	defer cancel()

	//nolint:gosec // G204: fixed binary, numeric port
	out, err := exec.CommandContext(ctx, lsof, "-ti", "tcp:"+strconv.Itoa(port), "-sTCP:LISTEN").Output()
	if err != nil && len(out) == 0 {
		// lsof exits 1 when nothing matches.
		log.Debug("No listeners found", "error", err)

		return nil
	}

	self := os.Getpid()

	var failed []string

	for line := range strings.SplitSeq(strings.TrimSpace(string(out)), "\n") {
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || pid <= 0 || pid == self {
			continue
		}

		if err := unix.Kill(pid, unix.SIGKILL); err != nil {
			if !errors.Is(err, unix.ESRCH) {
				failed = append(failed, fmt.Sprintf("%d: %v", pid, err))
			}

			continue
		}

		log.Warn("Killed process listening on port", "pid", pid)
	}

	if len(failed) > 0 {
		return fmt.Errorf("scavenge port %d: %s", port, strings.Join(failed, "; "))
	}

	return nil
}
