// Package netutil provides loopback port helpers.
package netutil

import (
	"fmt"
	"net"
)

// FreePort asks the kernel for an unused loopback TCP port. The port is
// released before returning, so a racing process may claim it first.
func FreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("resolving localhost:0: %w", err)
	}

	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("listening to acquire port: %w", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port, nil
}
