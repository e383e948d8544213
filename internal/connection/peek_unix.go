//go:build unix

package connection

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// peek checks for a closed peer with a non-blocking MSG_PEEK of one byte.
// The socket's blocking mode and deadlines are left untouched: the runtime
// already holds the descriptor in non-blocking mode and MSG_DONTWAIT scopes
// the non-blocking behaviour to this one call.
func peek(conn net.Conn) (bool, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return true, nil
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		return false, err
	}

	var (
		n       int
		recvErr error
		buf     [1]byte
	)

	ctrlErr := raw.Control(func(fd uintptr) {
		n, _, recvErr = unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
	})
	if ctrlErr != nil {
		return false, ctrlErr
	}

	if recvErr != nil {
		if errors.Is(recvErr, unix.EAGAIN) || errors.Is(recvErr, unix.EWOULDBLOCK) ||
			errors.Is(recvErr, unix.EINTR) {
			return true, nil
		}

		return false, recvErr
	}

	// Zero bytes from a stream socket means the peer closed.
	return n > 0, nil
}
