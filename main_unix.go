//go:build unix

package main

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listen sets SO_REUSEPORT so a restarted process can take the port over
// immediately.
func listen(addr string) (net.Listener, error) {
	config := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockoptErr error
			err := c.Control(func(fd uintptr) {
				sockoptErr = setSockopt(fd)
			})
			if err != nil {
				return err
			}
			return sockoptErr
		},
	}
	return config.Listen(context.Background(), "tcp", addr)
}

func setSockopt(fd uintptr) error {
	// It's unfortunate that we need `unix` here; SO_REUSEPORT is defined on linuxarm64 but not linux...
	return syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
