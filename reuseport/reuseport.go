/*
File Name:  reuseport.go
Copyright:  2024 Peerchat Project

A minimal SO_REUSEADDR listener helper. The standard library's net.Listen
does not expose this socket option, but a gossip daemon that may be
restarted quickly (for example during development, or after a crash-restart
supervised by systemd) needs to rebind its fixed port before the kernel has
finished draining sockets left in TIME_WAIT.
*/
package reuseport

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Listen opens a TCP listener on network (normally "tcp4") and addr with
// SO_REUSEADDR set on the underlying socket before bind.
func Listen(network, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: control,
	}
	return lc.Listen(context.Background(), network, addr)
}

// control is installed as the net.ListenConfig.Control callback. It runs on
// the raw file descriptor before bind(2) is called by the runtime network
// poller.
func control(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
