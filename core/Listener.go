/*
File Name:  Listener.go
Copyright:  2024 Peerchat Project

The passive TCP listener and accept loop.
*/

package core

import (
	"fmt"
	"net"

	"github.com/peerchat/archived/protocol"
	"github.com/peerchat/archived/reuseport"
	"golang.org/x/net/netutil"
)

// Listen binds the peer listener on the configured address and starts the
// accept loop on its own goroutine. It returns once the socket is bound;
// Accept errors after that point are logged through Filters.LogError, not
// returned.
func (backend *Backend) Listen() error {
	l, err := reuseport.Listen("tcp4", backend.listenAddr())
	if err != nil {
		return err
	}

	if max := backend.Config.MaxConnections; max > 0 {
		l = netutil.LimitListener(l, max)
	}

	backend.listener = l
	go backend.acceptLoop(l)
	return nil
}

// listenAddr joins the host part of Config.Listen with the fixed protocol
// port; any port given in Config.Listen is ignored.
func (backend *Backend) listenAddr() string {
	host := backend.Config.Listen
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.JoinHostPort(host, fmt.Sprint(protocol.Port))
}

func (backend *Backend) acceptLoop(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-backend.shutdown:
				return
			default:
			}
			backend.Filters.LogError("acceptLoop", "accept: %s", err.Error())
			return
		}

		ip, ok := ipv4Bytes(conn.RemoteAddr())
		if !ok {
			conn.Close()
			continue
		}

		backend.registerPeer(ip, conn)
	}
}
