/*
File Name:  Connection.go
Copyright:  2024 Peerchat Project

Outbound dialing and shared peer-registration plumbing between the accept
loop and the PeerList handler.
*/

package core

import (
	"errors"
	"net"

	"github.com/peerchat/archived/protocol"
)

// ErrPeerUnreachable is returned by Dial when an outbound connection
// attempt times out or is refused.
var ErrPeerUnreachable = errors.New("core: peer unreachable")

// Dial attempts an outbound TCP connection to ip on the protocol port,
// bounded by the configured dial timeout.
func (backend *Backend) Dial(ip [4]byte) (net.Conn, error) {
	addr := net.TCPAddr{IP: net.IPv4(ip[0], ip[1], ip[2], ip[3]), Port: protocol.Port}

	conn, err := net.DialTimeout("tcp4", addr.String(), backend.Config.dialTimeout())
	if err != nil {
		return nil, ErrPeerUnreachable
	}
	return conn, nil
}

// registerPeer adds ip/conn to the registry and, on success, spawns its
// receiver and scheduler goroutines. If the registry already holds ip
// (the losing side of a simultaneous bidirectional dial), conn is closed
// immediately.
func (backend *Backend) registerPeer(ip [4]byte, conn net.Conn) {
	if !backend.Registry.Add(ip, conn) {
		conn.Close()
		return
	}

	backend.Filters.NewPeer(ipToNetIP(ip))

	go backend.receiveLoop(ip, conn)
	go backend.scheduleLoop(ip, conn)
}

// DialAndRegister dials ip and, on success, registers it like any other
// peer. It is used by the PeerList handler to connect to newly discovered
// peers, and is exported so cmd/archived can dial the initial seed peer the
// same way.
func (backend *Backend) DialAndRegister(ip [4]byte) error {
	if ip == backend.SelfIP || backend.Registry.Contains(ip) {
		return nil
	}

	conn, err := backend.Dial(ip)
	if err != nil {
		backend.Filters.LogError("DialAndRegister", "dial %s: %s", ipToNetIP(ip).String(), err.Error())
		return err
	}

	backend.registerPeer(ip, conn)
	return nil
}

// ipv4Bytes extracts the 4-byte IPv4 address from a net.Addr produced by a
// "tcp4" connection, such as conn.RemoteAddr().
func ipv4Bytes(addr net.Addr) (ip [4]byte, ok bool) {
	tcpAddr, isTCP := addr.(*net.TCPAddr)
	if !isTCP {
		return ip, false
	}
	v4 := tcpAddr.IP.To4()
	if v4 == nil {
		return ip, false
	}
	copy(ip[:], v4)
	return ip, true
}

func ipToNetIP(ip [4]byte) net.IP {
	return net.IPv4(ip[0], ip[1], ip[2], ip[3])
}
