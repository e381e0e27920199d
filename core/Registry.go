/*
File Name:  Registry.go
Copyright:  2024 Peerchat Project

The peer registry: the ordered set of currently connected peers, keyed by
their IPv4 address, with a pre-serialized PeerList wire frame kept in sync.
*/

package core

import (
	"net"
	"sync"

	"github.com/peerchat/archived/protocol"
)

// Peer is one entry of the registry: a peer's identity and the connection
// currently serving it. The registry never closes Conn itself; the
// receiver goroutine that owns the peer does, once it detects the
// connection is dead.
type Peer struct {
	IP   [4]byte
	Conn net.Conn
}

// Registry is the ordered, IPv4-keyed set of connected peers.
type Registry struct {
	mu    sync.Mutex
	order []Peer
	index map[[4]byte]int
	frame []byte
}

// NewRegistry returns an empty registry with its cached PeerList frame
// already built.
func NewRegistry() *Registry {
	r := &Registry{index: make(map[[4]byte]int)}
	r.rebuildFrame()
	return r
}

// Add registers ip/conn as a connected peer. It returns false, and does not
// modify the registry, if ip is already present — the resolution of two
// connections racing to the same IP: whichever direction calls Add first
// wins, and the other side is expected to close its own connection once it
// observes this return value.
func (r *Registry) Add(ip [4]byte, conn net.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[ip]; exists {
		return false
	}

	r.index[ip] = len(r.order)
	r.order = append(r.order, Peer{IP: ip, Conn: conn})
	r.rebuildFrame()
	return true
}

// Remove drops ip from the registry, if present.
func (r *Registry) Remove(ip [4]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.index[ip]
	if !exists {
		return
	}

	r.order = append(r.order[:i], r.order[i+1:]...)
	delete(r.index, ip)
	for j := i; j < len(r.order); j++ {
		r.index[r.order[j].IP] = j
	}
	r.rebuildFrame()
}

// Contains reports whether ip is currently registered.
func (r *Registry) Contains(ip [4]byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.index[ip]
	return exists
}

// Count returns the number of connected peers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.order)
}

// Snapshot returns the cached, pre-serialized PeerList wire frame. The
// returned slice must not be modified by the caller.
func (r *Registry) Snapshot() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.frame
}

// Peers returns a stable copy of the currently connected peers, safe to
// range over after the registry lock is released (used by Broadcast, which
// must not hold the registry lock while writing to sockets).
func (r *Registry) Peers() []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := make([]Peer, len(r.order))
	copy(peers, r.order)
	return peers
}

// IPs returns a copy of the currently connected peers' IPv4 addresses as
// net.IP values, for display in the monitoring surface.
func (r *Registry) IPs() []net.IP {
	r.mu.Lock()
	defer r.mu.Unlock()

	ips := make([]net.IP, len(r.order))
	for i, p := range r.order {
		ip := p.IP
		ips[i] = net.IPv4(ip[0], ip[1], ip[2], ip[3])
	}
	return ips
}

// rebuildFrame recomputes the cached PeerList frame. Must be called with
// mu held.
func (r *Registry) rebuildFrame() {
	frame := make([]byte, 5, 5+len(r.order)*4)
	frame[0] = protocol.TypePeerList
	protocol.PutUint32BE(frame[1:5], uint32(len(r.order)))

	for _, p := range r.order {
		b := make([]byte, 4)
		protocol.EncodeIPv4(b, p.IP)
		frame = append(frame, b...)
	}

	r.frame = frame
}
