/*
File Name:  Scheduler.go
Copyright:  2024 Peerchat Project

The per-peer gossip scheduler: a periodic timer that keeps a connection
alive and drives convergence, independent of whatever the remote peer sends.
*/

package core

import (
	"net"
	"time"

	"github.com/peerchat/archived/protocol"
)

// scheduleLoop emits a PeerRequest every T1 and, every T2/T1 ticks, an
// ArchiveRequest, until ip is no longer registered or a write fails. It
// never closes conn; that remains the receiveLoop's responsibility, so a
// write failure here is detected independently by the next read timeout.
func (backend *Backend) scheduleLoop(ip [4]byte, conn net.Conn) {
	t1 := backend.Config.peerRequestInterval()
	t2 := backend.Config.archiveRequestInterval()

	ratio := int(t2 / t1)
	if ratio < 1 {
		ratio = 1
	}

	ticker := time.NewTicker(t1)
	defer ticker.Stop()

	var ticks int
	for range ticker.C {
		if !backend.Registry.Contains(ip) {
			return
		}

		if _, err := conn.Write([]byte{protocol.TypePeerRequest}); err != nil {
			return
		}

		ticks++
		if ticks%ratio == 0 {
			if _, err := conn.Write([]byte{protocol.TypeArchiveRequest}); err != nil {
				return
			}
		}
	}
}
