/*
File Name:  Dispatcher.go
Copyright:  2024 Peerchat Project

The per-peer receive state machine: read one type byte, dispatch to a
handler, repeat. Every read is bounded by the idle read timeout; a timeout
or any I/O error ends the peer's lifetime in the registry.
*/

package core

import (
	"io"
	"net"
	"time"

	"github.com/peerchat/archived/archive"
	"github.com/peerchat/archived/protocol"
)

// receiveLoop owns conn for reading and for closing. It exits, closing
// conn and removing ip from the registry, on the first read error,
// including the idle timeout.
func (backend *Backend) receiveLoop(ip [4]byte, conn net.Conn) {
	var lastErr error
	defer func() {
		conn.Close()
		backend.Registry.Remove(ip)
		backend.Filters.PeerGone(ipToNetIP(ip), lastErr)
	}()

	timeout := backend.Config.readTimeout()
	typeByte := make([]byte, 1)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			lastErr = err
			return
		}
		if _, err := io.ReadFull(conn, typeByte); err != nil {
			lastErr = err
			return
		}

		var err error
		switch typeByte[0] {
		case protocol.TypePeerRequest:
			err = backend.handlePeerRequest(conn)
		case protocol.TypePeerList:
			err = backend.handlePeerList(conn)
		case protocol.TypeArchiveRequest:
			err = backend.handleArchiveRequest(conn)
		case protocol.TypeArchiveResponse:
			err = backend.handleArchiveResponse(conn)
		default:
			backend.Filters.LogError("receiveLoop", "protocol garbage from %s: type %d", ipToNetIP(ip).String(), typeByte[0])
			continue
		}

		if err != nil {
			lastErr = err
			return
		}
	}
}

// handlePeerRequest answers a PeerRequest with the registry's cached
// PeerList frame.
func (backend *Backend) handlePeerRequest(conn net.Conn) error {
	_, err := conn.Write(backend.Registry.Snapshot())
	return err
}

// handlePeerList reads a PeerList body and dials any IP it does not
// already know about.
func (backend *Backend) handlePeerList(conn net.Conn) error {
	sizeBuf := make([]byte, 4)
	if _, err := io.ReadFull(conn, sizeBuf); err != nil {
		return err
	}
	count := protocol.Uint32BE(sizeBuf)

	ipBuf := make([]byte, 4)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(conn, ipBuf); err != nil {
			return err
		}

		var ip [4]byte
		copy(ip[:], ipBuf)

		// Dialing is best-effort and must not abort the receive loop for
		// this peer if a newly advertised neighbor is unreachable.
		go backend.DialAndRegister(ip)
	}

	return nil
}

// handleArchiveRequest answers an ArchiveRequest with the full current
// archive, or nothing if the archive is still empty.
func (backend *Backend) handleArchiveRequest(conn net.Conn) error {
	data, size := backend.ArchiveSnapshot()
	if size == 0 {
		return nil
	}

	// data already begins with protocol.ArchiveTypeByte, which is the same
	// byte value as protocol.TypeArchiveResponse, so it doubles directly as
	// the outer message frame.
	_, err := conn.Write(data)
	return err
}

// handleArchiveResponse reads a full archive body, and if it is strictly
// longer than the active archive, validates and adopts it.
func (backend *Backend) handleArchiveResponse(conn net.Conn) error {
	sizeBuf := make([]byte, 4)
	if _, err := io.ReadFull(conn, sizeBuf); err != nil {
		return err
	}
	size := protocol.Uint32BE(sizeBuf)

	data, err := readArchiveEntries(conn, size)
	if err != nil {
		return err
	}

	if size <= backend.ArchiveSize() {
		return nil
	}

	valid, offset := archive.Validate(data)
	if !valid {
		backend.Filters.LogError("handleArchiveResponse", "rejected invalid archive of size %d", size)
		return nil
	}

	backend.archiveLock.Lock()
	adopted := size > backend.archive.Size()
	if adopted {
		backend.archive = archive.FromValidated(data, size, offset)
	}
	newSize := backend.archive.Size()
	backend.archiveLock.Unlock()

	if adopted {
		backend.logArchiveChange(newSize)
	}
	return nil
}

// readArchiveEntries reconstructs the full serialized archive bytes
// (including the 5-byte header) from a wire ArchiveResponse body of count
// entries, each individually length-prefixed.
func readArchiveEntries(conn net.Conn, count uint32) ([]byte, error) {
	data := make([]byte, 5, 5+count*48)
	data[0] = protocol.ArchiveTypeByte
	protocol.PutUint32BE(data[1:5], count)

	lenByte := make([]byte, 1)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(conn, lenByte); err != nil {
			return nil, err
		}

		entry := make([]byte, 1+int(lenByte[0])+32)
		entry[0] = lenByte[0]
		if _, err := io.ReadFull(conn, entry[1:]); err != nil {
			return nil, err
		}

		data = append(data, entry...)
	}

	return data, nil
}
