/*
File Name:  message.go
Copyright:  2024 Peerchat Project

Wire framing for the peer-to-peer gossip protocol.

Every peer-to-peer message begins with a one-byte type:

Type  Name             Payload
1     PeerRequest      (none)
2     PeerList         size (4 bytes BE) | ip_1 (4 raw bytes) | ...
3     ArchiveRequest   (none)
4     ArchiveResponse  size (4 bytes BE) | entry_1 | ...

Multi-byte integer fields are big-endian, with the deliberate exception of the
per-IP bytes inside a PeerList frame, which are carried as 4 raw bytes in
network byte order (no separate host-order reinterpretation). This asymmetry
is inherited from the original protocol and must be preserved exactly so peers
built against either side keep agreeing on the wire format.
*/
package protocol

// Message type bytes.
const (
	TypePeerRequest     = 1
	TypePeerList        = 2
	TypeArchiveRequest  = 3
	TypeArchiveResponse = 4
)

// ArchiveTypeByte is the type byte that prefixes a serialized archive, both in
// memory and on the wire for ArchiveResponse.
const ArchiveTypeByte = 4

// Port is the fixed TCP/IPv4 port every peer listens and dials on. It is a
// protocol constant, not a configuration option: two peers that disagreed on
// it could never find each other.
const Port = 51511

// PutUint32BE writes v into b[0:4] in big-endian order. b must have length >= 4.
func PutUint32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// Uint32BE reads a big-endian uint32 from b[0:4]. b must have length >= 4.
func Uint32BE(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// EncodeIPv4 writes ip (already in network byte order, as returned by
// net.IP.To4()) as 4 raw bytes. This is intentionally not run through
// PutUint32BE: the PeerList entries are opaque network-order bytes, not a
// big-endian integer.
func EncodeIPv4(b []byte, ip [4]byte) {
	copy(b[:4], ip[:])
}
