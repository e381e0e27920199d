/*
File Name:  Broadcast.go
Copyright:  2024 Peerchat Project
*/

package core

// Broadcast writes data to every currently registered peer. Writes are
// best-effort: a failing peer is left for its own receiver goroutine to
// discover and remove on the next read. The peer list is snapshotted
// before any socket write, so Broadcast never holds the registry lock
// while blocked on potentially slow I/O.
func (backend *Backend) Broadcast(data []byte) {
	for _, peer := range backend.Registry.Peers() {
		peer.Conn.Write(data)
	}
}
