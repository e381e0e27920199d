/*
File Name:  Filter.go
Copyright:  2024 Peerchat Project

Filters allow the caller to intercept events. The filter functions must not
block for long; a slow filter delays the goroutine that called it.
*/

package core

import (
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
)

// Filters contains all hook functions. Use nil for unused; initFilters
// replaces any nil function with a no-op so call sites never need to check.
type Filters struct {
	// NewPeer is called every time a peer is successfully registered,
	// whether by inbound accept or outbound dial.
	NewPeer func(ip net.IP)

	// PeerGone is called once a peer's connection is closed and removed
	// from the registry, with the reason it was removed.
	PeerGone func(ip net.IP, err error)

	// LogError is called for any recoverable error.
	LogError func(function, format string, v ...interface{})

	// MessageRejected is called whenever an operator-submitted message
	// fails codec validation.
	MessageRejected func(err error)

	// ArchiveChanged is called after every successful append or
	// convergence swap, with the archive's new size and fingerprint.
	ArchiveChanged func(size uint32, fingerprint [32]byte)
}

func (backend *Backend) initFilters() {
	if backend.Filters.NewPeer == nil {
		backend.Filters.NewPeer = func(ip net.IP) {}
	}
	if backend.Filters.PeerGone == nil {
		backend.Filters.PeerGone = func(ip net.IP, err error) {}
	}
	if backend.Filters.LogError == nil {
		backend.Filters.LogError = func(function, format string, v ...interface{}) {}
	}
	if backend.Filters.MessageRejected == nil {
		backend.Filters.MessageRejected = func(err error) {}
	}
	if backend.Filters.ArchiveChanged == nil {
		backend.Filters.ArchiveChanged = func(size uint32, fingerprint [32]byte) {}
	}
}

// multiWriter duplicates writes to a dynamic set of subscribed writers.
// initLog makes it the target of the standard log package, with the log
// file as its first subscriber; the operator CLI and the monitoring
// surface each subscribe their own writer afterwards, so all three observe
// the same stream without any of them owning it.
type multiWriter struct {
	writers map[uuid.UUID]io.Writer
	sync.Mutex
}

func newMultiWriter() *multiWriter {
	return &multiWriter{writers: make(map[uuid.UUID]io.Writer)}
}

// Subscribe adds a writer to the set and returns a handle for Unsubscribe.
func (m *multiWriter) Subscribe(writer io.Writer) (id uuid.UUID) {
	m.Lock()
	defer m.Unlock()

	id = uuid.New()
	m.writers[id] = writer
	return id
}

// Unsubscribe removes a previously subscribed writer.
func (m *multiWriter) Unsubscribe(id uuid.UUID) {
	m.Lock()
	defer m.Unlock()

	delete(m.writers, id)
}

// Write fans p out to every subscribed writer. It never returns an error;
// a failing subscriber is simply skipped for this write.
func (m *multiWriter) Write(p []byte) (n int, err error) {
	m.Lock()
	defer m.Unlock()

	for _, w := range m.writers {
		w.Write(p)
	}
	return len(p), nil
}
