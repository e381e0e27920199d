/*
File Name:  Backend.go
Copyright:  2024 Peerchat Project
*/

package core

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/peerchat/archived/archive"
)

// Init initializes the daemon backend. If the config file does not exist or
// is empty, the embedded default is used. The returned status is one of the
// ExitX codes; anything other than ExitSuccess indicates a fatal failure
// that the caller should report and exit on.
func Init(selfIP [4]byte, configFilename string, filters *Filters) (backend *Backend, status int, err error) {
	backend = &Backend{
		ConfigFilename: configFilename,
		SelfIP:         selfIP,
		Config:         &Config{},
		Registry:       NewRegistry(),
		archive:        archive.New(),
		Stdout:         newMultiWriter(),
		shutdown:       make(chan struct{}),
		StartedAt:      time.Now(),
	}

	if filters != nil {
		backend.Filters = *filters
	}
	backend.initFilters()

	if status, err = LoadConfig(configFilename, backend.Config); status != ExitSuccess {
		return nil, status, err
	}

	if err = backend.initLog(); err != nil {
		return nil, ExitErrorLogInit, err
	}

	return backend, ExitSuccess, nil
}

// Backend owns every piece of mutable daemon state: the peer registry, the
// active chat archive, configuration and hooks. It is passed explicitly to
// every goroutine and handler; there are no package-level globals.
type Backend struct {
	ConfigFilename string
	Config         *Config
	Filters        Filters
	Stdout         *multiWriter

	// SelfIP is this node's own public IPv4 address, used to avoid
	// self-dialing when a PeerList advertises it.
	SelfIP [4]byte

	// StartedAt is when Init returned this Backend, used to report uptime.
	StartedAt time.Time

	Registry *Registry

	archive     *archive.Archive
	archiveLock sync.RWMutex

	listener net.Listener

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// Shutdown stops the accept loop. Peer goroutines notice independently, on
// their next read/write failure or idle timeout; this does not forcibly
// close existing peer connections.
func (backend *Backend) Shutdown() {
	backend.shutdownOnce.Do(func() {
		close(backend.shutdown)
		if backend.listener != nil {
			backend.listener.Close()
		}
	})
}

// SelfNetIP returns SelfIP as a net.IP, for display purposes.
func (backend *Backend) SelfNetIP() net.IP {
	return ipToNetIP(backend.SelfIP)
}

// Uptime returns how long this backend has been running.
func (backend *Backend) Uptime() time.Duration {
	return time.Since(backend.StartedAt)
}

// ArchiveSnapshot returns a coherent copy of the active archive's bytes and
// entry count.
func (backend *Backend) ArchiveSnapshot() ([]byte, uint32) {
	backend.archiveLock.RLock()
	defer backend.archiveLock.RUnlock()

	return backend.archive.Snapshot()
}

// ArchiveSize returns the number of entries in the active archive.
func (backend *Backend) ArchiveSize() uint32 {
	backend.archiveLock.RLock()
	defer backend.archiveLock.RUnlock()

	return backend.archive.Size()
}

// ArchiveFingerprint returns the active archive's display fingerprint.
func (backend *Backend) ArchiveFingerprint() [32]byte {
	backend.archiveLock.RLock()
	defer backend.archiveLock.RUnlock()

	return backend.archive.Fingerprint()
}

// SubmitMessage validates and appends msg to the active archive, mining
// fresh proof-of-work, then broadcasts the updated archive to every
// connected peer. It returns false if msg was rejected by the codec.
func (backend *Backend) SubmitMessage(msg []byte) bool {
	backend.archiveLock.Lock()
	ok := backend.archive.Append(msg)
	var data []byte
	var size uint32
	if ok {
		data, size = backend.archive.Snapshot()
	}
	backend.archiveLock.Unlock()

	if !ok {
		backend.Filters.MessageRejected(archive.ErrInvalidMessage)
		return false
	}

	backend.logArchiveChange(size)
	backend.Broadcast(data)
	return true
}

func (backend *Backend) logArchiveChange(size uint32) {
	fp := backend.ArchiveFingerprint()
	log.Printf("archive now has %d entries, fingerprint %x\n", size, fp)
	backend.Filters.ArchiveChanged(size, fp)
}
