package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestConfig writes a minimal YAML config for one test backend and
// returns its path.
func writeTestConfig(t *testing.T, listen string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	logFile := filepath.Join(dir, "archived.log")

	contents := "LogFile: " + logFile + "\n" +
		"Listen: \"" + listen + "\"\n" +
		"WebapiListen: \"127.0.0.1:0\"\n" +
		"MaxConnections: 16\n" +
		"PeerRequestIntervalSeconds: 1\n" +
		"ArchiveRequestIntervalSeconds: 1\n" +
		"ReadTimeoutSeconds: 5\n" +
		"DialTimeoutMilliseconds: 500\n"

	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

// newTestBackend starts a backend listening on its own loopback address.
// Tests share the host's 127.0.0.0/8 loopback range, binding each backend
// to a distinct address on the fixed protocol port so Dial (which always
// targets protocol.Port) can reach them independently.
func newTestBackend(t *testing.T, selfIP [4]byte, listen string) *Backend {
	t.Helper()

	cfgPath := writeTestConfig(t, listen)
	backend, status, err := Init(selfIP, cfgPath, nil)
	if status != ExitSuccess {
		t.Fatalf("Init failed with status %d: %v", status, err)
	}

	if err := backend.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(backend.Shutdown)

	return backend
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s", timeout)
	}
}

// TestConvergenceBroadcastsToPeer exercises the full path: backend A
// submits a message, mines it, and its Broadcast reaches backend B's
// receive loop, which validates and adopts the longer archive.
func TestConvergenceBroadcastsToPeer(t *testing.T) {
	ipA := [4]byte{127, 0, 0, 21}
	ipB := [4]byte{127, 0, 0, 22}

	a := newTestBackend(t, ipA, "127.0.0.21:51511")
	b := newTestBackend(t, ipB, "127.0.0.22:51511")

	if err := b.DialAndRegister(ipA); err != nil {
		t.Fatalf("DialAndRegister failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return a.Registry.Count() == 1 })
	waitFor(t, 2*time.Second, func() bool { return b.Registry.Count() == 1 })

	if !a.SubmitMessage([]byte("hello from a")) {
		t.Fatalf("SubmitMessage should succeed")
	}

	waitFor(t, 5*time.Second, func() bool { return b.ArchiveSize() == 1 })

	if a.ArchiveFingerprint() != b.ArchiveFingerprint() {
		t.Fatalf("converged archives should share a fingerprint")
	}
}

// TestDuplicateDialIsRejected checks that once B is connected to A, a
// second dial attempt from B to A does not create a second registry entry.
// Registry.Add's own rejection of a duplicate IP is covered by
// TestRegistryRejectsDuplicateAdd.
func TestDuplicateDialIsRejected(t *testing.T) {
	ipA := [4]byte{127, 0, 0, 31}
	ipB := [4]byte{127, 0, 0, 32}

	a := newTestBackend(t, ipA, "127.0.0.31:51511")
	b := newTestBackend(t, ipB, "127.0.0.32:51511")

	if err := b.DialAndRegister(ipA); err != nil {
		t.Fatalf("first dial should succeed: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return b.Registry.Count() == 1 })

	// A second dial attempt from the same side is a no-op: DialAndRegister
	// itself short-circuits via Registry.Contains before ever dialing.
	if err := b.DialAndRegister(ipA); err != nil {
		t.Fatalf("second dial attempt should not error: %v", err)
	}
	if b.Registry.Count() != 1 {
		t.Fatalf("expected registry count to remain 1, got %d", b.Registry.Count())
	}
}
