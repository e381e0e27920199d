package webapi

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peerchat/archived/core"
)

func newTestBackend(t *testing.T) *core.Backend {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	logPath := filepath.Join(dir, "archived.log")

	contents := "LogFile: " + logPath + "\n" +
		"Listen: \"127.0.0.1:0\"\n" +
		"WebapiListen: \"127.0.0.1:0\"\n"
	if err := os.WriteFile(cfgPath, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	backend, status, err := core.Init([4]byte{203, 0, 113, 1}, cfgPath, nil)
	if status != core.ExitSuccess {
		t.Fatalf("Init failed: status %d err %v", status, err)
	}
	return backend
}

// newTestAPI starts a full WebapiInstance against an already-configured
// backend, listening on an OS-assigned loopback port, and returns an
// httptest server fronting the same router for easy request/response
// assertions.
func newTestAPI(t *testing.T, backend *core.Backend) (*WebapiInstance, *httptest.Server) {
	t.Helper()

	api := Start(backend, "127.0.0.1:0")
	server := httptest.NewServer(api.Router)
	t.Cleanup(server.Close)
	return api, server
}

func TestApiStatusReportsArchiveState(t *testing.T) {
	backend := newTestBackend(t)
	backend.SubmitMessage([]byte("hi"))

	_, server := newTestAPI(t, backend)

	resp, err := http.Get(server.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()

	var status apiResponseStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.ArchiveSize != 1 {
		t.Fatalf("expected archive size 1, got %d", status.ArchiveSize)
	}
	if status.OwnIP != "203.0.113.1" {
		t.Fatalf("expected own IP 203.0.113.1, got %q", status.OwnIP)
	}
}

func TestApiArchiveServesDecodedMessages(t *testing.T) {
	backend := newTestBackend(t)
	backend.SubmitMessage([]byte("first"))
	backend.SubmitMessage([]byte("second"))

	_, server := newTestAPI(t, backend)

	resp, err := http.Get(server.URL + "/archive")
	if err != nil {
		t.Fatalf("GET /archive: %v", err)
	}
	defer resp.Body.Close()

	var entries []struct {
		Index   int    `json:"index"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 2 || entries[0].Message != "first" || entries[1].Message != "second" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestApiPeersReportsConnectedAddresses(t *testing.T) {
	backend := newTestBackend(t)

	_, server := newTestAPI(t, backend)

	resp, err := http.Get(server.URL + "/peers")
	if err != nil {
		t.Fatalf("GET /peers: %v", err)
	}
	defer resp.Body.Close()

	var peers []string
	if err := json.NewDecoder(resp.Body).Decode(&peers); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("expected no connected peers, got %v", peers)
	}
}

func TestApiLogsReflectsBackendLogStream(t *testing.T) {
	backend := newTestBackend(t)
	_, server := newTestAPI(t, backend)

	log.Printf("hello from test")

	var lines []string
	for attempt := 0; attempt < 50; attempt++ {
		resp, err := http.Get(server.URL + "/logs")
		if err != nil {
			t.Fatalf("GET /logs: %v", err)
		}
		if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		resp.Body.Close()

		for _, line := range lines {
			if strings.Contains(line, "hello from test") {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected /logs to eventually contain the test log line, got %v", lines)
}
