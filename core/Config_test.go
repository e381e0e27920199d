package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	var cfg Config
	status, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"), &cfg)
	if status != ExitSuccess {
		t.Fatalf("expected ExitSuccess, got status %d err %v", status, err)
	}
	if cfg.Listen == "" {
		t.Fatalf("expected default Listen to be populated")
	}
	if cfg.PeerRequestIntervalSeconds != 5 {
		t.Fatalf("expected default PeerRequestIntervalSeconds 5, got %d", cfg.PeerRequestIntervalSeconds)
	}
	if cfg.ArchiveRequestIntervalSeconds != 60 {
		t.Fatalf("expected default ArchiveRequestIntervalSeconds 60, got %d", cfg.ArchiveRequestIntervalSeconds)
	}
}

func TestLoadConfigPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("Listen: \"127.0.0.1:9999\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg Config
	status, err := LoadConfig(path, &cfg)
	if status != ExitSuccess {
		t.Fatalf("expected ExitSuccess, got status %d err %v", status, err)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Fatalf("expected overridden Listen, got %q", cfg.Listen)
	}
	if cfg.DialTimeoutMilliseconds != 500 {
		t.Fatalf("expected default DialTimeoutMilliseconds 500, got %d", cfg.DialTimeoutMilliseconds)
	}
}

func TestLoadConfigMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("Listen: [unterminated\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg Config
	status, _ := LoadConfig(path, &cfg)
	if status != ExitErrorConfigParse {
		t.Fatalf("expected ExitErrorConfigParse, got %d", status)
	}
}
