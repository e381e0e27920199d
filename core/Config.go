/*
File Name:  Config.go
Copyright:  2024 Peerchat Project
*/

package core

import (
	_ "embed" // required for embedding the default config
	"io/ioutil"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the current daemon version, reported in status output.
const Version = "0.1"

// Config holds every tunable of the daemon. Everything outside of it
// (the wire protocol, the port, the proof-of-work difficulty) is a fixed
// protocol constant, not configuration.
type Config struct {
	LogFile string `yaml:"LogFile"` // Log file path.

	Listen         string `yaml:"Listen"`         // Bind address for peer connections; only its host part is used, the port is always protocol.Port.
	WebapiListen   string `yaml:"WebapiListen"`   // host:port for the read-only monitoring surface.
	MaxConnections int    `yaml:"MaxConnections"` // Upper bound on concurrently open accepted connections; a slot is held until the connection is closed.

	PeerRequestIntervalSeconds    int `yaml:"PeerRequestIntervalSeconds"`    // T1
	ArchiveRequestIntervalSeconds int `yaml:"ArchiveRequestIntervalSeconds"` // T2
	ReadTimeoutSeconds            int `yaml:"ReadTimeoutSeconds"`            // Idle peer read timeout.
	DialTimeoutMilliseconds       int `yaml:"DialTimeoutMilliseconds"`       // Outbound connect timeout.
}

//go:embed "Config Default.yaml"
var defaultConfig []byte

// LoadConfig reads filename as a YAML config. If the file does not exist or
// is empty, the embedded default is used instead. The returned status is an
// ExitX code; ExitSuccess means out was populated and ready to use.
func LoadConfig(filename string, out *Config) (status int, err error) {
	var configData []byte

	stats, statErr := os.Stat(filename)
	switch {
	case statErr != nil && os.IsNotExist(statErr):
		configData = defaultConfig
	case statErr != nil:
		return ExitErrorConfigAccess, statErr
	case stats.Size() == 0:
		configData = defaultConfig
	default:
		if configData, err = ioutil.ReadFile(filename); err != nil {
			return ExitErrorConfigRead, err
		}
	}

	if err = yaml.Unmarshal(configData, out); err != nil {
		return ExitErrorConfigParse, err
	}

	out.applyDefaults()

	return ExitSuccess, nil
}

// applyDefaults fills in zero-valued fields with the values from the
// embedded default, so a partial user config file still works.
func (c *Config) applyDefaults() {
	var fallback Config
	yaml.Unmarshal(defaultConfig, &fallback)

	if c.LogFile == "" {
		c.LogFile = fallback.LogFile
	}
	if c.Listen == "" {
		c.Listen = fallback.Listen
	}
	if c.WebapiListen == "" {
		c.WebapiListen = fallback.WebapiListen
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = fallback.MaxConnections
	}
	if c.PeerRequestIntervalSeconds == 0 {
		c.PeerRequestIntervalSeconds = fallback.PeerRequestIntervalSeconds
	}
	if c.ArchiveRequestIntervalSeconds == 0 {
		c.ArchiveRequestIntervalSeconds = fallback.ArchiveRequestIntervalSeconds
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = fallback.ReadTimeoutSeconds
	}
	if c.DialTimeoutMilliseconds == 0 {
		c.DialTimeoutMilliseconds = fallback.DialTimeoutMilliseconds
	}
}

func (c *Config) peerRequestInterval() time.Duration {
	return time.Duration(c.PeerRequestIntervalSeconds) * time.Second
}

func (c *Config) archiveRequestInterval() time.Duration {
	return time.Duration(c.ArchiveRequestIntervalSeconds) * time.Second
}

func (c *Config) readTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c *Config) dialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMilliseconds) * time.Millisecond
}

// initLog redirects subsequent log.Printf output through backend.Stdout,
// with the configured log file subscribed as its first writer. Anything
// else that subscribes to backend.Stdout afterwards (the operator prompt,
// the monitoring surface) observes the same stream the file receives.
func (backend *Backend) initLog() error {
	logFile, err := os.OpenFile(backend.Config.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	// logFile intentionally stays open for the lifetime of the process.

	backend.Stdout.Subscribe(logFile)
	log.SetOutput(backend.Stdout)
	log.Printf("---- archived %s ----\n", Version)

	return nil
}
