// Package config holds the daemon configuration. Values come from three
// layers: command-line flags, an optional JSON config file, and built-in
// defaults, in that order of precedence.
package config

import (
	"encoding/json"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/pkg/errors"
)

// Config is the daemon configuration. Duration fields are JSON-encoded as
// nanoseconds when written programmatically; the config file is expected to
// carry mostly paths and the log level.
type Config struct {
	// VtyshPath is the vtysh binary used to reach the control plane.
	VtyshPath string `json:"vtysh-path,omitempty"`
	// FeedSocket is the unix socket the change feed listens on.
	FeedSocket string `json:"feed-socket,omitempty"`
	// DebugAddr enables the debug/metrics HTTP endpoint when non-empty.
	DebugAddr string `json:"debug-addr,omitempty"`
	// Pidfile is written on startup when non-empty.
	Pidfile string `json:"pidfile,omitempty"`
	// LogLevel is a logrus level name.
	LogLevel string `json:"log-level,omitempty"`
	// WakeInterval bounds how long the event loop sleeps between polls.
	WakeInterval time.Duration `json:"wake-interval,omitempty"`
	// ProbeInterval and ReadyTimeout shape the startup readiness gate.
	ProbeInterval time.Duration `json:"probe-interval,omitempty"`
	ReadyTimeout  time.Duration `json:"ready-timeout,omitempty"`
}

// New returns an empty config, ready for flag binding.
func New() *Config {
	return &Config{}
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		VtyshPath:     "vtysh",
		FeedSocket:    "/run/routecfgd/feed.sock",
		LogLevel:      "info",
		WakeInterval:  time.Second,
		ProbeInterval: 100 * time.Millisecond,
		ReadyTimeout:  20 * time.Second,
	}
}

// Load merges the JSON config file at path underneath any values already
// set on c (so flag-set values win), then fills the remaining zero fields
// from Default. A missing file is not an error; an unreadable or malformed
// one is.
func (c *Config) Load(path string) error {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// The config file is optional.
		case err != nil:
			return errors.Wrapf(err, "read config file %s", path)
		default:
			var file Config
			if err := json.Unmarshal(data, &file); err != nil {
				return errors.Wrapf(err, "parse config file %s", path)
			}
			if err := mergo.Merge(c, file); err != nil {
				return errors.Wrap(err, "merge config file")
			}
		}
	}
	if err := mergo.Merge(c, *Default()); err != nil {
		return errors.Wrap(err, "merge config defaults")
	}
	return nil
}
