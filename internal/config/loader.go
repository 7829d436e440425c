// Package config loads the client's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level client configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig describes the tool-server subprocess to spawn.
type ServerConfig struct {
	// Command is the argv of the server; Command[0] is the binary.
	Command []string `yaml:"command"`
	// Dir is the server's working directory.
	Dir string `yaml:"dir"`
	// Settle is how long to wait after spawning before the liveness
	// check, e.g. "500ms".
	Settle string `yaml:"settle"`
	// TerminateGrace is how long to wait for a voluntary exit on cleanup
	// before killing, e.g. "5s".
	TerminateGrace string `yaml:"terminate_grace"`
}

// ClientConfig is the identity sent in the initialize handshake.
type ClientConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Settle:         "500ms",
			TerminateGrace: "5s",
		},
		Client: ClientConfig{
			Name:    "mcp-session",
			Version: "0.1.0",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and parses the YAML file at path, filling unset fields with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SettleDuration parses the settle interval.
func (c *ServerConfig) SettleDuration() (time.Duration, error) {
	if c.Settle == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Settle)
}

// TerminateGraceDuration parses the terminate grace period.
func (c *ServerConfig) TerminateGraceDuration() (time.Duration, error) {
	if c.TerminateGrace == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TerminateGrace)
}
