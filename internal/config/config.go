// Package config loads the gateway's TOML configuration file and applies
// defaults. Configuration is read once at startup and immutable afterward.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/specdriven/specmcp/internal/session"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CorsOrigins []string `toml:"cors_origins"`
}

type SessionConfig struct {
	HeartbeatIntervalSeconds  int      `toml:"heartbeat_interval_seconds"`
	MaxErrorCount             int      `toml:"max_error_count"`
	SupportedProtocolVersions []string `toml:"supported_protocol_versions"`
	DefaultProtocolVersion    string   `toml:"default_protocol_version"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 3001,
		},
		Session: SessionConfig{
			HeartbeatIntervalSeconds:  30,
			MaxErrorCount:             3,
			SupportedProtocolVersions: []string{"2.0", "2.1", "2.2"},
			DefaultProtocolVersion:    "2.1",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the registry or server cannot run with.
func Validate(cfg Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", cfg.Server.Port)
	}
	if cfg.Session.HeartbeatIntervalSeconds <= 0 {
		return fmt.Errorf("heartbeat_interval_seconds must be positive: %d", cfg.Session.HeartbeatIntervalSeconds)
	}
	if cfg.Session.MaxErrorCount <= 0 {
		return fmt.Errorf("max_error_count must be positive: %d", cfg.Session.MaxErrorCount)
	}
	if len(cfg.Session.SupportedProtocolVersions) == 0 {
		return fmt.Errorf("supported_protocol_versions must not be empty")
	}
	if !slices.Contains(cfg.Session.SupportedProtocolVersions, cfg.Session.DefaultProtocolVersion) {
		return fmt.Errorf("default_protocol_version %q is not in supported_protocol_versions", cfg.Session.DefaultProtocolVersion)
	}
	return nil
}

// RegistryConfig converts the session section into the registry's config.
func (c SessionConfig) RegistryConfig() session.Config {
	return session.Config{
		HeartbeatInterval: time.Duration(c.HeartbeatIntervalSeconds) * time.Second,
		MaxErrorCount:     c.MaxErrorCount,
		SupportedVersions: slices.Clone(c.SupportedProtocolVersions),
		DefaultVersion:    c.DefaultProtocolVersion,
	}
}
