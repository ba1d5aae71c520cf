// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads and validates the configuration for a
// skybridge-handshaked process: identity material, handshake and
// session policy, and the transport it listens on.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration structure
type Config struct {
	Environment string           `yaml:"environment" json:"environment"`
	Identity    *IdentityConfig  `yaml:"identity" json:"identity"`
	Handshake   *HandshakeConfig `yaml:"handshake" json:"handshake"`
	Session     *SessionConfig   `yaml:"session" json:"session"`
	Transport   *TransportConfig `yaml:"transport" json:"transport"`
	Logging     *LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig   `yaml:"metrics" json:"metrics"`
	Health      *HealthConfig    `yaml:"health" json:"health"`
}

// IdentityConfig controls this process's own identity keys and the
// trust store it pins peer identities against.
type IdentityConfig struct {
	DeviceID        string `yaml:"device_id" json:"device_id"`
	KeyDirectory    string `yaml:"key_directory" json:"key_directory"`
	PassphraseEnv   string `yaml:"passphrase_env" json:"passphrase_env"`
	TrustStorePath  string `yaml:"trust_store_path" json:"trust_store_path"`
}

// HandshakeConfig controls handshake timing and the fallback cooldown.
// The handshake policy itself (policy.Handshake) is not configurable
// here; cmd/skybridge-handshaked's serve command sets it in code.
type HandshakeConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff"`
	// FallbackCooldown overrides fallback.DefaultCooldown when nonzero.
	FallbackCooldown time.Duration `yaml:"fallback_cooldown" json:"fallback_cooldown"`
}

// SessionConfig controls the post-handshake directional AEAD session
// manager's limits.
type SessionConfig struct {
	MaxAge          time.Duration `yaml:"max_age" json:"max_age"`
	MaxIdleTime     time.Duration `yaml:"max_idle_time" json:"max_idle_time"`
	MaxMessages     int           `yaml:"max_messages" json:"max_messages"`
	MaxSessions     int           `yaml:"max_sessions" json:"max_sessions"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// TransportConfig controls the WebSocket listener/dialer this process
// uses to carry handshake and session frames.
type TransportConfig struct {
	ListenAddr   string        `yaml:"listen_addr" json:"listen_addr"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig represents health check configuration
type HealthConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Port    int      `yaml:"port" json:"port"`
	Path    string   `yaml:"path" json:"path"`
	Checks  []string `yaml:"checks" json:"checks"`
}

// LoadFromFile loads configuration from a file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	// Try to parse as YAML first
	if err := yaml.Unmarshal(data, cfg); err != nil {
		// Try JSON if YAML fails
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	// Set defaults
	setDefaults(cfg)

	return cfg, nil
}

// SaveToFile saves configuration to a file
func SaveToFile(cfg *Config, path string) error {
	// Determine format by extension
	var data []byte
	var err error

	if len(path) >= 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Identity == nil {
		cfg.Identity = &IdentityConfig{}
	}
	if cfg.Handshake == nil {
		cfg.Handshake = &HandshakeConfig{}
	}
	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Transport == nil {
		cfg.Transport = &TransportConfig{}
	}
	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}

	if cfg.Identity != nil {
		if cfg.Identity.KeyDirectory == "" {
			cfg.Identity.KeyDirectory = ".skybridge/keys"
		}
		if cfg.Identity.TrustStorePath == "" {
			cfg.Identity.TrustStorePath = ".skybridge/trust.json"
		}
	}

	if cfg.Handshake != nil {
		if cfg.Handshake.Timeout == 0 {
			cfg.Handshake.Timeout = 30 * time.Second
		}
		if cfg.Handshake.MaxRetries == 0 {
			cfg.Handshake.MaxRetries = 3
		}
		if cfg.Handshake.RetryBackoff == 0 {
			cfg.Handshake.RetryBackoff = 1 * time.Second
		}
	}

	if cfg.Session != nil {
		if cfg.Session.MaxAge == 0 {
			cfg.Session.MaxAge = 1 * time.Hour
		}
		if cfg.Session.MaxIdleTime == 0 {
			cfg.Session.MaxIdleTime = 30 * time.Minute
		}
		if cfg.Session.MaxMessages == 0 {
			cfg.Session.MaxMessages = 100000
		}
		if cfg.Session.MaxSessions == 0 {
			cfg.Session.MaxSessions = 10000
		}
		if cfg.Session.CleanupInterval == 0 {
			cfg.Session.CleanupInterval = 5 * time.Minute
		}
	}

	if cfg.Transport != nil {
		if cfg.Transport.ListenAddr == "" {
			cfg.Transport.ListenAddr = ":7443"
		}
		if cfg.Transport.DialTimeout == 0 {
			cfg.Transport.DialTimeout = 30 * time.Second
		}
		if cfg.Transport.ReadTimeout == 0 {
			cfg.Transport.ReadTimeout = 60 * time.Second
		}
		if cfg.Transport.WriteTimeout == 0 {
			cfg.Transport.WriteTimeout = 30 * time.Second
		}
	}

	if cfg.Logging != nil {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "info"
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = "stdout"
		}
	}

	if cfg.Metrics != nil && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health != nil && cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
}
