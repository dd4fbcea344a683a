// Copyright (C) 2025 securechan contributors
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

// Package config loads the reference server and client's runtime
// configuration from YAML/JSON files and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure for both the reference
// server (cmd/securechan-server) and the CLI client (cmd/securechan-cli).
type Config struct {
	Environment  string          `yaml:"environment" json:"environment"`
	Server       *ServerConfig   `yaml:"server" json:"server"`
	Client       *ClientConfig   `yaml:"client" json:"client"`
	Session      *SessionConfig  `yaml:"session" json:"session"`
	Store        *StoreConfig    `yaml:"store" json:"store"`
	Logging      *LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics      *MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// ServerConfig configures the reference HTTP server.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr" json:"listen_addr"`
	JWTSecret   string `yaml:"jwt_secret" json:"jwt_secret"`
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// ClientConfig configures the CLI / httpapi.Client.
type ClientConfig struct {
	BaseURL          string        `yaml:"base_url" json:"base_url"`
	FinalizeTimeout  time.Duration `yaml:"finalize_timeout" json:"finalize_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout" json:"request_timeout"`
	BearerToken      string        `yaml:"bearer_token" json:"bearer_token"`
}

// SessionConfig controls the key schedule and session-frame policy.
type SessionConfig struct {
	KeySchedule string        `yaml:"key_schedule" json:"key_schedule"` // "hmac" or "hkdf"
	FrameSkew   time.Duration `yaml:"frame_skew" json:"frame_skew"`
	NonceTTL    time.Duration `yaml:"nonce_ttl" json:"nonce_ttl"`
	MaxAge      time.Duration `yaml:"max_age" json:"max_age"`
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

// StoreConfig selects and configures the durability backend for
// nonce/pending-handshake state.
type StoreConfig struct {
	Type    string `yaml:"type" json:"type"` // "memory" or "postgres"
	DSN     string `yaml:"dsn" json:"dsn"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig represents Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parse file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes cfg to path, choosing JSON or YAML by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8443"
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9100"
	}

	if cfg.Client == nil {
		cfg.Client = &ClientConfig{}
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://localhost:8443"
	}
	if cfg.Client.FinalizeTimeout == 0 {
		cfg.Client.FinalizeTimeout = 5 * time.Second
	}
	if cfg.Client.RequestTimeout == 0 {
		cfg.Client.RequestTimeout = 30 * time.Second
	}

	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.KeySchedule == "" {
		cfg.Session.KeySchedule = "hmac"
	}
	if cfg.Session.FrameSkew == 0 {
		cfg.Session.FrameSkew = 5 * time.Minute
	}
	if cfg.Session.NonceTTL == 0 {
		cfg.Session.NonceTTL = 10 * time.Minute
	}
	if cfg.Session.MaxAge == 0 {
		cfg.Session.MaxAge = time.Hour
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = 10 * time.Minute
	}

	if cfg.Store == nil {
		cfg.Store = &StoreConfig{}
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{Enabled: true, Path: "/metrics"}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
