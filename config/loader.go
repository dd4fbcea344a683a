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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoaderOptions configures the configuration loader.
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config)
	ConfigDir string
	// Environment overrides automatic environment detection
	Environment string
	// SkipEnvSubstitution disables environment variable substitution
	SkipEnvSubstitution bool
	// SkipValidation disables configuration validation
	SkipValidation bool
}

// DefaultLoaderOptions returns default loader options.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		ConfigDir:           "config",
		Environment:         "",
		SkipEnvSubstitution: false,
		SkipValidation:      false,
	}
}

// Load loads configuration with automatic environment detection. It first
// loads a .env file from the working directory, if present, so that
// ${VAR} substitution below can see values set there.
func Load(opts ...LoaderOptions) (*Config, error) {
	_ = godotenv.Load()

	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	envConfigPath := filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env))
	cfg, err := loadConfigFile(envConfigPath)
	if err != nil {
		defaultConfigPath := filepath.Join(options.ConfigDir, "default.yaml")
		cfg, err = loadConfigFile(defaultConfigPath)
		if err != nil {
			configPath := filepath.Join(options.ConfigDir, "config.yaml")
			cfg, err = loadConfigFile(configPath)
			if err != nil {
				cfg = &Config{}
			}
		}
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	setDefaults(cfg)

	if !options.SkipEnvSubstitution {
		SubstituteEnvVarsInConfig(cfg)
	}

	applyEnvironmentOverrides(cfg)

	if !options.SkipValidation {
		if errs := ValidateConfiguration(cfg); len(errs) > 0 {
			for _, e := range errs {
				if e.Level == "error" {
					return nil, fmt.Errorf("configuration validation failed: %s - %s", e.Field, e.Message)
				}
			}
		}
	}

	return cfg, nil
}

// loadConfigFile loads a single config file.
func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return LoadFromFile(path)
}

// applyEnvironmentOverrides overrides config with environment variables
// (highest priority, applied after file load and ${VAR} substitution).
func applyEnvironmentOverrides(cfg *Config) {
	if addr := os.Getenv("SECURECHAN_LISTEN_ADDR"); addr != "" && cfg.Server != nil {
		cfg.Server.ListenAddr = addr
	}
	if secret := os.Getenv("SECURECHAN_JWT_SECRET"); secret != "" && cfg.Server != nil {
		cfg.Server.JWTSecret = secret
	}

	if url := os.Getenv("SECURECHAN_BASE_URL"); url != "" && cfg.Client != nil {
		cfg.Client.BaseURL = url
	}
	if token := os.Getenv("SECURECHAN_BEARER_TOKEN"); token != "" && cfg.Client != nil {
		cfg.Client.BearerToken = token
	}

	if ks := os.Getenv("SECURECHAN_KEY_SCHEDULE"); ks != "" && cfg.Session != nil {
		cfg.Session.KeySchedule = ks
	}

	if dsn := os.Getenv("SECURECHAN_STORE_DSN"); dsn != "" && cfg.Store != nil {
		cfg.Store.DSN = dsn
	}
	if storeType := os.Getenv("SECURECHAN_STORE_TYPE"); storeType != "" && cfg.Store != nil {
		cfg.Store.Type = storeType
	}

	if logLevel := os.Getenv("SECURECHAN_LOG_LEVEL"); logLevel != "" && cfg.Logging != nil {
		cfg.Logging.Level = logLevel
	}
	if logFormat := os.Getenv("SECURECHAN_LOG_FORMAT"); logFormat != "" && cfg.Logging != nil {
		cfg.Logging.Format = logFormat
	}

	if os.Getenv("SECURECHAN_METRICS_ENABLED") == "true" && cfg.Metrics != nil {
		cfg.Metrics.Enabled = true
	}
	if os.Getenv("SECURECHAN_METRICS_ENABLED") == "false" && cfg.Metrics != nil {
		cfg.Metrics.Enabled = false
	}
}

// LoadForEnvironment loads configuration for a specific environment.
func LoadForEnvironment(environment string) (*Config, error) {
	return Load(LoaderOptions{
		ConfigDir:   "config",
		Environment: environment,
	})
}

// MustLoad loads configuration or panics on error.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
