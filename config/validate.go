// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import "fmt"

// ValidationIssue describes a single configuration problem.
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// ValidateConfiguration checks cfg for invalid or dangerous settings.
// Error-level issues should block startup; warning-level issues are
// logged but non-fatal.
func ValidateConfiguration(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Session != nil {
		switch cfg.Session.KeySchedule {
		case "hmac", "hkdf":
		default:
			issues = append(issues, ValidationIssue{
				Field:   "session.key_schedule",
				Message: fmt.Sprintf("unknown key schedule %q, must be \"hmac\" or \"hkdf\"", cfg.Session.KeySchedule),
				Level:   "error",
			})
		}
		if cfg.Session.FrameSkew <= 0 {
			issues = append(issues, ValidationIssue{
				Field:   "session.frame_skew",
				Message: "frame skew must be positive",
				Level:   "error",
			})
		}
	}

	if cfg.Store != nil {
		switch cfg.Store.Type {
		case "memory":
		case "postgres":
			if cfg.Store.DSN == "" {
				issues = append(issues, ValidationIssue{
					Field:   "store.dsn",
					Message: "postgres store requires a dsn",
					Level:   "error",
				})
			}
		default:
			issues = append(issues, ValidationIssue{
				Field:   "store.type",
				Message: fmt.Sprintf("unknown store type %q", cfg.Store.Type),
				Level:   "error",
			})
		}
	}

	if cfg.Server != nil && IsProduction() && cfg.Server.JWTSecret == "" {
		issues = append(issues, ValidationIssue{
			Field:   "server.jwt_secret",
			Message: "jwt_secret should not be empty in production",
			Level:   "warning",
		})
	}

	return issues
}
