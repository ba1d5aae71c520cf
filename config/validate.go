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

package config

import "fmt"

// ValidationIssue describes one configuration problem found by
// ValidateConfiguration. Level is either "error" (Load fails) or
// "warning" (Load succeeds, issue is only logged by the caller).
type ValidationIssue struct {
	Level   string
	Field   string
	Message string
}

// ValidateConfiguration checks a loaded Config for values that would
// prevent a skybridge-handshaked process from starting correctly.
func ValidateConfiguration(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Identity != nil {
		if cfg.Identity.KeyDirectory == "" {
			issues = append(issues, ValidationIssue{
				Level:   "error",
				Field:   "identity.key_directory",
				Message: "key directory must not be empty",
			})
		}
		if cfg.Identity.TrustStorePath == "" {
			issues = append(issues, ValidationIssue{
				Level:   "error",
				Field:   "identity.trust_store_path",
				Message: "trust store path must not be empty",
			})
		}
	}

	if cfg.Handshake != nil {
		if cfg.Handshake.Timeout <= 0 {
			issues = append(issues, ValidationIssue{
				Level:   "error",
				Field:   "handshake.timeout",
				Message: "handshake timeout must be positive",
			})
		}
		if cfg.Handshake.MaxRetries < 0 {
			issues = append(issues, ValidationIssue{
				Level:   "error",
				Field:   "handshake.max_retries",
				Message: "handshake max_retries must not be negative",
			})
		}
	}

	if cfg.Session != nil {
		if cfg.Session.MaxSessions <= 0 {
			issues = append(issues, ValidationIssue{
				Level:   "error",
				Field:   "session.max_sessions",
				Message: "session max_sessions must be positive",
			})
		}
		if cfg.Session.MaxIdleTime > 0 && cfg.Session.MaxAge > 0 && cfg.Session.MaxIdleTime > cfg.Session.MaxAge {
			issues = append(issues, ValidationIssue{
				Level:   "warning",
				Field:   "session.max_idle_time",
				Message: "max_idle_time exceeds max_age; idle timeout will never trigger",
			})
		}
	}

	if cfg.Transport != nil {
		if cfg.Transport.ListenAddr == "" {
			issues = append(issues, ValidationIssue{
				Level:   "error",
				Field:   "transport.listen_addr",
				Message: "listen address must not be empty",
			})
		}
	}

	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "debug", "info", "warn", "error":
		default:
			issues = append(issues, ValidationIssue{
				Level:   "warning",
				Field:   "logging.level",
				Message: fmt.Sprintf("unrecognized log level %q, defaulting to info", cfg.Logging.Level),
			})
		}
	}

	if cfg.Metrics != nil && cfg.Metrics.Enabled && cfg.Metrics.Port <= 0 {
		issues = append(issues, ValidationIssue{
			Level:   "error",
			Field:   "metrics.port",
			Message: "metrics port must be positive when metrics are enabled",
		})
	}

	if cfg.Health != nil && cfg.Health.Enabled && cfg.Health.Port <= 0 {
		issues = append(issues, ValidationIssue{
			Level:   "error",
			Field:   "health.port",
			Message: "health port must be positive when health checks are enabled",
		})
	}

	return issues
}
