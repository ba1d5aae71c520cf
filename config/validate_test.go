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

import (
	"testing"
	"time"
)

func TestValidateConfigurationValidConfigHasNoErrors(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	for _, issue := range ValidateConfiguration(cfg) {
		if issue.Level == "error" {
			t.Errorf("unexpected error on defaulted config: %s - %s", issue.Field, issue.Message)
		}
	}
}

func TestValidateConfigurationRejectsEmptyKeyDirectory(t *testing.T) {
	cfg := &Config{
		Identity: &IdentityConfig{KeyDirectory: "", TrustStorePath: "trust.json"},
	}

	issues := ValidateConfiguration(cfg)

	found := false
	for _, issue := range issues {
		if issue.Field == "identity.key_directory" && issue.Level == "error" {
			found = true
		}
	}
	if !found {
		t.Error("expected an error for empty identity.key_directory")
	}
}

func TestValidateConfigurationRejectsNonPositiveHandshakeTimeout(t *testing.T) {
	cfg := &Config{
		Handshake: &HandshakeConfig{Timeout: 0, MaxRetries: 3},
	}

	issues := ValidateConfiguration(cfg)

	found := false
	for _, issue := range issues {
		if issue.Field == "handshake.timeout" && issue.Level == "error" {
			found = true
		}
	}
	if !found {
		t.Error("expected an error for zero handshake.timeout")
	}
}

func TestValidateConfigurationWarnsOnIdleExceedingMaxAge(t *testing.T) {
	cfg := &Config{
		Session: &SessionConfig{
			MaxAge:      10 * time.Minute,
			MaxIdleTime: time.Hour,
			MaxSessions: 100,
		},
	}

	issues := ValidateConfiguration(cfg)

	found := false
	for _, issue := range issues {
		if issue.Field == "session.max_idle_time" && issue.Level == "warning" {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning for max_idle_time exceeding max_age")
	}
}

func TestValidateConfigurationRejectsMetricsPortWhenEnabled(t *testing.T) {
	cfg := &Config{
		Metrics: &MetricsConfig{Enabled: true, Port: 0},
	}

	issues := ValidateConfiguration(cfg)

	found := false
	for _, issue := range issues {
		if issue.Field == "metrics.port" && issue.Level == "error" {
			found = true
		}
	}
	if !found {
		t.Error("expected an error for metrics enabled with port 0")
	}
}
