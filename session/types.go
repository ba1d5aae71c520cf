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

// Package session implements the post-handshake directional AEAD
// channel keyed by a handshake's derived transcript.SessionKeys: one
// ChaCha20-Poly1305 cipher for sealing outbound traffic under
// SendKey, a second for opening inbound traffic under ReceiveKey, and
// a monotonic per-direction nonce counter so nonce reuse and replayed
// or reordered frames are rejected rather than merely improbable.
package session

import "time"

const GeneralPrefix = "session-"

// Config defines a session's lifetime limits.
type Config struct {
	MaxAge      time.Duration `json:"maxAge"`      // absolute expiration (e.g. 1 hour)
	IdleTimeout time.Duration `json:"idleTimeout"` // idle timeout (e.g. 10 minutes)
	MaxMessages int           `json:"maxMessages"` // combined send+receive frame limit
}

// Status summarizes the sessions a Manager currently holds.
type Status struct {
	TotalSessions   int `json:"totalSessions"`
	ActiveSessions  int `json:"activeSessions"`
	ExpiredSessions int `json:"expiredSessions"`
}

func withDefaults(c Config) Config {
	if c.MaxAge == 0 {
		c.MaxAge = time.Hour
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 10 * time.Minute
	}
	if c.MaxMessages == 0 {
		c.MaxMessages = 100000
	}
	return c
}
