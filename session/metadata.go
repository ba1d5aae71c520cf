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

package session

import "time"

// Metadata is a point-in-time, JSON-friendly snapshot of a Session's
// status, for introspection (status output, logging) that shouldn't
// hold a reference to the live Session.
type Metadata struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
	LastUsedAt    string `json:"lastUsedAt"`
	MessageCount  int    `json:"messageCount"`
}

// DescribeSession snapshots s into a Metadata value.
func DescribeSession(s *Session) Metadata {
	status := "active"
	if s.IsExpired() {
		status = "expired"
	}
	return Metadata{
		ID:           s.GetID(),
		Status:       status,
		CreatedAt:    s.GetCreatedAt().Format(time.RFC3339),
		LastUsedAt:   s.GetLastUsedAt().Format(time.RFC3339),
		MessageCount: s.GetMessageCount(),
	}
}

// DescribeAll snapshots every session the Manager currently holds.
func DescribeAll(m *Manager) []Metadata {
	ids := m.ListSessions()
	out := make([]Metadata, 0, len(ids))
	for _, id := range ids {
		if sess, ok := m.GetSession(id); ok {
			out = append(out, DescribeSession(sess))
		}
	}
	return out
}
