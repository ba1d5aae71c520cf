// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.


package metrics

import (
	"sync"
	"time"
)

// Collector collects in-process metrics for handshake and session
// operations, as a lighter-weight in-memory complement to the
// prometheus vectors in handshake.go/session.go/crypto.go/message.go
// — useful for a CLI's own `status` output where scraping /metrics is
// not convenient.
type Collector struct {
	mu sync.RWMutex

	// Counters
	HandshakesStarted    int64
	HandshakesCompleted  int64
	HandshakesFailed     int64
	FallbacksAttempted   int64
	FallbacksRateLimited int64
	SessionsCreated      int64
	SessionsExpired      int64

	// Timing metrics (in microseconds)
	HandshakeTimes []int64
	SealTimes      []int64
	OpenTimes      []int64

	// Start time for uptime calculation
	startTime time.Time

	// Configuration
	maxTimingSamples int
}

// NewCollector creates a new in-process metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime:        time.Now(),
		maxTimingSamples: 1000, // Keep last 1000 samples for each timing metric
	}
}

// RecordHandshake records a completed handshake attempt.
func (c *Collector) RecordHandshake(success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.HandshakesStarted++
	if success {
		c.HandshakesCompleted++
	} else {
		c.HandshakesFailed++
	}
	c.recordTiming(&c.HandshakeTimes, duration)
}

// RecordFallback records a classical-fallback attempt, and whether it
// was refused by the per-peer rate limiter.
func (c *Collector) RecordFallback(rateLimited bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.FallbacksAttempted++
	if rateLimited {
		c.FallbacksRateLimited++
	}
}

// RecordSessionCreated records a session being established.
func (c *Collector) RecordSessionCreated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SessionsCreated++
}

// RecordSessionExpired records a session reaching its age, idle, or
// message-count limit.
func (c *Collector) RecordSessionExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SessionsExpired++
}

// RecordSeal records a Session.Seal call's duration.
func (c *Collector) RecordSeal(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordTiming(&c.SealTimes, duration)
}

// RecordOpen records a Session.Open call's duration.
func (c *Collector) RecordOpen(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordTiming(&c.OpenTimes, duration)
}

// recordTiming records a timing sample
func (c *Collector) recordTiming(timings *[]int64, duration time.Duration) {
	microseconds := duration.Microseconds()
	*timings = append(*timings, microseconds)

	// Keep only last N samples
	if len(*timings) > c.maxTimingSamples {
		*timings = (*timings)[len(*timings)-c.maxTimingSamples:]
	}
}

// GetSnapshot returns a snapshot of current metrics
func (c *Collector) GetSnapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Snapshot{
		Timestamp:            time.Now(),
		Uptime:               time.Since(c.startTime),
		HandshakesStarted:    c.HandshakesStarted,
		HandshakesCompleted:  c.HandshakesCompleted,
		HandshakesFailed:     c.HandshakesFailed,
		FallbacksAttempted:   c.FallbacksAttempted,
		FallbacksRateLimited: c.FallbacksRateLimited,
		SessionsCreated:      c.SessionsCreated,
		SessionsExpired:      c.SessionsExpired,
		AvgHandshakeTime:     calculateAverage(c.HandshakeTimes),
		AvgSealTime:          calculateAverage(c.SealTimes),
		AvgOpenTime:          calculateAverage(c.OpenTimes),
		P95HandshakeTime:     calculatePercentile(c.HandshakeTimes, 95),
		P95SealTime:          calculatePercentile(c.SealTimes, 95),
		P95OpenTime:          calculatePercentile(c.OpenTimes, 95),
	}
}

// Reset resets all metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.HandshakesStarted = 0
	c.HandshakesCompleted = 0
	c.HandshakesFailed = 0
	c.FallbacksAttempted = 0
	c.FallbacksRateLimited = 0
	c.SessionsCreated = 0
	c.SessionsExpired = 0

	c.HandshakeTimes = nil
	c.SealTimes = nil
	c.OpenTimes = nil

	c.startTime = time.Now()
}

// Snapshot represents a point-in-time snapshot of metrics
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	// Counters
	HandshakesStarted    int64
	HandshakesCompleted  int64
	HandshakesFailed     int64
	FallbacksAttempted   int64
	FallbacksRateLimited int64
	SessionsCreated      int64
	SessionsExpired      int64

	// Timing averages (microseconds)
	AvgHandshakeTime float64
	AvgSealTime      float64
	AvgOpenTime      float64

	// 95th percentile timings (microseconds)
	P95HandshakeTime int64
	P95SealTime      int64
	P95OpenTime      int64
}

// GetHandshakeSuccessRate returns the handshake success rate as a percentage
func (s *Snapshot) GetHandshakeSuccessRate() float64 {
	if s.HandshakesStarted == 0 {
		return 0
	}
	return float64(s.HandshakesCompleted) / float64(s.HandshakesStarted) * 100
}

// GetFallbackRate returns the fraction of handshakes that needed a
// classical fallback, as a percentage.
func (s *Snapshot) GetFallbackRate() float64 {
	if s.HandshakesStarted == 0 {
		return 0
	}
	return float64(s.FallbacksAttempted) / float64(s.HandshakesStarted) * 100
}

// Helper functions

func calculateAverage(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum int64
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func calculatePercentile(values []int64, percentile int) int64 {
	if len(values) == 0 {
		return 0
	}

	// Simple implementation - for production, use a proper percentile algorithm
	// This is an approximation
	index := len(values) * percentile / 100
	if index >= len(values) {
		index = len(values) - 1
	}

	// Create a copy and sort (simple bubble sort for small datasets)
	sorted := make([]int64, len(values))
	copy(sorted, values)

	for i := 0; i < len(sorted)-1; i++ {
		for j := 0; j < len(sorted)-i-1; j++ {
			if sorted[j] > sorted[j+1] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}

	return sorted[index]
}

// Global metrics collector instance
var globalCollector = NewCollector()

// GetGlobalCollector returns the global metrics collector
func GetGlobalCollector() *Collector {
	return globalCollector
}
