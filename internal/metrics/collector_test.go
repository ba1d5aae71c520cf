package metrics

import (
	"testing"
	"time"
)

func TestCollectorRecordHandshake(t *testing.T) {
	c := NewCollector()
	c.RecordHandshake(true, 10*time.Millisecond)
	c.RecordHandshake(false, 20*time.Millisecond)

	snap := c.GetSnapshot()
	if snap.HandshakesStarted != 2 {
		t.Errorf("HandshakesStarted = %d, want 2", snap.HandshakesStarted)
	}
	if snap.HandshakesCompleted != 1 {
		t.Errorf("HandshakesCompleted = %d, want 1", snap.HandshakesCompleted)
	}
	if snap.HandshakesFailed != 1 {
		t.Errorf("HandshakesFailed = %d, want 1", snap.HandshakesFailed)
	}
	if rate := snap.GetHandshakeSuccessRate(); rate != 50 {
		t.Errorf("GetHandshakeSuccessRate() = %v, want 50", rate)
	}
}

func TestCollectorRecordFallback(t *testing.T) {
	c := NewCollector()
	c.RecordHandshake(true, time.Millisecond)
	c.RecordHandshake(true, time.Millisecond)
	c.RecordFallback(false)
	c.RecordFallback(true)

	snap := c.GetSnapshot()
	if snap.FallbacksAttempted != 2 {
		t.Errorf("FallbacksAttempted = %d, want 2", snap.FallbacksAttempted)
	}
	if snap.FallbacksRateLimited != 1 {
		t.Errorf("FallbacksRateLimited = %d, want 1", snap.FallbacksRateLimited)
	}
	if rate := snap.GetFallbackRate(); rate != 100 {
		t.Errorf("GetFallbackRate() = %v, want 100", rate)
	}
}

func TestCollectorRecordSessionLifecycle(t *testing.T) {
	c := NewCollector()
	c.RecordSessionCreated()
	c.RecordSessionCreated()
	c.RecordSessionExpired()

	snap := c.GetSnapshot()
	if snap.SessionsCreated != 2 {
		t.Errorf("SessionsCreated = %d, want 2", snap.SessionsCreated)
	}
	if snap.SessionsExpired != 1 {
		t.Errorf("SessionsExpired = %d, want 1", snap.SessionsExpired)
	}
}

func TestCollectorSealOpenTimingPercentiles(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.RecordSeal(time.Duration(i) * time.Microsecond)
		c.RecordOpen(time.Duration(i) * time.Microsecond)
	}

	snap := c.GetSnapshot()
	if snap.P95SealTime < 90 || snap.P95SealTime > 100 {
		t.Errorf("P95SealTime = %d, want roughly 95", snap.P95SealTime)
	}
	if snap.AvgOpenTime <= 0 {
		t.Errorf("AvgOpenTime = %v, want > 0", snap.AvgOpenTime)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.RecordHandshake(true, time.Millisecond)
	c.RecordSessionCreated()
	c.Reset()

	snap := c.GetSnapshot()
	if snap.HandshakesStarted != 0 || snap.SessionsCreated != 0 {
		t.Fatal("Reset did not clear counters")
	}
}

func TestGetGlobalCollectorIsSingleton(t *testing.T) {
	a := GetGlobalCollector()
	b := GetGlobalCollector()
	if a != b {
		t.Fatal("GetGlobalCollector returned different instances")
	}
}
