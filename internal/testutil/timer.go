// Package testutil provides deterministic helpers for harness tests:
// a manually-fired timer source replacing wall-clock pacing delays, and a
// sequential run-ID generator replacing random UUIDs.
package testutil

import (
	"sync"
	"time"
)

// ManualTimer is a timer source that never fires on its own. Tests install
// it via harness.WithTimerSource to hold a run inside an inter-directive
// delay and release it explicitly.
//
// Thread-safety: all methods are safe for concurrent use; the playback
// goroutine requests timers while the test goroutine fires them.
type ManualTimer struct {
	mu      sync.Mutex
	waiters []chan time.Time
}

// NewManualTimer creates a timer source with no pending waiters.
func NewManualTimer() *ManualTimer {
	return &ManualTimer{}
}

// After registers a waiter and returns its channel. The duration is
// ignored; the channel fires only when Fire is called.
func (m *ManualTimer) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	m.mu.Lock()
	m.waiters = append(m.waiters, ch)
	m.mu.Unlock()
	return ch
}

// Fire releases the oldest pending waiter. Returns false if none is
// pending.
func (m *ManualTimer) Fire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.waiters) == 0 {
		return false
	}
	ch := m.waiters[0]
	m.waiters = m.waiters[1:]
	ch <- time.Time{}
	return true
}

// Pending returns the number of waiters that have not been fired.
func (m *ManualTimer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

// WaitPending polls until at least n waiters are pending or the timeout
// elapses. Returns true if the condition was met.
func (m *ManualTimer) WaitPending(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if m.Pending() >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return m.Pending() >= n
}
