package aggregate

import (
	"sync"
	"time"
)

// RateWindow is a sliding-window rate counter over one metric name. Writes
// append a timestamp; reads evict expired entries first (lazy eviction) and
// report the remaining length. The linear scan on read is acceptable because
// reads are infrequent relative to writes.
type RateWindow struct {
	mu     sync.Mutex
	window time.Duration
	stamps []time.Time
}

// NewRateWindow creates a rate counter over the given trailing window.
func NewRateWindow(window time.Duration) *RateWindow {
	return &RateWindow{window: window}
}

// Record notes one occurrence at now.
func (w *RateWindow) Record(now time.Time) {
	w.mu.Lock()
	w.stamps = append(w.stamps, now)
	w.mu.Unlock()
}

// Count trims entries older than the window and returns the current count.
// After a read, every retained timestamp lies within (now-window, now].
func (w *RateWindow) Count(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trimLocked(now.Add(-w.window))
	return len(w.stamps)
}

// Prune discards entries at or before cutoff, independent of the window.
// Used by retention cleanup.
func (w *RateWindow) Prune(cutoff time.Time) {
	w.mu.Lock()
	w.trimLocked(cutoff)
	w.mu.Unlock()
}

func (w *RateWindow) trimLocked(cutoff time.Time) {
	keep := 0
	for keep < len(w.stamps) && !w.stamps[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[keep:]...)
	}
}
