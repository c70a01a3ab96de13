package aggregate

import (
	"testing"
	"time"
)

func TestRateWindowEvictsExpiredOnRead(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := NewRateWindow(60 * time.Second)

	for _, offset := range []int{0, 10, 20, 70, 80} {
		w.Record(base.Add(time.Duration(offset) * time.Second))
	}

	if got := w.Count(base.Add(85 * time.Second)); got != 2 {
		t.Fatalf("Count at t=85s = %d, want 2", got)
	}
}

func TestRateWindowBoundaryIsExclusive(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := NewRateWindow(60 * time.Second)
	w.Record(base)

	// An event exactly window-old falls outside (t-window, t].
	if got := w.Count(base.Add(60 * time.Second)); got != 0 {
		t.Fatalf("Count at exact window edge = %d, want 0", got)
	}
}

func TestRateWindowEmptyRead(t *testing.T) {
	w := NewRateWindow(time.Minute)
	if got := w.Count(time.Now()); got != 0 {
		t.Fatalf("Count on empty window = %d, want 0", got)
	}
}

func TestRateWindowPrune(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := NewRateWindow(time.Hour)
	w.Record(base)
	w.Record(base.Add(30 * time.Minute))

	w.Prune(base.Add(10 * time.Minute))

	if got := w.Count(base.Add(31 * time.Minute)); got != 1 {
		t.Fatalf("Count after prune = %d, want 1", got)
	}
}
