package aggregate

import (
	"sync"
	"time"
)

type featureSample struct {
	timestamp time.Time
	success   bool
}

// FeatureStats tracks usage of one feature: a cumulative use count, a
// cumulative mesh-enhancement count, and a rolling success rate computed
// over a bounded sample buffer.
type FeatureStats struct {
	mu        sync.Mutex
	sampleCap int

	uses         int64
	meshEnhanced int64
	samples      []featureSample
}

// FeatureSnapshot is a point-in-time copy of one feature's stats.
type FeatureSnapshot struct {
	Uses         int64   `json:"uses"`
	MeshEnhanced int64   `json:"mesh_enhanced"`
	SuccessRate  float64 `json:"success_rate"`
	SampleCount  int     `json:"sample_count"`
}

func newFeatureStats(sampleCap int) *FeatureStats {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	return &FeatureStats{sampleCap: sampleCap}
}

// Observe records one feature use.
func (f *FeatureStats) Observe(now time.Time, success, meshEnhanced bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uses++
	if meshEnhanced {
		f.meshEnhanced++
	}
	f.samples = append(f.samples, featureSample{timestamp: now, success: success})
	if over := len(f.samples) - f.sampleCap; over > 0 {
		f.samples = append(f.samples[:0], f.samples[over:]...)
	}
}

// Snapshot returns a copy of the feature's derived values. The success rate
// is computed over the retained buffer and reports 0 when the buffer is
// empty, never NaN.
func (f *FeatureStats) Snapshot() FeatureSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := FeatureSnapshot{
		Uses:         f.uses,
		MeshEnhanced: f.meshEnhanced,
		SampleCount:  len(f.samples),
	}
	if len(f.samples) > 0 {
		successes := 0
		for _, s := range f.samples {
			if s.success {
				successes++
			}
		}
		snap.SuccessRate = float64(successes) / float64(len(f.samples))
	}
	return snap
}

// Prune drops retained samples at or before cutoff.
func (f *FeatureStats) Prune(cutoff time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := 0
	for keep < len(f.samples) && !f.samples[keep].timestamp.After(cutoff) {
		keep++
	}
	if keep > 0 {
		f.samples = append(f.samples[:0], f.samples[keep:]...)
	}
}
