package aggregate

import (
	"math"
	"sync"
	"time"
)

// DefaultSampleCap bounds every sample buffer regardless of event volume.
const DefaultSampleCap = 1000

// emaAlpha is the smoothing factor for the exponential moving average kept
// on latency-like metrics.
const emaAlpha = 0.1

// AverageMode selects how Average is computed for a running aggregate.
type AverageMode int

const (
	// AverageCumulative computes sum/count over the full history. Used for
	// cumulative counters whose denominator must never shrink.
	AverageCumulative AverageMode = iota
	// AverageRecent computes the mean over the retained sample buffer. Used
	// for metrics whose semantics require recency.
	AverageRecent
)

// Sample is one retained observation.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Stats is a point-in-time copy of a running aggregate's derived values.
type Stats struct {
	Count       int64   `json:"count"`
	Sum         float64 `json:"sum"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Average     float64 `json:"average"`
	EMA         float64 `json:"ema,omitempty"`
	SampleCount int     `json:"sample_count"`
}

// RunningAggregate maintains count/sum/min/max plus a bounded FIFO sample
// buffer. The buffer never exceeds its cap; oldest entries are dropped first.
type RunningAggregate struct {
	mu        sync.Mutex
	mode      AverageMode
	trackEMA  bool
	sampleCap int

	count   int64
	sum     float64
	min     float64
	max     float64
	ema     float64
	emaInit bool
	samples []Sample
}

// NewRunningAggregate creates an aggregate with the given average semantics
// and sample cap. A cap <= 0 falls back to DefaultSampleCap.
func NewRunningAggregate(mode AverageMode, sampleCap int) *RunningAggregate {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	return &RunningAggregate{mode: mode, sampleCap: sampleCap}
}

// NewEMAAggregate creates a recency aggregate that also tracks an
// exponential moving average (alpha=0.1), for response-time style metrics.
func NewEMAAggregate(sampleCap int) *RunningAggregate {
	agg := NewRunningAggregate(AverageRecent, sampleCap)
	agg.trackEMA = true
	return agg
}

// Observe folds one sample into the aggregate.
func (r *RunningAggregate) Observe(now time.Time, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		r.min = value
		r.max = value
	} else {
		r.min = math.Min(r.min, value)
		r.max = math.Max(r.max, value)
	}
	r.count++
	r.sum += value

	if r.trackEMA {
		if !r.emaInit {
			r.ema = value
			r.emaInit = true
		} else {
			r.ema = emaAlpha*value + (1-emaAlpha)*r.ema
		}
	}

	r.samples = append(r.samples, Sample{Timestamp: now, Value: value})
	if over := len(r.samples) - r.sampleCap; over > 0 {
		r.samples = append(r.samples[:0], r.samples[over:]...)
	}
}

// Stats returns a copy of the derived values.
func (r *RunningAggregate) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Count:       r.count,
		Sum:         r.sum,
		Min:         r.min,
		Max:         r.max,
		Average:     r.averageLocked(),
		EMA:         r.ema,
		SampleCount: len(r.samples),
	}
}

// Samples returns a copy of the retained sample buffer in insertion order.
func (r *RunningAggregate) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Prune drops retained samples at or before cutoff. Historical count and sum
// are kept; only the recency buffer shrinks.
func (r *RunningAggregate) Prune(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keep := 0
	for keep < len(r.samples) && !r.samples[keep].Timestamp.After(cutoff) {
		keep++
	}
	if keep > 0 {
		r.samples = append(r.samples[:0], r.samples[keep:]...)
	}
}

func (r *RunningAggregate) averageLocked() float64 {
	switch r.mode {
	case AverageRecent:
		if len(r.samples) == 0 {
			return 0
		}
		var sum float64
		for _, s := range r.samples {
			sum += s.Value
		}
		return sum / float64(len(r.samples))
	default:
		if r.count == 0 {
			return 0
		}
		return r.sum / float64(r.count)
	}
}
