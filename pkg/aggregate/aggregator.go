package aggregate

import (
	"sync"
	"time"

	"github.com/meshkit/telemetry/pkg/event"
)

// rateWindowSize is the trailing interval for the per-minute rate counters.
const rateWindowSize = time.Minute

// ResponseTimeMetric is the designated metric name tracked with an
// exponential moving average in addition to the bounded sample buffer.
const ResponseTimeMetric = "response_time"

// categoryState accumulates per-category interaction counts and bounded
// performance sample buffers. order preserves first-seen position for
// stable popularity tie-breaks.
type categoryState struct {
	order        int
	interactions int64
	rates        *RunningAggregate
	durations    *RunningAggregate
}

// Aggregator maintains the collector's derived state: sliding-window rate
// counters, named running aggregates, per-feature stats, and per-category
// mesh performance. All update paths are O(1) amortized per event.
type Aggregator struct {
	mu        sync.Mutex
	sampleCap int

	messages *RateWindow
	errors   *RateWindow
	mesh     *RateWindow

	eventCounts map[event.Kind]int64
	metrics     map[string]*RunningAggregate
	features    map[string]*FeatureStats
	categories  map[string]*categoryState

	storiesStarted   int64
	storiesCompleted int64
}

// New creates an aggregator. sampleCap bounds every sample buffer; <= 0
// selects DefaultSampleCap.
func New(sampleCap int) *Aggregator {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	return &Aggregator{
		sampleCap:   sampleCap,
		messages:    NewRateWindow(rateWindowSize),
		errors:      NewRateWindow(rateWindowSize),
		mesh:        NewRateWindow(rateWindowSize),
		eventCounts: make(map[event.Kind]int64),
		metrics:     make(map[string]*RunningAggregate),
		features:    make(map[string]*FeatureStats),
		categories:  make(map[string]*categoryState),
	}
}

// RecordEvent folds one canonical event into the relevant buckets.
func (a *Aggregator) RecordEvent(ev event.Event) {
	a.mu.Lock()
	a.eventCounts[ev.Kind]++
	a.mu.Unlock()

	switch attrs := ev.Attrs.(type) {
	case event.MessageAttrs:
		a.messages.Record(ev.Timestamp)
	case event.ErrorAttrs:
		a.errors.Record(ev.Timestamp)
	case event.MeshInteractAttrs:
		a.mesh.Record(ev.Timestamp)
		a.recordCategoryInteraction(attrs.Category)
	case event.FeatureAttrs:
		a.featureStats(attrs.Feature).Observe(ev.Timestamp, attrs.Success, attrs.MeshEnhanced)
	case event.PerformanceAttrs:
		a.recordPerformance(ev.Timestamp, attrs)
	case event.StoryProgressAttrs:
		a.recordStory(attrs)
	}
}

// MessagesPerMinute reports the current message rate at now.
func (a *Aggregator) MessagesPerMinute(now time.Time) int { return a.messages.Count(now) }

// ErrorsPerMinute reports the current error rate at now.
func (a *Aggregator) ErrorsPerMinute(now time.Time) int { return a.errors.Count(now) }

// MeshPerMinute reports the current mesh-interaction rate at now.
func (a *Aggregator) MeshPerMinute(now time.Time) int { return a.mesh.Count(now) }

// Metric returns the named running aggregate, creating it on first use.
// The response-time metric additionally tracks an EMA.
func (a *Aggregator) Metric(name string) *RunningAggregate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metricLocked(name)
}

func (a *Aggregator) metricLocked(name string) *RunningAggregate {
	agg, ok := a.metrics[name]
	if !ok {
		if name == ResponseTimeMetric {
			agg = NewEMAAggregate(a.sampleCap)
		} else {
			agg = NewRunningAggregate(AverageCumulative, a.sampleCap)
		}
		a.metrics[name] = agg
	}
	return agg
}

func (a *Aggregator) featureStats(name string) *FeatureStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	fs, ok := a.features[name]
	if !ok {
		fs = newFeatureStats(a.sampleCap)
		a.features[name] = fs
	}
	return fs
}

func (a *Aggregator) recordCategoryInteraction(category string) {
	if category == "" {
		category = "uncategorized"
	}
	a.mu.Lock()
	cs := a.categoryLocked(category)
	cs.interactions++
	a.mu.Unlock()
}

func (a *Aggregator) recordPerformance(now time.Time, attrs event.PerformanceAttrs) {
	if attrs.Metric != "" {
		a.Metric(attrs.Metric).Observe(now, attrs.Value)
	}
	if attrs.Category == "" {
		return
	}
	a.mu.Lock()
	cs := a.categoryLocked(attrs.Category)
	a.mu.Unlock()
	if attrs.RateHz > 0 {
		cs.rates.Observe(now, attrs.RateHz)
	}
	if attrs.DurationMs > 0 {
		cs.durations.Observe(now, attrs.DurationMs)
	}
}

func (a *Aggregator) categoryLocked(category string) *categoryState {
	cs, ok := a.categories[category]
	if !ok {
		cs = &categoryState{
			order:     len(a.categories),
			rates:     NewRunningAggregate(AverageRecent, a.sampleCap),
			durations: NewRunningAggregate(AverageRecent, a.sampleCap),
		}
		a.categories[category] = cs
	}
	return cs
}

func (a *Aggregator) recordStory(attrs event.StoryProgressAttrs) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if attrs.Step <= 1 && !attrs.Completed {
		a.storiesStarted++
	}
	if attrs.Completed {
		a.storiesCompleted++
	}
}

// Prune discards window entries and retained samples at or before cutoff.
// Invoked by the retention cleanup task.
func (a *Aggregator) Prune(cutoff time.Time) {
	a.messages.Prune(cutoff)
	a.errors.Prune(cutoff)
	a.mesh.Prune(cutoff)

	a.mu.Lock()
	metrics := make([]*RunningAggregate, 0, len(a.metrics))
	for _, m := range a.metrics {
		metrics = append(metrics, m)
	}
	features := make([]*FeatureStats, 0, len(a.features))
	for _, f := range a.features {
		features = append(features, f)
	}
	categories := make([]*categoryState, 0, len(a.categories))
	for _, c := range a.categories {
		categories = append(categories, c)
	}
	a.mu.Unlock()

	for _, m := range metrics {
		m.Prune(cutoff)
	}
	for _, f := range features {
		f.Prune(cutoff)
	}
	for _, c := range categories {
		c.rates.Prune(cutoff)
		c.durations.Prune(cutoff)
	}
}
