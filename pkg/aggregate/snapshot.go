package aggregate

import (
	"sort"
	"time"

	"github.com/meshkit/telemetry/pkg/event"
)

// CategorySnapshot is a point-in-time copy of one category's usage and
// performance state. FirstSeen preserves discovery order for stable
// tie-breaks downstream.
type CategorySnapshot struct {
	Category        string  `json:"category"`
	FirstSeen       int     `json:"-"`
	Interactions    int64   `json:"interactions"`
	MeanRate        float64 `json:"mean_rate"`
	MeanDuration    float64 `json:"mean_duration_ms"`
	RateSamples     int     `json:"rate_samples"`
	DurationSamples int     `json:"duration_samples"`
}

// Snapshot is a deep copy of the aggregator's derived state. Readers never
// share mutable structures with the hot path.
type Snapshot struct {
	TakenAt time.Time `json:"taken_at"`

	MessagesPerMinute int `json:"messages_per_minute"`
	ErrorsPerMinute   int `json:"errors_per_minute"`
	MeshPerMinute     int `json:"mesh_per_minute"`

	EventCounts map[event.Kind]int64       `json:"event_counts"`
	Metrics     map[string]Stats           `json:"metrics"`
	Features    map[string]FeatureSnapshot `json:"features"`
	Categories  []CategorySnapshot         `json:"categories"`

	StoriesStarted      int64   `json:"stories_started"`
	StoriesCompleted    int64   `json:"stories_completed"`
	StoryCompletionRate float64 `json:"story_completion_rate"`
}

// Snapshot captures the aggregator's state at now.
func (a *Aggregator) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		TakenAt:           now,
		MessagesPerMinute: a.messages.Count(now),
		ErrorsPerMinute:   a.errors.Count(now),
		MeshPerMinute:     a.mesh.Count(now),
		EventCounts:       make(map[event.Kind]int64),
		Metrics:           make(map[string]Stats),
		Features:          make(map[string]FeatureSnapshot),
	}

	a.mu.Lock()
	for kind, n := range a.eventCounts {
		snap.EventCounts[kind] = n
	}
	metricRefs := make(map[string]*RunningAggregate, len(a.metrics))
	for name, m := range a.metrics {
		metricRefs[name] = m
	}
	featureRefs := make(map[string]*FeatureStats, len(a.features))
	for name, f := range a.features {
		featureRefs[name] = f
	}
	categoryRefs := make(map[string]*categoryState, len(a.categories))
	for name, c := range a.categories {
		categoryRefs[name] = c
	}
	snap.StoriesStarted = a.storiesStarted
	snap.StoriesCompleted = a.storiesCompleted
	a.mu.Unlock()

	for name, m := range metricRefs {
		snap.Metrics[name] = m.Stats()
	}
	for name, f := range featureRefs {
		snap.Features[name] = f.Snapshot()
	}
	for name, c := range categoryRefs {
		rates := c.rates.Stats()
		durations := c.durations.Stats()
		snap.Categories = append(snap.Categories, CategorySnapshot{
			Category:        name,
			FirstSeen:       c.order,
			Interactions:    c.interactions,
			MeanRate:        rates.Average,
			MeanDuration:    durations.Average,
			RateSamples:     rates.SampleCount,
			DurationSamples: durations.SampleCount,
		})
	}
	sort.Slice(snap.Categories, func(i, j int) bool {
		return snap.Categories[i].FirstSeen < snap.Categories[j].FirstSeen
	})

	// Completion rate reports 0 when nothing started, never NaN.
	if snap.StoriesStarted > 0 {
		snap.StoryCompletionRate = float64(snap.StoriesCompleted) / float64(snap.StoriesStarted)
	}
	return snap
}
