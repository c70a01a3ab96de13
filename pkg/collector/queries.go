package collector

import (
	"time"

	"github.com/meshkit/telemetry/pkg/aggregate"
	"github.com/meshkit/telemetry/pkg/event"
	"github.com/meshkit/telemetry/pkg/insight"
)

// Dashboard is the real-time view: current rates and live counters.
type Dashboard struct {
	GeneratedAt       time.Time                  `json:"generated_at"`
	Environment       string                     `json:"environment"`
	ActiveSessions    int                        `json:"active_sessions"`
	MessagesPerMinute int                        `json:"messages_per_minute"`
	ErrorsPerMinute   int                        `json:"errors_per_minute"`
	MeshPerMinute     int                        `json:"mesh_per_minute"`
	QueueLength       int                        `json:"queue_length"`
	ResponseTime      aggregate.Stats            `json:"response_time"`
	EventCounts       map[event.Kind]int64       `json:"event_counts"`
}

// Summary is the cumulative analytics view over the collector's lifetime.
type Summary struct {
	GeneratedAt         time.Time                            `json:"generated_at"`
	Environment         string                               `json:"environment"`
	TotalSessions       int64                                `json:"total_sessions"`
	ActiveSessions      int                                  `json:"active_sessions"`
	EventCounts         map[event.Kind]int64                 `json:"event_counts"`
	Metrics             map[string]aggregate.Stats           `json:"metrics"`
	Features            map[string]aggregate.FeatureSnapshot `json:"features"`
	StoriesStarted      int64                                `json:"stories_started"`
	StoriesCompleted    int64                                `json:"stories_completed"`
	StoryCompletionRate float64                              `json:"story_completion_rate"`
	AccessibilityRatio  float64                              `json:"accessibility_ratio"`
}

// Dashboard returns a point-in-time real-time view. Read-only, no side
// effects beyond lazy window eviction.
func (c *Collector) Dashboard() Dashboard {
	now := c.clock.Now().UTC()
	snap := c.agg.Snapshot(now)
	return Dashboard{
		GeneratedAt:       now,
		Environment:       c.cfg.Environment,
		ActiveSessions:    c.registry.ActiveCount(),
		MessagesPerMinute: snap.MessagesPerMinute,
		ErrorsPerMinute:   snap.ErrorsPerMinute,
		MeshPerMinute:     snap.MeshPerMinute,
		QueueLength:       c.QueueLength(),
		ResponseTime:      snap.Metrics[aggregate.ResponseTimeMetric],
		EventCounts:       snap.EventCounts,
	}
}

// Summary returns the cumulative analytics snapshot.
func (c *Collector) Summary() Summary {
	now := c.clock.Now().UTC()
	snap := c.agg.Snapshot(now)
	sessions, accessibilityUsed := c.registry.AccessibilityUsage()
	return Summary{
		GeneratedAt:         now,
		Environment:         c.cfg.Environment,
		TotalSessions:       c.registry.ObservedTotal(),
		ActiveSessions:      c.registry.ActiveCount(),
		EventCounts:         snap.EventCounts,
		Metrics:             snap.Metrics,
		Features:            snap.Features,
		StoriesStarted:      snap.StoriesStarted,
		StoriesCompleted:    snap.StoriesCompleted,
		StoryCompletionRate: snap.StoryCompletionRate,
		AccessibilityRatio:  insight.AccessibilityUsageRatio(sessions, accessibilityUsed),
	}
}

// MeshPatterns runs the insight analyzer over the current aggregate
// snapshot: popularity ranking, performance by category, and threshold
// insights. topN bounds the popularity ranking; values below 1 fall back
// to the analyzer default.
func (c *Collector) MeshPatterns(topN int) insight.Report {
	if topN < 1 {
		topN = insight.DefaultTopN
	}
	snap := c.agg.Snapshot(c.clock.Now().UTC())
	sessions, accessibilityUsed := c.registry.AccessibilityUsage()
	return insight.Analyze(snap, sessions, accessibilityUsed, topN)
}
