package insight

import (
	"fmt"
	"sort"
	"time"

	"github.com/meshkit/telemetry/pkg/aggregate"
)

// Threshold rules for derived insights.
const (
	// LowRateThreshold flags categories whose mean rate falls below it.
	LowRateThreshold = 30.0
	// lowSuccessThreshold flags features failing more often than succeeding.
	lowSuccessThreshold = 0.5
	// lowAccessibilityRatio triggers an adoption recommendation.
	lowAccessibilityRatio = 0.1
	// highErrorRate flags an unhealthy client.
	highErrorRate = 10
)

// DefaultTopN is the ranking length used when callers pass topN <= 0.
const DefaultTopN = 5

// Severity classifies an insight.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// PopularityEntry is one row of the category popularity ranking.
type PopularityEntry struct {
	Category     string `json:"category"`
	Interactions int64  `json:"interactions"`
}

// CategoryPerformance is the per-category performance rollup.
type CategoryPerformance struct {
	Category       string  `json:"category"`
	MeanRate       float64 `json:"mean_rate"`
	MeanDuration   float64 `json:"mean_duration_ms"`
	LowPerformance bool    `json:"low_performance"`
}

// Insight is one derived observation produced by threshold rules.
type Insight struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category,omitempty"`
	Message  string   `json:"message"`
}

// Report bundles every derived insight over one snapshot. All functions in
// this package are pure: they read the snapshot and never touch live state.
type Report struct {
	GeneratedAt        time.Time             `json:"generated_at"`
	MostPopular        []PopularityEntry     `json:"most_popular"`
	Performance        []CategoryPerformance `json:"performance"`
	AccessibilityRatio float64               `json:"accessibility_ratio"`
	Insights           []Insight             `json:"insights"`
	Recommendations    []string              `json:"recommendations"`
}

// PopularityRanking groups interaction counts by category, sorts descending,
// and returns the top n. Equal counts keep first-seen order (stable sort);
// snapshot categories already arrive in first-seen order.
func PopularityRanking(snap aggregate.Snapshot, n int) []PopularityEntry {
	if n <= 0 {
		n = DefaultTopN
	}
	entries := make([]PopularityEntry, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		entries = append(entries, PopularityEntry{Category: c.Category, Interactions: c.Interactions})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Interactions > entries[j].Interactions
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// PerformanceByCategory computes the mean rate and mean duration for each
// category's bounded sample buffers, flagging categories below
// LowRateThreshold. Categories with no rate samples are never flagged.
func PerformanceByCategory(snap aggregate.Snapshot) []CategoryPerformance {
	out := make([]CategoryPerformance, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		out = append(out, CategoryPerformance{
			Category:       c.Category,
			MeanRate:       c.MeanRate,
			MeanDuration:   c.MeanDuration,
			LowPerformance: c.RateSamples > 0 && c.MeanRate < LowRateThreshold,
		})
	}
	return out
}

// AccessibilityUsageRatio is the fraction of observed sessions that used at
// least one accessibility toggle. Reports 0, not NaN, when there are no
// sessions.
func AccessibilityUsageRatio(sessions, used int) float64 {
	if sessions <= 0 {
		return 0
	}
	return float64(used) / float64(sessions)
}

// Analyze produces the full report for one snapshot plus the registry's
// live accessibility counts.
func Analyze(snap aggregate.Snapshot, sessions, accessibilityUsed, topN int) Report {
	report := Report{
		GeneratedAt:        snap.TakenAt,
		MostPopular:        PopularityRanking(snap, topN),
		Performance:        PerformanceByCategory(snap),
		AccessibilityRatio: AccessibilityUsageRatio(sessions, accessibilityUsed),
	}

	for _, perf := range report.Performance {
		if perf.LowPerformance {
			report.Insights = append(report.Insights, Insight{
				Severity: SeverityWarning,
				Category: perf.Category,
				Message:  fmt.Sprintf("mean rate %.1f below target %.0f", perf.MeanRate, LowRateThreshold),
			})
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("reduce mesh complexity for category %q", perf.Category))
		}
	}

	for name, fs := range snap.Features {
		if fs.SampleCount > 0 && fs.SuccessRate < lowSuccessThreshold {
			report.Insights = append(report.Insights, Insight{
				Severity: SeverityWarning,
				Category: name,
				Message:  fmt.Sprintf("feature success rate %.0f%% over recent samples", fs.SuccessRate*100),
			})
		}
	}

	if snap.ErrorsPerMinute > highErrorRate {
		report.Insights = append(report.Insights, Insight{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("error rate %d/min exceeds %d/min", snap.ErrorsPerMinute, highErrorRate),
		})
	}

	if sessions > 0 && report.AccessibilityRatio < lowAccessibilityRatio {
		report.Recommendations = append(report.Recommendations,
			"accessibility toggles see little use; consider surfacing them in onboarding")
	}

	sort.Slice(report.Insights, func(i, j int) bool {
		if report.Insights[i].Severity != report.Insights[j].Severity {
			return report.Insights[i].Severity == SeverityWarning
		}
		return report.Insights[i].Category < report.Insights[j].Category
	})
	return report
}
