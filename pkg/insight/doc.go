// Package insight derives read-only usage insights from aggregate snapshots.
//
// # Overview
//
// Everything here is a pure function over an aggregate.Snapshot: popularity
// ranking by category (stable, first-seen tie-break), performance-by-category
// rollups with a low-rate flag, the accessibility usage ratio, and simple
// threshold-rule insights and recommendations. Nothing in this package
// mutates collector state or blocks the ingestion hot path.
//
// # Usage Example
//
//	snap := agg.Snapshot(time.Now().UTC())
//	active, used := registry.AccessibilityUsage()
//	report := insight.Analyze(snap, active, used, 5)
package insight
