// Package aggregate maintains the collector's live derived state.
//
// # Overview
//
// Two independent update paths run per event, both O(1) amortized:
//
//   - Sliding-window rate counters (messages, errors, mesh interactions per
//     minute). Writes append a timestamp; reads evict expired entries lazily
//     and report the remaining count.
//   - Running aggregates per named metric: count/sum/min/max plus a bounded
//     FIFO sample buffer (cap 1000). Cumulative counters average over the
//     full history; recency metrics average over the retained buffer. The
//     response_time metric also keeps an exponential moving average
//     (alpha=0.1).
//
// Feature aggregates additionally track a rolling success rate over the
// bounded buffer and a mesh-enhancement count. Per-category state backs the
// insight analyzer's popularity ranking and performance rollups.
//
// # Snapshots
//
// Readers call Snapshot for a deep copy; the hot path never shares mutable
// state with consumers:
//
//	snap := agg.Snapshot(time.Now().UTC())
//	fmt.Printf("msgs/min=%d\n", snap.MessagesPerMinute)
//
// # Scaling Note
//
// For very high throughput the timestamp-list windows can be replaced by a
// fixed-size circular bucket histogram without changing the read contract.
package aggregate
