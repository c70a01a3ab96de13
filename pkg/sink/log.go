package sink

import (
	"context"

	"github.com/meshkit/telemetry/pkg/event"
	"github.com/meshkit/telemetry/pkg/observability"
)

// LogSink writes batch summaries to the structured logger. Useful in
// development and as a last-resort fallback when no backend is configured.
type LogSink struct {
	logger *observability.Logger
}

// NewLogSink creates a sink that logs batches
func NewLogSink(logger *observability.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

// Deliver logs one summary line per batch plus per-kind counts at debug
// level. Never fails.
func (s *LogSink) Deliver(ctx context.Context, batch event.Batch) error {
	counts := make(map[event.Kind]int, len(batch))
	for _, ev := range batch {
		counts[ev.Kind]++
	}

	s.logger.WithField("events", len(batch)).Info("Delivered batch")
	for kind, n := range counts {
		s.logger.WithFields(map[string]interface{}{
			"kind":  string(kind),
			"count": n,
		}).Debug("Batch breakdown")
	}
	return nil
}
