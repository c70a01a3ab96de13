package sink

import (
	"context"
	"fmt"

	"github.com/meshkit/telemetry/pkg/event"
)

// Sink delivers finished batches to a backend. Implementations must be safe
// for concurrent use; the collector may run deliveries from multiple
// goroutines.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, batch event.Batch) error
}

// DeliveryError wraps a failed delivery with the sink name and batch size,
// so callers can decide whether to re-queue.
type DeliveryError struct {
	Sink   string
	Events int
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sink %s: delivering %d events: %v", e.Sink, e.Events, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
