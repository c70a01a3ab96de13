package sink

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/meshkit/telemetry/pkg/event"
)

// MultiSink fans one batch out to several sinks concurrently.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a fan-out sink
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Name() string { return "multi" }

// Sinks returns the wrapped sinks
func (s *MultiSink) Sinks() []Sink { return s.sinks }

// Deliver sends the batch to every sink in parallel and joins their
// errors. A failure in one sink does not stop delivery to the others, but
// any failure fails the batch so the collector re-queues it.
func (s *MultiSink) Deliver(ctx context.Context, batch event.Batch) error {
	g := new(errgroup.Group)
	errs := make([]error, len(s.sinks))

	for i, snk := range s.sinks {
		i, snk := i, snk
		g.Go(func() error {
			errs[i] = snk.Deliver(ctx, batch)
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}
