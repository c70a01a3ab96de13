package schedule

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshkit/telemetry/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerRunsTaskOnTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := New(clock, testLogger(), nil)

	var runs atomic.Int32
	sched.Add("flush", 30*time.Second, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	sched.Start(context.Background())
	defer sched.Stop()

	clock.BlockUntil(1) // ticker installed
	clock.Advance(30 * time.Second)
	waitFor(t, func() bool { return runs.Load() == 1 })

	clock.Advance(30 * time.Second)
	waitFor(t, func() bool { return runs.Load() == 2 })
}

func TestSchedulerRunsMultipleTasksIndependently(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := New(clock, testLogger(), nil)

	var flushes, aggregates atomic.Int32
	sched.Add("flush", 30*time.Second, func(ctx context.Context) error {
		flushes.Add(1)
		return nil
	})
	sched.Add("aggregate", 60*time.Second, func(ctx context.Context) error {
		aggregates.Add(1)
		return nil
	})

	sched.Start(context.Background())
	defer sched.Stop()

	clock.BlockUntil(2)
	clock.Advance(60 * time.Second)

	waitFor(t, func() bool { return flushes.Load() >= 1 })
	waitFor(t, func() bool { return aggregates.Load() == 1 })
}

func TestSchedulerCountsOutcomes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_task_runs_total"},
		[]string{"task", "status"},
	)
	sched := New(clock, testLogger(), runs)

	var calls atomic.Int32
	sched.Add("cleanup", time.Minute, func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("retention scan failed")
		}
		return nil
	})

	sched.Start(context.Background())
	defer sched.Stop()

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return calls.Load() == 1 })
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return calls.Load() == 2 })

	waitFor(t, func() bool {
		return testutil.ToFloat64(runs.WithLabelValues("cleanup", "error")) == 1 &&
			testutil.ToFloat64(runs.WithLabelValues("cleanup", "ok")) == 1
	})
}

func TestSchedulerRecoversTaskPanic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := New(clock, testLogger(), nil)

	var calls atomic.Int32
	sched.Add("flush", time.Second, func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return nil
	})

	sched.Start(context.Background())
	defer sched.Stop()

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	waitFor(t, func() bool { return calls.Load() == 1 })

	// The loop survives the panic and keeps ticking.
	clock.Advance(time.Second)
	waitFor(t, func() bool { return calls.Load() == 2 })
}

func TestSchedulerStopCancelsContext(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := New(clock, testLogger(), nil)

	started := make(chan struct{})
	cancelled := make(chan struct{})
	sched.Add("flush", time.Second, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	sched.Start(context.Background())
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	<-started

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("task context never cancelled")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestSchedulerAddAfterStartIgnored(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := New(clock, testLogger(), nil)
	sched.Start(context.Background())
	defer sched.Stop()

	var runs atomic.Int32
	sched.Add("late", time.Second, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	clock.Advance(5 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	sched := New(clockwork.NewFakeClock(), testLogger(), nil)
	sched.Add("flush", time.Second, func(ctx context.Context) error { return nil })

	sched.Start(context.Background())
	require.NotPanics(t, func() { sched.Start(context.Background()) })
	sched.Stop()
	require.NotPanics(t, sched.Stop)
}
