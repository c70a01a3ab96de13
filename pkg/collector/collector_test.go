package collector

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshkit/telemetry/pkg/config"
	"github.com/meshkit/telemetry/pkg/event"
	"github.com/meshkit/telemetry/pkg/observability"
)

type captureSink struct {
	mu      sync.Mutex
	batches []event.Batch
	err     error
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Deliver(ctx context.Context, batch event.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	copied := make(event.Batch, len(batch))
	copy(copied, batch)
	s.batches = append(s.batches, copied)
	return nil
}

func (s *captureSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *captureSink) events() event.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all event.Batch
	for _, b := range s.batches {
		all = append(all, b...)
	}
	return all
}

func (s *captureSink) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func testConfig() config.CollectorConfig {
	cfg := config.DefaultConfig().Collector
	cfg.BatchSize = 100
	return cfg
}

func newTestCollector(t *testing.T, cfg config.CollectorConfig, snk *captureSink) *Collector {
	t.Helper()
	c, err := New(Options{
		Config: cfg,
		Sink:   snk,
		Logger: observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{}),
		Clock:  clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	return c
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

func TestDisabledCollectorIsNoOp(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	snk := &captureSink{}
	c := newTestCollector(t, cfg, snk)

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	assert.Empty(t, id, "disabled StartSession returns no id")

	c.TrackMessage(id, "dm", 100, false)
	c.TrackError(id, "boom", "", "E1", false)
	c.TrackFeature(id, "mesh_brush", true, false)
	c.EndSession(id, "quit")

	assert.Equal(t, 0, c.QueueLength(), "no queue growth when disabled")
	assert.Equal(t, int64(0), c.Summary().TotalSessions)
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 0, snk.batchCount(), "no sink call when disabled")
}

func TestBackpressureFlushAtBatchSize(t *testing.T) {
	snk := &captureSink{}
	c := newTestCollector(t, testConfig(), snk)

	// 101 events at batch size 100: the 100th append triggers exactly one
	// swap, leaving the 101st alone in the live queue.
	for i := 0; i < 101; i++ {
		c.TrackMessage("", "dm", 10, false)
	}

	waitFor(t, func() bool { return snk.batchCount() == 1 })
	assert.Len(t, snk.batches[0], 100, "swapped batch carries the full queue")
	assert.Equal(t, 1, c.QueueLength())
}

func TestFailedBatchRemergedAtFrontOfLiveQueue(t *testing.T) {
	snk := &captureSink{err: errors.New("backend down")}
	cfg := testConfig()
	cfg.BatchSize = 1000
	c := newTestCollector(t, cfg, snk)

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	c.TrackMessage(id, "dm", 10, false)

	require.Error(t, c.Flush(context.Background()))
	assert.Equal(t, 2, c.QueueLength(), "failed batch returns to the live queue")

	// New events land behind the re-merged batch.
	c.TrackFeature(id, "mesh_brush", true, false)
	snk.setErr(nil)
	require.NoError(t, c.Flush(context.Background()))

	all := snk.events()
	require.Len(t, all, 3)
	assert.Equal(t, event.KindSessionStart, all[0].Kind)
	assert.Equal(t, event.KindMessageSend, all[1].Kind)
	assert.Equal(t, event.KindFeatureUse, all[2].Kind)
}

func TestSessionRefsAreAnonymized(t *testing.T) {
	snk := &captureSink{}
	c := newTestCollector(t, testConfig(), snk)

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	c.TrackMessage(id, "dm", 10, false)
	require.NoError(t, c.Flush(context.Background()))

	all := snk.events()
	require.Len(t, all, 2)
	for _, ev := range all {
		assert.True(t, strings.HasPrefix(ev.SessionRef, "anon-"), "ref %q must be anonymized", ev.SessionRef)
		assert.NotContains(t, ev.SessionRef, id)
	}
	assert.Equal(t, all[0].SessionRef, all[1].SessionRef, "same session maps to the same ref")
}

func TestErrorTextIsSanitized(t *testing.T) {
	snk := &captureSink{}
	c := newTestCollector(t, testConfig(), snk)

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	c.TrackError(id, "contact me at a@b.com", "at frame (/usr/lib/app/main.go:10)", "E42", false)
	require.NoError(t, c.Flush(context.Background()))

	var attrs event.ErrorAttrs
	for _, ev := range snk.events() {
		if ev.Kind == event.KindError {
			attrs = ev.Attrs.(event.ErrorAttrs)
		}
	}
	assert.NotContains(t, attrs.Message, "a@b.com")
	assert.Contains(t, attrs.Message, "<email>")
	assert.NotContains(t, attrs.Stack, "/usr/lib/app")
}

func TestEndSessionEmitsSummaryEvent(t *testing.T) {
	snk := &captureSink{}
	c := newTestCollector(t, testConfig(), snk)

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	c.TrackFeature(id, "mesh_brush", true, false)
	c.EndSession(id, "user_quit")
	c.EndSession(id, "user_quit") // idempotent
	require.NoError(t, c.Flush(context.Background()))

	all := snk.events()
	var ends int
	for _, ev := range all {
		if ev.Kind == event.KindSessionEnd {
			ends++
			attrs := ev.Attrs.(event.SessionEndAttrs)
			assert.Equal(t, "user_quit", attrs.Reason)
			assert.Equal(t, 1, attrs.FeaturesUsed)
		}
	}
	assert.Equal(t, 1, ends, "double end emits one summary")
}

func TestQuerySurface(t *testing.T) {
	snk := &captureSink{}
	c := newTestCollector(t, testConfig(), snk)

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	c.TrackMessage(id, "dm", 10, false)
	c.TrackMeshInteraction(id, "wave", "organic")
	c.TrackMeshInteraction(id, "spiral", "organic")
	c.TrackPerformance(id, event.PerformanceAttrs{Metric: "response_time", Value: 120})
	c.TrackStoryProgress(id, event.StoryProgressAttrs{StoryID: "s1", Step: 1, TotalSteps: 3})
	c.TrackStoryProgress(id, event.StoryProgressAttrs{StoryID: "s1", Step: 3, TotalSteps: 3, Completed: true})

	dash := c.Dashboard()
	assert.Equal(t, 1, dash.ActiveSessions)
	assert.Equal(t, 1, dash.MessagesPerMinute)
	assert.Equal(t, 2, dash.MeshPerMinute)
	assert.Equal(t, 120.0, dash.ResponseTime.EMA)

	sum := c.Summary()
	assert.Equal(t, int64(1), sum.TotalSessions)
	assert.Equal(t, 1.0, sum.StoryCompletionRate)
	assert.Equal(t, 0.0, sum.AccessibilityRatio)

	report := c.MeshPatterns(0)
	require.Len(t, report.MostPopular, 1)
	assert.Equal(t, "organic", report.MostPopular[0].Category)
	assert.Equal(t, int64(2), report.MostPopular[0].Interactions)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	snk := &captureSink{}
	c := newTestCollector(t, testConfig(), snk)

	ch, cancel := c.Subscribe(8)
	defer cancel()

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	c.TrackMessage(id, "dm", 10, false)

	var kinds []event.Kind
	for len(kinds) < 2 {
		select {
		case ev := <-ch:
			kinds = append(kinds, ev.Kind)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive events")
		}
	}
	assert.Equal(t, event.KindSessionStart, kinds[0])
	assert.Equal(t, event.KindMessageSend, kinds[1])
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	snk := &captureSink{}
	c := newTestCollector(t, testConfig(), snk)

	ch, cancel := c.Subscribe(1)
	defer cancel()

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	for i := 0; i < 10; i++ {
		c.TrackMessage(id, "dm", 10, false) // never blocks
	}

	// Exactly the buffered event is readable; the rest were dropped.
	<-ch
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected no further buffered events")
		}
	default:
	}
}

func TestCleanupDropsExpiredQueuedEvents(t *testing.T) {
	snk := &captureSink{}
	cfg := testConfig()
	cfg.BatchSize = 1000
	cfg.RetentionDays = 30
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c, err := New(Options{
		Config: cfg,
		Sink:   snk,
		Logger: observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{}),
		Clock:  clock,
	})
	require.NoError(t, err)

	c.TrackMessage("", "dm", 10, false)
	c.TrackMessage("", "dm", 10, false)

	// 31 days later the two queued messages are past retention; the feature
	// event recorded now is not.
	clock.Advance(31 * 24 * time.Hour)
	c.TrackFeature("", "mesh_brush", true, false)

	require.NoError(t, c.cleanupTask(context.Background()))
	assert.Equal(t, 1, c.QueueLength(), "expired events dropped, recent kept")

	require.NoError(t, c.Flush(context.Background()))
	all := snk.events()
	require.Len(t, all, 1)
	assert.Equal(t, event.KindFeatureUse, all[0].Kind)
}

func TestShutdownFlushesRemainder(t *testing.T) {
	snk := &captureSink{}
	c := newTestCollector(t, testConfig(), snk)
	c.Start(context.Background())

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	c.TrackMessage(id, "dm", 10, false)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, 2, len(snk.events()), "shutdown performs a final flush")

	// Tracking after shutdown is inert.
	c.TrackMessage(id, "dm", 10, false)
	assert.Equal(t, 0, c.QueueLength())
}

func TestTrackingAfterShutdownLeavesStateUntouched(t *testing.T) {
	snk := &captureSink{}
	c, err := New(Options{
		Config:  testConfig(),
		Sink:    snk,
		Logger:  observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{}),
		Metrics: observability.NewMetrics(prometheus.NewRegistry()),
		Clock:   clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	c.Start(context.Background())

	id := c.StartSession(event.PlatformInfo{OS: "ios"})
	require.NoError(t, c.Shutdown(context.Background()))

	assert.Empty(t, c.StartSession(event.PlatformInfo{OS: "android"}))
	c.TrackMessage(id, "dm", 10, false)
	c.TrackFeature(id, "mesh_brush", true, false)
	c.TrackError(id, "contact me at a@b.com", "", "E1", false)
	c.EndSession(id, "late")

	assert.Equal(t, int64(1), c.Summary().TotalSessions, "no new sessions after shutdown")
	assert.Equal(t, 1, c.Dashboard().ActiveSessions, "late EndSession leaves the registry alone")
	assert.Equal(t, 0, c.QueueLength())
	assert.Equal(t, 0.0, testutil.ToFloat64(c.metrics.SanitizerHitsTotal.WithLabelValues("message")),
		"sanitizer never consulted after shutdown")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.SessionsTotal))
}

func TestNewRequiresSinkAndLogger(t *testing.T) {
	_, err := New(Options{Config: testConfig(), Logger: observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})})
	assert.Error(t, err)

	_, err = New(Options{Config: testConfig(), Sink: &captureSink{}})
	assert.Error(t, err)
}
