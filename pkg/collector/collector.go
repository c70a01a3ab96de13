package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meshkit/telemetry/pkg/aggregate"
	"github.com/meshkit/telemetry/pkg/async"
	"github.com/meshkit/telemetry/pkg/config"
	"github.com/meshkit/telemetry/pkg/event"
	"github.com/meshkit/telemetry/pkg/observability"
	"github.com/meshkit/telemetry/pkg/privacy"
	"github.com/meshkit/telemetry/pkg/schedule"
	"github.com/meshkit/telemetry/pkg/session"
	"github.com/meshkit/telemetry/pkg/sink"
)

const deliveryTimeout = 30 * time.Second

// Options configures a Collector. Sink and Logger are required; Metrics
// and Clock are optional (nil Clock selects the real clock).
type Options struct {
	Config  config.CollectorConfig
	Sink    sink.Sink
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Clock   clockwork.Clock
}

// Collector is the in-process telemetry service: it ingests tracking
// calls, maintains live session and aggregate state, batches events, and
// forwards finished batches to the configured sink. One instance is
// constructed by the host application; there is no global singleton.
type Collector struct {
	cfg     config.CollectorConfig
	sink    sink.Sink
	logger  *observability.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	anonymizer *privacy.Anonymizer
	registry   *session.Registry
	agg        *aggregate.Aggregator
	sched      *schedule.Scheduler

	mu    sync.Mutex
	queue event.Batch

	enabled atomic.Bool
	stopped atomic.Bool
	started bool

	deliveries sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]chan event.Event
	nextSub int
}

// New builds a collector from options.
func New(opts Options) (*Collector, error) {
	if opts.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	anonymizer, err := privacy.NewAnonymizer(opts.Config.AnonymizationSalt)
	if err != nil {
		return nil, fmt.Errorf("creating anonymizer: %w", err)
	}

	c := &Collector{
		cfg:        opts.Config,
		sink:       opts.Sink,
		logger:     opts.Logger.WithField("component", "collector"),
		metrics:    opts.Metrics,
		clock:      opts.Clock,
		anonymizer: anonymizer,
		agg:        aggregate.New(opts.Config.SampleCap),
		subs:       make(map[int]chan event.Event),
	}
	c.enabled.Store(opts.Config.Enabled)

	var gauge session.ActiveGauge
	if c.metrics != nil {
		gauge = c.metrics.ActiveSessions
	}
	c.registry = session.NewRegistry(c.ingest, gauge, opts.Clock.Now)

	c.sched = schedule.New(opts.Clock, c.logger, taskCounter(c.metrics))
	c.sched.Add("flush", opts.Config.FlushInterval, c.flushTask)
	c.sched.Add("aggregate", opts.Config.AggregateInterval, c.aggregateTask)
	c.sched.Add("cleanup", opts.Config.CleanupInterval, c.cleanupTask)

	return c, nil
}

// Start launches the periodic flush, aggregate, and cleanup tasks.
// Idempotent.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.sched.Start(ctx)
	c.logger.WithFields(map[string]interface{}{
		"environment": c.cfg.Environment,
		"batch_size":  c.cfg.BatchSize,
		"enabled":     c.enabled.Load(),
	}).Info("Collector started")
}

// Shutdown cancels the periodic tasks, performs one final synchronous
// flush, waits for in-flight deliveries, and closes subscriber channels.
// After Shutdown, failed batches are dropped instead of retried.
func (c *Collector) Shutdown(ctx context.Context) error {
	c.sched.Stop()
	c.stopped.Store(true)

	err := c.Flush(ctx)

	done := make(chan struct{})
	go func() {
		c.deliveries.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warn("Shutdown deadline reached with deliveries in flight")
		if err == nil {
			err = ctx.Err()
		}
	}

	c.closeSubscribers()
	c.logger.Info("Collector shut down")
	return err
}

// Enabled reports whether tracking is active.
func (c *Collector) Enabled() bool { return c.enabled.Load() }

// tracking reports whether Track calls should record anything: the
// collector is enabled and has not been shut down. Checked at every
// entry point so a stopped collector never touches session counters or
// metrics.
func (c *Collector) tracking() bool {
	return c.enabled.Load() && !c.stopped.Load()
}

// SetEnabled flips tracking at runtime. Disabling makes every Track call a
// complete no-op; already queued events still flush.
func (c *Collector) SetEnabled(enabled bool) {
	if c.enabled.Swap(enabled) != enabled {
		c.logger.WithField("enabled", enabled).Info("Collector enablement changed")
	}
}

// StartSession begins a session and returns its id, or "" when disabled.
func (c *Collector) StartSession(platform event.PlatformInfo) string {
	if !c.tracking() {
		return ""
	}
	return c.registry.Start(platform)
}

// EndSession completes a session. Safe to call twice; the second call is a
// no-op.
func (c *Collector) EndSession(sessionID, reason string) {
	if !c.tracking() || sessionID == "" {
		return
	}
	c.registry.End(sessionID, reason)
}

// TrackMessage records one sent message.
func (c *Collector) TrackMessage(sessionID, channel string, sizeBytes int, meshEnhanced bool) {
	if !c.tracking() {
		return
	}
	c.registry.RecordInteraction(sessionID)
	c.ingest(event.KindMessageSend, sessionID, event.MessageAttrs{
		Channel:      channel,
		SizeBytes:    sizeBytes,
		MeshEnhanced: meshEnhanced,
	})
}

// TrackFeature records one feature use.
func (c *Collector) TrackFeature(sessionID, feature string, success, meshEnhanced bool) {
	if !c.tracking() {
		return
	}
	c.registry.RecordFeature(sessionID, feature)
	c.registry.RecordInteraction(sessionID)
	c.ingest(event.KindFeatureUse, sessionID, event.FeatureAttrs{
		Feature:      feature,
		Success:      success,
		MeshEnhanced: meshEnhanced,
	})
}

// TrackMeshInteraction records one mesh interaction with its pattern and
// category.
func (c *Collector) TrackMeshInteraction(sessionID, pattern, category string) {
	if !c.tracking() {
		return
	}
	c.registry.RecordMeshPattern(sessionID, pattern)
	c.ingest(event.KindMeshInteract, sessionID, event.MeshInteractAttrs{
		Pattern:  pattern,
		Category: category,
	})
}

// TrackPerformance records one performance sample.
func (c *Collector) TrackPerformance(sessionID string, attrs event.PerformanceAttrs) {
	if !c.tracking() {
		return
	}
	c.ingest(event.KindPerformance, sessionID, attrs)
}

// TrackError records one error. Message and stack are sanitized before
// storage; the raw text never reaches the queue.
func (c *Collector) TrackError(sessionID, message, stack, code string, fatal bool) {
	if !c.tracking() {
		return
	}
	c.registry.RecordError(sessionID)
	sanitizedMessage := privacy.SanitizeMessage(message)
	sanitizedStack := privacy.SanitizeStack(stack)
	if c.metrics != nil {
		if sanitizedMessage != message {
			c.metrics.SanitizerHitsTotal.WithLabelValues("message").Inc()
		}
		if sanitizedStack != stack {
			c.metrics.SanitizerHitsTotal.WithLabelValues("stack").Inc()
		}
	}
	c.ingest(event.KindError, sessionID, event.ErrorAttrs{
		Message: sanitizedMessage,
		Stack:   sanitizedStack,
		Code:    code,
		Fatal:   fatal,
	})
}

// TrackAccessibility records one accessibility toggle flip.
func (c *Collector) TrackAccessibility(sessionID, toggle string, enabled bool) {
	if !c.tracking() {
		return
	}
	c.registry.RecordAccessibility(sessionID)
	c.ingest(event.KindAccessibility, sessionID, event.AccessibilityAttrs{
		Toggle:  toggle,
		Enabled: enabled,
	})
}

// TrackStoryProgress records story progression.
func (c *Collector) TrackStoryProgress(sessionID string, attrs event.StoryProgressAttrs) {
	if !c.tracking() {
		return
	}
	c.ingest(event.KindStoryProgress, sessionID, attrs)
}

// ingest builds the canonical event and fans it out: queue append,
// aggregate update, subscriber publish. Session ids are anonymized here, so
// the raw id never leaves the registry. Also the registry's emit target for
// lifecycle events.
func (c *Collector) ingest(kind event.Kind, sessionID string, attrs event.Attributes) {
	if !c.enabled.Load() || c.stopped.Load() {
		return
	}

	ev := event.Event{
		Kind:       kind,
		Timestamp:  c.clock.Now().UTC(),
		SessionRef: c.anonymizer.Anonymize(sessionID),
		Attrs:      attrs,
	}

	if c.metrics != nil {
		c.metrics.EventsIngestedTotal.WithLabelValues(string(kind)).Inc()
		if kind == event.KindSessionStart {
			c.metrics.SessionsTotal.Inc()
		}
	}

	c.agg.RecordEvent(ev)
	c.publish(ev)

	var swapped event.Batch
	c.mu.Lock()
	c.queue = append(c.queue, ev)
	// Backpressure: reaching the batch size swaps the queue synchronously
	// instead of waiting for the next flush tick.
	if len(c.queue) >= c.cfg.BatchSize {
		swapped = c.queue
		c.queue = nil
	}
	queueLen := len(c.queue)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.QueueLength.Set(float64(queueLen))
	}

	if swapped != nil {
		c.deliveries.Add(1)
		async.SafeGo(context.Background(), c.logger, deliveryTimeout, "batch delivery", func(ctx context.Context) error {
			defer c.deliveries.Done()
			c.deliver(ctx, swapped)
			return nil
		})
	}
}

// Flush synchronously swaps the queue and delivers the drained batch.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	batch := c.queue
	c.queue = nil
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.QueueLength.Set(0)
	}
	if len(batch) == 0 {
		return nil
	}
	return c.deliver(ctx, batch)
}

// deliver hands one batch to the sink. Failed batches are re-merged at the
// front of the live queue so retried events keep their order ahead of newer
// ones; after shutdown they are dropped instead.
func (c *Collector) deliver(ctx context.Context, batch event.Batch) error {
	start := time.Now()
	err := c.sink.Deliver(ctx, batch)
	if c.metrics != nil {
		c.metrics.DeliveryDuration.WithLabelValues(c.sink.Name()).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		c.logger.WithError(err).WithField("events", len(batch)).Warn("Batch delivery failed")
		if c.metrics != nil {
			c.metrics.FlushesTotal.WithLabelValues("error").Inc()
			c.metrics.DeliveryErrors.WithLabelValues(c.sink.Name()).Inc()
		}
		if c.stopped.Load() {
			if c.metrics != nil {
				c.metrics.EventsDroppedTotal.Add(float64(len(batch)))
			}
			return err
		}
		c.mu.Lock()
		c.queue = append(batch, c.queue...)
		queueLen := len(c.queue)
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.QueueLength.Set(float64(queueLen))
		}
		return err
	}

	if c.metrics != nil {
		c.metrics.FlushesTotal.WithLabelValues("ok").Inc()
		c.metrics.FlushBatchSize.Observe(float64(len(batch)))
	}
	return nil
}

// QueueLength reports the number of events waiting in the live queue.
func (c *Collector) QueueLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Collector) flushTask(ctx context.Context) error {
	return c.Flush(ctx)
}

// aggregateTask logs the periodic rollup; derived state lives in memory
// and is exposed through the query surface, so there is nothing to
// persist here.
func (c *Collector) aggregateTask(ctx context.Context) error {
	now := c.clock.Now().UTC()
	c.logger.WithFields(map[string]interface{}{
		"messages_per_minute": c.agg.MessagesPerMinute(now),
		"errors_per_minute":   c.agg.ErrorsPerMinute(now),
		"active_sessions":     c.registry.ActiveCount(),
		"queue_length":        c.QueueLength(),
	}).Debug("Aggregate rollup")
	return nil
}

// cleanupTask drops queued events and aggregate samples older than the
// retention period.
func (c *Collector) cleanupTask(ctx context.Context) error {
	cutoff := c.clock.Now().UTC().AddDate(0, 0, -c.cfg.RetentionDays)

	c.mu.Lock()
	kept := c.queue[:0]
	dropped := 0
	for _, ev := range c.queue {
		if ev.Timestamp.After(cutoff) {
			kept = append(kept, ev)
		} else {
			dropped++
		}
	}
	c.queue = kept
	c.mu.Unlock()

	c.agg.Prune(cutoff)

	if dropped > 0 {
		c.logger.WithField("events", dropped).Info("Retention cleanup dropped expired events")
	}
	return nil
}

func taskCounter(m *observability.Metrics) *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.TaskRunsTotal
}
