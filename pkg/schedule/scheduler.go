package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meshkit/telemetry/pkg/observability"
)

// TaskFunc is one periodic unit of work. The context is cancelled when the
// scheduler stops.
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	run      TaskFunc
}

// Scheduler runs named tasks at fixed intervals on an injectable clock, so
// tests drive time with clockwork's fake clock instead of sleeping. Task
// panics are recovered and logged; a panicking task keeps its schedule.
type Scheduler struct {
	clock  clockwork.Clock
	logger *observability.Logger
	runs   *prometheus.CounterVec

	mu      sync.Mutex
	tasks   []task
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scheduler. A nil clock defaults to the real clock; runs may
// be nil when task metrics are not wanted.
func New(clock clockwork.Clock, logger *observability.Logger, runs *prometheus.CounterVec) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:  clock,
		logger: logger,
		runs:   runs,
	}
}

// Add registers a task. Must be called before Start; tasks added after
// Start are ignored.
func (s *Scheduler) Add(name string, interval time.Duration, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.logger.WithField("task", name).Warn("Task added after scheduler start, ignoring")
		return
	}
	s.tasks = append(s.tasks, task{name: name, interval: interval, run: fn})
}

// Start launches one goroutine per task. Idempotent; a second call is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	s.logger.Infof("Scheduler started with %d tasks", len(s.tasks))
}

// Stop cancels all task loops and waits for them to exit. In-flight runs
// see a cancelled context.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t task) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.runOnce(ctx, t)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t task) {
	defer observability.RecoverPanic(s.logger, "scheduled task "+t.name)

	if err := t.run(ctx); err != nil {
		s.logger.WithError(err).WithField("task", t.name).Warn("Scheduled task failed")
		s.count(t.name, "error")
		return
	}
	s.count(t.name, "ok")
}

func (s *Scheduler) count(name, status string) {
	if s.runs != nil {
		s.runs.WithLabelValues(name, status).Inc()
	}
}
