package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshkit/telemetry/pkg/event"
)

// EmitFunc receives lifecycle events the registry produces. The collector
// turns these into canonical events (timestamping, anonymization, fan-out);
// the registry itself never builds an event.Event.
type EmitFunc func(kind event.Kind, sessionID string, attrs event.Attributes)

// ActiveGauge tracks the number of live sessions. prometheus.Gauge
// satisfies it.
type ActiveGauge interface {
	Inc()
	Dec()
}

// Session is the mutable per-connection aggregation scope. It exists only
// while active; End removes it from the registry.
type Session struct {
	ID        string
	StartedAt time.Time
	Platform  event.PlatformInfo

	features          map[string]struct{}
	meshPatterns      map[string]struct{}
	interactionCount  int
	errorCount        int
	meshEventCount    int
	accessibilityUsed bool
}

// Summary is the derived result of a completed session, carried on the
// session_end event and returned from End.
type Summary struct {
	SessionID    string        `json:"session_id"`
	Reason       string        `json:"reason"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	FeaturesUsed int           `json:"features_used"`
	Interactions int           `json:"interactions"`
	Errors       int           `json:"errors"`
	MeshEvents   int           `json:"mesh_events"`
	MeshPatterns int           `json:"mesh_patterns"`
	Platform     event.PlatformInfo
}

// Registry tracks one Session per active client connection. Sessions move
// non-existent -> active -> ended; ended ids are removed, so any further
// call with that id is a no-op.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	emit  EmitFunc
	gauge ActiveGauge
	now   func() time.Time

	observedTotal      int64
	accessibilityTotal int64
}

// NewRegistry creates a registry. emit, gauge, and now may be nil; nil now
// defaults to time.Now.
func NewRegistry(emit EmitFunc, gauge ActiveGauge, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[string]*Session),
		emit:     emit,
		gauge:    gauge,
		now:      now,
	}
}

// Start allocates a new session and returns its id. Emits a session_start
// event and increments the active-sessions gauge.
func (r *Registry) Start(platform event.PlatformInfo) string {
	s := &Session{
		ID:           uuid.NewString(),
		StartedAt:    r.now().UTC(),
		Platform:     platform,
		features:     make(map[string]struct{}),
		meshPatterns: make(map[string]struct{}),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.observedTotal++
	r.mu.Unlock()

	if r.gauge != nil {
		r.gauge.Inc()
	}
	if r.emit != nil {
		r.emit(event.KindSessionStart, s.ID, event.SessionStartAttrs{Platform: platform})
	}
	return s.ID
}

// RecordInteraction increments the session's interaction counter.
func (r *Registry) RecordInteraction(id string) {
	r.withSession(id, func(s *Session) { s.interactionCount++ })
}

// RecordError increments the session's error counter.
func (r *Registry) RecordError(id string) {
	r.withSession(id, func(s *Session) { s.errorCount++ })
}

// RecordFeature adds a feature to the session's used set.
func (r *Registry) RecordFeature(id, feature string) {
	r.withSession(id, func(s *Session) { s.features[feature] = struct{}{} })
}

// RecordMeshPattern notes one mesh interaction and its pattern.
func (r *Registry) RecordMeshPattern(id, pattern string) {
	r.withSession(id, func(s *Session) {
		s.meshEventCount++
		if pattern != "" {
			s.meshPatterns[pattern] = struct{}{}
		}
	})
}

// RecordAccessibility marks the session as having used an accessibility
// toggle.
func (r *Registry) RecordAccessibility(id string) {
	r.withSession(id, func(s *Session) {
		if !s.accessibilityUsed {
			s.accessibilityUsed = true
			r.accessibilityTotal++
		}
	})
}

// End completes a session: computes the summary, emits a session_end event,
// removes the session, and decrements the gauge. Returns nil if the id was
// not active, so a double end is safe and decrements nothing twice.
func (r *Registry) End(id, reason string) *Summary {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.sessions, id)
	now := r.now().UTC()
	summary := &Summary{
		SessionID:    s.ID,
		Reason:       reason,
		StartedAt:    s.StartedAt,
		Duration:     now.Sub(s.StartedAt),
		FeaturesUsed: len(s.features),
		Interactions: s.interactionCount,
		Errors:       s.errorCount,
		MeshEvents:   s.meshEventCount,
		MeshPatterns: len(s.meshPatterns),
		Platform:     s.Platform,
	}
	r.mu.Unlock()

	if r.gauge != nil {
		r.gauge.Dec()
	}
	if r.emit != nil {
		r.emit(event.KindSessionEnd, s.ID, event.SessionEndAttrs{
			Reason:       reason,
			DurationMs:   float64(summary.Duration.Milliseconds()),
			FeaturesUsed: summary.FeaturesUsed,
			Interactions: summary.Interactions,
			Errors:       summary.Errors,
			MeshPatterns: summary.MeshPatterns,
		})
	}
	return summary
}

// ActiveCount returns the number of live sessions.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// AccessibilityUsage reports live session counts: total active sessions and
// how many of them used at least one accessibility toggle. The scan is
// bounded by session count, not event count.
func (r *Registry) AccessibilityUsage() (active, used int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.accessibilityUsed {
			used++
		}
	}
	return len(r.sessions), used
}

// ObservedTotal returns the cumulative count of sessions ever started.
func (r *Registry) ObservedTotal() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.observedTotal
}

func (r *Registry) withSession(id string, fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		fn(s)
	}
}
