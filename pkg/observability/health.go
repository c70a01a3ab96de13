package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ProbeFunc checks one dependency. A nil error means healthy.
type ProbeFunc func(ctx context.Context) error

// HealthChecker aggregates named dependency probes. Sinks register probes
// for their backends; the collector itself has no hard dependencies, so
// probe failures degrade rather than fail the service unless the probe is
// registered as critical.
type HealthChecker struct {
	mu       sync.Mutex
	probes   map[string]ProbeFunc
	critical map[string]bool
	version  string
}

// NewHealthChecker creates an empty health checker
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		probes:   make(map[string]ProbeFunc),
		critical: make(map[string]bool),
		version:  version,
	}
}

// Register adds a dependency probe. Critical probes mark the whole service
// unhealthy on failure; non-critical ones only degrade it.
func (h *HealthChecker) Register(name string, critical bool, probe ProbeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = probe
	h.critical[name] = critical
}

// DatabaseProbe returns a probe that pings a SQL database
func DatabaseProbe(db *sql.DB) ProbeFunc {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// RedisProbe returns a probe that pings a Redis client
func RedisProbe(client *redis.Client) ProbeFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status  string        `json:"status"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency_ms,omitempty"`
}

// Check runs all registered probes and folds their results into an overall
// status.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.Lock()
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	probes := make(map[string]ProbeFunc, len(h.probes))
	critical := make(map[string]bool, len(h.critical))
	for name, p := range h.probes {
		probes[name] = p
		critical[name] = h.critical[name]
	}
	h.mu.Unlock()

	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus),
	}

	for _, name := range names {
		start := time.Now()
		err := probes[name](ctx)
		dep := DependencyStatus{
			Status:  StatusHealthy,
			Latency: time.Since(start),
		}
		if err != nil {
			dep.Status = StatusUnhealthy
			dep.Message = err.Error()
			if critical[name] {
				status.Status = StatusUnhealthy
			} else if status.Status != StatusUnhealthy {
				status.Status = StatusDegraded
			}
		}
		status.Dependencies[name] = dep
	}

	return status
}

// Liveness returns 200 whenever the process is serving
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now().UTC(),
	})
}

// Readiness runs all probes; unhealthy yields 503, healthy or degraded 200
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}

// RegisterHealthRoutes registers health check endpoints
func RegisterHealthRoutes(router *mux.Router, checker *HealthChecker) {
	router.HandleFunc("/healthz", checker.Readiness)
	router.HandleFunc("/healthz/live", checker.Liveness)
	router.HandleFunc("/healthz/ready", checker.Readiness)
}
