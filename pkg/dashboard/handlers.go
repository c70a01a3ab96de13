package dashboard

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/meshkit/telemetry/pkg/collector"
	"github.com/meshkit/telemetry/pkg/httputil"
)

// Handlers provides HTTP handlers for the analytics query surface.
type Handlers struct {
	collector *collector.Collector
}

// NewHandlers creates new dashboard handlers backed by a collector.
func NewHandlers(c *collector.Collector) *Handlers {
	return &Handlers{collector: c}
}

// RegisterRoutes registers the analytics routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/analytics/dashboard", h.getDashboard).Methods("GET")
	router.HandleFunc("/analytics/summary", h.getSummary).Methods("GET")
	router.HandleFunc("/analytics/mesh-patterns", h.getMeshPatterns).Methods("GET")
	router.HandleFunc("/analytics/collection", h.getCollection).Methods("GET")
	router.HandleFunc("/analytics/collection", h.setCollection).Methods("PUT")
}

// getDashboard handles GET /analytics/dashboard
func (h *Handlers) getDashboard(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.collector.Dashboard())
}

// getSummary handles GET /analytics/summary
func (h *Handlers) getSummary(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.collector.Summary())
}

// getMeshPatterns handles GET /analytics/mesh-patterns?top=N
func (h *Handlers) getMeshPatterns(w http.ResponseWriter, r *http.Request) {
	top, err := httputil.ParseQueryInt(r, "top", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	httputil.WriteSuccess(w, h.collector.MeshPatterns(top))
}

// getCollection handles GET /analytics/collection
func (h *Handlers) getCollection(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]bool{"enabled": h.collector.Enabled()})
}

// setCollection handles PUT /analytics/collection. Toggling collection off
// takes effect immediately: subsequent tracking calls become no-ops.
func (h *Handlers) setCollection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if !httputil.ParseJSONOrError(w, r, &body) {
		return
	}
	if body.Enabled == nil {
		httputil.WriteBadRequest(w, "request body must be {\"enabled\": true|false}")
		return
	}

	h.collector.SetEnabled(*body.Enabled)
	httputil.WriteSuccess(w, map[string]bool{"enabled": h.collector.Enabled()})
}
