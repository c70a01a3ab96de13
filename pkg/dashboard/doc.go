// Package dashboard exposes the collector's analytics query surface over
// HTTP.
//
// # Overview
//
// Handlers wraps a collector and serves read-only JSON views of it: the
// real-time dashboard, the cumulative summary, and the mesh pattern
// insight report. It also exposes the collection toggle so operators can
// enable or disable tracking at runtime without a restart.
//
// # Usage Example
//
//	router := mux.NewRouter()
//	dashboard.NewHandlers(c).RegisterRoutes(router)
package dashboard
