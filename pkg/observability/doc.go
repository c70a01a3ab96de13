// Package observability provides structured logging, Prometheus metrics,
// health checks, and optional OpenTelemetry export for the collector.
//
// # Overview
//
// This package centralizes the collector's operational surface: a slog-based
// JSON logger with context helpers, the Prometheus metric set (ingestion,
// sessions, queue/flush, scheduler, dashboard HTTP), probe-based health
// checks, panic recovery helpers, and graceful shutdown plumbing.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.ParseLevel("info"), nil)
//	logger.WithField("sink", "redis").Info("sink ready")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.EventsIngestedTotal.WithLabelValues("feature_use").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.Register("redis", false, observability.RedisProbe(client))
//	observability.RegisterHealthRoutes(router, checker)
//
// # OpenTelemetry
//
// OTLP export is opt-in via OTelConfig; when disabled the collector runs on
// Prometheus alone.
package observability
