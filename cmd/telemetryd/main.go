package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/meshkit/telemetry/pkg/collector"
	"github.com/meshkit/telemetry/pkg/config"
	"github.com/meshkit/telemetry/pkg/dashboard"
	"github.com/meshkit/telemetry/pkg/httputil"
	"github.com/meshkit/telemetry/pkg/observability"
)

const version = "1.0.0"

var (
	toggleFile     = flag.String("toggle-file", "", "Path to a kill-switch file; while it exists, collection is disabled")
	reportSchedule = flag.String("report-schedule", "5 0 * * *", "Cron schedule for the daily summary report (default: 00:05 UTC)")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.SetLevel(parseLogrusLevel(cfg.Observability.LogLevel))

	logger := observability.NewLogger(cfg.Observability.ParsedLogLevel(), os.Stdout)

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}

	health := observability.NewHealthChecker(version)

	snk, closeSinks, err := buildSinks(ctx, cfg.Sinks, logger, health)
	if err != nil {
		log.Fatalf("Failed to build sinks: %v", err)
	}
	defer closeSinks()
	log.Infof("Delivery sinks initialized: %v", cfg.Sinks.Names)

	c, err := collector.New(collector.Options{
		Config:  cfg.Collector,
		Sink:    snk,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		log.Fatalf("Failed to create collector: %v", err)
	}
	c.Start(ctx)
	log.Infof("Collector started (environment: %s, batch size: %d, flush every %s)",
		cfg.Collector.Environment, cfg.Collector.BatchSize, cfg.Collector.FlushInterval)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if *toggleFile != "" {
		if err := watchToggleFile(watchCtx, log, *toggleFile, c); err != nil {
			log.Fatalf("Failed to watch toggle file: %v", err)
		}
	}

	reporter := startDailyReport(log, *reportSchedule, c)

	router := mux.NewRouter()
	router.Use(httputil.RequestIDMiddleware)
	router.Use(httputil.LoggingMiddleware(logger))
	router.Use(httputil.RecoveryMiddleware(logger))
	if metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(metrics))
		observability.RegisterMetricsEndpoint(router, registry)
	}
	observability.RegisterHealthRoutes(router, health)
	dashboard.NewHandlers(c).RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sm := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	sm.Register("collector", func(ctx context.Context) error {
		stopWatch()
		reporterCtx := reporter.Stop()
		select {
		case <-reporterCtx.Done():
		case <-ctx.Done():
		}
		return c.Shutdown(ctx)
	})
	if otelProviders != nil {
		sm.Register("otel", func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	go func() {
		log.Infof("Telemetry daemon listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if err := sm.WaitForShutdown(); err != nil {
		log.Errorf("Shutdown completed with errors: %v", err)
		os.Exit(1)
	}
	log.Info("Telemetry daemon stopped")
}

// startDailyReport schedules a summary report written to the daemon log.
func startDailyReport(log *logrus.Logger, schedule string, c *collector.Collector) *cron.Cron {
	reporter := cron.New()
	_, err := reporter.AddFunc(schedule, func() {
		summary := c.Summary()
		payload, err := json.Marshal(summary)
		if err != nil {
			log.Errorf("Failed to encode daily summary: %v", err)
			return
		}
		log.WithFields(logrus.Fields{
			"total_sessions": summary.TotalSessions,
			"report":         string(payload),
		}).Info("Daily telemetry summary")
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily report: %v", err)
	}
	reporter.Start()
	log.Infof("Daily report schedule: %s", schedule)
	return reporter
}

func parseLogrusLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
