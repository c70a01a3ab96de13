// Package config provides daemon configuration from environment variables
// with an optional YAML file layer.
//
// # Overview
//
// Configuration is built from defaults, then an optional YAML file named by
// TELEMETRY_CONFIG_FILE, then environment variables, with later layers
// winning. Everything is validated before use.
//
// # Configuration Structure
//
// Collector settings:
//
//	TELEMETRY_ENABLED="true"
//	TELEMETRY_ENVIRONMENT="production"
//	TELEMETRY_BATCH_SIZE="100"
//	TELEMETRY_FLUSH_INTERVAL="30s"
//	TELEMETRY_AGGREGATE_INTERVAL="60s"
//	TELEMETRY_CLEANUP_INTERVAL="24h"
//	TELEMETRY_RETENTION_DAYS="90"
//	TELEMETRY_ANONYMIZATION_SALT="..."
//
// Sink settings:
//
//	TELEMETRY_SINKS="http,redis"  # log, http, redis, sql, s3
//	TELEMETRY_HTTP_ENDPOINT="https://ingest.example.com/v1/events"
//	TELEMETRY_REDIS_URL="redis://localhost:6379"
//	TELEMETRY_SQL_DRIVER="postgres"  # or sqlite3
//	TELEMETRY_SQL_DSN="postgres://localhost/telemetry"
//	TELEMETRY_S3_BUCKET="telemetry-archive"
//
// Server and observability settings:
//
//	TELEMETRY_HOST="0.0.0.0"
//	TELEMETRY_PORT="8080"
//	TELEMETRY_LOG_LEVEL="info"  # debug, info, warn, error
//	TELEMETRY_METRICS_ENABLED="true"
//	TELEMETRY_OTEL_ENABLED="false"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Batch size: %d\n", cfg.Collector.BatchSize)
package config
