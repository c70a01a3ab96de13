package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meshkit/telemetry/pkg/observability"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !cfg.Collector.Enabled {
		t.Error("Expected collector enabled by default")
	}
	if cfg.Collector.BatchSize != 100 {
		t.Errorf("Expected batch size 100, got %d", cfg.Collector.BatchSize)
	}
	if cfg.Collector.FlushInterval != 30*time.Second {
		t.Errorf("Expected flush interval 30s, got %v", cfg.Collector.FlushInterval)
	}
	if cfg.Collector.AggregateInterval != 60*time.Second {
		t.Errorf("Expected aggregate interval 60s, got %v", cfg.Collector.AggregateInterval)
	}
	if cfg.Collector.CleanupInterval != 24*time.Hour {
		t.Errorf("Expected cleanup interval 24h, got %v", cfg.Collector.CleanupInterval)
	}
	if cfg.Collector.RetentionDays != 90 {
		t.Errorf("Expected 90 retention days, got %d", cfg.Collector.RetentionDays)
	}
	if len(cfg.Sinks.Names) != 1 || cfg.Sinks.Names[0] != "log" {
		t.Errorf("Expected default sink [log], got %v", cfg.Sinks.Names)
	}
	if cfg.Observability.ParsedLogLevel() != observability.InfoLevel {
		t.Errorf("Expected info log level, got %v", cfg.Observability.ParsedLogLevel())
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TELEMETRY_ENABLED", "false")
	t.Setenv("TELEMETRY_ENVIRONMENT", "production")
	t.Setenv("TELEMETRY_BATCH_SIZE", "250")
	t.Setenv("TELEMETRY_FLUSH_INTERVAL", "10s")
	t.Setenv("TELEMETRY_SINKS", "redis, s3")
	t.Setenv("TELEMETRY_REDIS_URL", "redis://localhost:6379")
	t.Setenv("TELEMETRY_S3_BUCKET", "archive")
	t.Setenv("TELEMETRY_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Collector.Enabled {
		t.Error("Expected collector disabled")
	}
	if cfg.Collector.Environment != "production" {
		t.Errorf("Expected production environment, got %s", cfg.Collector.Environment)
	}
	if cfg.Collector.BatchSize != 250 {
		t.Errorf("Expected batch size 250, got %d", cfg.Collector.BatchSize)
	}
	if cfg.Collector.FlushInterval != 10*time.Second {
		t.Errorf("Expected flush interval 10s, got %v", cfg.Collector.FlushInterval)
	}
	if len(cfg.Sinks.Names) != 2 || cfg.Sinks.Names[0] != "redis" || cfg.Sinks.Names[1] != "s3" {
		t.Errorf("Expected sinks [redis s3], got %v", cfg.Sinks.Names)
	}
	if cfg.Observability.ParsedLogLevel() != observability.DebugLevel {
		t.Error("Expected debug log level")
	}
}

func TestLoadConfig_FileLayerWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.yaml")
	doc := `
collector:
  batch_size: 50
  environment: staging
sinks:
  names: [http]
  http_endpoint: https://ingest.example.com/v1/events
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("TELEMETRY_CONFIG_FILE", path)
	t.Setenv("TELEMETRY_BATCH_SIZE", "75") // env wins over file

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Collector.BatchSize != 75 {
		t.Errorf("Expected env to override file, got batch size %d", cfg.Collector.BatchSize)
	}
	if cfg.Collector.Environment != "staging" {
		t.Errorf("Expected file value staging, got %s", cfg.Collector.Environment)
	}
	if len(cfg.Sinks.Names) != 1 || cfg.Sinks.Names[0] != "http" {
		t.Errorf("Expected file sink [http], got %v", cfg.Sinks.Names)
	}
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	t.Setenv("TELEMETRY_CONFIG_FILE", "/nonexistent/telemetry.yaml")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero batch size", mutate: func(c *Config) { c.Collector.BatchSize = 0 }, wantErr: true},
		{name: "negative flush interval", mutate: func(c *Config) { c.Collector.FlushInterval = -time.Second }, wantErr: true},
		{name: "zero retention", mutate: func(c *Config) { c.Collector.RetentionDays = 0 }, wantErr: true},
		{name: "empty salt", mutate: func(c *Config) { c.Collector.AnonymizationSalt = "" }, wantErr: true},
		{name: "empty port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{name: "no sinks", mutate: func(c *Config) { c.Sinks.Names = nil }, wantErr: true},
		{name: "unknown sink", mutate: func(c *Config) { c.Sinks.Names = []string{"kafka"} }, wantErr: true},
		{name: "http sink without endpoint", mutate: func(c *Config) { c.Sinks.Names = []string{"http"} }, wantErr: true},
		{name: "redis sink without url", mutate: func(c *Config) { c.Sinks.Names = []string{"redis"} }, wantErr: true},
		{name: "sql sink without dsn", mutate: func(c *Config) { c.Sinks.Names = []string{"sql"} }, wantErr: true},
		{name: "s3 sink without bucket", mutate: func(c *Config) { c.Sinks.Names = []string{"s3"} }, wantErr: true},
		{
			name: "sql sink with driver and dsn",
			mutate: func(c *Config) {
				c.Sinks.Names = []string{"sql"}
				c.Sinks.SQLDSN = "file:events.db"
				c.Sinks.SQLDriver = "sqlite3"
			},
			wantErr: false,
		},
		{
			name: "otel enabled without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" log , redis ,, s3 ")
	want := []string{"log", "redis", "s3"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
}
