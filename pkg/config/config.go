package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meshkit/telemetry/pkg/observability"
)

// Config holds all daemon configuration
type Config struct {
	Collector     CollectorConfig     `yaml:"collector"`
	Sinks         SinkConfig          `yaml:"sinks"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// CollectorConfig holds the core collection settings
type CollectorConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Environment       string        `yaml:"environment"`
	BatchSize         int           `yaml:"batch_size"`
	FlushInterval     time.Duration `yaml:"flush_interval"`
	AggregateInterval time.Duration `yaml:"aggregate_interval"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	RetentionDays     int           `yaml:"retention_days"`
	SampleCap         int           `yaml:"sample_cap"`
	AnonymizationSalt string        `yaml:"anonymization_salt"`
}

// SinkConfig holds delivery backend settings. Names lists the enabled
// sinks; more than one gets fanned out through a MultiSink.
type SinkConfig struct {
	Names []string `yaml:"names"`

	HTTPEndpoint string        `yaml:"http_endpoint"`
	HTTPAPIKey   string        `yaml:"http_api_key"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`

	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`

	SQLDriver string `yaml:"sql_driver"`
	SQLDSN    string `yaml:"sql_dsn"`
	SQLTable  string `yaml:"sql_table"`

	S3Region string `yaml:"s3_region"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	// Static credentials for self-hosted object stores; the SDK's default
	// chain applies when these are empty.
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`
}

// ServerConfig holds dashboard HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// ParsedLogLevel converts the configured level string
func (o ObservabilityConfig) ParsedLogLevel() observability.LogLevel {
	return observability.ParseLevel(o.LogLevel)
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Collector: CollectorConfig{
			Enabled:           true,
			Environment:       "development",
			BatchSize:         100,
			FlushInterval:     30 * time.Second,
			AggregateInterval: 60 * time.Second,
			CleanupInterval:   24 * time.Hour,
			RetentionDays:     90,
			SampleCap:         1000,
			AnonymizationSalt: "meshkit-telemetry",
		},
		Sinks: SinkConfig{
			Names:       []string{"log"},
			HTTPTimeout: 10 * time.Second,
			RedisKey:    "telemetry:events",
			SQLDriver:   "postgres",
			SQLTable:    "telemetry_events",
			S3Prefix:    "telemetry",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "telemetryd",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig builds configuration from defaults, an optional YAML file
// (TELEMETRY_CONFIG_FILE), and environment variables, in that order of
// precedence.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("TELEMETRY_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	// Collector
	c.Collector.Enabled = getEnvBool("TELEMETRY_ENABLED", c.Collector.Enabled)
	c.Collector.Environment = getEnv("TELEMETRY_ENVIRONMENT", c.Collector.Environment)
	c.Collector.BatchSize = getEnvInt("TELEMETRY_BATCH_SIZE", c.Collector.BatchSize)
	c.Collector.FlushInterval = getEnvDuration("TELEMETRY_FLUSH_INTERVAL", c.Collector.FlushInterval)
	c.Collector.AggregateInterval = getEnvDuration("TELEMETRY_AGGREGATE_INTERVAL", c.Collector.AggregateInterval)
	c.Collector.CleanupInterval = getEnvDuration("TELEMETRY_CLEANUP_INTERVAL", c.Collector.CleanupInterval)
	c.Collector.RetentionDays = getEnvInt("TELEMETRY_RETENTION_DAYS", c.Collector.RetentionDays)
	c.Collector.SampleCap = getEnvInt("TELEMETRY_SAMPLE_CAP", c.Collector.SampleCap)
	c.Collector.AnonymizationSalt = getEnv("TELEMETRY_ANONYMIZATION_SALT", c.Collector.AnonymizationSalt)

	// Sinks
	if names := getEnv("TELEMETRY_SINKS", ""); names != "" {
		c.Sinks.Names = splitList(names)
	}
	c.Sinks.HTTPEndpoint = getEnv("TELEMETRY_HTTP_ENDPOINT", c.Sinks.HTTPEndpoint)
	c.Sinks.HTTPAPIKey = getEnv("TELEMETRY_HTTP_API_KEY", c.Sinks.HTTPAPIKey)
	c.Sinks.HTTPTimeout = getEnvDuration("TELEMETRY_HTTP_TIMEOUT", c.Sinks.HTTPTimeout)
	c.Sinks.RedisURL = getEnv("TELEMETRY_REDIS_URL", c.Sinks.RedisURL)
	c.Sinks.RedisPassword = getEnv("TELEMETRY_REDIS_PASSWORD", c.Sinks.RedisPassword)
	c.Sinks.RedisDB = getEnvInt("TELEMETRY_REDIS_DB", c.Sinks.RedisDB)
	c.Sinks.RedisKey = getEnv("TELEMETRY_REDIS_KEY", c.Sinks.RedisKey)
	c.Sinks.SQLDriver = getEnv("TELEMETRY_SQL_DRIVER", c.Sinks.SQLDriver)
	c.Sinks.SQLDSN = getEnv("TELEMETRY_SQL_DSN", c.Sinks.SQLDSN)
	c.Sinks.SQLTable = getEnv("TELEMETRY_SQL_TABLE", c.Sinks.SQLTable)
	c.Sinks.S3Region = getEnv("TELEMETRY_S3_REGION", c.Sinks.S3Region)
	c.Sinks.S3Bucket = getEnv("TELEMETRY_S3_BUCKET", c.Sinks.S3Bucket)
	c.Sinks.S3Prefix = getEnv("TELEMETRY_S3_PREFIX", c.Sinks.S3Prefix)
	c.Sinks.S3AccessKeyID = getEnv("TELEMETRY_S3_ACCESS_KEY_ID", c.Sinks.S3AccessKeyID)
	c.Sinks.S3SecretAccessKey = getEnv("TELEMETRY_S3_SECRET_ACCESS_KEY", c.Sinks.S3SecretAccessKey)

	// Server
	c.Server.Host = getEnv("TELEMETRY_HOST", c.Server.Host)
	c.Server.Port = getEnv("TELEMETRY_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("TELEMETRY_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("TELEMETRY_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("TELEMETRY_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("TELEMETRY_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	// Observability
	c.Observability.LogLevel = getEnv("TELEMETRY_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("TELEMETRY_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("TELEMETRY_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("TELEMETRY_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("TELEMETRY_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("TELEMETRY_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("TELEMETRY_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Collector.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	if c.Collector.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if c.Collector.AggregateInterval <= 0 {
		return fmt.Errorf("aggregate interval must be positive")
	}
	if c.Collector.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be positive")
	}
	if c.Collector.RetentionDays < 1 {
		return fmt.Errorf("retention must be at least 1 day")
	}
	if c.Collector.AnonymizationSalt == "" {
		return fmt.Errorf("anonymization salt is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if len(c.Sinks.Names) == 0 {
		return fmt.Errorf("at least one sink is required")
	}
	for _, name := range c.Sinks.Names {
		switch name {
		case "log":
		case "http":
			if c.Sinks.HTTPEndpoint == "" {
				return fmt.Errorf("http endpoint is required for the http sink")
			}
		case "redis":
			if c.Sinks.RedisURL == "" {
				return fmt.Errorf("redis URL is required for the redis sink")
			}
		case "sql":
			if c.Sinks.SQLDriver == "" || c.Sinks.SQLDSN == "" {
				return fmt.Errorf("sql driver and DSN are required for the sql sink")
			}
		case "s3":
			if c.Sinks.S3Bucket == "" {
				return fmt.Errorf("s3 bucket is required for the s3 sink")
			}
		default:
			return fmt.Errorf("unknown sink: %s (must be log, http, redis, sql, or s3)", name)
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
