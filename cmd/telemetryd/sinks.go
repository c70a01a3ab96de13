package main

import (
	"context"
	"database/sql"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/meshkit/telemetry/pkg/config"
	"github.com/meshkit/telemetry/pkg/observability"
	"github.com/meshkit/telemetry/pkg/sink"
)

// buildSinks constructs the configured delivery sinks, registers health
// probes for backends that support them, and returns a single sink (a
// MultiSink when more than one is configured) plus a cleanup that closes
// the underlying connections.
func buildSinks(ctx context.Context, cfg config.SinkConfig, logger *observability.Logger, health *observability.HealthChecker) (sink.Sink, func(), error) {
	var (
		sinks   []sink.Sink
		closers []func()
	)
	cleanup := func() {
		for _, close := range closers {
			close()
		}
	}

	for _, name := range cfg.Names {
		switch name {
		case "log":
			sinks = append(sinks, sink.NewLogSink(logger))

		case "http":
			sinks = append(sinks, sink.NewHTTPSink(cfg.HTTPEndpoint, cfg.HTTPAPIKey, cfg.HTTPTimeout))

		case "redis":
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("parsing redis URL: %w", err)
			}
			if cfg.RedisPassword != "" {
				opts.Password = cfg.RedisPassword
			}
			if cfg.RedisDB != 0 {
				opts.DB = cfg.RedisDB
			}
			client := redis.NewClient(opts)
			closers = append(closers, func() { client.Close() })
			sinks = append(sinks, sink.NewRedisSink(client, cfg.RedisKey))
			health.Register("redis", true, observability.RedisProbe(client))

		case "sql":
			db, err := sql.Open(cfg.SQLDriver, cfg.SQLDSN)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("opening %s database: %w", cfg.SQLDriver, err)
			}
			closers = append(closers, func() { db.Close() })
			sqlSink := sink.NewSQLSink(db, cfg.SQLTable)
			if err := sqlSink.EnsureSchema(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("ensuring event table: %w", err)
			}
			sinks = append(sinks, sqlSink)
			health.Register("database", true, observability.DatabaseProbe(db))

		case "s3":
			var loadOpts []func(*awsconfig.LoadOptions) error
			if cfg.S3Region != "" {
				loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
			}
			if cfg.S3AccessKeyID != "" {
				loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
					credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("loading AWS configuration: %w", err)
			}
			sinks = append(sinks, sink.NewS3Sink(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix))

		default:
			cleanup()
			return nil, nil, fmt.Errorf("unknown sink: %s", name)
		}
	}

	if len(sinks) == 1 {
		return sinks[0], cleanup, nil
	}
	return sink.NewMultiSink(sinks...), cleanup, nil
}
