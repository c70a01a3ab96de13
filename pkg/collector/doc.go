// Package collector is the in-process telemetry service embedded by the
// host application.
//
// # Overview
//
// A Collector ingests tracking calls, anonymizes session identifiers,
// sanitizes error text, and fans each canonical event out to the flush
// queue, the live session registry, and the metric aggregates. A scheduler
// flushes batches to the injected sink (synchronously when the queue
// reaches the batch size, otherwise on a fixed interval), rolls up
// aggregates, and enforces retention. Track calls never return errors and
// never block on delivery; a disabled collector is a complete no-op.
//
// # Usage Example
//
//	c, err := collector.New(collector.Options{
//	    Config: cfg.Collector,
//	    Sink:   sink.NewLogSink(logger),
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	c.Start(ctx)
//	defer c.Shutdown(ctx)
//
//	id := c.StartSession(event.PlatformInfo{OS: "ios", AppVersion: "2.4.0"})
//	c.TrackFeature(id, "mesh_brush", true, true)
//	c.EndSession(id, "user_quit")
package collector
