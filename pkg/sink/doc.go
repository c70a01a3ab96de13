// Package sink defines the delivery contract for finished batches and its
// backends.
//
// # Overview
//
// A Sink takes one batch and either persists it or fails it whole; the
// collector re-queues failed batches, so partial writes inside a batch are
// the sink's responsibility to avoid (SQL uses one transaction, Redis one
// pipeline, S3 and HTTP one object/request). Provided backends: structured
// log output, HTTP POST, Redis list, SQL table, S3 objects, and a
// concurrent fan-out over several sinks.
//
// # Usage Example
//
//	snk := sink.NewMultiSink(
//	    sink.NewHTTPSink("https://ingest.example.com/v1/events", apiKey, 0),
//	    sink.NewRedisSink(redisClient, ""),
//	)
//	if err := snk.Deliver(ctx, batch); err != nil {
//	    // batch is re-queued by the collector
//	}
package sink
