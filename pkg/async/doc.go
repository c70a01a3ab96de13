// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery,
// timeout enforcement, context cancellation, and error collection. The
// collector uses it for asynchronous sink delivery: the ingestion hot path
// swaps a full queue synchronously, then hands the batch to a goroutine
// started through SafeGo or to a WorkerPool so delivery latency never
// reaches the caller.
//
// # Usage Example
//
//	async.SafeGo(ctx, logger, 10*time.Second, "batch delivery", func(ctx context.Context) error {
//	    return sink.Deliver(ctx, batch)
//	})
//
//	pool := async.NewWorkerPool(ctx, logger, 4, "sink delivery", 30*time.Second)
//	defer pool.Shutdown(5 * time.Second)
//	pool.Submit(func(ctx context.Context) error { return sink.Deliver(ctx, batch) })
package async
