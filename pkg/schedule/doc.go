// Package schedule runs the collector's periodic maintenance tasks.
//
// # Overview
//
// The Scheduler ticks named tasks (flush, aggregate snapshot, stale-data
// cleanup) at fixed intervals on a clockwork clock. Injecting the clock
// lets tests advance time deterministically instead of sleeping. Task
// panics are recovered so one bad run never kills the loop, and each run's
// outcome is counted per task.
//
// # Usage Example
//
//	sched := schedule.New(nil, logger, metrics.TaskRunsTotal)
//	sched.Add("flush", 30*time.Second, func(ctx context.Context) error {
//	    return collector.Flush(ctx)
//	})
//	sched.Start(ctx)
//	defer sched.Stop()
package schedule
