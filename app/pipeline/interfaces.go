package pipeline

import (
	"context"
)

// TaskSchedulerInterface drives the background pipeline: a worker pool
// consuming queued tasks, a periodic trigger enqueueing refresh cycles, and
// a synchronous entry point for the admin's manual trigger.
// Example usage:
//
//	scheduler := NewScheduler(runner, articleRepo, configCache, httpClient, contentExtractor, userAgent, interval, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RunNow(ctx context.Context) *CycleResult
}
