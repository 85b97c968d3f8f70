package pipeline

import (
	"context"
	"log/slog"
)

type RefreshCycleTask struct {
	Task
	runner *Runner
}

func NewRefreshCycleTask(runner *Runner) *RefreshCycleTask {
	return &RefreshCycleTask{
		Task:   NewTask(TaskTypeRefreshCycle, "all"),
		runner: runner,
	}
}

func (t *RefreshCycleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result := t.runner.RunCycle(ctx)

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"categories", len(result.Categories),
		"inserted", result.Inserted)

	return nil
}
