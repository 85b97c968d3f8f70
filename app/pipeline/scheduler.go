package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lexhub/news-pipeline/app/database"
	"github.com/lexhub/news-pipeline/app/news"
	"github.com/robfig/cron/v3"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	runner           *Runner
	articleRepo      database.ArticleRepository
	configCache      *news.ConfigCache
	httpClient       *http.Client
	contentExtractor *news.ContentExtractor
	userAgent        string
	interval         time.Duration
	workerCount      int
	cron             *cron.Cron
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(runner *Runner, articleRepo database.ArticleRepository, configCache *news.ConfigCache,
	httpClient *http.Client, contentExtractor *news.ContentExtractor, userAgent string,
	interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:           runner,
		articleRepo:      articleRepo,
		configCache:      configCache,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		userAgent:        userAgent,
		interval:         interval,
		workerCount:      workerCount,
		cron:             cron.New(),
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.enqueueCycleTasks); err != nil {
		slog.Error("Failed to register periodic refresh", "interval", s.interval.String(), "error", err)
	}
	s.cron.Start()

	// First cycle runs at startup rather than waiting a full interval.
	s.enqueueCycleTasks()
}

// Stop prevents future scheduled runs and waits for workers to finish the
// task they are on. In-flight cycles are not forcibly cancelled beyond the
// cooperative context checks inside the runner.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// RunNow executes one full cycle synchronously and returns its summary.
// The runner's mutex serializes it against any periodic cycle in flight.
func (s *Scheduler) RunNow(ctx context.Context) *CycleResult {
	result := s.runner.RunCycle(ctx)
	s.enqueueExtractionTasks()
	return result
}

func (s *Scheduler) enqueueCycleTasks() {
	if err := s.EnqueueTask(NewRefreshCycleTask(s.runner)); err != nil {
		slog.Warn("Failed to enqueue RefreshCycleTask", "error", err)
		return
	}
	s.enqueueExtractionTasks()
}

func (s *Scheduler) enqueueExtractionTasks() {
	for name, categoryConfig := range s.configCache.GetEnabledConfigs() {
		if !categoryConfig.Settings.ExtractContent {
			continue
		}

		task := NewExtractContentTask(name, categoryConfig, s.httpClient, s.contentExtractor, s.articleRepo, s.userAgent)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ExtractContentTask", "category", name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "category", task.GetCategory(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
