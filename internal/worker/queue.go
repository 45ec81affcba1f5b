package worker

import (
	"context"
	"sync"
	"time"

	"learnfinity/internal/config"
	"learnfinity/internal/domain/course"
	"learnfinity/internal/metrics"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

type JobStore interface {
	ClaimNext(ctx context.Context, policy repository.ClaimPolicy) (*course.PersonalizationJob, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Processor does the work for one claimed job.
type Processor interface {
	ProcessJob(ctx context.Context, job course.PersonalizationJob) error
}

type ProcessorFunc func(ctx context.Context, job course.PersonalizationJob) error

func (f ProcessorFunc) ProcessJob(ctx context.Context, job course.PersonalizationJob) error {
	return f(ctx, job)
}

// QueueWorker polls the personalization queue with a fixed number of loops.
type QueueWorker struct {
	store  JobStore
	proc   Processor
	cfg    config.WorkerConfig
	log    *logger.Logger
	policy repository.ClaimPolicy

	wg sync.WaitGroup
}

func NewQueueWorker(store JobStore, proc Processor, cfg config.WorkerConfig, log *logger.Logger) *QueueWorker {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &QueueWorker{
		store: store,
		proc:  proc,
		cfg:   cfg,
		log:   log.With("component", "PersonalizationWorker"),
		policy: repository.ClaimPolicy{
			MaxAttempts: cfg.MaxAttempts,
			RetryDelay:  cfg.RetryDelay,
			StaleAfter:  cfg.StaleAfter,
		},
	}
}

func (w *QueueWorker) Start(ctx context.Context) {
	w.log.Info("starting personalization worker", "concurrency", w.cfg.Concurrency, "poll_interval", w.cfg.PollInterval.String())
	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.runLoop(ctx, i+1)
	}
}

// Wait blocks until every loop has returned after ctx was cancelled.
func (w *QueueWorker) Wait() {
	w.wg.Wait()
}

func (w *QueueWorker) runLoop(ctx context.Context, workerID int) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			// Drain while there is work so a backlog does not wait a tick per job.
			for w.RunOnce(ctx, workerID) {
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// RunOnce claims and processes at most one job. It reports whether a job was
// claimed.
func (w *QueueWorker) RunOnce(ctx context.Context, workerID int) bool {
	job, err := w.store.ClaimNext(ctx, w.policy)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("claim next job failed", "worker_id", workerID, "error", err)
		}
		return false
	}
	if job == nil {
		return false
	}

	log := w.log.With("worker_id", workerID, "job_id", job.ID, "course_id", job.CourseID, "employee_id", job.EmployeeID, "attempt", job.Attempts)
	start := time.Now()

	runErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("job panic", "panic", r)
				err = &panicError{Val: r}
			}
		}()
		return w.proc.ProcessJob(ctx, *job)
	}()
	metrics.JobDuration.Observe(time.Since(start).Seconds())

	// A cancelled job stays running and is reclaimed once stale.
	if ctx.Err() != nil {
		return true
	}

	if runErr != nil {
		metrics.JobsProcessed.WithLabelValues("failed").Inc()
		log.Warn("job failed", "error", runErr)
		if err := w.store.MarkFailed(context.WithoutCancel(ctx), job.ID, runErr.Error()); err != nil {
			log.Error("mark job failed", "error", err)
		}
		return true
	}

	metrics.JobsProcessed.WithLabelValues("completed").Inc()
	log.Info("job completed", "duration_ms", time.Since(start).Milliseconds())
	if err := w.store.MarkCompleted(context.WithoutCancel(ctx), job.ID); err != nil {
		log.Error("mark job completed", "error", err)
	}
	return true
}
