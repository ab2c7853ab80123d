// Package jobs runs fire-and-forget background work on a bounded in-process
// queue.
package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const JobNotificationEmail = "notification_email"

type job struct {
	Type string
	Run  func(context.Context) error
}

type Queue struct {
	logger  *zap.Logger
	queue   chan job
	timeout time.Duration
	wg      sync.WaitGroup
}

func New(logger *zap.Logger, size int) *Queue {
	if size <= 0 {
		size = 128
	}
	return &Queue{logger: logger, queue: make(chan job, size), timeout: 30 * time.Second}
}

// Start launches workers. Cancelling ctx stops intake: each worker then runs
// whatever is still queued and returns. Jobs never see that cancellation; each
// is bounded by the queue timeout only. Wait blocks until workers return.
func (q *Queue) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

func (q *Queue) Wait() {
	q.wg.Wait()
}

// Enqueue reports false when the queue is full and the job was dropped.
func (q *Queue) Enqueue(jobType string, run func(context.Context) error) bool {
	select {
	case q.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		q.logger.Warn("job queue full", zap.String("jobType", jobType))
		return false
	}
}

// RunNow executes run on the caller's goroutine with the same logging as
// queued work.
func (q *Queue) RunNow(ctx context.Context, jobType string, run func(context.Context) error) error {
	return q.runJob(ctx, job{Type: jobType, Run: run})
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	jobCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			q.drain(jobCtx)
			return
		case j := <-q.queue:
			_ = q.runJob(jobCtx, j)
		}
	}
}

func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case j := <-q.queue:
			_ = q.runJob(ctx, j)
		default:
			return
		}
	}
}

func (q *Queue) runJob(ctx context.Context, j job) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	started := time.Now()
	err := j.Run(ctx)
	if err != nil {
		q.logger.Warn("job run failed", zap.String("jobType", j.Type), zap.Duration("took", time.Since(started)), zap.Error(err))
		return err
	}
	q.logger.Debug("job completed", zap.String("jobType", j.Type), zap.Duration("took", time.Since(started)))
	return nil
}
