package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// maxWorkerCap bounds the pool regardless of core count: each worker drives a
// full external ffmpeg invocation, so memory and I/O pressure grow quickly.
const maxWorkerCap = 4

// DefaultConcurrency returns min(runtime.NumCPU(), maxWorkerCap), never less
// than 1.
func DefaultConcurrency() int {
	n := runtime.NumCPU()
	if n > maxWorkerCap {
		n = maxWorkerCap
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ExecuteFunc runs one job to completion. Implementations must not panic
// outward; the pool additionally confines panics at the worker boundary.
type ExecuteFunc func(ctx context.Context, spec JobSpec) JobResult

// WorkerPool dispatches jobs with bounded parallelism. It owns execution but
// no long-lived state; completion side effects happen through the onComplete
// callback, which is invoked synchronously as each job settles.
type WorkerPool struct {
	concurrency int
	logger      *slog.Logger
}

// NewWorkerPool creates a pool. concurrency <= 0 selects DefaultConcurrency.
func NewWorkerPool(concurrency int, handler slog.Handler) *WorkerPool {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	return &WorkerPool{
		concurrency: concurrency,
		logger:      slog.New(handler).With(slog.String("component", "pool")),
	}
}

// Concurrency returns the effective worker count.
func (p *WorkerPool) Concurrency() int { return p.concurrency }

// Run executes jobs with at most Concurrency() invocations in flight at any
// instant and returns the results in completion order.
//
// Each execute call is isolated: a panic inside it becomes an error-status
// JobResult for that job only and never aborts siblings or the pool. After
// ctx is cancelled no new jobs are dispatched, but jobs already handed to a
// worker are allowed to finish.
//
// onComplete, when non-nil, is called once per settled job before the pool
// moves on to drain remaining work. It runs on worker goroutines and must be
// thread-safe.
func (p *WorkerPool) Run(ctx context.Context, jobs []JobSpec, execute ExecuteFunc, onComplete func(JobResult)) []JobResult {
	if len(jobs) == 0 {
		return nil
	}

	workers := p.concurrency
	if workers > len(jobs) {
		workers = len(jobs)
	}
	p.logger.Debug("starting worker pool", slog.Int("workers", workers), slog.Int("jobs", len(jobs)))

	jobChan := make(chan JobSpec)
	resultChan := make(chan JobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, &wg, jobChan, resultChan, execute, onComplete)
	}

	// Feed submission order; stop dispatching once cancellation is requested.
dispatch:
	for i, spec := range jobs {
		select {
		case jobChan <- spec:
		case <-ctx.Done():
			p.logger.Info("cancellation requested, stopping dispatch",
				slog.Int("remainingJobs", len(jobs)-i))
			break dispatch
		}
	}
	close(jobChan)

	wg.Wait()
	close(resultChan)

	results := make([]JobResult, 0, len(jobs))
	for res := range resultChan {
		results = append(results, res)
	}
	p.logger.Debug("worker pool drained", slog.Int("settled", len(results)))
	return results
}

// worker pulls jobs until the channel closes. It never returns early on
// cancellation once a job is in hand; Run stops feeding instead.
func (p *WorkerPool) worker(ctx context.Context, id int, wg *sync.WaitGroup, jobChan <-chan JobSpec, resultChan chan<- JobResult, execute ExecuteFunc, onComplete func(JobResult)) {
	defer wg.Done()
	wLogger := p.logger.With(slog.Int("workerID", id))

	for spec := range jobChan {
		res := p.runIsolated(ctx, spec, execute)
		if onComplete != nil {
			onComplete(res)
		}
		if res.Status == StatusError {
			wLogger.Warn("job failed",
				slog.Int("jobID", spec.ID),
				slog.String("path", spec.InputPath),
				slog.String("error", res.Err))
		} else {
			wLogger.Debug("job settled",
				slog.Int("jobID", spec.ID),
				slog.String("status", string(res.Status)),
				slog.Int("scenes", res.Scenes))
		}
		resultChan <- res
	}
}

// runIsolated is the bulkhead around execute: it guarantees exactly one
// JobResult per spec, with timing recorded even when execute panics.
func (p *WorkerPool) runIsolated(ctx context.Context, spec JobSpec, execute ExecuteFunc) (res JobResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic recovered in job",
				slog.Int("jobID", spec.ID),
				slog.Any("panicValue", r))
			end := time.Now()
			res = JobResult{
				JobID:     spec.ID,
				InputPath: spec.InputPath,
				Status:    StatusError,
				StartTime: start,
				EndTime:   end,
				Duration:  end.Sub(start),
				Err:       fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return execute(ctx, spec)
}
