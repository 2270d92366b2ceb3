package batch_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pukpuklouis/video-split/internal/testutil"
	"github.com/pukpuklouis/video-split/pkg/batch"
)

func makeSpecs(n int) []batch.JobSpec {
	specs := make([]batch.JobSpec, 0, n)
	for i := 1; i <= n; i++ {
		specs = append(specs, batch.JobSpec{
			ID:        i,
			InputPath: fmt.Sprintf("/videos/clip-%02d.mp4", i),
			SeqIndex:  i,
			SeqTotal:  n,
		})
	}
	return specs
}

func successResult(spec batch.JobSpec) batch.JobResult {
	start := time.Now()
	return batch.JobResult{
		JobID:     spec.ID,
		InputPath: spec.InputPath,
		Status:    batch.StatusSuccess,
		Scenes:    1,
		StartTime: start,
		EndTime:   start,
	}
}

func TestPoolJobIDsNeedNotBeContiguous(t *testing.T) {
	pool := batch.NewWorkerPool(2, testutil.DiscardHandler())
	specs := []batch.JobSpec{
		{ID: 10, InputPath: "/videos/a.mp4"},
		{ID: 200, InputPath: "/videos/b.mp4"},
		{ID: 35, InputPath: "/videos/c.mp4"},
	}

	results := pool.Run(context.Background(), specs, func(_ context.Context, spec batch.JobSpec) batch.JobResult {
		return successResult(spec)
	}, nil)

	require.Len(t, results, 3)
	seen := make(map[int]bool)
	for _, res := range results {
		seen[res.JobID] = true
	}
	assert.True(t, seen[10] && seen[200] && seen[35],
		"the pool takes IDs as opaque labels, not positions")
}

func TestDefaultConcurrencyBounds(t *testing.T) {
	n := batch.DefaultConcurrency()
	assert.GreaterOrEqual(t, n, 1, "concurrency must be at least 1 even on single-core hosts")
	assert.LessOrEqual(t, n, 4, "concurrency must respect the hard cap")
}

func TestPoolRunsAllJobs(t *testing.T) {
	pool := batch.NewWorkerPool(3, testutil.DiscardHandler())
	specs := makeSpecs(20)

	results := pool.Run(context.Background(), specs, func(_ context.Context, spec batch.JobSpec) batch.JobResult {
		return successResult(spec)
	}, nil)

	require.Len(t, results, 20, "every submitted job must yield exactly one result")
	seen := make(map[int]bool)
	for _, res := range results {
		assert.False(t, seen[res.JobID], "job %d reported twice", res.JobID)
		seen[res.JobID] = true
	}
}

func TestPoolConcurrencyBound(t *testing.T) {
	const limit = 3
	pool := batch.NewWorkerPool(limit, testutil.DiscardHandler())

	var inFlight, peak int64
	execute := func(_ context.Context, spec batch.JobSpec) batch.JobResult {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return successResult(spec)
	}

	results := pool.Run(context.Background(), makeSpecs(12), execute, nil)
	require.Len(t, results, 12)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(limit),
		"no instant may have more than %d jobs executing", limit)
}

func TestPoolFailureIsolation(t *testing.T) {
	pool := batch.NewWorkerPool(2, testutil.DiscardHandler())

	execute := func(_ context.Context, spec batch.JobSpec) batch.JobResult {
		if spec.ID == 2 {
			panic("detector blew up")
		}
		return successResult(spec)
	}

	results := pool.Run(context.Background(), makeSpecs(5), execute, nil)
	require.Len(t, results, 5, "a panicking job must not abort its siblings")

	var failed, succeeded int
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Seconds(), 0.0, "duration must be recorded on every path")
		switch res.Status {
		case batch.StatusError:
			failed++
			assert.Equal(t, 2, res.JobID)
			assert.Contains(t, res.Err, "panic")
			assert.False(t, res.StartTime.IsZero(), "error results still carry timing")
		case batch.StatusSuccess:
			succeeded++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 4, succeeded)
}

func TestPoolOnCompleteSynchronousPerJob(t *testing.T) {
	pool := batch.NewWorkerPool(4, testutil.DiscardHandler())

	var mu sync.Mutex
	var notified []int
	onComplete := func(res batch.JobResult) {
		mu.Lock()
		notified = append(notified, res.JobID)
		mu.Unlock()
	}

	results := pool.Run(context.Background(), makeSpecs(10), func(_ context.Context, spec batch.JobSpec) batch.JobResult {
		return successResult(spec)
	}, onComplete)

	require.Len(t, results, 10)
	assert.Len(t, notified, 10, "onComplete must fire once per settled job")
}

func TestPoolStopsDispatchOnCancellation(t *testing.T) {
	pool := batch.NewWorkerPool(1, testutil.DiscardHandler())
	ctx, cancel := context.WithCancel(context.Background())

	var completed int64
	execute := func(_ context.Context, spec batch.JobSpec) batch.JobResult {
		time.Sleep(5 * time.Millisecond)
		return successResult(spec)
	}
	onComplete := func(batch.JobResult) {
		if atomic.AddInt64(&completed, 1) == 1 {
			cancel()
		}
	}

	results := pool.Run(ctx, makeSpecs(50), execute, onComplete)

	// The in-flight job finishes; dispatch stops shortly after the cancel.
	assert.GreaterOrEqual(t, len(results), 1)
	assert.Less(t, len(results), 50, "cancellation must stop new dispatches")
	for _, res := range results {
		assert.Equal(t, batch.StatusSuccess, res.Status, "already-dispatched jobs run to completion")
	}
}

func TestPoolEmptyJobs(t *testing.T) {
	pool := batch.NewWorkerPool(2, testutil.DiscardHandler())
	assert.Nil(t, pool.Run(context.Background(), nil, func(_ context.Context, spec batch.JobSpec) batch.JobResult {
		return successResult(spec)
	}, nil))
}

func TestPoolDefaultsConcurrencyWhenZero(t *testing.T) {
	pool := batch.NewWorkerPool(0, nil)
	assert.Equal(t, batch.DefaultConcurrency(), pool.Concurrency())
}
