package fanout_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adred-codev/ringbus/internal/fanout"
)

func newPool(t *testing.T, workers, queueSize int) (*fanout.Pool, context.CancelFunc) {
	t.Helper()
	p := fanout.New(workers, queueSize, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	t.Cleanup(func() {
		cancel()
		p.Stop()
	})
	return p, cancel
}

func TestSubmitRunsJobsAcrossWorkers(t *testing.T) {
	p, _ := newPool(t, 4, 16)

	var done atomic.Int64
	var wg sync.WaitGroup
	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		p.Submit(func() {
			done.Add(1)
			wg.Done()
		})
	}

	waitOrTimeout(t, &wg, time.Second)
	assert.Equal(t, int64(n), done.Load())
}

func TestSubmitDropsJobsWhenQueueIsFull(t *testing.T) {
	p := fanout.New(1, 1, zerolog.Nop())
	// Don't start workers: nothing drains the queue, so it fills
	// deterministically.
	p.Submit(func() {})
	p.Submit(func() {})
	p.Submit(func() {})

	assert.Equal(t, int64(2), p.Dropped())
	assert.Equal(t, 1, p.QueueDepth())
	assert.Equal(t, 1, p.QueueCapacity())
}

func TestWorkerRecoversFromPanicAndKeepsRunning(t *testing.T) {
	p, _ := newPool(t, 1, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	require.NotPanics(t, func() {
		p.Submit(func() { panic("boom") })
	})

	var ranAfterPanic atomic.Bool
	p.Submit(func() {
		ranAfterPanic.Store(true)
		wg.Done()
	})

	waitOrTimeout(t, &wg, time.Second)
	assert.True(t, ranAfterPanic.Load())
}

func TestStopWaitsForInFlightJobs(t *testing.T) {
	p := fanout.New(2, 4, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	defer cancel()

	var ran atomic.Bool
	p.Submit(func() {
		time.Sleep(20 * time.Millisecond)
		ran.Store(true)
	})

	p.Stop()
	assert.True(t, ran.Load())
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for jobs to complete")
	}
}
