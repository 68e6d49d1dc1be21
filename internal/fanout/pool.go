// Package fanout runs a fixed pool of worker goroutines that drain ring
// subscribers concurrently, so a demo binary juggling many subscribers
// (one per simulated downstream client, say) doesn't spin up one goroutine
// per subscriber.
package fanout

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Job is a unit of work submitted to the pool: typically a closure that
// calls Recv/PollNext on one subscriber and handles the result.
type Job func()

// Pool manages a fixed number of worker goroutines pulling Jobs off a
// buffered queue. If the queue is full, Submit drops the job instead of
// blocking the caller or growing the goroutine count without bound.
type Pool struct {
	workerCount int
	queue       chan Job
	wg          sync.WaitGroup
	dropped     atomic.Int64
	logger      zerolog.Logger
}

// New constructs a pool with workerCount workers and a queue of the given
// capacity. Both must be positive.
func New(workerCount, queueSize int, logger zerolog.Logger) *Pool {
	return &Pool{
		workerCount: workerCount,
		queue:       make(chan Job, queueSize),
		logger:      logger,
	}
}

// Start launches the worker goroutines. They run until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(job)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Interface("panic_value", r).
				Str("stack", string(debug.Stack())).
				Msg("fanout worker recovered from panic")
		}
	}()
	job()
}

// Submit enqueues job for execution by some worker. If the queue is full,
// the job is dropped and the drop counter is incremented rather than
// blocking the caller.
func (p *Pool) Submit(job Job) {
	select {
	case p.queue <- job:
	default:
		p.dropped.Add(1)
	}
}

// Stop closes the queue and waits for all workers to finish their current
// job. Safe to call once; further Submit calls after Stop will panic.
func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
}

// Dropped returns the number of jobs dropped so far because the queue was
// full.
func (p *Pool) Dropped() int64 { return p.dropped.Load() }

// QueueDepth returns the number of jobs currently queued.
func (p *Pool) QueueDepth() int { return len(p.queue) }

// QueueCapacity returns the queue's fixed capacity.
func (p *Pool) QueueCapacity() int { return cap(p.queue) }
