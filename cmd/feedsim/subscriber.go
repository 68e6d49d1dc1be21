package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/adred-codev/ringbus/asyncring"
	"github.com/adred-codev/ringbus/internal/fanout"
	"github.com/adred-codev/ringbus/internal/seqgen"
	"github.com/adred-codev/ringbus/ring"
	"github.com/adred-codev/ringbus/ringmetrics"
	"github.com/adred-codev/ringbus/syncring"
)

// runBareSubscriber drives one bare-layer subscriber to completion using
// pool for polling. Recv never blocks, so a subscriber with nothing new has
// to be rescheduled rather than parked; this resubmits itself to pool after
// a short backoff on StatusEmpty and immediately on StatusOK, stopping for
// good on StatusClosed or ctx cancellation.
func runBareSubscriber(ctx context.Context, pool *fanout.Pool, id string, sub *ring.Subscriber[seqgen.Envelope], logger zerolog.Logger, m *ringmetrics.Metrics, received *atomic.Int64) {
	var poll fanout.Job
	poll = func() {
		if ctx.Err() != nil {
			return
		}
		res := sub.Recv()
		switch res.Status {
		case ring.StatusOK:
			m.ObserveSkipped(res.Skipped)
			received.Add(1)
			pool.Submit(poll)
		case ring.StatusEmpty:
			time.AfterFunc(time.Millisecond, func() {
				if ctx.Err() == nil {
					pool.Submit(poll)
				}
			})
		case ring.StatusClosed:
			logger.Debug().Str("subscriber", id).Msg("bare subscriber drained and closed")
		}
	}
	pool.Submit(poll)
}

// runSyncSubscriber drives one sync-layer subscriber in its own goroutine.
// Recv blocks until data arrives or the publisher closes, matching the
// sync wrapper's one-thread-per-waiter model (spec §5).
func runSyncSubscriber(ctx context.Context, id string, sub *syncring.Subscriber[seqgen.Envelope], logger zerolog.Logger, m *ringmetrics.Metrics, received *atomic.Int64) {
	go func() {
		for {
			res := sub.Recv()
			switch res.Status {
			case syncring.StatusOK:
				m.ObserveSkipped(res.Skipped)
				received.Add(1)
			case syncring.StatusClosed:
				logger.Debug().Str("subscriber", id).Msg("sync subscriber drained and closed")
				return
			}
			// Recv never returns StatusEmpty itself; it parks internally
			// until woken by a Broadcast or Close.
		}
	}()
}

// runAsyncSubscriber drives one async-layer subscriber in its own
// goroutine, using a buffered channel as the wakeup signal a cooperative
// scheduler would otherwise supply.
func runAsyncSubscriber(ctx context.Context, id string, sub *asyncring.Subscriber[seqgen.Envelope], logger zerolog.Logger, m *ringmetrics.Metrics, received *atomic.Int64) {
	go func() {
		wake := make(chan struct{}, 1)
		w := asyncring.WakerFunc(func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		})

		for {
			res, status := sub.PollNext(w)
			switch status {
			case asyncring.PollReady:
				m.ObserveSkipped(res.Skipped)
				received.Add(1)
			case asyncring.PollClosed:
				logger.Debug().Str("subscriber", id).Msg("async subscriber drained and closed")
				return
			case asyncring.PollPending:
				select {
				case <-wake:
				case <-ctx.Done():
					sub.CancelPoll()
					return
				}
			}
		}
	}()
}
