// Package syncring wraps the bare ring (package ring) with thread-parking
// wakeups: the Publisher never blocks, but a Subscriber's Recv may park the
// calling goroutine until new data arrives or the channel closes.
package syncring

import (
	"github.com/adred-codev/ringbus/internal/park"
	"github.com/adred-codev/ringbus/ring"
)

// Re-exported so callers of this package don't need to also import ring
// for Status/Result/error values.
type (
	Status    = ring.Status
	Result[T any] = ring.Result[T]
)

const (
	StatusOK     = ring.StatusOK
	StatusEmpty  = ring.StatusEmpty
	StatusClosed = ring.StatusClosed
)

var (
	ErrInvalidSize   = ring.ErrInvalidSize
	ErrNoSubscribers = ring.ErrNoSubscribers
)

// Publisher broadcasts items and wakes parked subscribers on success.
type Publisher[T any] struct {
	inner   *ring.Publisher[T]
	waiters *park.Set
}

// Subscriber blocks on Recv when the ring is empty, parking on the shared
// waiter set until a broadcast or close wakes it.
type Subscriber[T any] struct {
	inner   *ring.Subscriber[T]
	waiters *park.Set
}

// New constructs a sync channel pair sharing one ring of the given
// capacity. size must be positive.
func New[T any](size int) (*Publisher[T], *Subscriber[T], error) {
	p, s, err := ring.New[T](size)
	if err != nil {
		return nil, nil, err
	}
	waiters := park.NewSet()
	return &Publisher[T]{inner: p, waiters: waiters},
		&Subscriber[T]{inner: s, waiters: waiters},
		nil
}

// Broadcast publishes item and, on success, wakes every parked subscriber:
// this is a broadcast channel, not a work queue, so every independently
// parked subscriber must learn about the new item, not just one of them.
// Waking is idempotent against subscribers that are already awake — a
// Broadcast with nobody parked only advances the waiter set's generation,
// so a Recv that took its token before this call returns instead of
// parking.
func (p *Publisher[T]) Broadcast(item T) error {
	if err := p.inner.Broadcast(item); err != nil {
		return err
	}
	p.waiters.Broadcast()
	return nil
}

// Close marks the channel closed and wakes every parked subscriber so none
// of them blocks forever.
func (p *Publisher[T]) Close() {
	p.inner.Close()
	p.waiters.Broadcast()
}

// Cap returns the ring's fixed capacity.
func (p *Publisher[T]) Cap() int { return p.inner.Cap() }

// Wi returns the current write cursor.
func (p *Publisher[T]) Wi() int64 { return p.inner.Wi() }

// IsClosed reports whether Close has been called.
func (p *Publisher[T]) IsClosed() bool { return p.inner.IsClosed() }

// SubscriberCount returns the number of live subscribers.
func (p *Publisher[T]) SubscriberCount() int64 { return p.inner.SubscriberCount() }

// Recv blocks until an item is available or the channel closes. The
// generation token is taken before each ring check, so a Broadcast that
// lands between the check and the park call still wakes this call instead
// of being missed.
func (s *Subscriber[T]) Recv() Result[T] {
	for {
		token := s.waiters.Prepare()
		res := s.inner.Recv()
		if res.Status != ring.StatusEmpty {
			return res
		}
		s.waiters.WaitSince(token)
	}
}

// TryRecv attempts a single non-blocking receive.
func (s *Subscriber[T]) TryRecv() Result[T] {
	return s.inner.Recv()
}

// Clone produces an independent subscriber starting at this subscriber's
// current position, sharing the same waiter set.
func (s *Subscriber[T]) Clone() *Subscriber[T] {
	return &Subscriber[T]{inner: s.inner.Clone(), waiters: s.waiters}
}

// Close drops this subscriber. The publisher never parks in this design
// (Broadcast never blocks on capacity), so there is nothing to wake here.
func (s *Subscriber[T]) Close() {
	s.inner.Close()
}

// Cap returns the ring's fixed capacity.
func (s *Subscriber[T]) Cap() int { return s.inner.Cap() }

// IsClosed reports whether the publisher has closed the channel.
func (s *Subscriber[T]) IsClosed() bool { return s.inner.IsClosed() }

// Lag returns a best-effort snapshot of how far behind the publisher this
// subscriber currently is.
func (s *Subscriber[T]) Lag() int64 { return s.inner.Lag() }
