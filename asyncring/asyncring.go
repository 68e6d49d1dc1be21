// Package asyncring wraps the bare ring (package ring) with task-wakeup
// notifications for cooperative-concurrency callers: instead of parking an
// OS thread, a Subscriber whose ring is empty registers the caller's Waker
// and returns PollPending, handing control back to whatever scheduler is
// driving the caller.
package asyncring

import (
	"github.com/adred-codev/ringbus/internal/waker"
	"github.com/adred-codev/ringbus/ring"
)

// Re-exported so callers of this package don't need to also import ring.
type Result[T any] = ring.Result[T]

var (
	ErrInvalidSize   = ring.ErrInvalidSize
	ErrNoSubscribers = ring.ErrNoSubscribers
)

// Waker and WakerFunc are re-exported from the internal waker registry so
// callers never need to import an internal package.
type (
	Waker     = waker.Waker
	WakerFunc = waker.Func
)

// PollStatus reports the outcome of a PollNext call.
type PollStatus int

const (
	// PollReady means Result holds a valid item.
	PollReady PollStatus = iota
	// PollPending means no item is available yet; the supplied Waker has
	// been registered and will be woken when one might be.
	PollPending
	// PollClosed means the ring is drained and the publisher has closed.
	PollClosed
)

// Publisher publishes items and is always ready: it never waits on
// subscriber capacity.
type Publisher[T any] struct {
	inner *ring.Publisher[T]
	reg   *waker.Registry
}

// Subscriber polls for items, registering a Waker when none are available.
type Subscriber[T any] struct {
	inner *ring.Subscriber[T]
	reg   *waker.Registry
	slot  waker.Slot
}

// New constructs an async channel pair sharing one ring of the given
// capacity. size must be positive.
func New[T any](size int) (*Publisher[T], *Subscriber[T], error) {
	p, s, err := ring.New[T](size)
	if err != nil {
		return nil, nil, err
	}

	reg := waker.NewRegistry()
	sub := &Subscriber[T]{inner: s, reg: reg}
	reg.Add(&sub.slot)

	return &Publisher[T]{inner: p, reg: reg}, sub, nil
}

// Send publishes item. It always returns immediately: ready(Ok) on
// success, ready(Err) if there are no subscribers left. On success, every
// subscriber currently parked in PollNext is woken.
func (p *Publisher[T]) Send(item T) error {
	if err := p.inner.Broadcast(item); err != nil {
		return err
	}
	p.reg.WakeAll()
	return nil
}

// Close marks the channel closed and wakes every registered subscriber so
// each one observes PollClosed instead of waiting forever.
func (p *Publisher[T]) Close() {
	p.inner.Close()
	p.reg.WakeAll()
}

// Cap returns the ring's fixed capacity.
func (p *Publisher[T]) Cap() int { return p.inner.Cap() }

// Wi returns the current write cursor.
func (p *Publisher[T]) Wi() int64 { return p.inner.Wi() }

// IsClosed reports whether Close has been called.
func (p *Publisher[T]) IsClosed() bool { return p.inner.IsClosed() }

// SubscriberCount returns the number of live subscribers.
func (p *Publisher[T]) SubscriberCount() int64 { return p.inner.SubscriberCount() }

// PollNext attempts a receive. On StatusOK it returns (item, PollReady). On
// StatusClosed it returns (zero, PollClosed). On StatusEmpty it registers w
// and returns (zero, PollPending); w.Wake() will fire after a subsequent
// Send or Close, and the caller must call PollNext again (with a fresh or
// the same Waker — re-arming is automatic on the next Empty result).
func (s *Subscriber[T]) PollNext(w Waker) (Result[T], PollStatus) {
	res := s.inner.Recv()
	switch res.Status {
	case ring.StatusOK:
		return res, PollReady
	case ring.StatusClosed:
		return res, PollClosed
	default:
		s.slot.Register(w)
		// Re-check after registering: a Send that landed between the Recv
		// above and Register woke nobody, so its item must be seen here.
		res = s.inner.Recv()
		switch res.Status {
		case ring.StatusOK:
			s.slot.Clear()
			return res, PollReady
		case ring.StatusClosed:
			s.slot.Clear()
			return res, PollClosed
		}
		return Result[T]{}, PollPending
	}
}

// CancelPoll clears any waker registered by a prior PollNext call without
// invoking it. Call this when the calling task is dropped mid-poll: a
// stale wake after cancellation is harmless on its own, but CancelPoll
// avoids leaking a reference to a task that no longer exists.
func (s *Subscriber[T]) CancelPoll() {
	s.slot.Clear()
}

// Clone produces an independent subscriber starting at this subscriber's
// current position, registered with the same publisher-side registry.
func (s *Subscriber[T]) Clone() *Subscriber[T] {
	clone := &Subscriber[T]{inner: s.inner.Clone(), reg: s.reg}
	s.reg.Add(&clone.slot)
	return clone
}

// Close drops this subscriber and removes its waker slot from the
// registry.
func (s *Subscriber[T]) Close() {
	s.reg.Remove(&s.slot)
	s.inner.Close()
}

// Cap returns the ring's fixed capacity.
func (s *Subscriber[T]) Cap() int { return s.inner.Cap() }

// IsClosed reports whether the publisher has closed the channel.
func (s *Subscriber[T]) IsClosed() bool { return s.inner.IsClosed() }

// Lag returns a best-effort snapshot of how far behind the publisher this
// subscriber currently is.
func (s *Subscriber[T]) Lag() int64 { return s.inner.Lag() }
