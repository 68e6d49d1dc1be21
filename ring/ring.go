// Package ring implements the bare, lock-free, bounded broadcast ring: one
// Publisher, an arbitrary and dynamic fan-out of Subscribers, constant
// memory, and a non-blocking publish path. A slow Subscriber never slows
// the Publisher down — it silently skips forward to the oldest item the
// ring still retains.
//
// The ring never copies payloads between subscribers. Each slot holds a
// pointer to a heap-allocated item; Go's garbage collector supplies the
// shared-ownership lifetime a manual reference count would otherwise need
// to reimplement (see this repository's DESIGN.md for the rationale).
//
// Publisher and Subscriber are the only exported types a caller needs:
// neither is safe for concurrent use by more than one goroutine at a time
// (a Subscriber may be hopped between goroutines only with external
// synchronization), but a Publisher and any number of Subscribers sharing
// the same ring run fully concurrently with each other, lock-free.
package ring

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Errors surfaced at the library boundary. An empty ring or a closed
// channel are not failures in this sense and are reported through Status
// instead.
var (
	// ErrInvalidSize is returned by New when size is not positive.
	ErrInvalidSize = errors.New("ring: size must be positive")

	// ErrNoSubscribers is returned by Publisher.Broadcast when the
	// subscriber count has dropped to zero.
	ErrNoSubscribers = errors.New("ring: no subscribers")
)

// Status reports the outcome of a receive attempt.
type Status int

const (
	// StatusOK means Recv returned an item.
	StatusOK Status = iota
	// StatusEmpty means there is no new item yet and the channel is open.
	StatusEmpty
	// StatusClosed means there is no new item and the publisher has closed.
	StatusClosed
)

// Result is the outcome of a single Recv/TryRecv call.
type Result[T any] struct {
	// Item is the received payload. Non-nil only when Status is StatusOK.
	Item *T
	// Skipped counts indices skipped due to overrun to reach Item. Zero
	// when the subscriber was keeping pace with the publisher.
	Skipped uint64
	Status  Status
}

// core is the atomic state shared by a Publisher and every Subscriber
// (including clones) bound to the same channel. It is the single piece of
// lock-free machinery in this package; everything else in ring, syncring,
// and asyncring is built by composing around it.
type core[T any] struct {
	slots []atomic.Pointer[T]
	size  uint64

	wi atomic.Uint64 // write cursor; single-writer (the Publisher)

	subscribers atomic.Int64
	closed      atomic.Bool
}

// New allocates a ring of the given capacity and returns the sole Publisher
// and its first Subscriber. size must be positive.
func New[T any](size int) (*Publisher[T], *Subscriber[T], error) {
	if size <= 0 {
		return nil, nil, ErrInvalidSize
	}
	c := &core[T]{
		slots: make([]atomic.Pointer[T], size),
		size:  uint64(size),
	}
	c.subscribers.Store(1)

	pub := &Publisher[T]{core: c}
	sub := &Subscriber[T]{core: c}
	return pub, sub, nil
}

// Publisher is the sole producer bound to a ring. It is not cloneable.
type Publisher[T any] struct {
	core      *core[T]
	closeOnce sync.Once
}

// Broadcast stores item in the next slot and advances the write cursor,
// replacing whatever the slot previously held. Evicting a slot only drops
// the ring's own reference to the old payload; any subscriber still holding
// it keeps it alive until it lets go, courtesy of the garbage collector.
//
// Broadcast never blocks and never waits for a subscriber. It only fails
// with ErrNoSubscribers once the last subscriber has dropped.
func (p *Publisher[T]) Broadcast(item T) error {
	if p.core.subscribers.Load() == 0 {
		return ErrNoSubscribers
	}

	wi := p.core.wi.Load()
	idx := wi % p.core.size

	v := new(T)
	*v = item
	p.core.slots[idx].Store(v) // release: publishes the payload
	p.core.wi.Store(wi + 1)    // release: publishes the new cursor

	return nil
}

// Close marks the channel closed. Safe to call more than once; only the
// first call has effect. Subscribers continue to drain retained items
// until their read cursor catches up to the write cursor, then observe
// StatusClosed.
func (p *Publisher[T]) Close() {
	p.closeOnce.Do(func() {
		p.core.closed.Store(true)
	})
}

// Cap returns the ring's fixed capacity.
func (p *Publisher[T]) Cap() int { return int(p.core.size) }

// Wi returns the current write cursor: the monotonically increasing count
// of items this publisher has broadcast so far. Intended for observability
// (e.g. ringmetrics), not control flow.
func (p *Publisher[T]) Wi() int64 { return int64(p.core.wi.Load()) }

// IsClosed reports whether Close has been called.
func (p *Publisher[T]) IsClosed() bool { return p.core.closed.Load() }

// SubscriberCount returns the number of live subscribers. Because
// subscribers may clone or close concurrently with this call, the value is
// a snapshot, not a guarantee about the next Broadcast.
func (p *Publisher[T]) SubscriberCount() int64 { return p.core.subscribers.Load() }

// Subscriber is a consumer bound to a ring, positioned by its own
// monotonically increasing read cursor. A Subscriber is not itself
// sharable across goroutines without external synchronization; use Clone
// to hand an independent subscriber to another goroutine.
type Subscriber[T any] struct {
	core      *core[T]
	ri        atomic.Uint64
	closeOnce sync.Once
}

// Recv attempts to read the next item. It never blocks:
//   - StatusOK: an item was available (or the subscriber had fallen more
//     than Cap() items behind and silently fast-forwarded to the oldest
//     still-retained item; Result.Skipped reports how many were lost).
//   - StatusEmpty: no new item yet, channel still open.
//   - StatusClosed: no new item, and the publisher has closed.
func (s *Subscriber[T]) Recv() Result[T] {
	wi := s.core.wi.Load() // acquire: observes the cursor
	cur := s.ri.Load()

	if cur == wi {
		if s.core.closed.Load() {
			return Result[T]{Status: StatusClosed}
		}
		return Result[T]{Status: StatusEmpty}
	}

	var oldest uint64
	if wi > s.core.size {
		oldest = wi - s.core.size
	}

	var skipped uint64
	if cur < oldest {
		skipped = oldest - cur
		cur = oldest
	}

	idx := cur % s.core.size
	v := s.core.slots[idx].Load() // acquire: observes the payload above
	s.ri.Store(cur + 1)

	return Result[T]{Item: v, Skipped: skipped, Status: StatusOK}
}

// TryRecv is an alias for Recv. The bare layer's Recv is already
// non-blocking; TryRecv exists so callers moving between the bare and sync
// layers (where TryRecv and the blocking Recv differ) don't need to
// special-case the bare layer.
func (s *Subscriber[T]) TryRecv() Result[T] {
	return s.Recv()
}

// Clone produces a new, independent Subscriber bound to the same ring,
// starting at this subscriber's current read position: it does not replay
// items already consumed by the cloner.
func (s *Subscriber[T]) Clone() *Subscriber[T] {
	s.core.subscribers.Add(1)
	clone := &Subscriber[T]{core: s.core}
	clone.ri.Store(s.ri.Load())
	return clone
}

// Close drops this subscriber, decrementing the ring's live subscriber
// count. Safe to call more than once. If this was the last live
// subscriber, the next Publisher.Broadcast returns ErrNoSubscribers.
func (s *Subscriber[T]) Close() {
	s.closeOnce.Do(func() {
		s.core.subscribers.Add(-1)
	})
}

// Cap returns the ring's fixed capacity.
func (s *Subscriber[T]) Cap() int { return int(s.core.size) }

// IsClosed reports whether the publisher has closed the channel, without
// attempting a receive.
func (s *Subscriber[T]) IsClosed() bool { return s.core.closed.Load() }

// Lag returns a best-effort snapshot of how many items the publisher is
// currently ahead of this subscriber (wi - ri). It races with concurrent
// Broadcast/Recv calls and is intended for observability, not control flow.
func (s *Subscriber[T]) Lag() int64 {
	return int64(s.core.wi.Load()) - int64(s.ri.Load())
}
