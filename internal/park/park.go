// Package park implements the thread-parking waiter set the sync wrapper
// (package syncring) uses to let a subscriber block on an empty channel
// without spinning. spec.md treats this "counting semaphore" as an
// external collaborator; this package is that collaborator, built on
// sync.Cond the way moby/moby's pkg/progressreader.Broadcaster wakes
// blocked observers.
package park

import "sync"

// Set is a small wake-one/wake-all waiter registry. Any number of
// goroutines may wait concurrently; Signal wakes at most one of them,
// Broadcast wakes all of them.
//
// Prepare/WaitSince together solve the classic check-then-park race: a
// caller takes a token with Prepare before re-checking its own condition
// (e.g. the ring for new data), then calls WaitSince with that token. If a
// Signal or Broadcast happens anywhere after Prepare — including between
// the condition check and the WaitSince call — WaitSince returns
// immediately instead of parking, so no wakeup is lost to the race.
type Set struct {
	mu   sync.Mutex
	cond *sync.Cond
	gen  uint64
}

// NewSet returns a ready-to-use waiter set.
func NewSet() *Set {
	s := &Set{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Prepare returns a token capturing the current generation.
func (s *Set) Prepare() uint64 {
	s.mu.Lock()
	g := s.gen
	s.mu.Unlock()
	return g
}

// WaitSince parks the caller until the generation advances past token.
func (s *Set) WaitSince(token uint64) {
	s.mu.Lock()
	for s.gen == token {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// Wait parks the caller until the next Signal or Broadcast call. Equivalent
// to WaitSince(Prepare()); provided for callers with no condition of their
// own to race against. Prefer Prepare/WaitSince when the caller checks a
// condition (like the ring) between deciding to wait and actually parking.
func (s *Set) Wait() {
	s.WaitSince(s.Prepare())
}

// Signal wakes at most one parked waiter.
func (s *Set) Signal() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
	s.cond.Signal()
}

// Broadcast wakes every parked waiter. Used on channel close, where every
// subscriber currently parked on an empty ring must be released.
func (s *Set) Broadcast() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
	s.cond.Broadcast()
}
