// Package waker implements the task-wakeup registry the async wrapper
// (package asyncring) uses to notify cooperative-concurrency callers that
// new data may be available.
package waker

import "sync"

// Waker is anything that can be told "poll again". It mirrors the handle a
// cooperative scheduler hands a suspended task. Wake must be safe to call
// concurrently and more than once.
type Waker interface {
	Wake()
}

// Func adapts a plain function to the Waker interface.
type Func func()

// Wake calls f.
func (f Func) Wake() { f() }

// Slot holds at most one registered Waker. Registering replaces whatever
// was previously stored; waking clears the slot and invokes what was
// stored, so a task that is polled and returns pending always re-arms on
// its next poll.
type Slot struct {
	mu sync.Mutex
	w  Waker
}

// Register stores w, replacing any previously registered waker.
func (s *Slot) Register(w Waker) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

// Wake invokes and clears the registered waker, if any. A Wake call that
// races with a concurrent Register wakes either the old waker (a spurious
// wake: that task re-polls) or the new one. A Wake that lands before
// Register does not reach the new waker, so a caller re-checks its own
// condition after Register (asyncring's PollNext does) to avoid losing it.
func (s *Slot) Wake() {
	s.mu.Lock()
	w := s.w
	s.w = nil
	s.mu.Unlock()
	if w != nil {
		w.Wake()
	}
}

// Clear drops any registered waker without invoking it. Used when a poll
// is cancelled: the caller must stop listening without triggering a stale
// wake on someone else's behalf.
func (s *Slot) Clear() {
	s.mu.Lock()
	s.w = nil
	s.mu.Unlock()
}

// Registry is the publisher-side collection of every live subscriber's
// waker Slot, letting a Publisher wake every subscriber parked on an empty
// ring in one call.
type Registry struct {
	mu    sync.Mutex
	slots map[*Slot]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[*Slot]struct{})}
}

// Add registers a subscriber's waker slot.
func (r *Registry) Add(s *Slot) {
	r.mu.Lock()
	r.slots[s] = struct{}{}
	r.mu.Unlock()
}

// Remove drops a subscriber's waker slot, typically on subscriber Close.
func (r *Registry) Remove(s *Slot) {
	r.mu.Lock()
	delete(r.slots, s)
	r.mu.Unlock()
}

// WakeAll invokes Wake on every currently registered slot. Waking every
// subscriber on each publish is simpler and safer than waking just one:
// wake-one risks a missed wakeup when a subscriber registers concurrently
// with a publish.
func (r *Registry) WakeAll() {
	r.mu.Lock()
	slots := make([]*Slot, 0, len(r.slots))
	for s := range r.slots {
		slots = append(slots, s)
	}
	r.mu.Unlock()

	for _, s := range slots {
		s.Wake()
	}
}
