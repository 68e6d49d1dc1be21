// Package channel gathers the three channel factories: bare, synchronous,
// and asynchronous. Each builds a (Publisher, Subscriber) pair bound to one
// shared ring; additional subscribers come from cloning the returned
// Subscriber, never from calling a factory again.
package channel

import (
	"github.com/adred-codev/ringbus/asyncring"
	"github.com/adred-codev/ringbus/ring"
	"github.com/adred-codev/ringbus/syncring"
)

// Bare constructs a channel pair with no wakeup layer at all: Subscriber
// receives never block and never yield, reporting StatusEmpty immediately
// when there's nothing new.
func Bare[T any](size int) (*ring.Publisher[T], *ring.Subscriber[T], error) {
	return ring.New[T](size)
}

// Sync constructs a channel pair whose Subscriber.Recv may park the calling
// goroutine until new data arrives, via thread-parking wakeups.
func Sync[T any](size int) (*syncring.Publisher[T], *syncring.Subscriber[T], error) {
	return syncring.New[T](size)
}

// Async constructs a channel pair whose Subscriber.PollNext may return a
// pending status and register a task wakeup notifier instead of blocking a
// thread, for cooperative-concurrency callers.
func Async[T any](size int) (*asyncring.Publisher[T], *asyncring.Subscriber[T], error) {
	return asyncring.New[T](size)
}
