package park_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adred-codev/ringbus/internal/park"
)

func TestSignalWakesAParkedWaiter(t *testing.T) {
	s := park.NewSet()
	done := make(chan struct{})

	go func() {
		s.Wait()
		close(done)
	}()

	// Give the waiter a moment to enter Wait before signaling. The test
	// relies on this delay: Wait only returns for a Signal issued after it
	// was entered, so a signal sent earlier would not unblock it.
	time.Sleep(10 * time.Millisecond)
	s.Signal()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Signal")
	}
}

func TestBroadcastWakesAllParkedWaiters(t *testing.T) {
	s := park.NewSet()
	const n = 8

	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			s.Wait()
			done <- struct{}{}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	s.Broadcast()

	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("only %d/%d waiters woke", i, n)
		}
	}
}

func TestWaitSinceDoesNotMissASignalTakenBeforeTheCheck(t *testing.T) {
	s := park.NewSet()

	// Take the token first, exactly like a caller would before re-checking
	// its own condition, then signal before ever calling WaitSince. The
	// token already reflects the signal, so WaitSince must return at once
	// instead of parking for a signal that already happened.
	token := s.Prepare()
	s.Signal()

	done := make(chan struct{})
	go func() {
		s.WaitSince(token)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitSince blocked despite a signal after the token was taken")
	}
}

func TestPlainWaitBlocksUntilANewSignal(t *testing.T) {
	s := park.NewSet()
	s.Signal() // no one parked yet; this signal has no one to wake

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned without a Signal issued after it was entered")
	case <-time.After(50 * time.Millisecond):
	}

	s.Signal()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after a fresh Signal")
	}
}

func TestSignalAndBroadcastWithNoWaitersDoNotPanic(t *testing.T) {
	s := park.NewSet()

	// No one parked: Signal/Broadcast must not panic or block.
	s.Signal()
	s.Broadcast()

	assert.NotPanics(t, func() {
		s.Signal()
	})
}
