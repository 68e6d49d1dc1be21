package waker_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adred-codev/ringbus/internal/waker"
)

func TestSlotWakeInvokesRegisteredWaker(t *testing.T) {
	var s waker.Slot
	var woke bool
	s.Register(waker.Func(func() { woke = true }))
	s.Wake()
	assert.True(t, woke)
}

func TestSlotWakeIsANoOpWithNothingRegistered(t *testing.T) {
	var s waker.Slot
	assert.NotPanics(t, s.Wake)
}

func TestSlotWakeClearsTheSlotSoItOnlyFiresOnce(t *testing.T) {
	var s waker.Slot
	calls := 0
	s.Register(waker.Func(func() { calls++ }))
	s.Wake()
	s.Wake()
	assert.Equal(t, 1, calls)
}

func TestSlotRegisterReplacesThePreviousWaker(t *testing.T) {
	var s waker.Slot
	var first, second bool
	s.Register(waker.Func(func() { first = true }))
	s.Register(waker.Func(func() { second = true }))
	s.Wake()
	assert.False(t, first)
	assert.True(t, second)
}

func TestSlotClearDropsTheWakerWithoutInvokingIt(t *testing.T) {
	var s waker.Slot
	var woke bool
	s.Register(waker.Func(func() { woke = true }))
	s.Clear()
	s.Wake()
	assert.False(t, woke)
}

func TestRegistryWakeAllInvokesEveryRegisteredSlot(t *testing.T) {
	r := waker.NewRegistry()
	const n = 5

	var mu sync.Mutex
	woken := make(map[int]bool)

	slots := make([]*waker.Slot, n)
	for i := 0; i < n; i++ {
		i := i
		slots[i] = &waker.Slot{}
		slots[i].Register(waker.Func(func() {
			mu.Lock()
			woken[i] = true
			mu.Unlock()
		}))
		r.Add(slots[i])
	}

	r.WakeAll()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, woken, n)
}

func TestRegistryRemoveExcludesASlotFromWakeAll(t *testing.T) {
	r := waker.NewRegistry()

	var a, b waker.Slot
	var aWoke, bWoke bool
	a.Register(waker.Func(func() { aWoke = true }))
	b.Register(waker.Func(func() { bWoke = true }))

	r.Add(&a)
	r.Add(&b)
	r.Remove(&a)

	r.WakeAll()

	assert.False(t, aWoke)
	assert.True(t, bWoke)
}

func TestRegistryWakeAllOnEmptyRegistryDoesNothing(t *testing.T) {
	r := waker.NewRegistry()
	assert.NotPanics(t, r.WakeAll)
}

func TestRegistryAddAndRemoveAreSafeConcurrently(t *testing.T) {
	r := waker.NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := &waker.Slot{}
			s.Register(waker.Func(func() {}))
			r.Add(s)
			r.WakeAll()
			r.Remove(s)
		}()
	}

	wg.Wait()
	assert.NotPanics(t, r.WakeAll)
}
