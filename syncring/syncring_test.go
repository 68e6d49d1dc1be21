package syncring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/adred-codev/ringbus/syncring"
)

func TestNewRejectsZeroSize(t *testing.T) {
	_, _, err := syncring.New[int](0)
	require.ErrorIs(t, err, syncring.ErrInvalidSize)
}

func TestRecvBlocksUntilAnItemArrives(t *testing.T) {
	pub, sub, err := syncring.New[int](4)
	require.NoError(t, err)

	type outcome struct {
		res syncring.Result[int]
	}
	done := make(chan outcome, 1)
	go func() {
		done <- outcome{res: sub.Recv()}
	}()

	select {
	case <-done:
		t.Fatal("Recv returned before any item was published")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, pub.Broadcast(42))

	select {
	case o := <-done:
		require.Equal(t, syncring.StatusOK, o.res.Status)
		assert.Equal(t, 42, *o.res.Item)
	case <-time.After(time.Second):
		t.Fatal("Recv did not wake after Broadcast")
	}
}

// A producer publishing 1..14 into a capacity-10 ring, then closing, and a
// consumer that starts reading only once the producer is done: the first
// read fast-forwards past the four overrun items, the ten reads return
// 5..14 in order, and the eleventh read observes StatusClosed once the
// ring drains.
func TestBlockingProducerConsumerDrainsThenCloses(t *testing.T) {
	pub, sub, err := syncring.New[int](10)
	require.NoError(t, err)

	produced := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(produced)
		for i := 1; i <= 14; i++ {
			if err := pub.Broadcast(i); err != nil {
				return err
			}
		}
		pub.Close()
		return nil
	})

	var got []int
	g.Go(func() error {
		<-produced
		for {
			res := sub.Recv()
			if res.Status == syncring.StatusClosed {
				return nil
			}
			got = append(got, *res.Item)
		}
	})

	require.NoError(t, g.Wait())
	assert.Equal(t, []int{5, 6, 7, 8, 9, 10, 11, 12, 13, 14}, got)
}

func TestCloseWakesABlockedRecvWithNoMoreItems(t *testing.T) {
	pub, sub, err := syncring.New[int](4)
	require.NoError(t, err)

	done := make(chan syncring.Result[int], 1)
	go func() {
		done <- sub.Recv()
	}()

	time.Sleep(20 * time.Millisecond)
	pub.Close()

	select {
	case res := <-done:
		assert.Equal(t, syncring.StatusClosed, res.Status)
	case <-time.After(time.Second):
		t.Fatal("Recv did not wake after Close")
	}
}

func TestTryRecvNeverBlocks(t *testing.T) {
	_, sub, err := syncring.New[int](4)
	require.NoError(t, err)

	res := sub.TryRecv()
	assert.Equal(t, syncring.StatusEmpty, res.Status)
}

func TestCloneSharesTheSameWakeupsAsItsParent(t *testing.T) {
	pub, a, err := syncring.New[int](4)
	require.NoError(t, err)
	b := a.Clone()

	doneA := make(chan syncring.Result[int], 1)
	doneB := make(chan syncring.Result[int], 1)
	go func() { doneA <- a.Recv() }()
	go func() { doneB <- b.Recv() }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, pub.Broadcast(7))

	select {
	case res := <-doneA:
		assert.Equal(t, 7, *res.Item)
	case <-time.After(time.Second):
		t.Fatal("a.Recv did not wake")
	}
	select {
	case res := <-doneB:
		assert.Equal(t, 7, *res.Item)
	case <-time.After(time.Second):
		t.Fatal("b.Recv did not wake")
	}
}

func TestBroadcastReturnsErrNoSubscribersAfterLastSubscriberCloses(t *testing.T) {
	pub, sub, err := syncring.New[int](4)
	require.NoError(t, err)

	sub.Close()
	err = pub.Broadcast(1)
	require.ErrorIs(t, err, syncring.ErrNoSubscribers)
}
