package channel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adred-codev/ringbus/asyncring"
	"github.com/adred-codev/ringbus/channel"
	"github.com/adred-codev/ringbus/ring"
)

func TestBareRoundTrips(t *testing.T) {
	pub, sub, err := channel.Bare[string](4)
	require.NoError(t, err)

	require.NoError(t, pub.Broadcast("hello"))
	res := sub.Recv()
	require.Equal(t, ring.StatusOK, res.Status)
	assert.Equal(t, "hello", *res.Item)
}

func TestSyncRoundTrips(t *testing.T) {
	pub, sub, err := channel.Sync[string](4)
	require.NoError(t, err)

	require.NoError(t, pub.Broadcast("hello"))
	res := sub.Recv()
	assert.Equal(t, "hello", *res.Item)
}

func TestAsyncRoundTrips(t *testing.T) {
	pub, sub, err := channel.Async[string](4)
	require.NoError(t, err)

	require.NoError(t, pub.Send("hello"))
	res, status := sub.PollNext(asyncring.WakerFunc(func() {}))
	require.Equal(t, asyncring.PollReady, status)
	assert.Equal(t, "hello", *res.Item)
}

func TestFactoriesRejectNonPositiveSize(t *testing.T) {
	_, _, err := channel.Bare[int](0)
	assert.Error(t, err)

	_, _, err = channel.Sync[int](0)
	assert.Error(t, err)

	_, _, err = channel.Async[int](0)
	assert.Error(t, err)
}
