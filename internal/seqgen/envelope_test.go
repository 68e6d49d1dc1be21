package seqgen_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adred-codev/ringbus/internal/seqgen"
)

func TestNextStartsAtOneAndIncrements(t *testing.T) {
	g := seqgen.NewGenerator()
	assert.Equal(t, int64(1), g.Next())
	assert.Equal(t, int64(2), g.Next())
	assert.Equal(t, int64(2), g.Current())
}

func TestNextIsSafeForConcurrentUse(t *testing.T) {
	g := seqgen.NewGenerator()
	const n = 200

	var wg sync.WaitGroup
	seen := make(chan int64, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			seen <- g.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for s := range seen {
		unique[s] = true
	}
	assert.Len(t, unique, n)
}

func TestWrapStampsSequenceSourceAndData(t *testing.T) {
	g := seqgen.NewGenerator()
	env := g.Wrap("synthetic", []byte(`{"price":1}`))

	assert.Equal(t, int64(1), env.Seq)
	assert.Equal(t, "synthetic", env.Source)
	assert.JSONEq(t, `{"price":1}`, string(env.Data))
	assert.NotZero(t, env.Timestamp)
}
