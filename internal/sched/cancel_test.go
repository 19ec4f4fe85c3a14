package sched

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariant 6: for every cancel token, after any call to cancel() from
// any thread, is_cancelled() returns true on all threads within a
// finite number of acquire-load steps.
func TestCancelToken_CancelVisibleAcrossGoroutines(t *testing.T) {
	tok := NewCancelToken()
	const readers = 50
	var wg sync.WaitGroup
	results := make([]bool, readers)

	start := make(chan struct{})
	for i := 0; i < readers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for !tok.IsCancelled() {
				// spin until visible
			}
			results[i] = tok.IsCancelled()
		}()
	}

	tok.Cancel()
	close(start)
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "reader %d never observed cancellation", i)
	}
}

func TestCancelToken_CancelIdempotent(t *testing.T) {
	tok := NewCancelToken()
	var fired atomic.Int32
	tok.OnCancel(func(CancelReason) { fired.Add(1) })

	tok.Cancel()
	tok.Cancel()
	tok.CancelWithReason(CancelTimeout)

	assert.EqualValues(t, 1, fired.Load(), "callback should fire exactly once")
	assert.Equal(t, CancelExplicit, tok.Reason(), "first cancel wins")
}

func TestCancelToken_OnCancelInvokedImmediatelyIfAlreadyCancelled(t *testing.T) {
	tok := NewCancelToken()
	tok.Cancel()

	var fired atomic.Bool
	tok.OnCancel(func(CancelReason) { fired.Store(true) })
	assert.True(t, fired.Load(), "expected immediate invocation for an already-cancelled token")
}

// S7: cancel a parent token with two children and one registered
// callback per child -> both children observe cancellation; both
// callbacks fire exactly once.
func TestCancelToken_S7ParentCancelsChildren(t *testing.T) {
	parent := NewCancelToken()
	child1 := parent.Child()
	child2 := parent.Child()

	var fired1, fired2 atomic.Int32
	child1.OnCancel(func(CancelReason) { fired1.Add(1) })
	child2.OnCancel(func(CancelReason) { fired2.Add(1) })

	parent.Cancel()

	require.True(t, child1.IsCancelled(), "expected child1 to observe parent cancellation")
	require.True(t, child2.IsCancelled(), "expected child2 to observe parent cancellation")
	assert.EqualValues(t, 1, fired1.Load())
	assert.EqualValues(t, 1, fired2.Load())
	assert.Equal(t, CancelParent, child1.Reason())
	assert.Equal(t, CancelParent, child2.Reason())
}

func TestCancelToken_ChildStartsCancelledIfParentAlreadyIs(t *testing.T) {
	parent := NewCancelToken()
	parent.Cancel()
	child := parent.Child()
	assert.True(t, child.IsCancelled(), "expected child of an already-cancelled parent to start cancelled")
}

func TestCancelToken_Check(t *testing.T) {
	tok := NewCancelToken()
	assert.NoError(t, tok.Check())
	tok.CancelWithReason(CancelTimeout)
	assert.ErrorIs(t, tok.Check(), ErrTimeout)
}
