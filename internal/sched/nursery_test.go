package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// S4: two workers + nursery spawning 5 increment tasks -> after
// await_all, counter reads 5 and result is Success.
func TestNursery_S4FiveIncrementTasks(t *testing.T) {
	sched := New(2, zap.NewNop())
	sched.Start()
	defer sched.Stop()

	n := sched.NewTopLevelNursery(Profile.Cluster)

	var counter atomic.Int64
	entry := func(ctx *WorkerContext, arg any) TaskOutcome {
		counter.Add(1)
		return Success(0)
	}
	for i := 0; i < 5; i++ {
		require.NotNil(t, n.Spawn(entry, nil, Profile.Child, 0), "spawn %d failed", i)
	}
	n.Close()

	result := n.AwaitAll(nil)
	assert.Equal(t, "Success", result.Kind, "AwaitAll = %+v", result)
	assert.EqualValues(t, 5, counter.Load())
}

// Invariant 5: for every nursery, if any child fails, await_all returns
// ChildFailed with the first-captured error code; otherwise Success iff
// no children were cancelled.
func TestNursery_ChildFailurePropagates(t *testing.T) {
	sched := New(2, zap.NewNop())
	sched.Start()
	defer sched.Stop()

	n := sched.NewTopLevelNursery(Profile.Cluster)
	ok := func(ctx *WorkerContext, arg any) TaskOutcome { return Success(0) }
	fail := func(ctx *WorkerContext, arg any) TaskOutcome { return Failure(7) }

	n.Spawn(ok, nil, Profile.Child, 0)
	n.Spawn(fail, nil, Profile.Child, 0)
	n.Spawn(ok, nil, Profile.Child, 0)
	n.Close()

	result := n.AwaitAll(nil)
	require.Equal(t, "ChildFailed", result.Kind, "AwaitAll = %+v", result)
	assert.EqualValues(t, -7, result.ErrorCode)
}

func TestNursery_CancelMarksChildrenAndNestedNurseries(t *testing.T) {
	sched := New(1, zap.NewNop())
	sched.Start()
	defer sched.Stop()

	n := sched.NewTopLevelNursery(Profile.Cluster)
	block := make(chan struct{})
	entry := func(ctx *WorkerContext, arg any) TaskOutcome {
		ctx.YieldBlocked(BlockReason{Kind: "test"})
		<-block
		return Success(0)
	}
	task := n.Spawn(entry, nil, Profile.Child, 0)
	require.NotNil(t, task, "spawn failed")

	// Give the worker a chance to start and block the task.
	deadline := time.Now().Add(time.Second)
	for task.State() != TaskBlocked && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	nested := task.OpenChildNursery(sched, Profile.Child)

	n.Cancel()
	assert.Contains(t, []NurseryState{NurseryCancelling, NurseryCancelled}, n.State())
	assert.True(t, task.IsCancelled(), "expected spawned task to observe cancellation")
	assert.Equal(t, NurseryCancelling, nested.State(), "expected the task's owned nursery to be cancelled transitively")
	close(block)
}
