package sched

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// NurseryState is one of the five states of the nursery state machine
// (spec.md §4.7):
//
//	Open -> Closing -> Closed
//	Open -> Cancelling -> Cancelled
//	Closing -> Cancelling (through Cancel)
//
// A failing child does not move the nursery to Cancelling: its error
// code is recorded and AwaitAll reports it as ChildFailed.
type NurseryState int32

const (
	NurseryOpen NurseryState = iota
	NurseryClosing
	NurseryClosed
	NurseryCancelling
	NurseryCancelled
)

func (s NurseryState) String() string {
	switch s {
	case NurseryOpen:
		return "Open"
	case NurseryClosing:
		return "Closing"
	case NurseryClosed:
		return "Closed"
	case NurseryCancelling:
		return "Cancelling"
	case NurseryCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// NurseryResult is the terminal outcome of await_all (§4.7).
type NurseryResult struct {
	Kind      string // "Success", "ChildFailed", "Cancelled", "BudgetExhausted"
	ErrorCode int64
}

// submitFunc is the explicit submit function a nursery is bound to its
// scheduler through, rather than a callback/event-bus pattern (kept
// exactly as spec.md §4.7 specifies, per SPEC_FULL.md §4).
type submitFunc func(*Task) error

// Nursery owns its tasks; a child nursery is owned transitively by the
// task that created it, with a back-pointer in both directions
// (spec.md §3.2/§4.7).
type Nursery struct {
	ID     string
	Budget Budget

	parentID  string
	scheduler *Scheduler
	submit    submitFunc
	ownerTask *Task // nil for a top-level nursery

	mu        sync.Mutex
	state     NurseryState
	children  []*Task
	completed int
	firstErr  *int64
	waiting   *Task // task parked in await_all via the fiber path
	waitingCh chan NurseryResult
}

// NewNursery returns an Open nursery bound to sched via submit, with
// budget debited from the parent's allotment by the caller.
func NewNursery(sched *Scheduler, submit submitFunc, budget Budget, ownerTask *Task) *Nursery {
	n := &Nursery{
		ID:        uuid.New().String(),
		Budget:    budget,
		scheduler: sched,
		submit:    submit,
		ownerTask: ownerTask,
		state:     NurseryOpen,
	}
	if ownerTask != nil {
		n.parentID = ownerTask.ID
	}
	return n
}

// OpenChildNursery creates a nursery owned transitively by owner,
// wiring the bidirectional back-pointer spec.md §3.2 requires: the
// nursery records owner as its ownerTask, and owner records the
// nursery as its ownedNursery so transitive cancellation can reach it.
func (t *Task) OpenChildNursery(sched *Scheduler, budget Budget) *Nursery {
	n := NewNursery(sched, sched.submit, budget, t)
	t.mu.Lock()
	t.ownedNursery = n
	t.mu.Unlock()
	return n
}

// State returns the nursery's current state.
func (n *Nursery) State() NurseryState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Spawn allocates a task under the nursery, sets its parent pointer,
// appends it to children, and submits it to the scheduler via the
// explicit submit function. Returns nil if the nursery is not Open or
// submission fails (§4.7).
func (n *Nursery) Spawn(entry EntryFunc, arg any, budget Budget, priority int) *Task {
	n.mu.Lock()
	if n.state != NurseryOpen {
		n.mu.Unlock()
		return nil
	}
	if next, ok := n.Budget.Sub(Budget{SpawnCount: BudgetCost.Spawn}); ok {
		n.Budget = next
	} else {
		n.mu.Unlock()
		return nil
	}
	task := NewTask(entry, arg, budget, priority)
	task.parentNursery = n
	n.children = append(n.children, task)
	n.mu.Unlock()

	if err := n.submit(task); err != nil {
		n.mu.Lock()
		// Roll back: the task never actually ran.
		for i, c := range n.children {
			if c == task {
				n.children = append(n.children[:i], n.children[i+1:]...)
				break
			}
		}
		n.mu.Unlock()
		return nil
	}
	return task
}

// Close transitions Open->Closing. Idempotent.
func (n *Nursery) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == NurseryOpen {
		n.state = NurseryClosing
	}
}

// Cancel transitions Open/Closing->Cancelling, marking every current
// child (and transitively their owned nurseries) Cancelled. Idempotent.
func (n *Nursery) Cancel() {
	n.mu.Lock()
	if n.state != NurseryOpen && n.state != NurseryClosing {
		n.mu.Unlock()
		return
	}
	n.state = NurseryCancelling
	children := make([]*Task, len(n.children))
	copy(children, n.children)
	n.mu.Unlock()

	for _, c := range children {
		c.markCancelled(CancelParent)
	}
}

// propagateParentCancel implements nurseryCallback: an ancestor's
// cancellation reaches this nursery and fans out to its own children,
// satisfying the transitive-cancellation rule of §4.4/§4.7.
func (n *Nursery) propagateParentCancel(reason CancelReason) {
	n.Cancel()
}

// notifyChildComplete is called by the worker after any child
// terminates (§4.7): it captures the first error, increments the
// completion counter, and wakes a parked awaiter once every child has
// finished.
func (n *Nursery) notifyChildComplete(t *Task) {
	n.mu.Lock()
	result := t.Result()
	if result < 0 && n.firstErr == nil {
		errCopy := result
		n.firstErr = &errCopy
	}
	n.completed++
	done := n.completed >= len(n.children)
	waiter := n.waiting
	waitCh := n.waitingCh
	if done {
		if n.state == NurseryClosing {
			n.state = NurseryClosed
		} else if n.state == NurseryCancelling {
			n.state = NurseryCancelled
		}
		n.waiting = nil
		n.waitingCh = nil
	}
	n.mu.Unlock()

	if !done {
		return
	}
	result2 := n.terminalResult()
	if waiter != nil && n.scheduler != nil {
		n.scheduler.wake(waiter)
	}
	if waitCh != nil {
		waitCh <- result2
	}
}

func (n *Nursery) terminalResult() NurseryResult {
	n.mu.Lock()
	state := n.state
	firstErr := n.firstErr
	n.mu.Unlock()

	switch {
	case state == NurseryCancelled:
		return NurseryResult{Kind: "Cancelled"}
	case firstErr != nil:
		return NurseryResult{Kind: "ChildFailed", ErrorCode: *firstErr}
	default:
		return NurseryResult{Kind: "Success"}
	}
}

// AwaitAll waits until every child has finished. Called from a fiber
// context (i.e. from within a task running on a worker), it parks the
// task via YieldBlocked(NurseryAwait) so the worker can do other work;
// notifyChildComplete's wake path resumes it once the nursery is
// terminal. Called from outside a fiber (the ctx is nil), it polls by
// short sleep, per §4.7.
func (n *Nursery) AwaitAll(ctx *WorkerContext) NurseryResult {
	n.mu.Lock()
	if n.completed >= len(n.children) {
		result := n.finalizeLocked()
		n.mu.Unlock()
		return result
	}
	n.mu.Unlock()

	if ctx != nil {
		ch := make(chan NurseryResult, 1)
		n.mu.Lock()
		if n.completed >= len(n.children) {
			result := n.finalizeLocked()
			n.mu.Unlock()
			return result
		}
		n.waiting = ctx.Task
		n.waitingCh = ch
		n.mu.Unlock()

		ctx.YieldBlocked(BlockReason{Kind: "NurseryAwait", AwaitNursery: n})
		return <-ch
	}

	for {
		n.mu.Lock()
		if n.completed >= len(n.children) {
			result := n.finalizeLocked()
			n.mu.Unlock()
			return result
		}
		n.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
}

// finalizeLocked must be called with n.mu held; it performs the
// Closing->Closed / Cancelling->Cancelled terminal transition exactly
// once and returns the matching result.
func (n *Nursery) finalizeLocked() NurseryResult {
	if n.state == NurseryClosing {
		n.state = NurseryClosed
	} else if n.state == NurseryCancelling {
		n.state = NurseryCancelled
	}
	switch {
	case n.state == NurseryCancelled:
		return NurseryResult{Kind: "Cancelled"}
	case n.firstErr != nil:
		return NurseryResult{Kind: "ChildFailed", ErrorCode: *n.firstErr}
	default:
		return NurseryResult{Kind: "Success"}
	}
}
