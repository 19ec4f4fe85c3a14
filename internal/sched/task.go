package sched

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// TaskState is one of the six exhaustive states of the task state
// machine (spec.md §4.4):
//
//	Ready -> Running -> {Blocked | BudgetExhausted | Completed | Cancelled}
//	Blocked -> Ready (via wake)
//	BudgetExhausted -> Ready (via recharge)
type TaskState int32

const (
	TaskReady TaskState = iota
	TaskRunning
	TaskBlocked
	TaskBudgetExhausted
	TaskCompleted
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "Ready"
	case TaskRunning:
		return "Running"
	case TaskBlocked:
		return "Blocked"
	case TaskBudgetExhausted:
		return "BudgetExhausted"
	case TaskCompleted:
		return "Completed"
	case TaskCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// BlockReason records why a task transitioned to Blocked. NurseryAwait
// carries the nursery the task is waiting on so the wake path knows
// what to re-enqueue it for.
type BlockReason struct {
	Kind          string // "NurseryAwait", "CancelToken", ""
	AwaitNursery  *Nursery
	AwaitToken    *CancelToken
}

// TaskOutcome is the typed result a task entry function hands to
// yield_complete, so callers never build the sign-bit result code by
// hand (SPEC_FULL.md §4). The wire-level ABI underneath is still the
// signed int64 spec.md §4.4/§7 specify: negative is an error code.
type TaskOutcome struct {
	code int64
}

// Success builds a non-negative task result.
func Success(code int64) TaskOutcome {
	if code < 0 {
		code = -code
	}
	return TaskOutcome{code: code}
}

// Failure builds a negative task result; code is the positive error
// code to report (stored internally as -code).
func Failure(code int64) TaskOutcome {
	if code < 0 {
		code = -code
	}
	return TaskOutcome{code: -code}
}

func (o TaskOutcome) raw() int64 { return o.code }

// EntryFunc is a task's body. ctx carries the WorkerContext the task
// runs on (the explicit-context replacement for thread-locals, per
// SPEC_FULL.md §4) and arg is the opaque argument captured at spawn.
type EntryFunc func(ctx *WorkerContext, arg any) TaskOutcome

// nurseryCallback is the small interface a Task's owned nursery is held
// through, instead of an untyped pointer (SPEC_FULL.md §4 re-architecture
// note on the opaque task/nursery handle).
type nurseryCallback interface {
	notifyChildComplete(t *Task)
	propagateParentCancel(reason CancelReason)
}

// Task is exclusively owned by its nursery (by pointer) until it
// completes (spec.md §3.2).
type Task struct {
	ID       string
	Priority int

	mu           sync.Mutex
	state        TaskState
	budget       Budget
	result       int64
	blockedOn    BlockReason
	parentNursery *Nursery
	ownedNursery  nurseryCallback

	entry EntryFunc
	arg   any

	// fiber is the goroutine-handoff simulation of a stackful
	// continuation (SPEC_FULL.md §4): a paired channel swap stands in
	// for splicing the task's stack/registers onto the worker's thread.
	fiber *fiber

	cancelled atomic.Bool
}

// NewTask allocates a task under the given budget, not yet submitted to
// any nursery.
func NewTask(entry EntryFunc, arg any, budget Budget, priority int) *Task {
	return &Task{
		ID:       uuid.New().String(),
		Priority: priority,
		state:    TaskReady,
		budget:   budget,
		entry:    entry,
		arg:      arg,
	}
}

// State returns the task's current state under lock.
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) setState(s TaskState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Result returns the signed task result. Only meaningful once the task
// has reached Completed.
func (t *Task) Result() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Budget returns a copy of the task's current budget.
func (t *Task) Budget() Budget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.budget
}

// Recharge replenishes a BudgetExhausted task and returns it to Ready
// (§4.4 transition). No-op if the task is not BudgetExhausted.
func (t *Task) Recharge(amount Budget) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TaskBudgetExhausted {
		return false
	}
	t.budget = t.budget.Add(amount)
	t.state = TaskReady
	return true
}

// debit attempts to spend cost from the task's budget. On failure the
// caller is responsible for transitioning to BudgetExhausted.
func (t *Task) debit(cost Budget) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, ok := t.budget.Sub(cost)
	if !ok {
		return false
	}
	t.budget = next
	return true
}

// markCancelled transitions the task to Cancelled and cascades into its
// owned nursery (the transitive-cancellation rule, §4.4/§4.7).
func (t *Task) markCancelled(reason CancelReason) {
	t.mu.Lock()
	already := t.state == TaskCancelled || t.state == TaskCompleted
	if !already {
		t.state = TaskCancelled
	}
	owned := t.ownedNursery
	t.mu.Unlock()

	if already {
		return
	}
	t.cancelled.Store(true)
	if owned != nil {
		owned.propagateParentCancel(reason)
	}
}

// IsCancelled reports whether the task has been marked cancelled.
func (t *Task) IsCancelled() bool {
	return t.cancelled.Load()
}
