package sched

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// CancelReason is one of the five exhaustive reasons a CancelToken can
// carry (spec.md §4.8).
type CancelReason int32

const (
	CancelNone CancelReason = iota
	CancelExplicit
	CancelTimeout
	CancelParent
	CancelFailure
)

func (r CancelReason) String() string {
	switch r {
	case CancelNone:
		return "None"
	case CancelExplicit:
		return "Explicit"
	case CancelTimeout:
		return "Timeout"
	case CancelParent:
		return "Parent"
	case CancelFailure:
		return "Failure"
	default:
		return "Unknown"
	}
}

var (
	// ErrCancelled is returned by Check when the token (or an ancestor)
	// has been cancelled with no more specific reason.
	ErrCancelled = errors.New("sched: cancelled")
	// ErrTimeout is returned by Check for a timeout-originated cancellation.
	ErrTimeout = errors.New("sched: cancelled: timeout")
	// ErrParentCancelled is returned by Check when an ancestor token's
	// cancellation propagated down lazily.
	ErrParentCancelled = errors.New("sched: cancelled: parent")
)

// maxCancelCallbacks bounds how many on_cancel callbacks a token will
// hold, per spec.md §4.8 ("bounded number of callbacks per token").
const maxCancelCallbacks = 64

// CancelToken is cooperative, idempotent, and safe for concurrent use
// from many goroutines (spec.md §4.8). Cancellation of a parent
// propagates to children lazily: IsCancelled walks the parent chain
// rather than eagerly pushing state down.
type CancelToken struct {
	cancelled atomic.Bool
	reason    atomic.Int32

	parent *CancelToken

	mu        sync.Mutex
	callbacks []func(CancelReason)

	// worker/task wake wiring: a token a task is Blocked on registers
	// itself here so cancel() can re-enqueue the waiter (SPEC_FULL.md §4
	// WithTimeout resolution).
	waitingTask *Task
	scheduler   *Scheduler

	timer *time.Timer
}

// NewCancelToken returns a root token with no parent.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Child returns a new token registered on parent; it starts already
// cancelled if parent already is (§4.8 `child(parent)`).
func (t *CancelToken) Child() *CancelToken {
	child := &CancelToken{parent: t}
	if t.IsCancelled() {
		child.cancelled.Store(true)
		child.reason.Store(int32(CancelParent))
	}
	t.OnCancel(func(reason CancelReason) {
		if child.cancelAndFire(CancelParent) {
			_ = reason
		}
	})
	return child
}

// IsCancelled checks self then walks the parent chain, propagating a
// parent's cancellation into self lazily on observation (§4.8).
func (t *CancelToken) IsCancelled() bool {
	if t.cancelled.Load() {
		return true
	}
	for p := t.parent; p != nil; p = p.parent {
		if p.cancelled.Load() {
			t.cancelAndFire(CancelParent)
			return true
		}
	}
	return false
}

// Reason returns the cancellation reason, or CancelNone if not cancelled.
func (t *CancelToken) Reason() CancelReason {
	return CancelReason(t.reason.Load())
}

// Check returns a typed error if the token is cancelled, nil otherwise.
func (t *CancelToken) Check() error {
	if !t.IsCancelled() {
		return nil
	}
	switch t.Reason() {
	case CancelTimeout:
		return ErrTimeout
	case CancelParent:
		return ErrParentCancelled
	default:
		return ErrCancelled
	}
}

// Cancel marks the token cancelled with CancelExplicit, running every
// registered callback exactly once. No-op if already cancelled.
func (t *CancelToken) Cancel() {
	t.CancelWithReason(CancelExplicit)
}

// CancelWithReason is Cancel with an explicit reason (§4.8).
func (t *CancelToken) CancelWithReason(reason CancelReason) {
	t.cancelAndFire(reason)
}

func (t *CancelToken) cancelAndFire(reason CancelReason) bool {
	if !t.cancelled.CompareAndSwap(false, true) {
		return false
	}
	t.reason.Store(int32(reason))

	t.mu.Lock()
	callbacks := t.callbacks
	waiter := t.waitingTask
	sched := t.scheduler
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb(reason)
	}
	if waiter != nil && sched != nil {
		waiter.markCancelled(reason)
		sched.wake(waiter)
	}
	return true
}

// OnCancel registers callback to run when the token is cancelled; if
// already cancelled, it runs immediately (§4.8). Registration beyond
// maxCancelCallbacks is silently dropped rather than panicking, since a
// misbehaving caller leaking callback registrations should not bring
// down the scheduler.
func (t *CancelToken) OnCancel(callback func(CancelReason)) {
	if t.IsCancelled() {
		callback(t.Reason())
		return
	}
	t.mu.Lock()
	if len(t.callbacks) < maxCancelCallbacks {
		t.callbacks = append(t.callbacks, callback)
	}
	t.mu.Unlock()

	// Re-check: the token may have been cancelled between IsCancelled
	// above and registering the callback.
	if t.IsCancelled() {
		callback(t.Reason())
	}
}

// WithTimeout arms a timer that cancels the token with CancelTimeout
// after d elapses, wiring through sched's wake path for any task
// Blocked on this token (SPEC_FULL.md §4: resolves the open question of
// timeouts never actually scheduling a wake).
func (t *CancelToken) WithTimeout(sched *Scheduler, d time.Duration) *CancelToken {
	t.mu.Lock()
	t.scheduler = sched
	t.mu.Unlock()
	t.timer = time.AfterFunc(d, func() {
		t.cancelAndFire(CancelTimeout)
	})
	return t
}

// registerWaiter records task as blocked on this token so a later
// cancellation can wake it via sched.
func (t *CancelToken) registerWaiter(task *Task, sched *Scheduler) {
	t.mu.Lock()
	t.waitingTask = task
	t.scheduler = sched
	t.mu.Unlock()
}

// StopTimer cancels any pending WithTimeout timer without firing it.
func (t *CancelToken) StopTimer() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
