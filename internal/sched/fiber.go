package sched

// fiber simulates a stackful continuation using a goroutine synchronized
// with its owning worker through an unbuffered resume channel and a
// one-slot yielded channel
// (SPEC_FULL.md §4, resolving spec.md's stackful-fiber-context-switching
// requirement -- Go has no supported way to hand-splice a goroutine's
// stack/registers, and Non-goal (ii) scopes raw ABI-specific assembly
// out of this exercise anyway).
//
// The worker sends on resume to let the task body run until its next
// suspension point; the task sends its new TaskState on yielded and
// blocks until resumed again. Exactly one side runs at a time: the
// worker is parked on <-yielded while the task runs, and the task's
// goroutine is parked on <-resume between suspensions. This reproduces
// every scheduling invariant spec.md asks of stackful fibers (one
// worker per task at a time, suspension only at yield points, no task
// running ahead of its worker) without a trampoline.
type fiber struct {
	resume  chan struct{}
	yielded chan TaskState

	task *Task
	ctx  *WorkerContext

	started bool
	done    bool
}

func newFiber(task *Task) *fiber {
	return &fiber{
		resume:  make(chan struct{}),
		yielded: make(chan TaskState, 1),
		task:    task,
	}
}

// start launches the task's goroutine. It blocks on resume immediately
// and does not run the entry function until the first resumeAndWait.
func (f *fiber) start(ctx *WorkerContext) {
	if f.started {
		return
	}
	f.started = true
	f.ctx = ctx
	ctx.fiber = f
	go func() {
		<-f.resume
		outcome := f.task.entry(f.ctx, f.task.arg)
		// A well-behaved entry calls YieldComplete itself as its last
		// act; this is the fallback for one that just returns instead.
		if !f.done {
			f.ctx.YieldComplete(outcome)
		}
	}()
}

// resumeAndWait hands control to the task goroutine and blocks until it
// suspends again (yield/yield_blocked) or completes. Returns the task's
// state immediately after suspension.
func (f *fiber) resumeAndWait() TaskState {
	if f.done {
		return TaskCompleted
	}
	f.resume <- struct{}{}
	return <-f.yielded
}

// yieldFromTask is called from inside the task's own goroutine (via
// WorkerContext) to cooperatively suspend: it reports newState on
// yielded and parks on resume until the worker hands control back.
func (f *fiber) yieldFromTask(newState TaskState) {
	f.yielded <- newState
	<-f.resume
}

// WorkerContext is the explicit per-task handle threaded into the entry
// function and the yield family, replacing the source language's
// thread-local fiber context (SPEC_FULL.md §4). A task reaches its own
// Worker and Task only through this parameter -- never through package
// state. Worker reflects whichever worker most recently resumed the
// fiber; a task's entry function holds the WorkerContext it was first
// handed and does not see migrations across a block/resume cycle, since
// the yield family only needs the fiber, not a live Worker pointer.
type WorkerContext struct {
	Worker *Worker
	Task   *Task
	fiber  *fiber
}

// Yield cooperatively suspends the calling task with no state change;
// the worker re-queues it locally once control returns (§4.6).
func (c *WorkerContext) Yield() {
	c.fiber.yieldFromTask(TaskRunning)
}

// YieldComplete marks the task Completed or errored (negative result)
// then suspends for the last time; the worker will notify the parent
// nursery (§4.6).
func (c *WorkerContext) YieldComplete(outcome TaskOutcome) {
	c.Task.mu.Lock()
	c.Task.result = outcome.raw()
	c.Task.state = TaskCompleted
	c.Task.mu.Unlock()
	c.fiber.done = true
	c.fiber.yielded <- TaskCompleted
}

// YieldBlocked marks the task Blocked with the given reason then
// suspends; only a wake re-enqueues it (§4.6). A reason carrying an
// AwaitToken registers the task on that token, so cancelling the token
// (including a WithTimeout expiry) wakes it.
func (c *WorkerContext) YieldBlocked(reason BlockReason) {
	c.Task.mu.Lock()
	c.Task.state = TaskBlocked
	c.Task.blockedOn = reason
	c.Task.mu.Unlock()
	if reason.AwaitToken != nil && c.Worker != nil {
		reason.AwaitToken.registerWaiter(c.Task, c.Worker.sched)
	}
	c.fiber.yieldFromTask(TaskBlocked)
}
