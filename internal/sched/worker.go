package sched

import (
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// maxStealAttempts bounds how many random victims a worker tries before
// giving up and backing off (spec.md §4.6).
const maxStealAttempts = 4

// maxBackoff is the ceiling the worker's exponential backoff clamps to
// when no work is found (§4.6).
const maxBackoff = time.Millisecond

// WorkerStats are the statistics field of §3.2's Worker entity, kept as
// plain counters rather than a histogram library since spec.md asks for
// nothing more than counts.
type WorkerStats struct {
	TasksRun    atomic.Uint64
	StealsWon   atomic.Uint64
	StealsLost  atomic.Uint64
	IdleCycles  atomic.Uint64
}

// Worker is one per OS thread (spec.md §3.2): it owns a local Chase-Lev
// deque and runs the four-step loop of §4.6 until the scheduler's
// shutdown flag is observed.
type Worker struct {
	ID    int
	local *deque
	rng   *rand.Rand
	Stats WorkerStats

	sched    *Scheduler
	shutdown atomic.Bool

	log *zap.Logger
}

func newWorker(id int, sched *Scheduler, log *zap.Logger) *Worker {
	return &Worker{
		ID:    id,
		local: newDeque(256),
		// Deterministic RNG seeded by worker id, per §4.6, so a replayed
		// run picks the same steal victims.
		rng:   rand.New(rand.NewSource(int64(id) + 1)),
		sched: sched,
		log:   log,
	}
}

// run is the worker's infinite loop (§4.6), exited only when the
// scheduler's shutdown flag is observed.
func (w *Worker) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	backoff := time.Duration(0)
	for !w.shutdown.Load() && !w.sched.shutdown.Load() {
		task := w.findWork()
		if task == nil {
			w.Stats.IdleCycles.Add(1)
			if backoff == 0 {
				backoff = time.Microsecond * 10
			} else {
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		w.execute(task)
	}
	w.drain()
}

// findWork implements step 1 of §4.6: local pop first (LIFO locality),
// then up to maxStealAttempts steals from random victims excluding self.
func (w *Worker) findWork() *Task {
	if t := w.local.pop(); t != nil {
		return t
	}
	victims := w.sched.otherWorkers(w.ID)
	if len(victims) == 0 {
		return nil
	}
	attempts := maxStealAttempts
	if attempts > len(victims) {
		attempts = len(victims)
	}
	for i := 0; i < attempts; i++ {
		victim := victims[w.rng.Intn(len(victims))]
		if t := victim.local.steal(); t != nil {
			w.Stats.StealsWon.Add(1)
			return t
		}
		w.Stats.StealsLost.Add(1)
	}
	return nil
}

// execute implements steps 2-3 of §4.6.
func (w *Worker) execute(task *Task) {
	state := task.State()
	if state == TaskCompleted || state == TaskCancelled {
		// Race protection: another path already finished this task.
		w.notifyNursery(task)
		return
	}

	task.setState(TaskRunning)
	w.Stats.TasksRun.Add(1)

	ctx := &WorkerContext{Worker: w, Task: task}
	if task.fiber == nil {
		task.fiber = newFiber(task)
	}
	if !task.fiber.started {
		task.fiber.start(ctx)
	} else {
		task.fiber.ctx = ctx
		ctx.fiber = task.fiber
	}

	newState := task.fiber.resumeAndWait()

	switch newState {
	case TaskRunning:
		if task.budget.Exhausted() {
			task.setState(TaskBudgetExhausted)
		} else {
			task.setState(TaskReady)
			w.local.push(task)
		}
	case TaskBlocked:
		// Left off-queue; a wake re-enqueues it.
	case TaskCompleted, TaskCancelled:
		w.notifyNursery(task)
	}
}

func (w *Worker) notifyNursery(task *Task) {
	task.mu.Lock()
	parent := task.parentNursery
	task.mu.Unlock()
	if parent != nil {
		parent.notifyChildComplete(task)
	}
}

// drain marks every task left in the local queue Cancelled and notifies
// their nurseries, per §4.6's shutdown contract.
func (w *Worker) drain() {
	for {
		t := w.local.pop()
		if t == nil {
			return
		}
		t.markCancelled(CancelExplicit)
		w.notifyNursery(t)
	}
}

// wake re-enqueues a Blocked task that has become runnable again
// (§4.6/§4.7's "a wake will re-enqueue"). It pushes onto w's own local
// queue.
func (w *Worker) wake(task *Task) {
	task.setState(TaskReady)
	w.local.push(task)
}
