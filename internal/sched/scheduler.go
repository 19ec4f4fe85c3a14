package sched

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SchedulerState is one of the four states of §3.2's Scheduler entity.
type SchedulerState int32

const (
	SchedulerIdle SchedulerState = iota
	SchedulerRunning
	SchedulerStopping
	SchedulerStopped
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerIdle:
		return "Idle"
	case SchedulerRunning:
		return "Running"
	case SchedulerStopping:
		return "Stopping"
	case SchedulerStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Scheduler owns a fixed pool of workers, one per OS thread (spec.md
// §3.2). It exposes no public submit API of its own beyond what a
// Nursery's explicit submitFunc closes over -- the scheduler itself
// only round-robins a task onto a worker's local deque and runs the
// bring-up/drain barrier.
type Scheduler struct {
	workers []*Worker
	state   atomic.Int32
	counter atomic.Uint64

	shutdown atomic.Bool

	mu sync.Mutex
	wg *errgroup.Group

	log *zap.Logger
}

// New returns a Scheduler with numWorkers workers, none yet running.
func New(numWorkers int, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	s := &Scheduler{log: log}
	s.workers = make([]*Worker, numWorkers)
	for i := range s.workers {
		s.workers[i] = newWorker(i, s, log)
	}
	s.state.Store(int32(SchedulerIdle))
	return s
}

// State returns the scheduler's current lifecycle state.
func (s *Scheduler) State() SchedulerState {
	return SchedulerState(s.state.Load())
}

// Start launches every worker's loop in its own goroutine, using
// errgroup as the bring-up/drain barrier (grounded in the pack's use of
// golang.org/x/sync/errgroup for worker fan-out).
func (s *Scheduler) Start() {
	s.state.Store(int32(SchedulerRunning))
	s.wg = &errgroup.Group{}
	for _, w := range s.workers {
		worker := w
		s.wg.Go(func() error {
			worker.run()
			return nil
		})
	}
}

// Stop sets the shutdown flag and waits for every worker to drain its
// local queue and exit.
func (s *Scheduler) Stop() error {
	s.state.Store(int32(SchedulerStopping))
	s.shutdown.Store(true)
	var err error
	if s.wg != nil {
		err = s.wg.Wait()
	}
	s.state.Store(int32(SchedulerStopped))
	return err
}

// otherWorkers returns every worker except the one with id self.
func (s *Scheduler) otherWorkers(self int) []*Worker {
	out := make([]*Worker, 0, len(s.workers)-1)
	for _, w := range s.workers {
		if w.ID != self {
			out = append(out, w)
		}
	}
	return out
}

// submit round-robins task onto a worker's local deque; this is the
// function a Nursery closes over as its explicit submitFunc (§4.7),
// never a callback or event bus.
func (s *Scheduler) submit(task *Task) error {
	if s.State() == SchedulerStopping || s.State() == SchedulerStopped {
		return fmt.Errorf("sched: scheduler is %s", s.State())
	}
	if len(s.workers) == 0 {
		return fmt.Errorf("sched: no workers")
	}
	idx := s.counter.Add(1) % uint64(len(s.workers))
	s.workers[idx].local.push(task)
	return nil
}

// SubmitFunc returns the explicit submit function bound to this
// scheduler, for constructing a top-level Nursery.
func (s *Scheduler) SubmitFunc() func(*Task) error {
	return s.submit
}

// wake re-enqueues a Blocked task that became runnable, via whichever
// worker's queue is convenient -- round-robin here, same as submit.
func (s *Scheduler) wake(task *Task) {
	_ = s.submit(task)
	task.setState(TaskReady)
}

// NewTopLevelNursery returns an Open nursery bound to this scheduler
// with no owning task (a root nursery, per spec.md §4.7).
func (s *Scheduler) NewTopLevelNursery(budget Budget) *Nursery {
	return NewNursery(s, s.submit, budget, nil)
}
