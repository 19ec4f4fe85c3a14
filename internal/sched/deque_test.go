package sched

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S3: deque: push A, push B, push C -> steal returns A, pop returns C,
// pop returns B, then a further pop and a further steal both return none.
func TestDeque_S3PushStealPop(t *testing.T) {
	d := newDeque(8)
	a := &Task{ID: "A"}
	b := &Task{ID: "B"}
	c := &Task{ID: "C"}
	d.push(a)
	d.push(b)
	d.push(c)

	stolen := d.steal()
	assert.Equal(t, "A", taskID(stolen))
	assert.Equal(t, "C", taskID(d.pop()))
	assert.Equal(t, "B", taskID(d.pop()))
	assert.Equal(t, "<nil>", taskID(d.pop()), "pop() on empty should be nil")
	assert.Equal(t, "<nil>", taskID(d.steal()), "steal() on empty should be nil")
}

func taskID(t *Task) string {
	if t == nil {
		return "<nil>"
	}
	return t.ID
}

// Invariant 4: for every deque operation sequence by one owner and
// multiple stealers, the multiset of task pointers emitted equals the
// multiset pushed.
func TestDeque_OwnerAndStealersPreserveMultiset(t *testing.T) {
	const n = 2000
	d := newDeque(64)
	tasks := make([]*Task, n)
	for i := range tasks {
		tasks[i] = &Task{ID: string(rune('a' + i%26))}
	}

	var pushWG sync.WaitGroup
	pushWG.Add(1)
	go func() {
		defer pushWG.Done()
		for _, task := range tasks {
			d.push(task)
		}
	}()

	seen := make(chan *Task, n*2)
	const stealers = 4
	var stealWG sync.WaitGroup
	stopSteal := make(chan struct{})
	for i := 0; i < stealers; i++ {
		stealWG.Add(1)
		go func() {
			defer stealWG.Done()
			for {
				select {
				case <-stopSteal:
					// Drain any remaining before exiting.
					for {
						if t := d.steal(); t != nil {
							seen <- t
						} else {
							return
						}
					}
				default:
					if t := d.steal(); t != nil {
						seen <- t
					}
				}
			}
		}()
	}

	pushWG.Wait()

	// Owner pops whatever the stealers left.
	var owned []*Task
	for {
		t := d.pop()
		if t == nil {
			break
		}
		owned = append(owned, t)
	}
	close(stopSteal)
	stealWG.Wait()
	close(seen)

	total := make(map[string]int)
	for _, task := range tasks {
		total[task.ID]++
	}
	got := make(map[string]int)
	for _, task := range owned {
		got[task.ID]++
	}
	for stolen := range seen {
		got[stolen.ID]++
	}

	var gotCount, wantCount int
	for _, c := range got {
		gotCount += c
	}
	for _, c := range total {
		wantCount += c
	}
	if gotCount != wantCount {
		if diff := cmp.Diff(total, got); diff != "" {
			t.Fatalf("emitted %d tasks, want %d (multiset mismatch, -want +got):\n%s", gotCount, wantCount, diff)
		}
		t.Fatalf("emitted %d tasks, want %d", gotCount, wantCount)
	}
}

func TestDeque_PushBoundedReturnsFalseWhenFull(t *testing.T) {
	d := newDeque(2)
	ok1 := d.pushBounded(&Task{ID: "1"})
	ok2 := d.pushBounded(&Task{ID: "2"})
	require.True(t, ok1, "expected first push to succeed")
	require.True(t, ok2, "expected second push to succeed")
	assert.False(t, d.pushBounded(&Task{ID: "3"}), "expected push to fail once at the rounded-up capacity limit")
}
