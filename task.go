package pike

import (
	"go.uber.org/atomic"
)

const (
	taskParked int32 = iota
	taskClaimed
)

// Task is the handle for one parked unit of work. A Task is one-shot: it is
// parked on at most one Waker, claimed by exactly one popper, and resumed at
// most once. The goroutine that parked blocks in Await until a Batch
// dispatch (or a drain during socket teardown) delivers the outcome.
type Task struct {
	state *atomic.Int32
	done  chan error

	// outcome delivered at dispatch; written only by the claimer, between
	// claim and complete.
	err error
}

// NewTask returns a parked task handle.
func NewTask() *Task {
	return &Task{
		state: atomic.NewInt32(taskParked),
		done:  make(chan error, 1),
	}
}

// claim takes exclusive ownership of the task. Wakers claim before handing a
// task out so that a waiter that completed on the retry path can withdraw
// from the queue without structural removal; entries that lost the race are
// skipped during pops.
func (t *Task) claim() bool {
	return t.state.CAS(taskParked, taskClaimed)
}

// complete marks the task runnable, delivering the recorded outcome. The
// send never blocks; an abandoned task simply holds the value until it is
// collected.
func (t *Task) complete() {
	select {
	case t.done <- t.err:
	default:
	}
}

// Await blocks until the task is resumed and returns the delivered outcome:
// nil for a readiness wake, ErrCancelled for a teardown drain.
func (t *Task) Await() error {
	return <-t.done
}

// Batch collects the tasks made runnable by one poll cycle. It is handed to
// the driving runtime after event draining completes; resuming mid-drain
// would let a retried operation re-park on a Waker whose queue is being
// iterated.
type Batch struct {
	tasks []*Task
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Add appends a claimed task to the batch.
func (b *Batch) Add(t *Task) {
	b.tasks = append(b.tasks, t)
}

// Len returns the number of runnable tasks collected.
func (b *Batch) Len() int {
	return len(b.tasks)
}

// Dispatch resumes every task in the batch and empties it.
func (b *Batch) Dispatch() {
	for _, t := range b.tasks {
		t.complete()
	}
	b.tasks = b.tasks[:0]
}
