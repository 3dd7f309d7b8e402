package pike

import (
	"sync"

	"github.com/eapache/queue"
)

// Waker queues the tasks parked on one direction of one socket. Waiters pick
// an admission discipline at park time: FIFO for reads and general waits,
// LIFO for pending connect/write attempts where only the most recent intent
// matters. Queue mutation is locked because the runtime may park a task on
// one thread and drain Poll on another.
type Waker struct {
	mu     sync.Mutex
	fifo   *queue.Queue
	lifo   []*Task
	closed bool
}

// NewWaker returns an open Waker with empty queues.
func NewWaker() *Waker {
	return &Waker{fifo: queue.New()}
}

// Wait parks t. Returns ErrCancelled if the Waker has been shut down; the
// caller must not Await a task that failed to park.
func (w *Waker) Wait(t *Task, lifo bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrCancelled
	}
	if lifo {
		w.lifo = append(w.lifo, t)
	} else {
		w.fifo.Add(t)
	}
	return nil
}

// Notify pops the next runnable task, or nil when nothing is parked. A
// spurious notify with an empty queue is a no-op.
func (w *Waker) Notify() *Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pop()
}

// Shutdown transitions the Waker to closed and pops one parked task, marked
// with a cancellation outcome. Callers drain by invoking Shutdown until it
// returns nil; every previously parked task is returned exactly once. All
// later Wait calls fail immediately.
func (w *Waker) Shutdown() *Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	t := w.pop()
	if t != nil {
		t.err = ErrCancelled
	}
	return t
}

// pop prefers the LIFO stack, newest first: entries there are superseding
// attempts, so the latest one owns the next readiness edge. Entries already
// claimed by a waiter that completed on the retry path are discarded.
func (w *Waker) pop() *Task {
	for n := len(w.lifo); n > 0; n = len(w.lifo) {
		t := w.lifo[n-1]
		w.lifo = w.lifo[:n-1]
		if t.claim() {
			return t
		}
	}
	for w.fifo.Length() > 0 {
		t := w.fifo.Remove().(*Task)
		if t.claim() {
			return t
		}
	}
	return nil
}
