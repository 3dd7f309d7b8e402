package pike

import (
	"testing"
)

func parkAll(t *testing.T, w *Waker, lifo bool, count int) []*Task {
	t.Helper()
	tasks := make([]*Task, count)
	for i := range tasks {
		tasks[i] = NewTask()
		if err := w.Wait(tasks[i], lifo); err != nil {
			t.Fatalf("Wait(%d): %v", i, err)
		}
	}
	return tasks
}

func TestWakerFIFOOrder(t *testing.T) {
	w := NewWaker()
	tasks := parkAll(t, w, false, 5)

	for i, want := range tasks {
		if got := w.Notify(); got != want {
			t.Fatalf("Notify %d: popped wrong task", i)
		}
	}
	if got := w.Notify(); got != nil {
		t.Fatalf("Notify on empty waker: got task, want nil")
	}
}

func TestWakerLIFOOrder(t *testing.T) {
	w := NewWaker()
	tasks := parkAll(t, w, true, 5)

	for i := len(tasks) - 1; i >= 0; i-- {
		if got := w.Notify(); got != tasks[i] {
			t.Fatalf("Notify: expected task %d next", i)
		}
	}
	if got := w.Notify(); got != nil {
		t.Fatalf("Notify on empty waker: got task, want nil")
	}
}

func TestWakerLIFOWaitersWinOverFIFO(t *testing.T) {
	w := NewWaker()
	older := NewTask()
	if err := w.Wait(older, false); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	newer := NewTask()
	if err := w.Wait(newer, true); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if got := w.Notify(); got != newer {
		t.Fatalf("Notify: LIFO waiter should supersede FIFO waiter")
	}
	if got := w.Notify(); got != older {
		t.Fatalf("Notify: FIFO waiter should follow")
	}
}

func TestWakerNotifySkipsClaimedTasks(t *testing.T) {
	w := NewWaker()
	tasks := parkAll(t, w, false, 3)

	if !tasks[0].claim() {
		t.Fatalf("claim: task should be claimable while parked")
	}
	if got := w.Notify(); got != tasks[1] {
		t.Fatalf("Notify: should skip the withdrawn task")
	}
}

func TestWakerShutdownDrainsExactlyOnce(t *testing.T) {
	w := NewWaker()
	tasks := parkAll(t, w, false, 3)

	b := NewBatch()
	for task := w.Shutdown(); task != nil; task = w.Shutdown() {
		b.Add(task)
	}
	if b.Len() != len(tasks) {
		t.Fatalf("drained %d tasks, want %d", b.Len(), len(tasks))
	}

	b.Dispatch()
	for i, task := range tasks {
		if err := task.Await(); err != ErrCancelled {
			t.Fatalf("task %d outcome = %v, want ErrCancelled", i, err)
		}
	}

	if err := w.Wait(NewTask(), false); err != ErrCancelled {
		t.Fatalf("Wait after shutdown = %v, want ErrCancelled", err)
	}
	if got := w.Shutdown(); got != nil {
		t.Fatalf("Shutdown after drain: got task, want nil")
	}
}

func TestBatchDispatchResumesWithNil(t *testing.T) {
	w := NewWaker()
	task := NewTask()
	if err := w.Wait(task, false); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	b := NewBatch()
	if popped := w.Notify(); popped == nil {
		t.Fatalf("Notify: no task popped")
	} else {
		b.Add(popped)
	}
	b.Dispatch()

	if err := task.Await(); err != nil {
		t.Fatalf("Await after notify = %v, want nil", err)
	}
	if b.Len() != 0 {
		t.Fatalf("batch not emptied by Dispatch")
	}
}
