package pike

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	n, err := NewNotifier()
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestPollTimeoutReturnsEmptyBatch(t *testing.T) {
	n := newTestNotifier(t)

	const timeout = 100 * time.Millisecond
	start := time.Now()
	b, err := n.Poll(timeout)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("Poll with no descriptors: batch has %d tasks, want 0", b.Len())
	}
	if elapsed < timeout-20*time.Millisecond {
		t.Fatalf("Poll returned after %v, before the %v timeout", elapsed, timeout)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("Poll took %v, far past the %v timeout", elapsed, timeout)
	}
}

func TestRegisterDuplicateDescriptor(t *testing.T) {
	n := newTestNotifier(t)

	s, err := NewSocket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("NewSocket: %v", err)
	}
	defer s.Close()

	if err := s.RegisterTo(n); err != nil {
		t.Fatalf("RegisterTo: %v", err)
	}
	if err := n.Register(s.Handle(), Interest{Read: true}); err != ErrAlreadyRegistered {
		t.Fatalf("second Register = %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegisterInvalidDescriptor(t *testing.T) {
	n := newTestNotifier(t)

	h := NewHandle(-1, func(b *Batch, opts WakeOptions) {})
	if err := n.Register(h, Interest{Read: true}); err != ErrBadDescriptor {
		t.Fatalf("Register(-1) = %v, want ErrBadDescriptor", err)
	}
}

func TestInterruptWakesBlockedPoll(t *testing.T) {
	n := newTestNotifier(t)

	type result struct {
		b   *Batch
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := n.Poll(10 * time.Second)
		done <- result{b, err}
	}()

	// give the poll a moment to block
	time.Sleep(20 * time.Millisecond)
	if err := n.Interrupt(); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Poll after Interrupt: %v", r.err)
		}
		if r.b.Len() != 0 {
			t.Fatalf("interrupted Poll: batch has %d tasks, want 0", r.b.Len())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Interrupt did not wake the blocked Poll")
	}
}

func TestDeregisterUnknownHandle(t *testing.T) {
	n := newTestNotifier(t)

	h := NewHandle(42, func(b *Batch, opts WakeOptions) {})
	if err := n.Deregister(h); err != ErrNotRegistered {
		t.Fatalf("Deregister = %v, want ErrNotRegistered", err)
	}
}
