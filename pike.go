// Package pike is a readiness-driven reactor for non-blocking sockets.
//
// A Notifier multiplexes edge-triggered readiness events from the OS over
// registered descriptors. Sockets wrap non-blocking descriptors and turn
// would-block syscall outcomes into suspension points: the calling task is
// parked on a per-direction Waker and becomes runnable again when the next
// readiness edge for that direction arrives. Each Notifier.Poll cycle
// collects the woken tasks into a Batch which the caller dispatches after
// the cycle completes, so task resumption never reenters event draining.
//
// The reactor decides which parked task becomes runnable and when; running
// task bodies is the job of whatever runtime drives the poll loop.
package pike

// WakeOptions carries the readiness facts observed by one event. The three
// flags are independent; a socket error can report all of them at once.
type WakeOptions struct {
	ReadReady  bool
	WriteReady bool
	Shutdown   bool
}

// WakeFunc is invoked by the Notifier for each readiness event observed on
// the Handle's descriptor. Tasks made runnable must be added to b, never
// resumed in place.
type WakeFunc func(b *Batch, opts WakeOptions)

// Handle pairs a descriptor with its wake callback. A Handle is owned by
// exactly one Socket and must be deregistered before the descriptor is
// closed.
type Handle struct {
	fd   int
	wake WakeFunc
}

// NewHandle builds a Handle for fd. The callback runs on the goroutine
// driving Notifier.Poll.
func NewHandle(fd int, wake WakeFunc) *Handle {
	return &Handle{fd: fd, wake: wake}
}

// FD returns the wrapped descriptor.
func (h *Handle) FD() int {
	return h.fd
}
