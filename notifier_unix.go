//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package pike

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/LinuXY/pike/evlog"
	"github.com/LinuXY/pike/poller"
)

// Interest selects the directions a Handle is registered for.
type Interest struct {
	Read  bool
	Write bool
}

// Notifier owns the OS readiness multiplexer and the registration table
// mapping descriptors to Handles. It never closes registered descriptors;
// socket lifecycle belongs to the Sockets themselves.
type Notifier struct {
	poll   poller.Poller
	mu     sync.Mutex
	table  map[int]*Handle
	closed *atomic.Bool
}

// NewNotifier acquires the platform readiness multiplexer.
func NewNotifier() (*Notifier, error) {
	poll, err := poller.New()
	if err != nil {
		return nil, err
	}
	return &Notifier{
		poll:   poll,
		table:  make(map[int]*Handle),
		closed: atomic.NewBool(false),
	}, nil
}

// Register adds the Handle's descriptor to the edge-triggered watch set.
// Registration must happen before the first operation that could park on
// the descriptor; unregistered handles never receive wake callbacks.
func (n *Notifier) Register(h *Handle, interest Interest) error {
	if n.closed.Load() {
		return ErrNotifierClosed
	}
	if h == nil || h.fd < 0 {
		return ErrBadDescriptor
	}

	n.mu.Lock()
	if _, dup := n.table[h.fd]; dup {
		n.mu.Unlock()
		return ErrAlreadyRegistered
	}
	n.table[h.fd] = h
	n.mu.Unlock()

	var events poller.Event
	if interest.Read {
		events |= poller.EventRead
	}
	if interest.Write {
		events |= poller.EventWrite
	}
	if err := n.poll.Add(h.fd, events); err != nil {
		n.mu.Lock()
		delete(n.table, h.fd)
		n.mu.Unlock()
		return errnoErr(err)
	}

	evlog.Debugf("[Notifier.Register]: fd %d read=%v write=%v", h.fd, interest.Read, interest.Write)
	return nil
}

// Deregister removes the Handle from the watch set and the table. Must be
// called before the descriptor is closed.
func (n *Notifier) Deregister(h *Handle) error {
	n.mu.Lock()
	_, ok := n.table[h.fd]
	delete(n.table, h.fd)
	n.mu.Unlock()
	if !ok {
		return ErrNotRegistered
	}
	if err := n.poll.Del(h.fd); err != nil {
		evlog.Errorf("[poller.Del]: fd %d: %s", h.fd, err.Error())
		return errnoErr(err)
	}
	return nil
}

// Poll runs one readiness cycle: it blocks up to timeout (forever if
// negative) for events, invokes each ready Handle's wake callback with the
// observed WakeOptions, and returns the Batch of tasks those callbacks made
// runnable. The caller dispatches the batch; nothing is resumed during
// draining. An elapsed timeout yields an empty batch, not an error.
func (n *Notifier) Poll(timeout time.Duration) (*Batch, error) {
	if n.closed.Load() {
		return nil, ErrNotifierClosed
	}

	b := NewBatch()
	_, err := n.poll.Wait(timeout, func(fd int, events poller.Event) {
		n.mu.Lock()
		h := n.table[fd]
		n.mu.Unlock()
		if h == nil {
			// raced a deregistration; the edge is stale
			return
		}
		h.wake(b, WakeOptions{
			ReadReady:  events&poller.EventRead != 0,
			WriteReady: events&poller.EventWrite != 0,
			Shutdown:   events&poller.EventHup != 0,
		})
	})
	if err != nil {
		evlog.Errorf("[poller.Wait]: %s", err.Error())
		return nil, err
	}
	return b, nil
}

// Interrupt wakes a concurrent Poll before its timeout elapses. The
// interrupted cycle returns normally, usually with an empty batch.
func (n *Notifier) Interrupt() error {
	return n.poll.Trigger()
}

// Close releases the multiplexer. Registered descriptors stay open; their
// Sockets own them.
func (n *Notifier) Close() error {
	if !n.closed.CAS(false, true) {
		return ErrNotifierClosed
	}
	_ = n.poll.Trigger()
	return n.poll.Close()
}
