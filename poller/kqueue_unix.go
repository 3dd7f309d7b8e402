//go:build darwin || netbsd || freebsd || openbsd || dragonfly
// +build darwin netbsd freebsd openbsd dragonfly

package poller

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/LinuXY/pike/util"
)

type KQueue struct {
	fd     int
	events []unix.Kevent_t
	closed bool
}

// New creates the platform poller.
func New() (Poller, error) {
	return KQueueCreate()
}

// KQueueCreate acquires a kqueue instance with a user event registered for
// cross-thread wakeups.
func KQueueCreate() (*KQueue, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}

	var ev unix.Kevent_t
	unix.SetKevent(&ev, 0, unix.EVFILT_USER, unix.EV_ADD|unix.EV_CLEAR)
	if _, err := unix.Kevent(fd, []unix.Kevent_t{ev}, nil, nil); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return &KQueue{
		fd:     fd,
		events: make([]unix.Kevent_t, waitEventsBeginNum),
	}, nil
}

func (kq *KQueue) Trigger() error {
	var ev unix.Kevent_t
	unix.SetKevent(&ev, 0, unix.EVFILT_USER, 0)
	ev.Fflags = unix.NOTE_TRIGGER
	_, err := unix.Kevent(kq.fd, []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (kq *KQueue) Add(fd int, events Event) error {
	return kq.apply(fd, events, unix.EV_ADD|unix.EV_CLEAR)
}

func (kq *KQueue) Mod(fd int, events Event) error {
	// kqueue filters are independent registrations; re-adding replaces and
	// removing the unwanted direction completes the modification.
	if err := kq.apply(fd, events, unix.EV_ADD|unix.EV_CLEAR); err != nil {
		return err
	}
	return kq.apply(fd, ^events&(EventRead|EventWrite), unix.EV_DELETE)
}

func (kq *KQueue) Del(fd int) error {
	return kq.apply(fd, EventRead|EventWrite, unix.EV_DELETE)
}

func (kq *KQueue) Wait(timeout time.Duration, handler EventHandler) (int, error) {
	if kq.closed {
		return 0, ErrClosed
	}
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	n, err := unix.Kevent(kq.fd, nil, kq.events, ts)
	if err != nil {
		if util.TemporaryErr(err) {
			return 0, nil
		}
		return 0, err
	}

	handled := 0
	for i := 0; i < n; i++ {
		ev := kq.events[i]
		if ev.Filter == unix.EVFILT_USER {
			continue
		}
		handler(int(ev.Ident), eventFromKevent(ev))
		handled++
	}

	if n == len(kq.events) {
		kq.events = make([]unix.Kevent_t, int(float64(n)*1.5))
	}
	return handled, nil
}

func (kq *KQueue) Close() error {
	if kq.closed {
		return ErrClosed
	}
	kq.closed = true
	return unix.Close(kq.fd)
}

func (kq *KQueue) apply(fd int, events Event, flags int) error {
	changes := make([]unix.Kevent_t, 0, 2)
	if events&EventRead != 0 {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, fd, unix.EVFILT_READ, flags)
		changes = append(changes, ev)
	}
	if events&EventWrite != 0 {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, fd, unix.EVFILT_WRITE, flags)
		changes = append(changes, ev)
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(kq.fd, changes, nil, nil)
	if flags&unix.EV_DELETE != 0 && err == unix.ENOENT {
		// direction was never registered
		err = nil
	}
	return err
}

func eventFromKevent(ev unix.Kevent_t) Event {
	var e Event
	switch ev.Filter {
	case unix.EVFILT_READ:
		e |= EventRead
	case unix.EVFILT_WRITE:
		e |= EventWrite
	}
	if ev.Flags&unix.EV_ERROR != 0 {
		e |= EventRead | EventWrite | EventHup
	}
	if ev.Flags&unix.EV_EOF != 0 {
		e |= EventHup
	}
	return e
}
