//go:build linux
// +build linux

package poller

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/LinuXY/pike/util"
)

var (
	wakeWriteBytes = []byte{1, 0, 0, 0, 0, 0, 0, 0}
)

type Epoll struct {
	fd      int
	eventFd int
	events  []unix.EpollEvent
	wakeBuf []byte
	closed  bool
}

// New creates the platform poller.
func New() (Poller, error) {
	return EpollCreate()
}

// EpollCreate acquires an epoll instance with an eventfd registered for
// cross-thread wakeups.
func EpollCreate() (*Epoll, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	eventFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	ep := &Epoll{
		fd:      fd,
		eventFd: eventFd,
		events:  make([]unix.EpollEvent, waitEventsBeginNum),
		wakeBuf: make([]byte, 8),
	}

	if err := unix.EpollCtl(fd, unix.EPOLL_CTL_ADD, eventFd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(eventFd),
	}); err != nil {
		_ = unix.Close(fd)
		_ = unix.Close(eventFd)
		return nil, err
	}

	return ep, nil
}

func (ep *Epoll) Trigger() error {
	_, err := unix.Write(ep.eventFd, wakeWriteBytes)
	if err == unix.EAGAIN {
		// counter saturated, a wakeup is already pending
		err = nil
	}
	return err
}

func (ep *Epoll) Add(fd int, events Event) error {
	return ep.ctl(unix.EPOLL_CTL_ADD, fd, events)
}

func (ep *Epoll) Mod(fd int, events Event) error {
	return ep.ctl(unix.EPOLL_CTL_MOD, fd, events)
}

func (ep *Epoll) Del(fd int) error {
	return unix.EpollCtl(ep.fd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (ep *Epoll) Wait(timeout time.Duration, handler EventHandler) (int, error) {
	if ep.closed {
		return 0, ErrClosed
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	n, err := unix.EpollWait(ep.fd, ep.events, ms)
	if err != nil {
		if util.TemporaryErr(err) {
			return 0, nil
		}
		return 0, err
	}

	handled := 0
	for i := 0; i < n; i++ {
		fd := int(ep.events[i].Fd)
		if fd == ep.eventFd {
			_, _ = unix.Read(ep.eventFd, ep.wakeBuf)
			continue
		}
		handler(fd, eventFromEpoll(ep.events[i].Events))
		handled++
	}

	if n == len(ep.events) {
		ep.events = make([]unix.EpollEvent, int(float64(n)*1.5))
	}
	return handled, nil
}

func (ep *Epoll) Close() error {
	if ep.closed {
		return ErrClosed
	}
	ep.closed = true
	_ = unix.Close(ep.eventFd)
	return unix.Close(ep.fd)
}

func (ep *Epoll) ctl(op int, fd int, events Event) error {
	raw := uint32(unix.EPOLLET | unix.EPOLLRDHUP)
	if events&EventRead != 0 {
		raw |= unix.EPOLLIN | unix.EPOLLPRI
	}
	if events&EventWrite != 0 {
		raw |= unix.EPOLLOUT
	}
	return unix.EpollCtl(ep.fd, op, fd, &unix.EpollEvent{
		Events: raw,
		Fd:     int32(fd),
	})
}

func eventFromEpoll(raw uint32) Event {
	var ev Event
	if raw&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		ev |= EventRead
	}
	if raw&unix.EPOLLOUT != 0 {
		ev |= EventWrite
	}
	if raw&unix.EPOLLERR != 0 {
		// an error edge terminates both directions
		ev |= EventRead | EventWrite | EventHup
	}
	if raw&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		// wake readers so they can drain the tail and observe EOF
		ev |= EventRead | EventHup
	}
	return ev
}
