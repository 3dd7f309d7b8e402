//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package pike

import (
	"net"

	"go.uber.org/atomic"
	"golang.org/x/sys/unix"

	"github.com/LinuXY/pike/evlog"
	"github.com/LinuXY/pike/util"
)

// ShutdownHow selects the direction(s) closed by Socket.Shutdown.
type ShutdownHow int

const (
	ShutRead  ShutdownHow = unix.SHUT_RD
	ShutWrite ShutdownHow = unix.SHUT_WR
	ShutBoth  ShutdownHow = unix.SHUT_RDWR
)

// Socket wraps a non-blocking descriptor and turns would-block syscall
// outcomes into suspension points. It owns its Handle and one Waker per
// direction. The descriptor is non-blocking from construction; that is a
// precondition of every operation, not a runtime toggle.
type Socket struct {
	fd       int
	handle   *Handle
	notifier *Notifier
	readers  *Waker
	writers  *Waker
	closed   *atomic.Bool
}

// NewSocket creates a socket descriptor in non-blocking, close-on-exec mode
// and wraps it. The socket must be registered to a Notifier before any
// operation that could park.
func NewSocket(domain, typ, proto int) (*Socket, error) {
	fd, err := sysSocket(domain, typ, proto)
	if err != nil {
		return nil, errnoErr(err)
	}
	return newSocket(fd), nil
}

func newSocket(fd int) *Socket {
	s := &Socket{
		fd:      fd,
		readers: NewWaker(),
		writers: NewWaker(),
		closed:  atomic.NewBool(false),
	}
	s.handle = NewHandle(fd, s.wakeup)
	return s
}

// FD returns the underlying descriptor.
func (s *Socket) FD() int {
	return s.fd
}

// Handle returns the Socket's registration handle.
func (s *Socket) Handle() *Handle {
	return s.handle
}

// RegisterTo adds the socket to n's watch set for both directions.
func (s *Socket) RegisterTo(n *Notifier) error {
	if s.closed.Load() {
		return ErrSocketClosed
	}
	if err := n.Register(s.handle, Interest{Read: true, Write: true}); err != nil {
		return err
	}
	s.notifier = n
	return nil
}

// wakeup is the Handle callback: it pops parked tasks into the poll cycle's
// batch. One task per direction per edge; edge-triggered readiness delivers
// one edge per transition, so waking more would thunder the herd at a single
// edge. A shutdown edge is terminal, no further events will arrive, so both
// queues drain completely and the resumed tasks pick up the definite
// syscall outcome on retry.
func (s *Socket) wakeup(b *Batch, opts WakeOptions) {
	if opts.Shutdown {
		for t := s.readers.Notify(); t != nil; t = s.readers.Notify() {
			b.Add(t)
		}
		for t := s.writers.Notify(); t != nil; t = s.writers.Notify() {
			b.Add(t)
		}
		return
	}
	if opts.ReadReady {
		if t := s.readers.Notify(); t != nil {
			b.Add(t)
		}
	}
	if opts.WriteReady {
		if t := s.writers.Notify(); t != nil {
			b.Add(t)
		}
	}
}

// call runs op until it produces a definite outcome, parking the calling
// task on w across would-block results. Any other error is returned without
// parking; EINTR retries immediately.
func (s *Socket) call(w *Waker, lifo bool, op func() (int, error)) (int, error) {
	for {
		n, err := op()
		if err == unix.EINTR {
			continue
		}
		if !wouldBlock(err) {
			return n, err
		}

		t := NewTask()
		if werr := w.Wait(t, lifo); werr != nil {
			return 0, werr
		}
		// The readiness edge may have arrived between the failed attempt
		// and the enqueue above; retry once before suspending. On a
		// definite outcome the task either withdraws from the queue or
		// absorbs the wake already in flight.
		if n, err = op(); err != unix.EINTR && !wouldBlock(err) {
			t.claim()
			return n, err
		}
		if rerr := t.Await(); rerr != nil {
			return 0, rerr
		}
	}
}

// Bind assigns the local address. Direct syscall, never parks.
func (s *Socket) Bind(sa unix.Sockaddr) error {
	if err := unix.Bind(s.fd, sa); err != nil {
		return errnoErr(err)
	}
	return nil
}

// Listen marks the socket as accepting connections. Direct syscall, never
// parks.
func (s *Socket) Listen(backlog int) error {
	if err := unix.Listen(s.fd, backlog); err != nil {
		return errnoErr(err)
	}
	return nil
}

// Accept waits for an inbound connection and returns it as a fresh,
// independently owned Connection. The accepted descriptor arrives
// non-blocking and close-on-exec; the caller registers it wherever it
// belongs.
func (s *Socket) Accept() (*Connection, error) {
	if s.closed.Load() {
		return nil, ErrSocketClosed
	}
	var sa unix.Sockaddr
	nfd, err := s.call(s.readers, false, func() (int, error) {
		fd, a, err := sysAccept(s.fd)
		if err != nil {
			if err == unix.ECONNABORTED {
				// the pending connection died in the backlog; try the next
				err = unix.EINTR
			}
			return 0, err
		}
		sa = a
		return fd, nil
	})
	if err != nil {
		return nil, errnoErr(err)
	}

	c := &Connection{
		Socket: newSocket(nfd),
		Addr:   util.SockaddrToTCPAddr(sa),
	}
	evlog.Debugf("[Socket.Accept]: fd %d <- peer %v (fd %d)", s.fd, c.Addr, nfd)
	return c, nil
}

// Connect starts a non-blocking connect. A pending attempt parks on the
// write Waker with LIFO discipline: a newer connect supersedes a stale one,
// so the most recent waiter owns the next writable edge. Once writable, the
// socket error option decides between success and refusal. Connecting an
// already-connected socket is a successful no-op.
func (s *Socket) Connect(sa unix.Sockaddr) error {
	if s.closed.Load() {
		return ErrSocketClosed
	}

	err := unix.Connect(s.fd, sa)
	switch {
	case err == nil, err == unix.EISCONN:
		return nil
	case connectPending(err):
	default:
		return errnoErr(err)
	}

	t := NewTask()
	if werr := s.writers.Wait(t, true); werr != nil {
		return werr
	}
	// the attempt may have settled between the syscall and the enqueue
	if perr := unix.Connect(s.fd, sa); !connectPending(perr) {
		if t.claim() {
			if perr == nil || perr == unix.EISCONN {
				return nil
			}
			return errnoErr(perr)
		}
		// popped concurrently; fall through and consume the wake
	}
	if rerr := t.Await(); rerr != nil {
		return rerr
	}

	if serr := s.SocketError(); serr != nil {
		evlog.Debugf("[Socket.Connect]: fd %d -> %v: %s", s.fd, sa, serr.Error())
		return serr
	}
	evlog.Debugf("[Socket.Connect]: fd %d -> %v", s.fd, sa)
	return nil
}

func connectPending(err error) bool {
	return err == unix.EINPROGRESS || err == unix.EALREADY || err == unix.EINTR || wouldBlock(err)
}

// Read fills p from the stream, parking FIFO on the read direction until
// data arrives. Peer reset, a descriptor not open for reading, and
// cancellation during the park all collapse to a clean zero-byte read:
// callers see one kind of end-of-stream regardless of how the close
// happened.
func (s *Socket) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, nil
	}
	n, err := s.call(s.readers, false, func() (int, error) {
		return unix.Read(s.fd, p)
	})
	switch err {
	case nil:
		return n, nil
	case ErrCancelled, unix.ECONNRESET, unix.EBADF:
		return 0, nil
	}
	return 0, errnoErr(err)
}

// Write pushes p to the stream, parking LIFO on the write direction while
// the send buffer is full. Returns the number of bytes accepted, which may
// be short.
func (s *Socket) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrSocketClosed
	}
	n, err := s.call(s.writers, true, func() (int, error) {
		return unix.Write(s.fd, p)
	})
	if err != nil {
		return 0, errnoErr(err)
	}
	return n, nil
}

// Recv receives with flags, parking FIFO on the read direction.
func (s *Socket) Recv(p []byte, flags int) (int, error) {
	n, _, err := s.RecvFrom(p, flags)
	return n, err
}

// RecvFrom receives with flags and reports the sender, parking FIFO on the
// read direction.
func (s *Socket) RecvFrom(p []byte, flags int) (int, unix.Sockaddr, error) {
	if s.closed.Load() {
		return 0, nil, ErrSocketClosed
	}
	var from unix.Sockaddr
	n, err := s.call(s.readers, false, func() (int, error) {
		n, a, err := unix.Recvfrom(s.fd, p, flags)
		if err != nil {
			return 0, err
		}
		from = a
		return n, nil
	})
	if err != nil {
		return 0, nil, errnoErr(err)
	}
	return n, from, nil
}

// Send transmits p with flags on a connected socket, parking LIFO on the
// write direction.
func (s *Socket) Send(p []byte, flags int) (int, error) {
	return s.SendTo(p, flags, nil)
}

// SendTo transmits p with flags to the given peer, parking LIFO on the
// write direction.
func (s *Socket) SendTo(p []byte, flags int, to unix.Sockaddr) (int, error) {
	if s.closed.Load() {
		return 0, ErrSocketClosed
	}
	n, err := s.call(s.writers, true, func() (int, error) {
		return unix.SendmsgN(s.fd, p, nil, to, flags)
	})
	if err != nil {
		return 0, errnoErr(err)
	}
	return n, nil
}

// Shutdown closes the socket for further I/O in the given direction(s).
// Direct syscall; the descriptor stays allocated until Close.
func (s *Socket) Shutdown(how ShutdownHow) error {
	if err := unix.Shutdown(s.fd, int(how)); err != nil {
		return errnoErr(err)
	}
	return nil
}

// BindAddress reports the locally bound address, typically to recover the
// port after an ephemeral bind.
func (s *Socket) BindAddress() (net.Addr, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return nil, errnoErr(err)
	}
	if typ, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_TYPE); err == nil && typ == unix.SOCK_DGRAM {
		return util.SockaddrToUDPAddr(sa), nil
	}
	return util.SockaddrToTCPAddr(sa), nil
}

// Close tears the socket down. The order is load-bearing: shut down both
// directions, drain and cancel every parked task, deregister the handle,
// close the descriptor, and only then dispatch the cancellations, so that
// no woken task can touch a closed descriptor and none is left parked
// forever.
func (s *Socket) Close() error {
	if !s.closed.CAS(false, true) {
		return ErrSocketClosed
	}

	_ = unix.Shutdown(s.fd, unix.SHUT_RDWR)

	b := NewBatch()
	for t := s.readers.Shutdown(); t != nil; t = s.readers.Shutdown() {
		b.Add(t)
	}
	for t := s.writers.Shutdown(); t != nil; t = s.writers.Shutdown() {
		b.Add(t)
	}

	if s.notifier != nil {
		_ = s.notifier.Deregister(s.handle)
		s.notifier = nil
	}

	cancelled := b.Len()
	err := unix.Close(s.fd)
	b.Dispatch()

	evlog.Debugf("[Socket.Close]: fd %d, cancelled %d parked task(s)", s.fd, cancelled)
	if err != nil {
		return errnoErr(err)
	}
	return nil
}
