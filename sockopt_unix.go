//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package pike

import (
	"time"

	"golang.org/x/sys/unix"
)

// Typed socket option surface. Each option kind carries its value type in
// the method signature, so a mismatched get or set does not compile. The
// marshalling to the raw getsockopt/setsockopt representation is mechanical;
// the one special case is the socket error option, which is translated into
// the package error taxonomy instead of leaking a raw error number.

// BoolOption enumerates the boolean options.
type BoolOption int

const (
	Debug BoolOption = iota
	// AcceptingConnections reports listen state; the OS rejects sets.
	AcceptingConnections
	ReuseAddress
	KeepAlive
	DontRoute
	Broadcast
	OOBInline
)

var boolOptionNames = map[BoolOption]int{
	Debug:                unix.SO_DEBUG,
	AcceptingConnections: unix.SO_ACCEPTCONN,
	ReuseAddress:         unix.SO_REUSEADDR,
	KeepAlive:            unix.SO_KEEPALIVE,
	DontRoute:            unix.SO_DONTROUTE,
	Broadcast:            unix.SO_BROADCAST,
	OOBInline:            unix.SO_OOBINLINE,
}

// IntOption enumerates the integer-valued options.
type IntOption int

const (
	SendBufferSize IntOption = iota
	RecvBufferSize
	SendLowWater
	RecvLowWater
)

var intOptionNames = map[IntOption]int{
	SendBufferSize: unix.SO_SNDBUF,
	RecvBufferSize: unix.SO_RCVBUF,
	SendLowWater:   unix.SO_SNDLOWAT,
	RecvLowWater:   unix.SO_RCVLOWAT,
}

// TimeoutOption enumerates the timeout options, valued in milliseconds.
type TimeoutOption int

const (
	SendTimeout TimeoutOption = iota
	RecvTimeout
)

var timeoutOptionNames = map[TimeoutOption]int{
	SendTimeout: unix.SO_SNDTIMEO,
	RecvTimeout: unix.SO_RCVTIMEO,
}

// SetBool sets a boolean option.
func (s *Socket) SetBool(opt BoolOption, v bool) error {
	val := 0
	if v {
		val = 1
	}
	if err := unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, boolOptionNames[opt], val); err != nil {
		return errnoErr(err)
	}
	return nil
}

// GetBool reads a boolean option.
func (s *Socket) GetBool(opt BoolOption) (bool, error) {
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, boolOptionNames[opt])
	if err != nil {
		return false, errnoErr(err)
	}
	return v != 0, nil
}

// SetInt sets an integer option. The OS may round the stored value; read it
// back to observe what was actually applied.
func (s *Socket) SetInt(opt IntOption, v int) error {
	if err := unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, intOptionNames[opt], v); err != nil {
		return errnoErr(err)
	}
	return nil
}

// GetInt reads an integer option.
func (s *Socket) GetInt(opt IntOption) (int, error) {
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, intOptionNames[opt])
	if err != nil {
		return 0, errnoErr(err)
	}
	return v, nil
}

// SetTimeout sets a send or receive timeout in milliseconds.
func (s *Socket) SetTimeout(opt TimeoutOption, ms int) error {
	tv := unix.NsecToTimeval(int64(ms) * int64(time.Millisecond))
	if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, timeoutOptionNames[opt], &tv); err != nil {
		return errnoErr(err)
	}
	return nil
}

// GetTimeout reads a send or receive timeout in milliseconds.
func (s *Socket) GetTimeout(opt TimeoutOption) (int, error) {
	tv, err := unix.GetsockoptTimeval(s.fd, unix.SOL_SOCKET, timeoutOptionNames[opt])
	if err != nil {
		return 0, errnoErr(err)
	}
	return int(tv.Nano() / int64(time.Millisecond)), nil
}

// SetLinger configures close-time lingering.
func (s *Socket) SetLinger(on bool, seconds int) error {
	l := unix.Linger{Linger: int32(seconds)}
	if on {
		l.Onoff = 1
	}
	if err := unix.SetsockoptLinger(s.fd, unix.SOL_SOCKET, unix.SO_LINGER, &l); err != nil {
		return errnoErr(err)
	}
	return nil
}

// GetLinger reads the linger configuration.
func (s *Socket) GetLinger() (bool, int, error) {
	l, err := unix.GetsockoptLinger(s.fd, unix.SOL_SOCKET, unix.SO_LINGER)
	if err != nil {
		return false, 0, errnoErr(err)
	}
	return l.Onoff != 0, int(l.Linger), nil
}

// SocketError drains the pending socket error, translated into the package
// taxonomy. Returns nil when no error is pending. This is how a completed
// non-blocking connect reports its outcome.
func (s *Socket) SocketError() error {
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return errnoErr(err)
	}
	if v == 0 {
		return nil
	}
	return errnoErr(unix.Errno(v))
}

// SocketType reports the socket type (stream, datagram, ...).
func (s *Socket) SocketType() (int, error) {
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return 0, errnoErr(err)
	}
	return v, nil
}
