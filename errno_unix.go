//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package pike

import "golang.org/x/sys/unix"

// errnoErr translates a raw OS error number into the package taxonomy.
// Numbers without a structured counterpart pass through as the errno itself.
func errnoErr(err error) error {
	errno, ok := err.(unix.Errno)
	if !ok {
		return err
	}
	switch errno {
	case unix.EACCES, unix.EPERM:
		return ErrPermissionDenied
	case unix.EADDRINUSE:
		return ErrAddressInUse
	case unix.EADDRNOTAVAIL:
		return ErrAddressNotAvailable
	case unix.EAFNOSUPPORT:
		return ErrAddressFamilyUnsupported
	case unix.EMFILE, unix.ENFILE, unix.ENOBUFS, unix.ENOMEM:
		return ErrResourceExhausted
	case unix.EALREADY:
		return ErrAlreadyConnecting
	case unix.EISCONN:
		return ErrAlreadyConnected
	case unix.EBADF:
		return ErrBadDescriptor
	case unix.ECONNREFUSED:
		return ErrConnectionRefused
	case unix.ECONNRESET:
		return ErrConnectionReset
	case unix.EINVAL:
		return ErrInvalidParameter
	case unix.ENETUNREACH, unix.EHOSTUNREACH:
		return ErrNetworkUnreachable
	case unix.ENOTSOCK:
		return ErrNotSocket
	case unix.EPROTONOSUPPORT, unix.EPROTOTYPE:
		return ErrProtocolUnsupported
	case unix.ETIMEDOUT:
		return ErrTimedOut
	}
	return errno
}

// wouldBlock reports the transient no-progress outcome handled by parking.
func wouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
