//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package util

import (
	"net"

	"golang.org/x/sys/unix"
)

// SockaddrToTCPAddr converts a kernel socket address into a net.Addr for
// stream sockets.
func SockaddrToTCPAddr(sa unix.Sockaddr) net.Addr {
	var a net.Addr
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		a = &net.TCPAddr{
			IP:   append([]byte{}, sa.Addr[:]...),
			Port: sa.Port,
		}
	case *unix.SockaddrInet6:
		var zone string
		if sa.ZoneId != 0 {
			if ifi, err := net.InterfaceByIndex(int(sa.ZoneId)); err == nil {
				zone = ifi.Name
			}
		}
		a = &net.TCPAddr{
			IP:   append([]byte{}, sa.Addr[:]...),
			Port: sa.Port,
			Zone: zone,
		}
	case *unix.SockaddrUnix:
		a = &net.UnixAddr{Net: "unix", Name: sa.Name}
	}
	return a
}

// SockaddrToUDPAddr converts a kernel socket address into a net.Addr for
// datagram sockets.
func SockaddrToUDPAddr(sa unix.Sockaddr) net.Addr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.UDPAddr{
			IP:   append([]byte{}, sa.Addr[:]...),
			Port: sa.Port,
		}
	case *unix.SockaddrInet6:
		return &net.UDPAddr{
			IP:   append([]byte{}, sa.Addr[:]...),
			Port: sa.Port,
		}
	}
	return SockaddrToTCPAddr(sa)
}

// TCPAddrToSockaddr converts a resolved TCP address into the kernel form
// expected by bind and connect.
func TCPAddrToSockaddr(a *net.TCPAddr) unix.Sockaddr {
	if ip4 := a.IP.To4(); ip4 != nil || a.IP == nil {
		sa := &unix.SockaddrInet4{Port: a.Port}
		copy(sa.Addr[:], ip4)
		return sa
	}
	sa := &unix.SockaddrInet6{Port: a.Port}
	copy(sa.Addr[:], a.IP.To16())
	return sa
}

// TemporaryErr reports whether err is a transient errno worth retrying.
func TemporaryErr(err error) bool {
	errno, ok := err.(unix.Errno)
	if !ok {
		return false
	}
	return errno.Temporary()
}
