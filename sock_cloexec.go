//go:build linux || netbsd || freebsd || openbsd || dragonfly
// +build linux netbsd freebsd openbsd dragonfly

package pike

import "golang.org/x/sys/unix"

// sysSocket creates a descriptor with the non-blocking and close-on-exec
// flags applied atomically.
func sysSocket(domain, typ, proto int) (int, error) {
	return unix.Socket(domain, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, proto)
}

// sysAccept accepts a connection, returning a descriptor that is already
// non-blocking and close-on-exec, together with the peer address.
func sysAccept(fd int) (int, unix.Sockaddr, error) {
	return unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
}
