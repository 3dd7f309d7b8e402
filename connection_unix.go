//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package pike

import (
	"io"
	"net"
)

// Connection is one accepted peer: the fresh Socket, ownership transferred
// to the caller, and the peer address. The listening socket keeps no
// reference to it.
type Connection struct {
	Socket *Socket
	Addr   net.Addr
}

// Reader presents the socket as an io.Reader for composition with protocol
// code. The reactor's zero-byte end-of-stream collapse is translated to
// io.EOF, which is what stream consumers expect.
func (s *Socket) Reader() io.Reader {
	return socketReader{s}
}

// Writer presents the socket as an io.Writer. Short socket writes are
// retried until the whole slice is accepted, per the io.Writer contract.
func (s *Socket) Writer() io.Writer {
	return socketWriter{s}
}

type socketReader struct {
	s *Socket
}

func (r socketReader) Read(p []byte) (int, error) {
	n, err := r.s.Read(p)
	if err == nil && n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, err
}

type socketWriter struct {
	s *Socket
}

func (w socketWriter) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := w.s.Write(p[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
