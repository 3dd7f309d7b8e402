//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package poller

import (
	"errors"
	"time"
)

type (
	Event uint32

	// EventHandler receives one ready descriptor with the directions the
	// OS reported for it.
	EventHandler func(fd int, events Event)
)

const (
	EventRead  Event = 0x1
	EventWrite Event = 0x2
	// EventHup reports an error or hangup edge; no further edges will
	// arrive for the affected direction.
	EventHup Event = 0x4
)

const waitEventsBeginNum = 128

var ErrClosed = errors.New("poller is closed")

// Poller is the OS readiness demultiplexer. Registration is edge-triggered:
// one notification per readiness transition, so the consumer must drain the
// descriptor until it would block before expecting another event.
type Poller interface {
	// Add watches fd for the given directions.
	Add(fd int, events Event) error
	// Mod changes the watched directions of an already-added fd.
	Mod(fd int, events Event) error
	// Del stops watching fd.
	Del(fd int) error
	// Wait runs one demultiplex cycle: it blocks up to timeout (forever
	// if negative) for readiness, invokes handler once per ready fd, and
	// returns the number of descriptors handled. Zero means the timeout
	// elapsed or the wait was interrupted.
	Wait(timeout time.Duration, handler EventHandler) (int, error)
	// Trigger wakes a concurrent Wait before its timeout.
	Trigger() error
	Close() error
}
