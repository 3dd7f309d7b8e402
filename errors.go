package pike

import "errors"

// Closed taxonomy for the structured OS failures a socket operation can
// surface. Would-block outcomes are consumed by the park loop and never
// escape.
var (
	ErrPermissionDenied         = errors.New("pike: permission denied")
	ErrAddressInUse             = errors.New("pike: address in use")
	ErrAddressNotAvailable      = errors.New("pike: address not available")
	ErrAddressFamilyUnsupported = errors.New("pike: address family not supported")
	ErrResourceExhausted        = errors.New("pike: system resources exhausted")
	ErrAlreadyConnecting        = errors.New("pike: connection attempt already in progress")
	ErrAlreadyConnected         = errors.New("pike: socket already connected")
	ErrBadDescriptor            = errors.New("pike: bad file descriptor")
	ErrConnectionRefused        = errors.New("pike: connection refused")
	ErrConnectionReset          = errors.New("pike: connection reset by peer")
	ErrInvalidParameter         = errors.New("pike: invalid parameter")
	ErrNetworkUnreachable       = errors.New("pike: network unreachable")
	ErrNotSocket                = errors.New("pike: not a socket")
	ErrProtocolUnsupported      = errors.New("pike: protocol not supported")
	ErrTimedOut                 = errors.New("pike: connection timed out")

	// ErrCancelled is the outcome delivered to a task that was parked when
	// its socket shut down.
	ErrCancelled = errors.New("pike: operation cancelled")

	ErrSocketClosed      = errors.New("pike: socket closed")
	ErrNotifierClosed    = errors.New("pike: notifier closed")
	ErrAlreadyRegistered = errors.New("pike: descriptor already registered")
	ErrNotRegistered     = errors.New("pike: socket not registered to a notifier")
)
