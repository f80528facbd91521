package pkg

import "errors"

// Ownership and lifecycle errors.
//
// The transfer abstraction has no recoverable data-path errors; every
// sentinel below names a caller contract violation that the ownership
// protocol rejects before hardware is touched.
var (
	// ErrConsumed indicates the device handle was already spent on a transfer.
	ErrConsumed = errors.New("device handle consumed by an active transfer")

	// ErrLent indicates buffer access while the buffer is lent to hardware.
	ErrLent = errors.New("buffer lent to hardware")

	// ErrNotLent indicates a return of a buffer that was never lent.
	ErrNotLent = errors.New("buffer not lent")

	// ErrReleased indicates an operation on a transfer already released.
	ErrReleased = errors.New("transfer already released")

	// ErrNotPinned indicates a buffer whose memory is no longer pinned.
	ErrNotPinned = errors.New("buffer not pinned")

	// ErrBufferTooLarge indicates a buffer longer than the channel count register.
	ErrBufferTooLarge = errors.New("buffer exceeds transfer count range")

	// ErrEmptyBuffer indicates a zero-length buffer.
	ErrEmptyBuffer = errors.New("empty buffer")

	// ErrChannelClaimed indicates the DMA channel is already claimed.
	ErrChannelClaimed = errors.New("channel already claimed")

	// ErrNoChannel indicates an out-of-range DMA channel index.
	ErrNoChannel = errors.New("no such channel")

	// ErrAlreadyRunning indicates the component is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning indicates the component is not running.
	ErrNotRunning = errors.New("not running")

	// ErrUnmappedAddress indicates a bus address with no backing memory
	// or peripheral port.
	ErrUnmappedAddress = errors.New("unmapped bus address")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownChip indicates a chip name absent from the board map.
	ErrUnknownChip = errors.New("unknown chip")

	// ErrUnknownVector indicates an out-of-range exception vector.
	ErrUnknownVector = errors.New("unknown exception vector")
)

// TransferStatus represents the observable state of a DMA transfer.
type TransferStatus int

// Transfer status values.
const (
	TransferStatusActive   TransferStatus = iota // Hardware owns the buffer
	TransferStatusComplete                       // Hardware finished, ownership not yet returned
	TransferStatusReleased                       // Ownership returned to the caller
	TransferStatusStopped                        // Forced teardown stopped the hardware
)

// String returns a string representation of the transfer status.
func (s TransferStatus) String() string {
	switch s {
	case TransferStatusActive:
		return "active"
	case TransferStatusComplete:
		return "complete"
	case TransferStatusReleased:
		return "released"
	case TransferStatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
