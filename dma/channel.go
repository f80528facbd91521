package dma

import (
	"sync"

	"github.com/ardnew/softdma/mmio"
	"github.com/ardnew/softdma/pkg"
)

// MaxChannels is the number of channels a DMA controller may expose.
const MaxChannels = 16

// Register offsets from a channel's base address.
const (
	RegReadAddr   = 0x00 // Source bus address (64-bit)
	RegWriteAddr  = 0x08 // Destination bus address (64-bit)
	RegTransCount = 0x10 // Transfer length in bytes
	RegCtrl       = 0x14 // Control bits
	RegStatus     = 0x18 // Status bits (engine-owned)
)

// Control register bits. The CPU owns this register; the engine clears
// CtrlEnable itself when a transfer finishes, mirroring a hardware
// trigger bit.
const (
	CtrlEnable    uint32 = 1 << iota // Transfer enabled / in progress
	CtrlIncrRead                     // Increment source address per byte
	CtrlIncrWrite                    // Increment destination address per byte
)

// Status register bits. The engine owns this register.
const (
	StatusDone  uint32 = 1 << iota // Last transfer ran to completion
	StatusError                    // Last transfer faulted (unmapped address)
)

// RegisterMap names the device-specific bus addresses of one channel's
// registers. Maps come from the board description, never from
// constants baked into channel logic.
type RegisterMap struct {
	ReadAddr   uintptr
	WriteAddr  uintptr
	TransCount uintptr
	Ctrl       uintptr
	Status     uintptr
}

// MapAt builds the register map for a channel block at base.
func MapAt(base uintptr) RegisterMap {
	return RegisterMap{
		ReadAddr:   base + RegReadAddr,
		WriteAddr:  base + RegWriteAddr,
		TransCount: base + RegTransCount,
		Ctrl:       base + RegCtrl,
		Status:     base + RegStatus,
	}
}

// Registers is one channel's register block. The CPU side reaches it
// through [Channel]; the servicing engine shares the same cells.
type Registers struct {
	ReadAddr   *mmio.R64
	WriteAddr  *mmio.R64
	TransCount *mmio.R32
	Ctrl       *mmio.R32
	Status     *mmio.R32
}

var (
	claimMutex sync.Mutex
	// claimed tracks the bitset of claimed DMA channels.
	claimed uint16
)

// Channel is the exclusive owner of one DMA engine's register block.
//
// A Channel is claimed once at system init and then moves with the
// device handle that embeds it; the claim bitset only prevents two
// init paths from constructing the same channel. All operations are
// direct register accesses with no software buffering and no error
// path: misusing them (for example starting an already-running
// channel) is a caller contract violation, not a reported condition.
type Channel struct {
	id   int
	regs Registers
}

// Claim constructs the channel with the given controller index,
// allocating its register block from the device-specific map.
// It fails with [pkg.ErrChannelClaimed] if the index is already
// claimed and [pkg.ErrNoChannel] if it is out of range.
func Claim(id int, m RegisterMap) (*Channel, error) {
	if id < 0 || id >= MaxChannels {
		return nil, pkg.ErrNoChannel
	}
	claimMutex.Lock()
	defer claimMutex.Unlock()
	if claimed&(1<<id) != 0 {
		return nil, pkg.ErrChannelClaimed
	}
	claimed |= 1 << id
	pkg.LogDebug(pkg.ComponentChannel, "channel claimed", "id", id)
	return &Channel{
		id: id,
		regs: Registers{
			ReadAddr:   mmio.NewR64(m.ReadAddr),
			WriteAddr:  mmio.NewR64(m.WriteAddr),
			TransCount: mmio.NewR32(m.TransCount),
			Ctrl:       mmio.NewR32(m.Ctrl),
			Status:     mmio.NewR32(m.Status),
		},
	}, nil
}

// Release returns the channel's controller index to the claim bitset.
// The caller must not use the channel afterward.
func (c *Channel) Release() {
	claimMutex.Lock()
	defer claimMutex.Unlock()
	claimed &^= 1 << c.id
	pkg.LogDebug(pkg.ComponentChannel, "channel released", "id", c.id)
}

// ID returns the channel's controller index.
func (c *Channel) ID() int { return c.id }

// Regs exposes the register block for the servicing engine.
func (c *Channel) Regs() *Registers { return &c.regs }

// SetSource configures the address data is read from. inc selects
// whether the engine advances the address after every byte.
func (c *Channel) SetSource(addr uintptr, inc bool) {
	c.regs.ReadAddr.Store(uint64(addr))
	if inc {
		c.regs.Ctrl.SetBits(CtrlIncrRead)
	} else {
		c.regs.Ctrl.ClearBits(CtrlIncrRead)
	}
}

// SetDestination configures the address data is written to. inc
// selects whether the engine advances the address after every byte.
func (c *Channel) SetDestination(addr uintptr, inc bool) {
	c.regs.WriteAddr.Store(uint64(addr))
	if inc {
		c.regs.Ctrl.SetBits(CtrlIncrWrite)
	} else {
		c.regs.Ctrl.ClearBits(CtrlIncrWrite)
	}
}

// SetLength configures the number of bytes to transfer.
func (c *Channel) SetLength(n int) {
	c.regs.TransCount.Store(uint32(n))
}

// Start begins the transfer. The caller must have issued a release
// fence after its last buffer write and before calling Start.
func (c *Channel) Start() {
	c.regs.Status.ClearBits(StatusDone | StatusError)
	c.regs.Ctrl.SetBits(CtrlEnable)
}

// Stop halts the transfer. The engine abandons the remaining bytes
// when it observes the cleared enable bit. Callers regaining buffer
// access after Stop must perform a dummy volatile read and an acquire
// fence first.
func (c *Channel) Stop() {
	c.regs.Ctrl.ClearBits(CtrlEnable)
}

// InProgress reports whether a transfer is enabled and not yet
// complete. It is a single volatile read with no side effects and no
// ordering guarantee; observing false is not synchronized until a
// following acquire fence.
func (c *Channel) InProgress() bool {
	return c.regs.Ctrl.LoadBits(CtrlEnable) != 0
}

// Done reports whether the engine ran the last transfer to completion
// (as opposed to being stopped or faulting).
func (c *Channel) Done() bool {
	return c.regs.Status.LoadBits(StatusDone) != 0
}

// Faulted reports whether the engine abandoned the last transfer on an
// unmapped bus address.
func (c *Channel) Faulted() bool {
	return c.regs.Status.LoadBits(StatusError) != 0
}
