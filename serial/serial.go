package serial

import (
	"math"
	"sync/atomic"

	"github.com/ardnew/softdma/dma"
	"github.com/ardnew/softdma/mmio"
	"github.com/ardnew/softdma/pin"
	"github.com/ardnew/softdma/pkg"
)

// Config names the peripheral's data register addresses. They are
// device-specific and come from the board description.
type Config struct {
	// TxData is the transmit data register: the destination of every
	// write transfer.
	TxData uintptr

	// RxData is the receive data register: the source of every read
	// transfer.
	RxData uintptr
}

// Port is the device handle for one serial peripheral. It owns exactly
// one DMA channel and exposes the only entry points that may start a
// transfer.
//
// Starting a transfer consumes the Port: until the resulting
// [Transfer] returns ownership through Wait or Close, every further
// start attempt fails with [pkg.ErrConsumed]. This is the ownership
// substitute for locking: while a transfer is active there is exactly
// one owner of the channel and the buffer, so no mutual exclusion
// protocol with the hardware actor is needed (none would be possible;
// hardware cannot take a lock).
type Port struct {
	ch       *dma.Channel
	cfg      Config
	consumed atomic.Bool
}

// New creates the device handle owning the given channel. Created once
// at system init; afterward the Port is only ever obtained back from a
// completed Transfer.
func New(ch *dma.Channel, cfg Config) (*Port, error) {
	if ch == nil || cfg.TxData == 0 || cfg.RxData == 0 {
		return nil, pkg.ErrInvalidParameter
	}
	return &Port{ch: ch, cfg: cfg}, nil
}

// Channel exposes the owned channel so system init can attach the
// servicing engine. It must not be used to drive transfers directly.
func (p *Port) Channel() *dma.Channel { return p.ch }

// StartRead begins receiving into buf until it is filled, consuming
// the Port and lending buf to hardware. The returned Transfer owns
// both until Wait or Close.
func (p *Port) StartRead(buf *pin.Buffer) (*Transfer, error) {
	return p.start(buf, readDirection)
}

// StartWrite begins sending the contents of buf, consuming the Port
// and lending buf to hardware. The returned Transfer owns both until
// Wait or Close.
func (p *Port) StartWrite(buf *pin.Buffer) (*Transfer, error) {
	return p.start(buf, writeDirection)
}

type direction int

const (
	readDirection direction = iota
	writeDirection
)

func (d direction) String() string {
	if d == readDirection {
		return "read"
	}
	return "write"
}

func (p *Port) start(buf *pin.Buffer, dir direction) (*Transfer, error) {
	if buf == nil {
		return nil, pkg.ErrInvalidParameter
	}
	if uint64(buf.Len()) > math.MaxUint32 {
		return nil, pkg.ErrBufferTooLarge
	}
	if !p.consumed.CompareAndSwap(false, true) {
		return nil, pkg.ErrConsumed
	}
	if err := buf.Lend(); err != nil {
		p.consumed.Store(false)
		return nil, err
	}

	switch dir {
	case readDirection:
		p.ch.SetSource(p.cfg.RxData, false)
		p.ch.SetDestination(buf.Addr(), true)
	case writeDirection:
		p.ch.SetSource(buf.Addr(), true)
		p.ch.SetDestination(p.cfg.TxData, false)
	}
	p.ch.SetLength(buf.Len())

	// Everything the CPU wrote, buffer contents and channel
	// configuration alike, must be visible to the engine before the start
	// bit, and the start write must not be hoisted above any of it.
	mmio.ReleaseFence()
	p.ch.Start()

	pkg.LogDebug(pkg.ComponentSerial, "transfer started",
		"dir", dir.String(), "len", buf.Len())

	return &Transfer{port: p, buf: buf}, nil
}
