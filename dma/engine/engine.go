package engine

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ardnew/softdma/dma"
	"github.com/ardnew/softdma/pkg"
)

// port is a byte FIFO standing in for a peripheral data register.
// Reads and writes at its bus address move bytes through the FIFO
// instead of memory.
type port struct {
	mutex sync.Mutex
	data  []byte
}

func (p *port) push(b []byte) {
	p.mutex.Lock()
	p.data = append(p.data, b...)
	p.mutex.Unlock()
}

// pop removes and returns one byte, reporting false when empty.
func (p *port) pop() (byte, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if len(p.data) == 0 {
		return 0, false
	}
	b := p.data[0]
	p.data = p.data[1:]
	return b, true
}

func (p *port) drain() []byte {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := p.data
	p.data = nil
	return out
}

// Engine simulates the hardware actor servicing one DMA channel.
//
// It runs on its own goroutine, watching the channel's control
// register. When the enable bit is set it moves bytes one at a time
// between the configured bus addresses, honoring the increment flags,
// then clears the enable bit and raises the done status bit, the same
// externally observable protocol as a silicon engine. Addresses mapped
// to a peripheral [port] move bytes through its FIFO; all other
// nonzero addresses are treated as memory and accessed directly, which
// is exactly why the memory handed to a channel must be pinned.
//
// The engine also carries instrumentation for the test suite: it
// counts transfers and bytes, and flags any memory write it performs
// after the CPU side has declared the transfer's resources reclaimed
// (see [Engine.MarkReleased]). A correct teardown sequence (stop,
// dummy read, acquire fence) makes that flag unreachable.
type Engine struct {
	regs *dma.Registers

	mutex sync.RWMutex
	ports map[uintptr]*port

	running  atomic.Bool
	closeCh  chan struct{}
	doneWait sync.WaitGroup

	// onComplete, if set, runs on the engine goroutine after a
	// transfer finishes (completion-interrupt extension).
	onComplete func()

	// Instrumentation.
	released   atomic.Bool
	lateWrites atomic.Uint32
	stops      atomic.Uint32
	transfers  atomic.Uint32
	bytesMoved atomic.Uint64
}

// New creates an engine servicing the given channel register block.
func New(ch *dma.Channel) *Engine {
	return &Engine{
		regs:  ch.Regs(),
		ports: make(map[uintptr]*port),
	}
}

// MapPort installs a peripheral FIFO at the given bus address. Both
// directions share one FIFO per address: a transfer reading from addr
// consumes pushed bytes, a transfer writing to addr accumulates them.
func (e *Engine) MapPort(addr uintptr) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if _, ok := e.ports[addr]; !ok {
		e.ports[addr] = &port{}
	}
}

// Push queues bytes for transfers that read from the port at addr,
// playing the role of a peripheral receiving data off the wire.
func (e *Engine) Push(addr uintptr, b []byte) error {
	p := e.portAt(addr)
	if p == nil {
		return pkg.ErrUnmappedAddress
	}
	p.push(b)
	return nil
}

// Drain removes and returns all bytes written to the port at addr,
// playing the role of a peripheral that has sent them on the wire.
func (e *Engine) Drain(addr uintptr) ([]byte, error) {
	p := e.portAt(addr)
	if p == nil {
		return nil, pkg.ErrUnmappedAddress
	}
	return p.drain(), nil
}

func (e *Engine) portAt(addr uintptr) *port {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.ports[addr]
}

// OnComplete registers a hook invoked on the engine goroutine after
// every completed transfer, typically to raise a completion exception
// vector. Must be set before Start.
func (e *Engine) OnComplete(fn func()) {
	e.onComplete = fn
}

// Start launches the engine goroutine.
func (e *Engine) Start() error {
	if !e.running.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}
	e.closeCh = make(chan struct{})
	e.doneWait.Add(1)
	go e.serve()
	pkg.LogDebug(pkg.ComponentEngine, "engine started")
	return nil
}

// Stop halts the engine goroutine and waits for it to quiesce. Any
// in-flight transfer is abandoned mid-byte, as power-down would.
func (e *Engine) Stop() error {
	if !e.running.CompareAndSwap(true, false) {
		return pkg.ErrNotRunning
	}
	close(e.closeCh)
	e.doneWait.Wait()
	pkg.LogDebug(pkg.ComponentEngine, "engine stopped")
	return nil
}

// Running reports whether the engine goroutine is live.
func (e *Engine) Running() bool { return e.running.Load() }

// MarkReleased tells the instrumentation that the CPU side considers
// the current transfer's resources reclaimed. Any engine memory write
// after this point is recorded as a use-after-release. Test harness
// hook; a correct client never needs it.
func (e *Engine) MarkReleased() { e.released.Store(true) }

// ClearReleased resets the use-after-release marker.
func (e *Engine) ClearReleased() {
	e.released.Store(false)
	e.lateWrites.Store(0)
}

// WroteAfterRelease reports whether the engine wrote memory after
// MarkReleased: the hardware-induced use-after-free the transfer
// teardown protocol exists to prevent.
func (e *Engine) WroteAfterRelease() bool { return e.lateWrites.Load() != 0 }

// Stats returns counters: transfers run to completion, transfers
// abandoned on a cleared enable bit, and total bytes moved.
func (e *Engine) Stats() (transfers, stops uint32, bytes uint64) {
	return e.transfers.Load(), e.stops.Load(), e.bytesMoved.Load()
}

// serve is the engine goroutine: the second actor of the concurrency
// model. It communicates with the CPU only through the register block.
func (e *Engine) serve() {
	defer e.doneWait.Done()
	for {
		select {
		case <-e.closeCh:
			return
		default:
		}
		if e.regs.Ctrl.LoadBits(dma.CtrlEnable) == 0 {
			runtime.Gosched()
			continue
		}
		e.run()
	}
}

// run services one enabled transfer to completion, stop, or fault.
func (e *Engine) run() {
	src := uintptr(e.regs.ReadAddr.Load())
	dst := uintptr(e.regs.WriteAddr.Load())
	count := int(e.regs.TransCount.Load())
	ctrl := e.regs.Ctrl.Load()
	incR := ctrl&dma.CtrlIncrRead != 0
	incW := ctrl&dma.CtrlIncrWrite != 0

	pkg.LogDebug(pkg.ComponentEngine, "transfer begin",
		"src", src, "dst", dst, "count", count)

	if src == 0 || dst == 0 {
		e.regs.Status.SetBits(dma.StatusError)
		e.regs.Ctrl.ClearBits(dma.CtrlEnable)
		pkg.LogWarn(pkg.ComponentEngine, "transfer fault", "src", src, "dst", dst)
		return
	}

	for i := 0; i < count; i++ {
		b, ok := e.readByte(src)
		for !ok {
			// Source FIFO empty: stall like a peripheral-paced
			// engine, still honoring stop and shutdown.
			if e.stopped() {
				e.stops.Add(1)
				return
			}
			runtime.Gosched()
			b, ok = e.readByte(src)
		}
		if e.stopped() {
			// Stop observed between read and write: drop the byte
			// rather than touch memory the CPU may be reclaiming.
			e.stops.Add(1)
			return
		}
		e.writeByte(dst, b)
		e.bytesMoved.Add(1)
		if incR {
			src++
		}
		if incW {
			dst++
		}
		runtime.Gosched()
	}

	e.transfers.Add(1)
	e.regs.Status.SetBits(dma.StatusDone)
	e.regs.Ctrl.ClearBits(dma.CtrlEnable)
	pkg.LogDebug(pkg.ComponentEngine, "transfer done", "count", count)
	if e.onComplete != nil {
		e.onComplete()
	}
}

// stopped reports whether the CPU cleared the enable bit or the engine
// itself is shutting down.
func (e *Engine) stopped() bool {
	select {
	case <-e.closeCh:
		return true
	default:
	}
	return e.regs.Ctrl.LoadBits(dma.CtrlEnable) == 0
}

// readByte reads one byte from a bus address, reporting false when the
// address is a FIFO with no data yet.
func (e *Engine) readByte(addr uintptr) (byte, bool) {
	if p := e.portAt(addr); p != nil {
		return p.pop()
	}
	// Direct memory access. Validity of the address is exactly the
	// pinned-buffer contract; the engine cannot check it.
	return *(*byte)(unsafe.Pointer(addr)), true
}

// writeByte writes one byte to a bus address.
func (e *Engine) writeByte(addr uintptr, b byte) {
	if p := e.portAt(addr); p != nil {
		p.push([]byte{b})
		return
	}
	if e.released.Load() {
		e.lateWrites.Add(1)
	}
	*(*byte)(unsafe.Pointer(addr)) = b
}
