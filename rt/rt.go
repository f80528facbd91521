package rt

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softdma/pkg"
)

// Vector identifies an entry in the exception vector table.
type Vector int

// Exception vectors.
const (
	VectorHardFault Vector = iota // Unrecoverable fault (panic in the app)
	VectorSysTick                 // Periodic tick
	VectorDMADone                 // DMA transfer completion
	numVectors
)

// String returns the vector's conventional handler name.
func (v Vector) String() string {
	switch v {
	case VectorHardFault:
		return "HardFault"
	case VectorSysTick:
		return "SysTick"
	case VectorDMADone:
		return "DMADone"
	default:
		return "Reserved"
	}
}

// Handler is an exception handler. Handlers run on the raising
// goroutine with interrupts implicitly masked; they must not block.
type Handler func()

var (
	mutex     sync.Mutex
	handlers  [numVectors]Handler
	initFuncs []func()
	maskDepth int
	pending   []Vector

	booted atomic.Bool

	diag   io.Writer
	diagMu sync.Mutex
)

// OnInit registers fn to run during Boot, before the application
// entry point, in registration order. This is the hook for work the
// data-segment initialization of a freestanding image would do.
// Registration after Boot has no effect on the current boot.
func OnInit(fn func()) {
	mutex.Lock()
	defer mutex.Unlock()
	initFuncs = append(initFuncs, fn)
}

// Register installs a handler for the given vector, replacing the
// default. Passing nil restores the default handler.
func Register(v Vector, h Handler) error {
	if v < 0 || v >= numVectors {
		return pkg.ErrUnknownVector
	}
	mutex.Lock()
	defer mutex.Unlock()
	handlers[v] = h
	return nil
}

// Raise dispatches the given vector's handler. Inside a critical
// section the dispatch is deferred until the section exits.
func Raise(v Vector) error {
	if v < 0 || v >= numVectors {
		return pkg.ErrUnknownVector
	}
	mutex.Lock()
	if maskDepth > 0 {
		pending = append(pending, v)
		mutex.Unlock()
		return nil
	}
	h := handlers[v]
	mutex.Unlock()

	dispatch(v, h)
	return nil
}

func dispatch(v Vector, h Handler) {
	if h == nil {
		// The default handler: report and continue, the hosted
		// equivalent of parking in an infinite loop.
		pkg.LogWarn(pkg.ComponentRuntime, "unhandled exception", "vector", v.String())
		return
	}
	h()
}

// Critical runs fn with exception dispatch masked. Sections nest;
// vectors raised inside are dispatched in order when the outermost
// section exits. This is the mutual-exclusion primitive for state
// shared with exception handlers. It orders software against
// software only; it is no substitute for the fence protocol at the
// hardware boundary.
func Critical(fn func()) {
	mutex.Lock()
	maskDepth++
	mutex.Unlock()

	defer func() {
		mutex.Lock()
		maskDepth--
		var drained []Vector
		if maskDepth == 0 {
			drained = pending
			pending = nil
		}
		hs := handlers
		mutex.Unlock()
		for _, v := range drained {
			dispatch(v, hs[v])
		}
	}()

	fn()
}

// Boot is the process entry point: it may succeed exactly once. It
// assumes what a reset handler guarantees (statically-allocated
// memory is zeroed or initialized before anything runs, which the Go
// runtime provides), then runs the registered init functions in order
// and calls app. A panic escaping app raises HardFault before
// propagating.
func Boot(app func()) error {
	if !booted.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}

	mutex.Lock()
	inits := make([]func(), len(initFuncs))
	copy(inits, initFuncs)
	mutex.Unlock()

	pkg.LogInfo(pkg.ComponentRuntime, "boot", "inits", len(inits))
	for _, fn := range inits {
		fn()
	}

	defer func() {
		if r := recover(); r != nil {
			pkg.LogError(pkg.ComponentRuntime, "hard fault", "panic", r)
			_ = Raise(VectorHardFault)
			panic(r)
		}
	}()
	app()
	return nil
}

// SetDiag redirects the diagnostic channel. The zero state discards
// output. The channel is a narrow write-only sink, the hosted stand-in
// for a semihosting console.
func SetDiag(w io.Writer) {
	diagMu.Lock()
	defer diagMu.Unlock()
	diag = w
}

// Diagf writes a formatted line to the diagnostic channel.
func Diagf(format string, args ...any) {
	diagMu.Lock()
	w := diag
	diagMu.Unlock()
	if w == nil {
		return
	}
	fmt.Fprintf(w, format+"\n", args...)
}
