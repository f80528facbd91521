package serial

import (
	"runtime"
	"sync"

	"github.com/ardnew/softdma/mmio"
	"github.com/ardnew/softdma/pin"
	"github.com/ardnew/softdma/pkg"
)

// Transfer represents one in-flight (or just-completed) hardware
// operation. It jointly owns the pinned buffer and the device handle
// for the operation's duration and is the single authority for polling
// completion, blocking until it, and forced cancellation.
//
// Every Transfer must reach exactly one of two terminal transitions:
//
//   - [Transfer.Wait], the cooperative path, which returns ownership
//     of the buffer and port once hardware is finished; or
//   - [Transfer.Close], the forced-teardown path, which stops the
//     hardware before ownership becomes reusable.
//
// Close is safe to defer immediately after a successful start; after
// Wait it is a no-op. There is no way to discard a Transfer's
// resources without one of the two running: dropping the handle on the
// floor leaks the pin and the port consumption rather than exposing
// memory the engine may still write.
type Transfer struct {
	mutex    sync.Mutex
	port     *Port
	buf      *pin.Buffer
	released bool
	stopped  bool
}

// IsDone reports whether hardware has finished the operation. It is a
// single non-blocking poll of the channel with no side effects, safe
// to call any number of times. Observing true is not by itself
// synchronized: buffer contents are only safe after the acquire fence
// that Wait (or Close) issues.
func (t *Transfer) IsDone() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.released {
		return true
	}
	return !t.port.ch.InProgress()
}

// Status derives the transfer's state. The Active/Complete distinction
// is polled from hardware on every call, never cached, so software can
// not hold a stale view of an engine that finished on its own.
func (t *Transfer) Status() pkg.TransferStatus {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	switch {
	case t.stopped:
		return pkg.TransferStatusStopped
	case t.released:
		return pkg.TransferStatusReleased
	case t.port.ch.InProgress():
		return pkg.TransferStatusActive
	default:
		return pkg.TransferStatusComplete
	}
}

// Wait busy-polls until hardware reports completion, issues the
// acquire fence, and returns ownership of the buffer and the device
// handle, consuming the Transfer. This is the only sanctioned way to
// regain access to buffer contents.
//
// Wait never suspends in the cooperative-scheduling sense; the
// [runtime.Gosched] in the poll loop only keeps a single-processor
// host from starving the simulated engine.
func (t *Transfer) Wait() (*pin.Buffer, *Port, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.released {
		return nil, nil, pkg.ErrReleased
	}

	for t.port.ch.InProgress() {
		runtime.Gosched()
	}

	// No buffer access below may be reordered above the completion
	// observation, and the engine's writes must be visible.
	mmio.AcquireFence()

	buf, port := t.release()
	pkg.LogDebug(pkg.ComponentSerial, "transfer complete", "len", buf.Len())
	return buf, port, nil
}

// Close is the forced-teardown path for a Transfer discarded before
// Wait: it stops the hardware, performs one dummy volatile read so the
// following acquire fence has a real access to order against, issues
// the fence, and only then releases the buffer and port for reuse.
// It is idempotent and returns nil after a completed Wait.
func (t *Transfer) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.released {
		return nil
	}

	active := t.port.ch.InProgress()
	t.port.ch.Stop()
	mmio.DummyRead(t.port.ch.Regs().Status)
	mmio.AcquireFence()

	t.release()
	if active {
		t.stopped = true
		pkg.LogDebug(pkg.ComponentSerial, "transfer stopped")
	}
	return nil
}

// release returns ownership of the buffer and port to the caller.
// Callers hold t.mutex and have issued the acquire fence.
func (t *Transfer) release() (*pin.Buffer, *Port) {
	buf, port := t.buf, t.port
	if err := buf.Return(); err != nil {
		// The lend was taken at start and nothing else may return it.
		pkg.LogError(pkg.ComponentSerial, "buffer return failed", "err", err)
	}
	port.consumed.Store(false)
	t.released = true
	return buf, port
}
