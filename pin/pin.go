package pin

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ardnew/softdma/pkg"
)

// Buffer wraps a byte region whose address is guaranteed stable, and
// whose memory is guaranteed reachable, from construction until Close.
//
// The guarantee has two halves: the backing array is pinned with
// [runtime.Pinner] so the runtime will not relocate it, and the Buffer
// retains the slice reference so the collector will not reclaim it.
// Either half alone is insufficient for memory a hardware engine
// writes asynchronously.
//
// While a Buffer is lent to hardware, all CPU access through it is
// denied: [Buffer.Bytes] and [Buffer.Close] fail with [pkg.ErrLent]
// until the owning transfer returns it.
type Buffer struct {
	mutex  sync.Mutex
	data   []byte
	pinner runtime.Pinner
	pinned bool
	lent   bool
}

// New allocates n bytes and pins them for the life of the Buffer.
// This is the unbounded-lifetime construction mode: the memory cannot
// outlive its availability to hardware because the Buffer itself keeps
// it pinned and reachable.
func New(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, pkg.ErrInvalidParameter
	}
	return FromSlice(make([]byte, n))
}

// FromSlice pins caller-provided memory for the life of the Buffer.
// The caller must not append to, re-slice, or otherwise relocate b
// while the Buffer is alive; reading or writing b's contents directly
// while the Buffer is lent to hardware is the data race this package
// exists to prevent.
func FromSlice(b []byte) (*Buffer, error) {
	if len(b) == 0 {
		return nil, pkg.ErrEmptyBuffer
	}
	buf := &Buffer{data: b}
	buf.pinner.Pin(&b[0])
	buf.pinned = true
	pkg.LogDebug(pkg.ComponentPin, "buffer pinned", "addr", buf.Addr(), "len", len(b))
	return buf, nil
}

// With runs fn with an n-byte pinned Buffer anchored to the current
// call frame, releasing the pin on every exit path including panic.
// This is the frame-anchored construction mode for callers that want a
// scratch transfer buffer without holding a long-lived allocation.
//
// fn must not let the Buffer escape: any transfer started against it
// must be waited or closed before fn returns. If fn exits while the
// Buffer is still lent to hardware, the pin is intentionally leaked
// (the memory stays valid for the still-running engine) and With
// reports [pkg.ErrLent].
func With(n int, fn func(*Buffer) error) (err error) {
	buf, nerr := New(n)
	if nerr != nil {
		return nerr
	}
	defer func() {
		if cerr := buf.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	err = fn(buf)
	return err
}

// Addr returns the stable base address of the pinned region, or 0
// after Close.
func (b *Buffer) Addr() uintptr {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.pinned {
		return 0
	}
	return uintptr(unsafe.Pointer(&b.data[0]))
}

// Len returns the length of the region in bytes.
func (b *Buffer) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.data)
}

// Bytes returns the buffer contents for CPU access.
// It fails with [pkg.ErrLent] while the buffer is lent to hardware and
// [pkg.ErrNotPinned] after Close.
func (b *Buffer) Bytes() ([]byte, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.lent {
		return nil, pkg.ErrLent
	}
	if !b.pinned {
		return nil, pkg.ErrNotPinned
	}
	return b.data, nil
}

// Lend marks the buffer as owned by hardware, denying CPU access until
// Return. It is called by the transfer layer when a transfer starts;
// callers do not invoke it directly.
func (b *Buffer) Lend() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.pinned {
		return pkg.ErrNotPinned
	}
	if b.lent {
		return pkg.ErrLent
	}
	b.lent = true
	return nil
}

// Return ends a lend, restoring CPU access. It is called by the
// transfer layer after the completion acquire fence; callers do not
// invoke it directly.
func (b *Buffer) Return() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.lent {
		return pkg.ErrNotLent
	}
	b.lent = false
	return nil
}

// Lent reports whether the buffer is currently lent to hardware.
func (b *Buffer) Lent() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.lent
}

// Close releases the pin. It fails with [pkg.ErrLent] while the buffer
// is lent to hardware: unpinning memory an engine may still write is
// the use-after-free this type prevents. Close is idempotent once it
// succeeds.
func (b *Buffer) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.lent {
		return pkg.ErrLent
	}
	if !b.pinned {
		return nil
	}
	b.pinner.Unpin()
	b.pinned = false
	b.data = nil
	pkg.LogDebug(pkg.ComponentPin, "buffer unpinned")
	return nil
}
