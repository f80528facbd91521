package mmio

import "sync/atomic"

// R32 is a 32-bit volatile register cell.
//
// Each Load and Store is a single observable memory operation shared
// with the hardware actor; values are never cached or coalesced in
// software. The bus address is nominal: it identifies the register on
// the device's memory map and in diagnostics, while the backing cell
// lives in ordinary process memory.
type R32 struct {
	addr uintptr
	v    atomic.Uint32
}

// NewR32 creates a register cell at the given bus address.
func NewR32(addr uintptr) *R32 {
	return &R32{addr: addr}
}

// Addr returns the register's bus address.
func (r *R32) Addr() uintptr { return r.addr }

// Load performs a volatile read of the register.
func (r *R32) Load() uint32 { return r.v.Load() }

// Store performs a volatile write of the register.
func (r *R32) Store(v uint32) { r.v.Store(v) }

// LoadBits returns the register value masked by mask.
func (r *R32) LoadBits(mask uint32) uint32 { return r.v.Load() & mask }

// StoreBits replaces the bits selected by mask with bits, as one
// read-modify-write visible to the hardware actor.
func (r *R32) StoreBits(mask, bits uint32) {
	for {
		old := r.v.Load()
		if r.v.CompareAndSwap(old, (old&^mask)|(bits&mask)) {
			return
		}
	}
}

// SetBits sets the bits selected by mask.
func (r *R32) SetBits(mask uint32) { r.StoreBits(mask, mask) }

// ClearBits clears the bits selected by mask.
func (r *R32) ClearBits(mask uint32) { r.StoreBits(mask, 0) }

// R64 is a 64-bit volatile register cell, used for bus addresses on
// hosts whose pointers exceed 32 bits. Access semantics match [R32].
type R64 struct {
	addr uintptr
	v    atomic.Uint64
}

// NewR64 creates a register cell at the given bus address.
func NewR64(addr uintptr) *R64 {
	return &R64{addr: addr}
}

// Addr returns the register's bus address.
func (r *R64) Addr() uintptr { return r.addr }

// Load performs a volatile read of the register.
func (r *R64) Load() uint64 { return r.v.Load() }

// Store performs a volatile write of the register.
func (r *R64) Store(v uint64) { r.v.Store(v) }
