// Package pin provides non-relocatable byte buffers for hardware
// transfers.
//
// A DMA engine is handed a raw address and writes through it for an
// unbounded time, so the memory behind that address must not move and
// must not be reclaimed until the engine is known to be finished. A
// plain []byte guarantees neither. [Buffer] guarantees both, and
// additionally tracks when the region is lent to hardware so that CPU
// access during a transfer is rejected rather than racing the engine.
//
// Two construction modes are supported:
//
//   - [New] and [FromSlice] pin memory for the life of the Buffer
//     (unbounded relative to any transfer).
//   - [With] anchors a pinned buffer to the current call frame,
//     guaranteeing release on every exit path.
//
// The documented unsound configuration, handing hardware a short-lived
// unpinned region, is unrepresentable here: every Buffer is pinned at
// construction, and Close refuses to unpin while hardware holds the
// region.
package pin
