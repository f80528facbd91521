package mmio

import "sync/atomic"

// fenceCell is the memory operation every fence pairs with. A bare
// fence with no associated access can legally be elided; operating on
// a real shared cell cannot.
var fenceCell atomic.Uint32

// ReleaseFence orders all prior memory operations before any later
// hardware-start write.
//
// Callers must issue it after writing buffer contents and channel
// configuration, immediately before starting the channel, so the
// hardware actor observes a fully populated buffer and register block.
func ReleaseFence() {
	fenceCell.Add(1)
}

// AcquireFence orders all later memory operations after the completion
// observation that precedes it.
//
// Callers must issue it after observing transfer completion (or after
// stopping the channel and performing a dummy volatile read) and
// before touching buffer contents, so no buffer access is hoisted
// ahead of the hardware handoff.
func AcquireFence() {
	_ = fenceCell.Load()
}

// DummyRead performs one throwaway volatile read against the given
// register. The forced-teardown path needs a real access between
// stopping the channel and its acquire fence; loading the channel's
// status register is the conventional choice.
func DummyRead(r *R32) {
	_ = r.Load()
}
