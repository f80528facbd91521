// Package mmio provides volatile register cells and the acquire/release
// fence discipline used at the CPU/hardware boundary.
//
// A DMA engine is a second actor that reads and writes memory without
// software mediation, so no lock protocol can order its accesses
// against the CPU's. Ordering is instead established two ways:
//
//   - Every register access ([R32.Load], [R32.Store], and friends) is
//     a single uncached atomic operation, individually observable by
//     the hardware actor.
//   - Transitions across the boundary are bracketed by [ReleaseFence]
//     (before starting the engine) and [AcquireFence] (after observing
//     completion).
//
// Both fences perform a real operation on a shared cell rather than a
// bare ordering directive: a fence with no adjacent memory access may
// be optimized to nothing and must not be relied upon in isolation.
// The forced-teardown path additionally pairs its fence with
// [DummyRead] for the same reason.
package mmio
