// Package engine provides a simulated DMA engine: the independent
// hardware actor on the far side of the channel register block.
//
// The engine fills the role silicon plays under the transfer
// abstraction, the way a loopback HAL stands in for a real controller:
// examples and the test suite run against it unchanged. It observes
// and drives only the shared register cells, moves bytes between
// memory and peripheral FIFOs one at a time, and reports completion
// exclusively through the status and control registers; software
// above the [github.com/ardnew/softdma/dma.Channel] cannot tell it
// from hardware.
//
// Because the engine dereferences raw bus addresses with no software
// mediation, it is also the enforcement witness for the pinning and
// teardown contracts: its instrumentation records any memory write
// performed after the CPU side reclaimed a transfer's resources,
// making the "hardware keeps writing freed memory" failure directly
// testable.
package engine
