// Package dma models the register-level surface of a DMA controller
// channel.
//
// [Channel] is a singleton owner of one engine's register block:
// source and destination bus addresses, transfer count, and
// control/status bits. Every operation is a direct volatile register
// access with hardware-visible effect and no software mirror of
// hardware state: [Channel.InProgress] polls the control register
// rather than caching a flag, so software can never hold a stale view
// of an engine that stopped on its own.
//
// The package deliberately has no error-returning operations and no
// locking. Exclusivity is ownership: exactly one [Channel] exists per
// controller index (enforced by [Claim]'s bitset at construction), and
// the channel travels inside whichever device handle or transfer
// currently owns it. Register addresses are supplied through a
// [RegisterMap] from the board description, never hard-coded.
//
// Servicing hardware lives in [github.com/ardnew/softdma/dma/engine].
package dma
