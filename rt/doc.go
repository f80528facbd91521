// Package rt provides the bootstrap and exception scaffolding that
// gives the transfer abstraction a well-defined execution context.
//
// On a freestanding target this job belongs to the reset vector,
// linker-initialized data segments, and the exception table. Hosted Go
// gets memory initialization from the runtime for free, so this
// package keeps only the behavioral surface the rest of the system
// relies on:
//
//   - [Boot]: reached exactly once, runs [OnInit] hooks, then the app
//   - a vector table ([Register], [Raise]) with a logging default
//     handler, including [VectorDMADone] for completion interrupts
//   - [Critical]: interrupt-masked sections for state shared with
//     handlers
//   - a diagnostic sink ([SetDiag], [Diagf]) standing in for a
//     semihosting console
//
// None of this participates in the transfer protocol itself; it is
// the narrow boundary the core assumes exists.
package rt
