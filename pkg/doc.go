// Package pkg provides shared utilities for the softdma stack.
//
// This package contains common functionality used across the register,
// channel, and transfer layers, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for ownership and lifecycle violations
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Errors
//
// The data path of a DMA transfer has no recoverable failure mode, so
// every error defined here names a caller contract violation:
//
//	if errors.Is(err, pkg.ErrConsumed) {
//	    // A second transfer was started from a spent device handle.
//	}
//
// # Logging
//
// The logging subsystem wraps [log/slog] with stack-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentSerial, "transfer started", "len", 16)
package pkg
