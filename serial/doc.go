// Package serial implements the typestate transfer abstraction over a
// DMA-backed serial peripheral.
//
// The protocol is ownership transfer, end to end:
//
//	port, _ := serial.New(channel, cfg)        // singleton device handle
//	buf, _ := pin.New(16)                      // pinned, stable-address memory
//
//	xfer, _ := port.StartRead(buf)             // consumes port, lends buf
//	defer xfer.Close()                         // guaranteed teardown on every path
//
//	for !xfer.IsDone() {
//	    // other work
//	}
//	buf, port, _ = xfer.Wait()                 // acquire fence, ownership back
//
// While the transfer is active the hardware engine owns the buffer:
// the port cannot start a second transfer ([pkg.ErrConsumed]), the
// buffer rejects CPU access ([pkg.ErrLent]), and the only routes back
// to usable resources, [Transfer.Wait] and [Transfer.Close], both
// end with an acquire fence, so no code can observe buffer contents
// the engine is still writing. Close additionally stops the engine and
// performs a dummy volatile read first, making the discard-before-
// completion path exactly as safe as the cooperative one.
//
// There is no error taxonomy beyond these ownership violations: given
// correct wiring, completion is unconditional.
package serial
