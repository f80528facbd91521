package rt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/softdma/pkg"
)

// resetBoot clears boot state so each test gets a fresh machine.
func resetBoot(t *testing.T) {
	t.Helper()
	booted.Store(false)
	mutex.Lock()
	initFuncs = nil
	handlers = [numVectors]Handler{}
	maskDepth = 0
	pending = nil
	mutex.Unlock()
	t.Cleanup(func() { booted.Store(false) })
}

func TestVectorString(t *testing.T) {
	tests := []struct {
		v    Vector
		want string
	}{
		{VectorHardFault, "HardFault"},
		{VectorSysTick, "SysTick"},
		{VectorDMADone, "DMADone"},
		{Vector(42), "Reserved"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Vector(%d).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestBootRunsInitsInOrder(t *testing.T) {
	resetBoot(t)

	var order []string
	OnInit(func() { order = append(order, "a") })
	OnInit(func() { order = append(order, "b") })

	err := Boot(func() { order = append(order, "app") })
	if err != nil {
		t.Fatalf("Boot error: %v", err)
	}

	if got := strings.Join(order, ","); got != "a,b,app" {
		t.Errorf("order = %s, want a,b,app", got)
	}
}

func TestBootOnce(t *testing.T) {
	resetBoot(t)

	if err := Boot(func() {}); err != nil {
		t.Fatalf("Boot error: %v", err)
	}
	if err := Boot(func() {}); !errors.Is(err, pkg.ErrAlreadyRunning) {
		t.Errorf("second Boot error = %v, want ErrAlreadyRunning", err)
	}
}

func TestBootPanicRaisesHardFault(t *testing.T) {
	resetBoot(t)

	faulted := false
	if err := Register(VectorHardFault, func() { faulted = true }); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic did not propagate out of Boot")
			}
		}()
		_ = Boot(func() { panic("bus error") })
	}()

	if !faulted {
		t.Error("HardFault handler did not run")
	}
}

func TestRegisterAndRaise(t *testing.T) {
	resetBoot(t)

	hits := 0
	if err := Register(VectorSysTick, func() { hits++ }); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := Raise(VectorSysTick); err != nil {
		t.Fatalf("Raise error: %v", err)
	}
	if hits != 1 {
		t.Errorf("handler ran %d times, want 1", hits)
	}

	// Restoring the default must not dispatch the old handler.
	if err := Register(VectorSysTick, nil); err != nil {
		t.Fatalf("Register(nil) error: %v", err)
	}
	if err := Raise(VectorSysTick); err != nil {
		t.Fatalf("Raise error: %v", err)
	}
	if hits != 1 {
		t.Errorf("handler ran %d times after unregister, want 1", hits)
	}
}

func TestRaiseUnknownVector(t *testing.T) {
	resetBoot(t)

	if err := Raise(Vector(99)); !errors.Is(err, pkg.ErrUnknownVector) {
		t.Errorf("Raise(99) error = %v, want ErrUnknownVector", err)
	}
	if err := Register(Vector(-1), func() {}); !errors.Is(err, pkg.ErrUnknownVector) {
		t.Errorf("Register(-1) error = %v, want ErrUnknownVector", err)
	}
}

func TestCriticalDefersDispatch(t *testing.T) {
	resetBoot(t)

	var order []string
	if err := Register(VectorSysTick, func() { order = append(order, "tick") }); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	Critical(func() {
		_ = Raise(VectorSysTick)
		order = append(order, "critical")
	})

	if got := strings.Join(order, ","); got != "critical,tick" {
		t.Errorf("order = %s, want critical,tick", got)
	}
}

func TestCriticalNests(t *testing.T) {
	resetBoot(t)

	hits := 0
	if err := Register(VectorDMADone, func() { hits++ }); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	Critical(func() {
		Critical(func() {
			_ = Raise(VectorDMADone)
		})
		// Still masked: the inner exit must not dispatch.
		if hits != 0 {
			t.Error("dispatch escaped the outer critical section")
		}
		_ = Raise(VectorDMADone)
	})

	if hits != 2 {
		t.Errorf("handler ran %d times, want 2", hits)
	}
}

func TestDiag(t *testing.T) {
	var buf bytes.Buffer
	SetDiag(&buf)
	defer SetDiag(nil)

	Diagf("transfer of %d bytes", 16)
	if got := buf.String(); got != "transfer of 16 bytes\n" {
		t.Errorf("diag output = %q", got)
	}

	// The zero sink discards without panicking.
	SetDiag(nil)
	Diagf("dropped")
}
