package pin

import (
	"errors"
	"runtime"
	"testing"

	"github.com/ardnew/softdma/pkg"
)

func TestNew(t *testing.T) {
	buf, err := New(16)
	if err != nil {
		t.Fatalf("New(16) error: %v", err)
	}
	defer buf.Close()

	if buf.Len() != 16 {
		t.Errorf("Len() = %d, want 16", buf.Len())
	}
	if buf.Addr() == 0 {
		t.Error("Addr() = 0, want pinned address")
	}

	b, err := buf.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestNewInvalidLength(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := New(n); !errors.Is(err, pkg.ErrInvalidParameter) {
			t.Errorf("New(%d) error = %v, want ErrInvalidParameter", n, err)
		}
	}
}

func TestFromSlice(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	buf, err := FromSlice(raw)
	if err != nil {
		t.Fatalf("FromSlice error: %v", err)
	}
	defer buf.Close()

	b, err := buf.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	if &b[0] != &raw[0] {
		t.Error("Bytes() does not alias the caller slice")
	}
}

func TestFromSliceEmpty(t *testing.T) {
	if _, err := FromSlice(nil); !errors.Is(err, pkg.ErrEmptyBuffer) {
		t.Errorf("FromSlice(nil) error = %v, want ErrEmptyBuffer", err)
	}
}

func TestAddrStableAcrossGC(t *testing.T) {
	buf, err := New(64)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer buf.Close()

	addr := buf.Addr()
	runtime.GC()
	runtime.GC()
	if got := buf.Addr(); got != addr {
		t.Errorf("Addr() moved across GC: %#x != %#x", got, addr)
	}
}

func TestLendDeniesAccess(t *testing.T) {
	buf, err := New(8)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer buf.Close()

	if err := buf.Lend(); err != nil {
		t.Fatalf("Lend error: %v", err)
	}
	if !buf.Lent() {
		t.Error("Lent() = false after Lend")
	}

	if _, err := buf.Bytes(); !errors.Is(err, pkg.ErrLent) {
		t.Errorf("Bytes() while lent error = %v, want ErrLent", err)
	}
	if err := buf.Close(); !errors.Is(err, pkg.ErrLent) {
		t.Errorf("Close() while lent error = %v, want ErrLent", err)
	}
	if err := buf.Lend(); !errors.Is(err, pkg.ErrLent) {
		t.Errorf("second Lend error = %v, want ErrLent", err)
	}

	if err := buf.Return(); err != nil {
		t.Fatalf("Return error: %v", err)
	}
	if _, err := buf.Bytes(); err != nil {
		t.Errorf("Bytes() after Return error: %v", err)
	}
}

func TestReturnWithoutLend(t *testing.T) {
	buf, err := New(8)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer buf.Close()

	if err := buf.Return(); !errors.Is(err, pkg.ErrNotLent) {
		t.Errorf("Return error = %v, want ErrNotLent", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	buf, err := New(8)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := buf.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}

	if _, err := buf.Bytes(); !errors.Is(err, pkg.ErrNotPinned) {
		t.Errorf("Bytes() after Close error = %v, want ErrNotPinned", err)
	}
	if err := buf.Lend(); !errors.Is(err, pkg.ErrNotPinned) {
		t.Errorf("Lend after Close error = %v, want ErrNotPinned", err)
	}
	if buf.Addr() != 0 {
		t.Errorf("Addr() after Close = %#x, want 0", buf.Addr())
	}
}

func TestWith(t *testing.T) {
	var addr uintptr
	err := With(32, func(b *Buffer) error {
		if b.Len() != 32 {
			t.Errorf("Len() = %d, want 32", b.Len())
		}
		addr = b.Addr()
		return nil
	})
	if err != nil {
		t.Fatalf("With error: %v", err)
	}
	if addr == 0 {
		t.Error("callback saw unpinned buffer")
	}
}

func TestWithPropagatesError(t *testing.T) {
	want := errors.New("callback failure")
	if err := With(8, func(*Buffer) error { return want }); !errors.Is(err, want) {
		t.Errorf("With error = %v, want %v", err, want)
	}
}

func TestWithLeakedLend(t *testing.T) {
	// Exiting the scope while hardware still holds the buffer must
	// keep the pin alive and report the violation.
	err := With(8, func(b *Buffer) error {
		return b.Lend()
	})
	if !errors.Is(err, pkg.ErrLent) {
		t.Errorf("With error = %v, want ErrLent", err)
	}
}

func TestWithReleasesOnPanic(t *testing.T) {
	var buf *Buffer
	func() {
		defer func() { _ = recover() }()
		_ = With(8, func(b *Buffer) error {
			buf = b
			panic("boom")
		})
	}()

	if _, err := buf.Bytes(); !errors.Is(err, pkg.ErrNotPinned) {
		t.Errorf("buffer still pinned after panic: err = %v", err)
	}
}
