package frame

import (
	"errors"
	"testing"

	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/util"
)

var allWidths = []ir.Width{ir.Byte, ir.HalfWord, ir.Word, ir.DoubleWord}

// searchPadding is the byte-by-byte search the closed form must agree with.
func searchPadding(offset, size int) int {
	for i := 0; i < size; i++ {
		if (offset+i+size)%size == 0 {
			return i
		}
	}
	return -1
}

func TestPaddingMatchesSearch(t *testing.T) {
	for offset := 0; offset < 64; offset++ {
		for _, w := range allWidths {
			if got, want := Padding(offset, w), searchPadding(offset, w.Size()); got != want {
				t.Errorf("Padding(%d, %v) = %d, want %d", offset, w, got, want)
			}
		}
	}
}

func TestAllocateAlignsToWidth(t *testing.T) {
	seq := []ir.Width{ir.Byte, ir.Word, ir.HalfWord, ir.DoubleWord, ir.Byte, ir.Byte, ir.DoubleWord, ir.Word}
	f := New()
	for _, w := range seq {
		before := f.Offset()
		off := f.Allocate(w)
		if off%w.Size() != 0 {
			t.Errorf("Allocate(%v) = %d, not a multiple of %d", w, off, w.Size())
		}
		if off-before < w.Size() {
			t.Errorf("Allocate(%v) grew offset by %d, want at least %d", w, off-before, w.Size())
		}
		if f.Watermark() < f.Offset() || f.Watermark()%CallAlignment != 0 {
			t.Errorf("watermark %d invalid for offset %d", f.Watermark(), f.Offset())
		}
	}
}

func TestWordThenDoubleWord(t *testing.T) {
	f := New()
	if got := f.Allocate(ir.Word); got != 4 {
		t.Fatalf("first offset = %d, want 4", got)
	}
	// 4 bytes of padding bring 4+8 up to the next multiple of 8.
	if got := f.Allocate(ir.DoubleWord); got != 16 {
		t.Fatalf("second offset = %d, want 16", got)
	}
	if f.Watermark() != 16 {
		t.Errorf("watermark = %d, want 16", f.Watermark())
	}
}

func TestWatermarkNeverShrinks(t *testing.T) {
	f := New()
	f.Allocate(ir.DoubleWord)
	f.Allocate(ir.DoubleWord)
	f.Allocate(ir.Byte)
	if f.Watermark() != 32 {
		t.Fatalf("watermark = %d, want 32", f.Watermark())
	}
	f.Free(ir.Byte)
	f.Free(ir.DoubleWord)
	f.Free(ir.DoubleWord)
	if f.Offset() != 0 {
		t.Errorf("offset = %d, want 0", f.Offset())
	}
	if f.Watermark() != 32 {
		t.Errorf("watermark shrank to %d", f.Watermark())
	}
}

func TestFreeThenAllocateReusesTop(t *testing.T) {
	f := New()
	f.Allocate(ir.Word)
	top := f.Allocate(ir.Word)
	f.Free(ir.Word)
	if got := f.Allocate(ir.Word); got != top {
		t.Errorf("reallocated offset = %d, want %d", got, top)
	}

	// An intervening allocation moves the top; the freed offset is not reused.
	f = New()
	a := f.Allocate(ir.DoubleWord)
	f.Free(ir.DoubleWord)
	f.Allocate(ir.Byte)
	if got := f.Allocate(ir.DoubleWord); got == a {
		t.Errorf("offset %d reused despite intervening allocation", got)
	}
}

func TestFreeUnderflowPanics(t *testing.T) {
	f := New()
	f.Allocate(ir.HalfWord)
	defer func() {
		r := recover()
		err, ok := r.(error)
		var ice *util.InternalError
		if !ok || !errors.As(err, &ice) {
			t.Fatalf("expected InternalError panic, got %v", r)
		}
	}()
	f.Free(ir.DoubleWord)
}
