// Package frame implements the per-function stack frame allocator.
//
// Offsets are positive magnitudes below %rbp. The allocator only ever bumps
// or releases at the top; the watermark is the reservation emitted in the
// prologue and stays a multiple of the call alignment so nested calls find
// %rsp 16-byte aligned.
package frame

import (
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/util"
)

// CallAlignment is the System V stack alignment at call sites.
const CallAlignment = 16

type Frame struct {
	offset    int
	watermark int
}

func New() *Frame { return &Frame{} }

// Offset is the number of bytes currently allocated.
func (f *Frame) Offset() int { return f.offset }

// Watermark is the aligned frame size committed so far. It never shrinks.
func (f *Frame) Watermark() int { return f.watermark }

// Padding returns the bytes to skip so that a region of w ending at the new
// offset is aligned to its own size.
func Padding(offset int, w ir.Width) int {
	size := w.Size()
	return (size - offset%size) % size
}

// Allocate reserves a slot of width w and returns its frame offset.
func (f *Frame) Allocate(w ir.Width) int {
	f.offset += Padding(f.offset, w) + w.Size()
	for f.offset > f.watermark {
		f.watermark += CallAlignment
	}
	return f.offset
}

// Free releases w bytes from the top of the frame.
func (f *Frame) Free(w ir.Width) {
	if f.offset < w.Size() {
		util.ICE("stack underflow: freeing %d byte(s) with %d allocated", w.Size(), f.offset)
	}
	f.offset -= w.Size()
}
