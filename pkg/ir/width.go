// Package ir holds the operand model shared by the backend: scalar widths and
// their register names, operand locations, and instruction sequences.
package ir

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/xplshn/lcc/pkg/util"
)

// Width is the size class of a scalar operand.
type Width int

const (
	Byte       Width = iota // 1 byte
	HalfWord                // 2 bytes
	Word                    // 4 bytes
	DoubleWord              // 8 bytes
)

var widthSizes = [...]int{1, 2, 4, 8}
var widthSuffixes = [...]byte{'b', 'w', 'l', 'q'}

func (w Width) valid() bool { return w >= Byte && w <= DoubleWord }

// Size returns the width in bytes.
func (w Width) Size() int {
	if !w.valid() {
		util.ICE("invalid width %d", int(w))
	}
	return widthSizes[w]
}

// Suffix returns the AT&T instruction suffix for the width.
func (w Width) Suffix() byte {
	if !w.valid() {
		util.ICE("invalid width %d", int(w))
	}
	return widthSuffixes[w]
}

func (w Width) String() string {
	switch w {
	case Byte:
		return "byte"
	case HalfWord:
		return "half-word"
	case Word:
		return "word"
	case DoubleWord:
		return "double-word"
	}
	return fmt.Sprintf("Width(%d)", int(w))
}

// WidthOfSize maps a byte count back to its width.
func WidthOfSize(n int) (Width, bool) {
	for w, size := range widthSizes {
		if size == n {
			return Width(w), true
		}
	}
	return 0, false
}

// MaxWidth returns the widest of the given widths.
func MaxWidth(ws ...Width) Width {
	return lo.Max(ws)
}

// Bank selects a register family table.
type Bank int

const (
	General  Bank = iota // scratch registers used by the operator patterns
	Argument             // System V integer argument registers
)

// Slot 2 of the general bank must stay the rcx family: shifts read their count from %cl.
var generalRegs = [][4]string{
	{"al", "ax", "eax", "rax"},
	{"r10b", "r10w", "r10d", "r10"},
	{"cl", "cx", "ecx", "rcx"},
}

var argumentRegs = [][4]string{
	{"dil", "di", "edi", "rdi"},
	{"sil", "si", "esi", "rsi"},
	{"dl", "dx", "edx", "rdx"},
	{"cl", "cx", "ecx", "rcx"},
	{"r8b", "r8w", "r8d", "r8"},
	{"r9b", "r9w", "r9d", "r9"},
}

// MaxArgs is the number of arguments passed in registers.
const MaxArgs = 6

// Reg returns the %-prefixed name of the register in the given bank slot at width w.
func Reg(bank Bank, slot int, w Width) string {
	table := generalRegs
	if bank == Argument {
		table = argumentRegs
	}
	if slot < 0 || slot >= len(table) {
		util.ICE("register slot %d out of range for bank %d", slot, int(bank))
	}
	if !w.valid() {
		util.ICE("invalid width %d", int(w))
	}
	return "%" + table[slot][w]
}
