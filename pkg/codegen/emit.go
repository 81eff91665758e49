package codegen

import (
	"fmt"
	"math"
	"strings"

	"github.com/xplshn/lcc/pkg/frame"
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/symtab"
	"github.com/xplshn/lcc/pkg/util"
)

// instr formats one instruction line with the mnemonic padded to a column.
func instr(op string, operands ...string) string {
	if len(operands) == 0 {
		return "\t" + op
	}
	return fmt.Sprintf("\t%-6s %s", op, strings.Join(operands, ", "))
}

func sized(op string, w ir.Width) string { return op + string(w.Suffix()) }

func imm(v int64) string { return fmt.Sprintf("$%d", v) }

func fitsInt32(v int64) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

// truncate reduces v to the signed range of w, as a store of that width would.
func truncate(v int64, w ir.Width) int64 {
	switch w {
	case ir.Byte:
		return int64(int8(v))
	case ir.HalfWord:
		return int64(int16(v))
	case ir.Word:
		return int64(int32(v))
	}
	return v
}

func widthOf(v ir.Value) ir.Width {
	w, ok := ir.WidthOf(v)
	if !ok {
		util.ICE("operand %v has no location", v)
	}
	return w
}

// loadImm moves a constant into a full-width register.
func loadImm(seq *ir.Sequence, v int64, reg string) {
	if fitsInt32(v) {
		seq.PushBack(instr("movq", imm(v), reg))
		return
	}
	seq.PushBack(instr("movabsq", imm(v), reg))
}

// Extend sign-extends the register in bank slot from one width to a wider one.
// It emits nothing when from is not narrower than to.
func Extend(seq *ir.Sequence, bank ir.Bank, slot int, from, to ir.Width) {
	if from >= to {
		return
	}
	op := fmt.Sprintf("movs%c%c", from.Suffix(), to.Suffix())
	seq.PushBack(instr(op, ir.Reg(bank, slot, from), ir.Reg(bank, slot, to)))
}

// Fill loads v into general register slot. A stack-resident v is consumed:
// its slot is freed and must not be read again.
func Fill(seq *ir.Sequence, v ir.Value, slot int, f *frame.Frame) {
	switch v := v.(type) {
	case ir.Slot:
		seq.PushBack(instr(sized("mov", v.Width), v.Addr(), ir.Reg(ir.General, slot, v.Width)))
		f.Free(v.Width)
	case ir.Imm:
		loadImm(seq, v.Value, ir.Reg(ir.General, slot, v.Width()))
	case ir.None, nil:
	}
}

// Spill stores general register slot into a fresh frame slot of width w.
func Spill(seq *ir.Sequence, slot int, w ir.Width, f *frame.Frame) ir.Slot {
	s := ir.Slot{Offset: f.Allocate(w), Width: w}
	seq.PushBack(instr(sized("mov", w), ir.Reg(ir.General, slot, w), s.Addr()))
	return s
}

// PushVar copies a variable into a fresh temporary so that consuming the
// temporary leaves the variable's own slot allocated.
func PushVar(seq *ir.Sequence, v ir.Slot, f *frame.Frame) ir.Slot {
	tmp := ir.Slot{Offset: f.Allocate(v.Width), Width: v.Width}
	seq.Comment("push %s", v.Addr())
	seq.PushBack(instr(sized("mov", v.Width), v.Addr(), ir.Reg(ir.General, 0, v.Width)))
	seq.PushBack(instr(sized("mov", v.Width), ir.Reg(ir.General, 0, v.Width), tmp.Addr()))
	return tmp
}

// Store writes general register 0 into a variable slot, sign-extending from
// the value's width first when the variable is wider.
func Store(seq *ir.Sequence, from ir.Width, dst ir.Slot) {
	Extend(seq, ir.General, 0, from, dst.Width)
	seq.PushBack(instr(sized("mov", dst.Width), ir.Reg(ir.General, 0, dst.Width), dst.Addr()))
}

// StoreImm writes a constant into a variable slot.
func StoreImm(seq *ir.Sequence, v int64, dst ir.Slot) {
	if dst.Width == ir.DoubleWord && !fitsInt32(v) {
		loadImm(seq, v, ir.Reg(ir.General, 0, ir.DoubleWord))
		seq.PushBack(instr("movq", ir.Reg(ir.General, 0, ir.DoubleWord), dst.Addr()))
		return
	}
	seq.PushBack(instr(sized("mov", dst.Width), imm(truncate(v, dst.Width)), dst.Addr()))
}

// EmitJump appends an unconditional jump.
func EmitJump(seq *ir.Sequence, label string) {
	seq.PushBack(instr("jmp", label))
}

// EmitLabel appends a label definition.
func EmitLabel(seq *ir.Sequence, label string) {
	seq.Emit("%s:", label)
}

// DeclareLocal allocates the frame slot of local id and stores its initializer.
// A stack-resident initializer is first filled into register 0, which frees
// the temporary before the variable's slot is allocated.
func DeclareLocal(seq *ir.Sequence, tab *symtab.Table, id symtab.ID) {
	s := tab.Get(id)
	fnID, ok := tab.EnclosingFunction(s.Parent)
	if !ok {
		util.ICE("local %q declared outside of a function", tab.NameOf(id))
	}
	fn := tab.Get(fnID)

	init := s.Init
	if slot, ok := init.(ir.Slot); ok {
		Fill(seq, slot, 0, fn.Frame)
	}

	s.Offset = fn.Frame.Allocate(s.Width)
	seq.Comment("allocate %s %d byte(s) %s", tab.NameOf(id), s.Width.Size(), s.Slot().Addr())
	switch init := init.(type) {
	case ir.Imm:
		StoreImm(seq, init.Value, s.Slot())
	case ir.Slot:
		Store(seq, init.Width, s.Slot())
	}
}

// FreeVariable releases a variable's slot when its block ends.
func FreeVariable(f *frame.Frame, s *symtab.Symbol) {
	f.Free(s.Width)
}
