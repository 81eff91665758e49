package codegen

import (
	"github.com/xplshn/lcc/pkg/frame"
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/util"
)

// popPair fills op1 into register 0 and op2 into register 1 and promotes
// both to their common width.
func popPair(seq *ir.Sequence, op1, op2 ir.Value, f *frame.Frame, atLeast ir.Width) ir.Width {
	w1, w2 := widthOf(op1), widthOf(op2)
	Fill(seq, op1, 0, f)
	Fill(seq, op2, 1, f)
	w := ir.MaxWidth(w1, w2, atLeast)
	Extend(seq, ir.General, 0, w1, w)
	Extend(seq, ir.General, 1, w2, w)
	return w
}

// PopAndDoubleOp emits "<op> reg1, reg0" and spills reg0.
func PopAndDoubleOp(seq *ir.Sequence, op1 ir.Value, op string, op2 ir.Value, f *frame.Frame) ir.Slot {
	seq.Comment("(pop and) %s", op)
	w := popPair(seq, op1, op2, f, ir.Byte)
	seq.PushBack(instr(sized(op, w), ir.Reg(ir.General, 1, w), ir.Reg(ir.General, 0, w)))
	return Spill(seq, 0, w, f)
}

// PopAndSingleOp emits the one-operand form "<op> reg1" and spills reg0.
// This is the shape of imul/idiv, which read rax implicitly.
func PopAndSingleOp(seq *ir.Sequence, op1 ir.Value, op string, op2 ir.Value, f *frame.Frame) ir.Slot {
	seq.Comment("(pop and) %s", op)
	w := popPair(seq, op1, op2, f, ir.Byte)
	seq.PushBack(instr(sized(op, w), ir.Reg(ir.General, 1, w)))
	return Spill(seq, 0, w, f)
}

// PopAndDivide divides op1 by op2. Operands narrower than a word are promoted
// so the dividend can be sign-extended into rdx.
func PopAndDivide(seq *ir.Sequence, op1, op2 ir.Value, remainder bool, f *frame.Frame) ir.Slot {
	seq.Comment("(pop and) idiv")
	w := popPair(seq, op1, op2, f, ir.Word)
	if w == ir.DoubleWord {
		seq.PushBack(instr("cqto"))
	} else {
		seq.PushBack(instr("cltd"))
	}
	seq.PushBack(instr(sized("idiv", w), ir.Reg(ir.General, 1, w)))
	if remainder {
		rdx := ir.Reg(ir.Argument, 2, w)
		seq.PushBack(instr(sized("mov", w), rdx, ir.Reg(ir.General, 0, w)))
	}
	return Spill(seq, 0, w, f)
}

// PopAndShift shifts op1 by op2. The count is read from %cl and the shifted
// value keeps its own width.
func PopAndShift(seq *ir.Sequence, op1 ir.Value, op string, op2 ir.Value, f *frame.Frame) ir.Slot {
	seq.Comment("(pop and) %s", op)
	w := widthOf(op1)
	if _, ok := ir.WidthOf(op2); !ok {
		util.ICE("shift count %v has no location", op2)
	}
	Fill(seq, op1, 0, f)
	Fill(seq, op2, 2, f)
	seq.PushBack(instr(sized(op, w), ir.Reg(ir.General, 2, ir.Byte), ir.Reg(ir.General, 0, w)))
	return Spill(seq, 0, w, f)
}

// PopAndSet compares op1 with op2 and materializes the condition cc
// (a set<cc> mnemonic) as a 0/1 DoubleWord.
func PopAndSet(seq *ir.Sequence, op1 ir.Value, cc string, op2 ir.Value, f *frame.Frame) ir.Slot {
	seq.Comment("(pop and) set")
	w := popPair(seq, op1, op2, f, ir.Byte)
	seq.PushBack(instr(sized("cmp", w), ir.Reg(ir.General, 1, w), ir.Reg(ir.General, 0, w)))
	seq.PushBack(instr(cc, ir.Reg(ir.General, 0, ir.Byte)))
	Extend(seq, ir.General, 0, ir.Byte, ir.DoubleWord)
	return Spill(seq, 0, ir.DoubleWord, f)
}

// PopAndJumpIfZero consumes v and jumps to label when it is zero.
func PopAndJumpIfZero(seq *ir.Sequence, v ir.Value, label string, f *frame.Frame) {
	seq.Comment("(pop) cmp and je")
	w := widthOf(v)
	Fill(seq, v, 0, f)
	seq.PushBack(instr(sized("cmp", w), "$0", ir.Reg(ir.General, 0, w)))
	seq.PushBack(instr("je", label))
}
