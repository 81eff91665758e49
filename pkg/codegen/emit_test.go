package codegen

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/lcc/pkg/frame"
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/symtab"
	"github.com/xplshn/lcc/pkg/util"
)

var allWidths = []ir.Width{ir.Byte, ir.HalfWord, ir.Word, ir.DoubleWord}

func assertLines(t *testing.T, seq *ir.Sequence, want []string) {
	t.Helper()
	if diff := cmp.Diff(want, seq.Lines()); diff != "" {
		t.Errorf("emitted lines mismatch (-want +got):\n%s", diff)
	}
}

func TestExtendOnlyWidens(t *testing.T) {
	for _, from := range allWidths {
		for _, to := range allWidths {
			t.Run(fmt.Sprintf("%s-%s", from, to), func(t *testing.T) {
				seq := ir.NewSequence()
				Extend(seq, ir.General, 0, from, to)
				want := 0
				if from < to {
					want = 1
				}
				if seq.Len() != want {
					t.Errorf("got %d line(s), want %d: %q", seq.Len(), want, seq.Lines())
				}
			})
		}
	}

	seq := ir.NewSequence()
	Extend(seq, ir.Argument, 1, ir.Word, ir.DoubleWord)
	assertLines(t, seq, []string{"\tmovslq %esi, %rsi"})
}

func TestFillAndSpill(t *testing.T) {
	f := frame.New()
	seq := ir.NewSequence()

	s := ir.Slot{Offset: f.Allocate(ir.Word), Width: ir.Word}
	Fill(seq, s, 1, f)
	if f.Offset() != 0 {
		t.Errorf("fill of a slot should free it, offset = %d", f.Offset())
	}
	Fill(seq, ir.Imm{Value: 42}, 0, f)
	Fill(seq, ir.Imm{Value: 1 << 40}, 2, f)
	Fill(seq, ir.None{}, 0, f)
	out := Spill(seq, 0, ir.DoubleWord, f)

	if out != (ir.Slot{Offset: 8, Width: ir.DoubleWord}) {
		t.Errorf("Spill = %+v", out)
	}
	assertLines(t, seq, []string{
		"\tmovl   -4(%rbp), %r10d",
		"\tmovq   $42, %rax",
		"\tmovabsq $1099511627776, %rcx",
		"\tmovq   %rax, -8(%rbp)",
	})
}

func TestStoreImmTruncatesToSlot(t *testing.T) {
	seq := ir.NewSequence()
	StoreImm(seq, 300, ir.Slot{Offset: 1, Width: ir.Byte})
	StoreImm(seq, -1, ir.Slot{Offset: 8, Width: ir.DoubleWord})
	StoreImm(seq, 1<<33, ir.Slot{Offset: 16, Width: ir.DoubleWord})
	assertLines(t, seq, []string{
		"\tmovb   $44, -1(%rbp)",
		"\tmovq   $-1, -8(%rbp)",
		"\tmovabsq $8589934592, %rax",
		"\tmovq   %rax, -16(%rbp)",
	})
}

func TestPushVarLeavesVariableAllocated(t *testing.T) {
	f := frame.New()
	v := ir.Slot{Offset: f.Allocate(ir.HalfWord), Width: ir.HalfWord}
	seq := ir.NewSequence()
	tmp := PushVar(seq, v, f)
	if tmp.Offset == v.Offset || tmp.Width != ir.HalfWord {
		t.Fatalf("PushVar = %+v for variable %+v", tmp, v)
	}
	Fill(seq, tmp, 0, f)
	if f.Offset() != v.Offset {
		t.Errorf("consuming the copy left offset %d, want %d", f.Offset(), v.Offset)
	}
	assertLines(t, seq, []string{
		"\t# push -2(%rbp)",
		"\tmovw   -2(%rbp), %ax",
		"\tmovw   %ax, -4(%rbp)",
		"\tmovw   -4(%rbp), %ax",
	})
}

func TestPopAndDoubleOp(t *testing.T) {
	f := frame.New()
	a := ir.Slot{Offset: f.Allocate(ir.Word), Width: ir.Word}
	b := ir.Slot{Offset: f.Allocate(ir.Word), Width: ir.Word}
	seq := ir.NewSequence()

	got := PopAndDoubleOp(seq, a, "sub", b, f)
	if got != (ir.Slot{Offset: 4, Width: ir.Word}) {
		t.Errorf("result = %+v", got)
	}
	assertLines(t, seq, []string{
		"\t# (pop and) sub",
		"\tmovl   -4(%rbp), %eax",
		"\tmovl   -8(%rbp), %r10d",
		"\tsubl   %r10d, %eax",
		"\tmovl   %eax, -4(%rbp)",
	})
}

func TestPopAndSingleOpOperandRoles(t *testing.T) {
	f := frame.New()
	a := ir.Slot{Offset: f.Allocate(ir.Word), Width: ir.Word}
	b := ir.Slot{Offset: f.Allocate(ir.Word), Width: ir.Word}
	seq := ir.NewSequence()

	PopAndSingleOp(seq, a, "imul", b, f)
	assertLines(t, seq, []string{
		"\t# (pop and) imul",
		"\tmovl   -4(%rbp), %eax",
		"\tmovl   -8(%rbp), %r10d",
		"\timull  %r10d",
		"\tmovl   %eax, -4(%rbp)",
	})
}

func TestPopAndSetPromotesMixedWidths(t *testing.T) {
	f := frame.New()
	b := ir.Slot{Offset: f.Allocate(ir.Byte), Width: ir.Byte}
	seq := ir.NewSequence()

	got := PopAndSet(seq, b, "setl", ir.Imm{Value: 5}, f)
	if got.Width != ir.DoubleWord {
		t.Errorf("result width = %s, want double-word", got.Width)
	}
	assertLines(t, seq, []string{
		"\t# (pop and) set",
		"\tmovb   -1(%rbp), %al",
		"\tmovq   $5, %r10",
		"\tmovsbq %al, %rax",
		"\tcmpq   %r10, %rax",
		"\tsetl   %al",
		"\tmovsbq %al, %rax",
		"\tmovq   %rax, -8(%rbp)",
	})
}

func TestPopAndShiftKeepsValueWidth(t *testing.T) {
	f := frame.New()
	v := ir.Slot{Offset: f.Allocate(ir.HalfWord), Width: ir.HalfWord}
	seq := ir.NewSequence()

	got := PopAndShift(seq, v, "sal", ir.Imm{Value: 3}, f)
	if got != (ir.Slot{Offset: 2, Width: ir.HalfWord}) {
		t.Errorf("result = %+v", got)
	}
	assertLines(t, seq, []string{
		"\t# (pop and) sal",
		"\tmovw   -2(%rbp), %ax",
		"\tmovq   $3, %rcx",
		"\tsalw   %cl, %ax",
		"\tmovw   %ax, -2(%rbp)",
	})
}

func TestPopAndShiftRequiresCount(t *testing.T) {
	f := frame.New()
	v := ir.Slot{Offset: f.Allocate(ir.Word), Width: ir.Word}
	defer func() {
		if _, ok := recover().(*util.InternalError); !ok {
			t.Fatal("shifting by a value with no location should be an internal error")
		}
	}()
	PopAndShift(ir.NewSequence(), v, "sar", ir.None{}, f)
}

func TestPopAndDivideRemainder(t *testing.T) {
	f := frame.New()
	a := ir.Slot{Offset: f.Allocate(ir.Word), Width: ir.Word}
	seq := ir.NewSequence()

	PopAndDivide(seq, a, ir.Imm{Value: 3}, true, f)
	assertLines(t, seq, []string{
		"\t# (pop and) idiv",
		"\tmovl   -4(%rbp), %eax",
		"\tmovq   $3, %r10",
		"\tmovslq %eax, %rax",
		"\tcqto",
		"\tidivq  %r10",
		"\tmovq   %rdx, %rax",
		"\tmovq   %rax, -8(%rbp)",
	})

	f = frame.New()
	x := ir.Slot{Offset: f.Allocate(ir.Byte), Width: ir.Byte}
	y := ir.Slot{Offset: f.Allocate(ir.Byte), Width: ir.Byte}
	seq = ir.NewSequence()
	got := PopAndDivide(seq, x, y, false, f)
	if got.Width != ir.Word {
		t.Errorf("byte division result width = %s, want word", got.Width)
	}
}

func TestPopAndJumpIfZero(t *testing.T) {
	f := frame.New()
	v := ir.Slot{Offset: f.Allocate(ir.DoubleWord), Width: ir.DoubleWord}
	seq := ir.NewSequence()
	PopAndJumpIfZero(seq, v, ".E3", f)
	if f.Offset() != 0 {
		t.Errorf("condition not consumed, offset = %d", f.Offset())
	}
	assertLines(t, seq, []string{
		"\t# (pop) cmp and je",
		"\tmovq   -8(%rbp), %rax",
		"\tcmpq   $0, %rax",
		"\tje     .E3",
	})
}

func TestLabelCounters(t *testing.T) {
	var l Labels
	b1, e1 := l.NextLoop()
	x1 := l.NextExit()
	b2, e2 := l.NextLoop()
	got := []string{b1, e1, x1, b2, e2, l.NextExit()}
	want := []string{".B1", ".E1", ".F1", ".B2", ".E2", ".F2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestWireWhileLoopOrdering(t *testing.T) {
	f := frame.New()
	var labels Labels
	cond := ir.NewSequence()
	cond.Comment("cond")
	condValue := ir.Slot{Offset: f.Allocate(ir.Word), Width: ir.Word}
	body := ir.NewSequence()
	body.Comment("body")

	begin, end := WireWhileLoop(cond, condValue, body, &labels, f)
	if begin != ".B1" || end != ".E1" {
		t.Errorf("labels = %s, %s", begin, end)
	}

	fn := ir.NewSequence()
	fn.Splice(cond)
	fn.Splice(body)
	assertLines(t, fn, []string{
		".B1:",
		"\t# cond",
		"\t# (pop) cmp and je",
		"\tmovl   -4(%rbp), %eax",
		"\tcmpl   $0, %eax",
		"\tje     .E1",
		"\t# body",
		"\tjmp    .B1",
		".E1:",
	})
}

func newFunc(tab *symtab.Table) symtab.ID {
	return tab.DeclareFunction(symtab.FuncDef, "f", true, ir.Word, nil, symtab.None)
}

func TestDeclareLocalConstant(t *testing.T) {
	tab := symtab.New()
	fn := newFunc(tab)
	id := tab.DeclareLocal("x", ir.Word, fn, ir.Imm{Value: 7})
	seq := ir.NewSequence()

	DeclareLocal(seq, tab, id)
	if off := tab.Get(id).Offset; off != 4 {
		t.Errorf("offset = %d, want 4", off)
	}
	assertLines(t, seq, []string{
		"\t# allocate x 4 byte(s) -4(%rbp)",
		"\tmovl   $7, -4(%rbp)",
	})
}

func TestDeclareLocalFromTemporary(t *testing.T) {
	tab := symtab.New()
	fn := newFunc(tab)
	f := tab.Get(fn).Frame
	tmp := ir.Slot{Offset: f.Allocate(ir.Byte), Width: ir.Byte}
	id := tab.DeclareLocal("y", ir.DoubleWord, fn, tmp)
	seq := ir.NewSequence()

	DeclareLocal(seq, tab, id)
	if off := tab.Get(id).Offset; off != 8 {
		t.Errorf("offset = %d, want 8", off)
	}
	if f.Offset() != 8 {
		t.Errorf("frame offset = %d, want 8", f.Offset())
	}
	assertLines(t, seq, []string{
		"\tmovb   -1(%rbp), %al",
		"\t# allocate y 8 byte(s) -8(%rbp)",
		"\tmovsbq %al, %rax",
		"\tmovq   %rax, -8(%rbp)",
	})

	FreeVariable(f, tab.Get(id))
	if f.Offset() != 0 {
		t.Errorf("after free offset = %d, want 0", f.Offset())
	}
}

func TestMarshalOutgoingArguments(t *testing.T) {
	seq := ir.NewSequence()
	seq.PushBack("\t# before")
	MarshalOutgoingArguments(seq, []ir.Value{
		ir.Imm{Value: 3},
		ir.Slot{Offset: 4, Width: ir.Word},
		ir.Slot{Offset: 5, Width: ir.Byte},
		ir.Slot{Offset: 16, Width: ir.DoubleWord},
	})
	assertLines(t, seq, []string{
		"\t# before",
		"\t# passing arg 0",
		"\tmovq   $3, %rdi",
		"\t# passing arg 1",
		"\tmovl   -4(%rbp), %esi",
		"\tmovslq %esi, %rsi",
		"\t# passing arg 2",
		"\tmovb   -5(%rbp), %dl",
		"\tmovsbq %dl, %rdx",
		"\t# passing arg 3",
		"\tmovq   -16(%rbp), %rcx",
	})
}

func TestMarshalIncomingParameters(t *testing.T) {
	tab := symtab.New()
	a := tab.NewParam(ir.Word, "a")
	b := tab.NewParam(ir.DoubleWord, "b")
	fn := tab.DeclareFunction(symtab.FuncDef, "g", true, ir.Word, []symtab.ID{a, b}, symtab.None)
	seq := ir.NewSequence()

	scope := MarshalIncomingParameters(seq, tab, fn, fn)
	if scope != b {
		t.Errorf("scope = %d, want last parameter %d", scope, b)
	}
	if tab.Get(a).Parent != fn || tab.Get(b).Parent != a {
		t.Errorf("parameters not chained: a.Parent=%d b.Parent=%d", tab.Get(a).Parent, tab.Get(b).Parent)
	}
	if id, ok := tab.Resolve("a", scope); !ok || id != a {
		t.Errorf("Resolve(a) = %d, %v", id, ok)
	}
	assertLines(t, seq, []string{
		"\t# passing a 4 byte(s) -4(%rbp)",
		"\tmovl   %edi, -4(%rbp)",
		"\t# passing b 8 byte(s) -16(%rbp)",
		"\tmovq   %rsi, -16(%rbp)",
	})
}
