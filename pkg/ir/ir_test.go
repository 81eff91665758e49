package ir

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWidthTables(t *testing.T) {
	tests := []struct {
		w      Width
		size   int
		suffix byte
		reg0   string
		arg5   string
	}{
		{Byte, 1, 'b', "%al", "%r9b"},
		{HalfWord, 2, 'w', "%ax", "%r9w"},
		{Word, 4, 'l', "%eax", "%r9d"},
		{DoubleWord, 8, 'q', "%rax", "%r9"},
	}
	for _, tt := range tests {
		t.Run(tt.w.String(), func(t *testing.T) {
			if tt.w.Size() != tt.size {
				t.Errorf("Size() = %d, want %d", tt.w.Size(), tt.size)
			}
			if tt.w.Suffix() != tt.suffix {
				t.Errorf("Suffix() = %c, want %c", tt.w.Suffix(), tt.suffix)
			}
			if got := Reg(General, 0, tt.w); got != tt.reg0 {
				t.Errorf("Reg(General, 0) = %s, want %s", got, tt.reg0)
			}
			if got := Reg(Argument, 5, tt.w); got != tt.arg5 {
				t.Errorf("Reg(Argument, 5) = %s, want %s", got, tt.arg5)
			}
			if w, ok := WidthOfSize(tt.size); !ok || w != tt.w {
				t.Errorf("WidthOfSize(%d) = %v, %v", tt.size, w, ok)
			}
		})
	}
	if _, ok := WidthOfSize(3); ok {
		t.Error("WidthOfSize(3) should fail")
	}
}

func TestShiftCountRegister(t *testing.T) {
	if got := Reg(General, 2, Byte); got != "%cl" {
		t.Errorf("general slot 2 byte register = %s, want %%cl", got)
	}
}

func TestRegOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for argument slot 6")
		}
	}()
	Reg(Argument, MaxArgs, Word)
}

func TestMaxWidth(t *testing.T) {
	if got := MaxWidth(Byte, Word, HalfWord); got != Word {
		t.Errorf("MaxWidth = %v, want word", got)
	}
}

func TestValueWidths(t *testing.T) {
	if w, ok := WidthOf(Slot{Offset: 4, Width: Word}); !ok || w != Word {
		t.Errorf("slot width = %v, %v", w, ok)
	}
	if w, ok := WidthOf(Imm{Value: 7}); !ok || w != DoubleWord {
		t.Errorf("constant width = %v, %v", w, ok)
	}
	if _, ok := WidthOf(None{}); ok {
		t.Error("None has no width")
	}
	if got := (Slot{Offset: 12, Width: Word}).Addr(); got != "-12(%rbp)" {
		t.Errorf("Addr() = %s", got)
	}
}

func TestSequenceOrdering(t *testing.T) {
	s := NewSequence()
	s.PushBack("b")
	s.PushBack("c")
	s.PushFront("a")

	other := NewSequence()
	other.PushBack("d")
	other.PushFront("x")
	s.Splice(other)
	s.PushBack("e")

	want := []string{"a", "b", "c", "x", "d", "e"}
	if diff := cmp.Diff(want, s.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", s.Len(), len(want))
	}
	if other.Len() != 0 || len(other.Lines()) != 0 {
		t.Error("spliced sequence should be empty")
	}
}

func TestSequenceSpliceIntoEmpty(t *testing.T) {
	s := NewSequence()
	other := NewSequence()
	other.PushBack("only")
	s.Splice(other)
	s.PushFront("first")
	if diff := cmp.Diff([]string{"first", "only"}, s.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	s.Splice(NewSequence())
	if s.Len() != 2 {
		t.Errorf("splicing an empty sequence changed Len to %d", s.Len())
	}
}

func TestSequenceWriteTo(t *testing.T) {
	s := NewSequence()
	s.Emit("\tmovq %s, %s", "%rsp", "%rbp")
	s.Comment("hello %d", 1)
	var sb strings.Builder
	if _, err := s.WriteTo(&sb); err != nil {
		t.Fatal(err)
	}
	want := "\tmovq %rsp, %rbp\n\t# hello 1\n"
	if sb.String() != want {
		t.Errorf("WriteTo = %q, want %q", sb.String(), want)
	}
	if !IsComment(s.Lines()[1]) || IsComment(s.Lines()[0]) {
		t.Error("IsComment misclassified lines")
	}
}
