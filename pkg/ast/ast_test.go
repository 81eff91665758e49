package ast

import (
	"testing"

	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/token"
)

func num(v int64) *Node { return NewNumber(token.Token{}, v) }

func bin(op token.Type, l, r *Node) *Node { return NewBinaryOp(token.Token{}, op, l, r) }

func TestFoldConstants(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want int64
	}{
		{"arithmetic", bin(token.Plus, bin(token.Star, num(2), num(3)), num(1)), 7},
		{"shift", bin(token.Shl, num(1), num(4)), 16},
		{"compare", bin(token.Lt, num(1), num(2)), 1},
		{"remainder", bin(token.Rem, num(-7), num(3)), -1},
		{"negate", NewUnaryOp(token.Token{}, token.Minus, num(5)), -5},
		{"complement", NewUnaryOp(token.Token{}, token.Complement, num(0)), -1},
		{"not", NewUnaryOp(token.Token{}, token.Not, num(9)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FoldConstants(tt.node)
			if got.Type != Number {
				t.Fatalf("not folded: %+v", got.Data)
			}
			if v := got.Data.(NumberNode).Value; v != tt.want {
				t.Errorf("folded to %d, want %d", v, tt.want)
			}
		})
	}
}

func TestFoldKeepsVariables(t *testing.T) {
	x := NewIdent(token.Token{}, "x")
	node := bin(token.Plus, x, bin(token.Star, num(2), num(3)))
	got := FoldConstants(node)
	d := got.Data.(BinaryOpNode)
	if d.Left != x {
		t.Error("identifier operand was replaced")
	}
	if d.Right.Type != Number || d.Right.Data.(NumberNode).Value != 6 {
		t.Errorf("right operand = %+v", d.Right.Data)
	}
	if d.Right.Parent != got {
		t.Error("folded operand lost its parent")
	}
}

func TestTypeWidths(t *testing.T) {
	for typ, want := range map[*CType]ir.Width{
		TypeChar: ir.Byte, TypeShort: ir.HalfWord, TypeInt: ir.Word, TypeLong: ir.DoubleWord,
	} {
		if w, ok := typ.Width(); !ok || w != want {
			t.Errorf("%s width = %s, %v", typ, w, ok)
		}
	}
	if _, ok := TypeVoid.Width(); ok {
		t.Error("void should have no width")
	}
}

func TestIsPure(t *testing.T) {
	if !IsPure(bin(token.Plus, NewIdent(token.Token{}, "a"), num(1))) {
		t.Error("a + 1 should be pure")
	}
	call := NewFuncCall(token.Token{}, "f", nil)
	if IsPure(bin(token.Plus, call, num(1))) {
		t.Error("f() + 1 should not be pure")
	}
}
