// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/token"
	"github.com/xplshn/lcc/pkg/util"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	// Expressions
	Number NodeType = iota
	Ident
	Assign
	BinaryOp
	UnaryOp
	FuncCall

	// Statements
	FuncDecl
	VarDecl
	MultiVarDecl
	If
	While
	Return
	Block
)

// Node represents a node in the Abstract Syntax Tree
type Node struct {
	Type   NodeType
	Tok    token.Token
	Parent *Node
	Data   interface{}
}

// CTypeKind defines the kind of a CType
type CTypeKind int

const (
	TYPE_CHAR CTypeKind = iota
	TYPE_SHORT
	TYPE_INT
	TYPE_LONG
	TYPE_VOID
)

// CType is one of the integer types of the language, or void
type CType struct {
	Kind CTypeKind
	Name string
}

// Pre-defined types
var (
	TypeChar  = &CType{Kind: TYPE_CHAR, Name: "char"}
	TypeShort = &CType{Kind: TYPE_SHORT, Name: "short"}
	TypeInt   = &CType{Kind: TYPE_INT, Name: "int"}
	TypeLong  = &CType{Kind: TYPE_LONG, Name: "long"}
	TypeVoid  = &CType{Kind: TYPE_VOID, Name: "void"}
)

// TypeFromToken maps a type keyword to its CType.
func TypeFromToken(t token.Type) (*CType, bool) {
	switch t {
	case token.Char:
		return TypeChar, true
	case token.Short:
		return TypeShort, true
	case token.Int:
		return TypeInt, true
	case token.Long:
		return TypeLong, true
	case token.Void:
		return TypeVoid, true
	}
	return nil, false
}

// Width returns the machine width of t. Void has none.
func (t *CType) Width() (ir.Width, bool) {
	switch t.Kind {
	case TYPE_CHAR:
		return ir.Byte, true
	case TYPE_SHORT:
		return ir.HalfWord, true
	case TYPE_INT:
		return ir.Word, true
	case TYPE_LONG:
		return ir.DoubleWord, true
	}
	return 0, false
}

func (t *CType) IsVoid() bool { return t.Kind == TYPE_VOID }

func (t *CType) String() string { return t.Name }

// --- Node Data Structs ---
type NumberNode struct{ Value int64 }
type IdentNode struct{ Name string }
type AssignNode struct{ Lhs, Rhs *Node }
type BinaryOpNode struct{ Op token.Type; Left, Right *Node }
type UnaryOpNode struct{ Op token.Type; Expr *Node }
type FuncCallNode struct{ Name string; Args []*Node }
type ParamNode struct {
	Name string
	Type *CType
	Tok  token.Token
}
type FuncDeclNode struct {
	Name       string
	Params     []ParamNode
	Body       *Node // nil for a prototype
	ReturnType *CType
}
type VarDeclNode struct {
	Name string
	Type *CType
	Init *Node
}
type MultiVarDeclNode struct{ Decls []*Node }
type IfNode struct{ Cond, ThenBody, ElseBody *Node }
type WhileNode struct{ Cond, Body *Node }
type ReturnNode struct{ Expr *Node }
type BlockNode struct{ Stmts []*Node }

// --- Node Constructors ---

func newNode(tok token.Token, nodeType NodeType, data interface{}, children ...*Node) *Node {
	node := &Node{Type: nodeType, Tok: tok, Data: data}
	for _, child := range children {
		if child != nil {
			child.Parent = node
		}
	}
	return node
}

func NewNumber(tok token.Token, value int64) *Node {
	return newNode(tok, Number, NumberNode{Value: value})
}
func NewIdent(tok token.Token, name string) *Node {
	return newNode(tok, Ident, IdentNode{Name: name})
}
func NewAssign(tok token.Token, lhs, rhs *Node) *Node {
	return newNode(tok, Assign, AssignNode{Lhs: lhs, Rhs: rhs}, lhs, rhs)
}
func NewBinaryOp(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, BinaryOp, BinaryOpNode{Op: op, Left: left, Right: right}, left, right)
}
func NewUnaryOp(tok token.Token, op token.Type, expr *Node) *Node {
	return newNode(tok, UnaryOp, UnaryOpNode{Op: op, Expr: expr}, expr)
}
func NewFuncCall(tok token.Token, name string, args []*Node) *Node {
	return newNode(tok, FuncCall, FuncCallNode{Name: name, Args: args}, args...)
}
func NewFuncDecl(tok token.Token, name string, params []ParamNode, body *Node, returnType *CType) *Node {
	return newNode(tok, FuncDecl, FuncDeclNode{
		Name: name, Params: params, Body: body, ReturnType: returnType,
	}, body)
}
func NewVarDecl(tok token.Token, name string, varType *CType, init *Node) *Node {
	return newNode(tok, VarDecl, VarDeclNode{Name: name, Type: varType, Init: init}, init)
}
func NewMultiVarDecl(tok token.Token, decls []*Node) *Node {
	return newNode(tok, MultiVarDecl, MultiVarDeclNode{Decls: decls}, decls...)
}
func NewIf(tok token.Token, cond, thenBody, elseBody *Node) *Node {
	return newNode(tok, If, IfNode{Cond: cond, ThenBody: thenBody, ElseBody: elseBody}, cond, thenBody, elseBody)
}
func NewWhile(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, While, WhileNode{Cond: cond, Body: body}, cond, body)
}
func NewReturn(tok token.Token, expr *Node) *Node {
	return newNode(tok, Return, ReturnNode{Expr: expr}, expr)
}
func NewBlock(tok token.Token, stmts []*Node) *Node {
	return newNode(tok, Block, BlockNode{Stmts: stmts}, stmts...)
}

// IsPure reports whether evaluating node has no side effects.
func IsPure(node *Node) bool {
	if node == nil {
		return true
	}
	switch d := node.Data.(type) {
	case NumberNode, IdentNode:
		return true
	case BinaryOpNode:
		return IsPure(d.Left) && IsPure(d.Right)
	case UnaryOpNode:
		return IsPure(d.Expr)
	}
	return false
}

// FoldConstants performs compile-time constant evaluation on the AST
func FoldConstants(node *Node) *Node {
	if node == nil {
		return nil
	}

	// Recursively fold children first
	switch d := node.Data.(type) {
	case AssignNode:
		d.Rhs = FoldConstants(d.Rhs)
		node.Data = d
	case BinaryOpNode:
		d.Left = FoldConstants(d.Left)
		d.Right = FoldConstants(d.Right)
		node.Data = d
	case UnaryOpNode:
		d.Expr = FoldConstants(d.Expr)
		node.Data = d
	case FuncCallNode:
		for i, arg := range d.Args {
			d.Args[i] = FoldConstants(arg)
		}
	case FuncDeclNode:
		d.Body = FoldConstants(d.Body)
		node.Data = d
	case VarDeclNode:
		d.Init = FoldConstants(d.Init)
		node.Data = d
	case MultiVarDeclNode:
		for i, decl := range d.Decls {
			d.Decls[i] = FoldConstants(decl)
		}
	case IfNode:
		d.Cond = FoldConstants(d.Cond)
		d.ThenBody = FoldConstants(d.ThenBody)
		d.ElseBody = FoldConstants(d.ElseBody)
		node.Data = d
	case WhileNode:
		d.Cond = FoldConstants(d.Cond)
		d.Body = FoldConstants(d.Body)
		node.Data = d
	case ReturnNode:
		d.Expr = FoldConstants(d.Expr)
		node.Data = d
	case BlockNode:
		for i, stmt := range d.Stmts {
			d.Stmts[i] = FoldConstants(stmt)
		}
	}

	// Then, attempt to fold the current node.
	switch node.Type {
	case BinaryOp:
		d := node.Data.(BinaryOpNode)
		if d.Left.Type == Number && d.Right.Type == Number {
			l, r := d.Left.Data.(NumberNode).Value, d.Right.Data.(NumberNode).Value
			var res int64
			folded := true
			switch d.Op {
			case token.Plus: res = l + r
			case token.Minus: res = l - r
			case token.Star: res = l * r
			case token.And: res = l & r
			case token.Or: res = l | r
			case token.Xor: res = l ^ r
			case token.Shl: res = l << uint64(r)
			case token.Shr: res = l >> uint64(r)
			case token.EqEq: if l == r { res = 1 }
			case token.Neq: if l != r { res = 1 }
			case token.Lt: if l < r { res = 1 }
			case token.Gt: if l > r { res = 1 }
			case token.Lte: if l <= r { res = 1 }
			case token.Gte: if l >= r { res = 1 }
			case token.Slash:
				if r == 0 { util.Error(node.Tok, "Compile-time division by zero.") }
				res = l / r
			case token.Rem:
				if r == 0 { util.Error(node.Tok, "Compile-time modulo by zero.") }
				res = l % r
			default:
				folded = false
			}
			if folded {
				return reparent(NewNumber(node.Tok, res), node.Parent)
			}
		}
	case UnaryOp:
		d := node.Data.(UnaryOpNode)
		if d.Expr.Type == Number {
			val := d.Expr.Data.(NumberNode).Value
			var res int64
			folded := true
			switch d.Op {
			case token.Minus: res = -val
			case token.Complement: res = ^val
			case token.Not: if val == 0 { res = 1 }
			default:
				folded = false
			}
			if folded {
				return reparent(NewNumber(node.Tok, res), node.Parent)
			}
		}
	}

	return node
}

func reparent(node, parent *Node) *Node {
	node.Parent = parent
	return node
}
