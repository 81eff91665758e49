package codegen

import (
	"github.com/samber/lo"
	"github.com/xplshn/lcc/pkg/ast"
	"github.com/xplshn/lcc/pkg/config"
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/symtab"
	"github.com/xplshn/lcc/pkg/token"
	"github.com/xplshn/lcc/pkg/util"
)

var doubleOps = map[token.Type]string{
	token.Plus: "add", token.Minus: "sub",
	token.And: "and", token.Or: "or", token.Xor: "xor",
}

var shiftOps = map[token.Type]string{
	token.Shl: "sal", token.Shr: "sar",
}

var setOps = map[token.Type]string{
	token.Lt: "setl", token.Gt: "setg", token.Lte: "setle", token.Gte: "setge",
	token.EqEq: "sete", token.Neq: "setne",
}

// codegenExpr generates node and returns where its value lives. Calls to
// void functions yield ir.None.
func (ctx *Context) codegenExpr(node *ast.Node) ir.Value {
	switch node.Type {
	case ast.Number:
		return ir.Imm{Value: node.Data.(ast.NumberNode).Value}
	case ast.Ident:
		return ctx.codegenIdent(node)
	case ast.Assign:
		return ctx.codegenAssign(node)
	case ast.BinaryOp:
		return ctx.codegenBinaryOp(node)
	case ast.UnaryOp:
		return ctx.codegenUnaryOp(node)
	case ast.FuncCall:
		return ctx.codegenFuncCall(node)
	}
	util.Error(node.Tok, "Expected an expression.")
	return ir.None{}
}

// codegenValue is codegenExpr for contexts that need a value.
func (ctx *Context) codegenValue(node *ast.Node) ir.Value {
	v := ctx.codegenExpr(node)
	if _, ok := v.(ir.None); ok {
		util.Error(node.Tok, "Void value not ignored as it ought to be.")
	}
	return v
}

func (ctx *Context) lookupVariable(node *ast.Node) *symtab.Symbol {
	name := node.Data.(ast.IdentNode).Name
	id, ok := ctx.tab.Resolve(name, ctx.scope)
	if !ok {
		util.Error(node.Tok, "Undeclared identifier '%s'.", name)
	}
	s := ctx.tab.Get(id)
	if !s.IsVariable() {
		util.Error(node.Tok, "'%s' is a function, not a variable.", name)
	}
	return s
}

func (ctx *Context) codegenIdent(node *ast.Node) ir.Value {
	s := ctx.lookupVariable(node)
	return PushVar(ctx.seq, s.Slot(), ctx.frame())
}

func (ctx *Context) codegenAssign(node *ast.Node) ir.Value {
	d := node.Data.(ast.AssignNode)
	dst := ctx.lookupVariable(d.Lhs).Slot()

	switch v := ctx.codegenValue(d.Rhs).(type) {
	case ir.Imm:
		StoreImm(ctx.seq, v.Value, dst)
	case ir.Slot:
		Fill(ctx.seq, v, 0, ctx.frame())
		Store(ctx.seq, v.Width, dst)
	}
	return PushVar(ctx.seq, dst, ctx.frame())
}

func (ctx *Context) codegenBinaryOp(node *ast.Node) ir.Value {
	d := node.Data.(ast.BinaryOpNode)
	l := ctx.codegenValue(d.Left)
	r := ctx.codegenValue(d.Right)
	f := ctx.frame()

	if op, ok := doubleOps[d.Op]; ok {
		return PopAndDoubleOp(ctx.seq, l, op, r, f)
	}
	if op, ok := shiftOps[d.Op]; ok {
		return PopAndShift(ctx.seq, l, op, r, f)
	}
	if cc, ok := setOps[d.Op]; ok {
		return PopAndSet(ctx.seq, l, cc, r, f)
	}
	switch d.Op {
	case token.Star:
		return PopAndSingleOp(ctx.seq, l, "imul", r, f)
	case token.Slash:
		return PopAndDivide(ctx.seq, l, r, false, f)
	case token.Rem:
		return PopAndDivide(ctx.seq, l, r, true, f)
	}
	util.Error(node.Tok, "Unsupported binary operator %s.", d.Op)
	return ir.None{}
}

func (ctx *Context) codegenUnaryOp(node *ast.Node) ir.Value {
	d := node.Data.(ast.UnaryOpNode)
	v := ctx.codegenValue(d.Expr)
	f := ctx.frame()

	switch d.Op {
	case token.Minus:
		return PopAndDoubleOp(ctx.seq, ir.Imm{Value: 0}, "sub", v, f)
	case token.Complement:
		return PopAndDoubleOp(ctx.seq, v, "xor", ir.Imm{Value: -1}, f)
	case token.Not:
		return PopAndSet(ctx.seq, v, "sete", ir.Imm{Value: 0}, f)
	}
	util.Error(node.Tok, "Unsupported unary operator %s.", d.Op)
	return ir.None{}
}

func (ctx *Context) codegenFuncCall(node *ast.Node) ir.Value {
	d := node.Data.(ast.FuncCallNode)
	returns, retWidth := true, ir.Word

	if id, ok := ctx.tab.Resolve(d.Name, ctx.scope); ok {
		s := ctx.tab.Get(id)
		if !s.IsFunction() {
			util.Error(node.Tok, "Called object '%s' is not a function.", d.Name)
		}
		switch {
		case len(s.Params) == len(d.Args):
		case len(s.Params) == 0:
			util.Warn(ctx.cfg, config.WarnPedantic, node.Tok, "Passing %d argument(s) to '%s', declared without parameters.", len(d.Args), d.Name)
		default:
			util.Error(node.Tok, "Function '%s' expects %d argument(s), got %d.", d.Name, len(s.Params), len(d.Args))
		}
		returns, retWidth = s.Returns, s.ReturnWidth
	} else {
		if !ctx.cfg.IsFeatureEnabled(config.FeatImplicitFunc) {
			util.Error(node.Tok, "Implicit declaration of function '%s'.", d.Name)
		}
		util.Warn(ctx.cfg, config.WarnImplicitDecl, node.Tok, "Implicit declaration of function '%s'; assuming it returns int.", d.Name)
	}

	args := lo.Map(d.Args, func(arg *ast.Node, _ int) ir.Value { return ctx.codegenValue(arg) })
	MarshalOutgoingArguments(ctx.seq, args)
	ctx.seq.PushBack(instr("movl", "$0", "%eax"))
	ctx.seq.PushBack(instr("call", d.Name))

	f := ctx.frame()
	for i := len(args) - 1; i >= 0; i-- {
		if s, ok := args[i].(ir.Slot); ok {
			f.Free(s.Width)
		}
	}
	if !returns {
		return ir.None{}
	}
	return Spill(ctx.seq, 0, retWidth, f)
}
