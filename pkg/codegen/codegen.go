package codegen

import (
	"github.com/samber/lo"
	"github.com/xplshn/lcc/pkg/ast"
	"github.com/xplshn/lcc/pkg/config"
	"github.com/xplshn/lcc/pkg/frame"
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/symtab"
	"github.com/xplshn/lcc/pkg/util"
)

// Context carries the walker state for one translation unit. The current
// scope is the innermost declaration visible to the code being generated.
type Context struct {
	tab    *symtab.Table
	scope  symtab.ID
	block  symtab.ID
	labels Labels
	fn     symtab.ID
	exit   string
	seq    *ir.Sequence
	cfg    *config.Config
	prog   *ir.Program
}

func NewContext(cfg *config.Config) *Context {
	return &Context{
		tab:   symtab.New(),
		scope: symtab.None,
		block: symtab.None,
		fn:    symtab.None,
		cfg:   cfg,
		prog:  &ir.Program{},
	}
}

// Generate walks a translation unit and returns its functions in order.
func (ctx *Context) Generate(root *ast.Node) *ir.Program {
	if root == nil {
		return ctx.prog
	}
	for _, decl := range root.Data.(ast.BlockNode).Stmts {
		if decl.Type != ast.FuncDecl {
			util.Error(decl.Tok, "Expected a function declaration at file scope.")
		}
		ctx.codegenFuncDecl(decl)
	}
	return ctx.prog
}

// Table exposes the symbol table built during generation.
func (ctx *Context) Table() *symtab.Table { return ctx.tab }

func (ctx *Context) frame() *frame.Frame { return ctx.tab.Get(ctx.fn).Frame }

func (ctx *Context) codegenFuncDecl(node *ast.Node) {
	d := node.Data.(ast.FuncDeclNode)
	retWidth, returns := d.ReturnType.Width()
	isPrototype := d.Body == nil

	// A prototype with an empty list leaves the parameters unspecified.
	var inherited []symtab.ID
	if prevID, ok := ctx.tab.Resolve(d.Name, symtab.None); ok {
		prev := ctx.tab.Get(prevID)
		if prev.Kind == symtab.FuncDef && !isPrototype {
			util.Error(node.Tok, "Redefinition of function '%s'.", d.Name)
		}
		unspecified := (prev.Kind == symtab.FuncDecl && len(prev.Params) == 0) || (isPrototype && len(d.Params) == 0)
		if prev.Returns != returns || (returns && prev.ReturnWidth != retWidth) || (!unspecified && len(prev.Params) != len(d.Params)) {
			util.Error(node.Tok, "Conflicting types for '%s'.", d.Name)
		}
		if isPrototype && len(d.Params) == 0 {
			inherited = prev.Params
		}
	}

	if !isPrototype {
		names := lo.Map(d.Params, func(p ast.ParamNode, _ int) string { return p.Name })
		if dups := lo.FindDuplicates(names); len(dups) > 0 {
			util.Error(node.Tok, "Redefinition of parameter '%s' in '%s'.", dups[0], d.Name)
		}
	}

	params := inherited
	if params == nil {
		params = lo.Map(d.Params, func(p ast.ParamNode, _ int) symtab.ID {
			w, _ := p.Type.Width()
			return ctx.tab.NewParam(w, p.Name)
		})
	}

	kind := symtab.FuncDef
	if isPrototype {
		kind = symtab.FuncDecl
	}
	id := ctx.tab.DeclareFunction(kind, d.Name, returns, retWidth, params, symtab.None)
	if isPrototype {
		return
	}

	fn := ctx.tab.Get(id)
	ctx.fn, ctx.exit, ctx.seq = id, ctx.labels.NextExit(), fn.Code

	ctx.scope = MarshalIncomingParameters(ctx.seq, ctx.tab, id, id)
	// Parameters and the outermost block of the body share one scope.
	ctx.withScope(func() {
		ctx.block = id
		for _, stmt := range d.Body.Data.(ast.BlockNode).Stmts {
			ctx.codegenStmt(stmt)
		}
	})
	ctx.scope = symtab.None

	if d.Name == "main" {
		ctx.seq.PushBack(instr("movl", "$0", "%eax"))
	}
	EmitLabel(ctx.seq, ctx.exit)
	ctx.seq.PushBack(instr("movq", "%rbp", "%rsp"))
	ctx.seq.PushBack(instr("popq", "%rbp"))
	ctx.seq.PushBack(instr("ret"))

	if size := fn.Frame.Watermark(); size > 0 {
		ctx.seq.PushFront(instr("subq", imm(int64(size)), "%rsp"))
	}
	ctx.seq.PushFront(instr("movq", "%rsp", "%rbp"))
	ctx.seq.PushFront(instr("pushq", "%rbp"))
	ctx.seq.PushFront(d.Name + ":")
	ctx.seq.PushFront("\t.type  " + d.Name + ", @function")
	ctx.seq.PushFront("\t.globl " + d.Name)

	ctx.prog.AddFunc(&ir.Func{Name: d.Name, Code: fn.Code, FrameSize: fn.Frame.Watermark()})
	ctx.fn, ctx.seq = symtab.None, nil
}

// codegenBlock generates stmts inside a fresh block scope.
func (ctx *Context) codegenBlock(node *ast.Node) {
	ctx.withScope(func() {
		for _, stmt := range node.Data.(ast.BlockNode).Stmts {
			ctx.codegenStmt(stmt)
		}
	})
}

// withScope runs gen in a new block scope, then releases the locals it
// declared in reverse order and restores the enclosing scope.
func (ctx *Context) withScope(gen func()) {
	savedScope, savedBlock := ctx.scope, ctx.block
	ctx.scope = ctx.tab.NewScope(ctx.scope)
	ctx.block = ctx.scope
	gen()
	ctx.freeVariables(savedScope)
	ctx.scope, ctx.block = savedScope, savedBlock
}

func (ctx *Context) freeVariables(stop symtab.ID) {
	f := ctx.frame()
	for id := ctx.scope; id != stop && id != symtab.None; id = ctx.tab.Get(id).Parent {
		if s := ctx.tab.Get(id); s.Kind == symtab.Local {
			FreeVariable(f, s)
		}
	}
}

func (ctx *Context) codegenStmt(node *ast.Node) {
	if node == nil {
		return
	}
	switch node.Type {
	case ast.Block:
		ctx.codegenBlock(node)
	case ast.VarDecl:
		ctx.codegenVarDecl(node)
	case ast.MultiVarDecl:
		for _, decl := range node.Data.(ast.MultiVarDeclNode).Decls {
			ctx.codegenVarDecl(decl)
		}
	case ast.If:
		ctx.codegenIf(node)
	case ast.While:
		ctx.codegenWhile(node)
	case ast.Return:
		ctx.codegenReturn(node)
	case ast.FuncDecl:
		util.Error(node.Tok, "Nested function declarations are not supported.")
	default:
		v := ctx.codegenExpr(node)
		if ast.IsPure(node) {
			util.Warn(ctx.cfg, config.WarnUnusedValue, node.Tok, "Expression result unused.")
		}
		if s, ok := v.(ir.Slot); ok {
			ctx.frame().Free(s.Width)
		}
	}
}

// codegenBody generates the body of an if or while in its own scope so a
// bare declaration cannot leak into the enclosing block.
func (ctx *Context) codegenBody(node *ast.Node) {
	ctx.withScope(func() { ctx.codegenStmt(node) })
}

func (ctx *Context) codegenVarDecl(node *ast.Node) {
	d := node.Data.(ast.VarDeclNode)
	w, _ := d.Type.Width()

	if ctx.fn == symtab.None || ctx.tab.InGlobalScope(ctx.scope) {
		util.ICE("local '%s' declared outside a function body", d.Name)
	}
	if _, ok := ctx.tab.ResolveUntil(d.Name, ctx.scope, ctx.block); ok {
		util.Error(node.Tok, "Redefinition of '%s'.", d.Name)
	}
	if prev, ok := ctx.tab.Resolve(d.Name, ctx.scope); ok && ctx.tab.Get(prev).IsVariable() {
		util.Warn(ctx.cfg, config.WarnShadow, node.Tok, "Declaration of '%s' shadows a previous local.", d.Name)
	}

	var init ir.Value = ir.None{}
	if d.Init != nil {
		init = ctx.codegenValue(d.Init)
	}
	id := ctx.tab.DeclareLocal(d.Name, w, ctx.scope, init)
	ctx.scope = id
	DeclareLocal(ctx.seq, ctx.tab, id)
}

func (ctx *Context) codegenIf(node *ast.Node) {
	d := node.Data.(ast.IfNode)
	elseLabel, endLabel := ctx.labels.NextLoop()

	cond := ctx.codegenValue(d.Cond)
	target := endLabel
	if d.ElseBody != nil {
		target = elseLabel
	}
	PopAndJumpIfZero(ctx.seq, cond, target, ctx.frame())
	ctx.codegenBody(d.ThenBody)
	if d.ElseBody != nil {
		EmitJump(ctx.seq, endLabel)
		EmitLabel(ctx.seq, elseLabel)
		ctx.codegenBody(d.ElseBody)
	}
	EmitLabel(ctx.seq, endLabel)
}

func (ctx *Context) codegenWhile(node *ast.Node) {
	d := node.Data.(ast.WhileNode)
	outer := ctx.seq

	cond := ir.NewSequence()
	ctx.seq = cond
	condValue := ctx.codegenValue(d.Cond)

	body := ir.NewSequence()
	ctx.seq = body
	ctx.codegenBody(d.Body)

	ctx.seq = outer
	WireWhileLoop(cond, condValue, body, &ctx.labels, ctx.frame())
	outer.Splice(cond)
	outer.Splice(body)
}

func (ctx *Context) codegenReturn(node *ast.Node) {
	d := node.Data.(ast.ReturnNode)
	fn := ctx.tab.Get(ctx.fn)

	if d.Expr == nil {
		if fn.Returns {
			util.Warn(ctx.cfg, config.WarnPedantic, node.Tok, "Non-void function '%s' should return a value.", ctx.tab.NameOf(ctx.fn))
		}
	} else {
		if !fn.Returns {
			util.Error(node.Tok, "Void function '%s' should not return a value.", ctx.tab.NameOf(ctx.fn))
		}
		v := ctx.codegenValue(d.Expr)
		w := widthOf(v)
		Fill(ctx.seq, v, 0, ctx.frame())
		Extend(ctx.seq, ir.General, 0, w, fn.ReturnWidth)
	}
	EmitJump(ctx.seq, ctx.exit)
}
