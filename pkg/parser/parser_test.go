package parser

import (
	"testing"

	"github.com/xplshn/lcc/pkg/ast"
	"github.com/xplshn/lcc/pkg/config"
	"github.com/xplshn/lcc/pkg/lexer"
	"github.com/xplshn/lcc/pkg/token"
)

func parse(t *testing.T, src string) []*ast.Node {
	t.Helper()
	cfg := config.NewConfig()
	root := NewParser(lexer.Tokenize([]rune(src), 0, cfg), cfg).Parse()
	return root.Data.(ast.BlockNode).Stmts
}

func TestParseFunctions(t *testing.T) {
	decls := parse(t, "int f(void); long g(char c, short s) { return c; } void h() {}")
	if len(decls) != 3 {
		t.Fatalf("got %d declarations, want 3", len(decls))
	}

	f := decls[0].Data.(ast.FuncDeclNode)
	if f.Name != "f" || f.Body != nil || len(f.Params) != 0 || f.ReturnType != ast.TypeInt {
		t.Errorf("prototype parsed as %+v", f)
	}

	g := decls[1].Data.(ast.FuncDeclNode)
	if g.ReturnType != ast.TypeLong || len(g.Params) != 2 {
		t.Fatalf("g parsed as %+v", g)
	}
	if g.Params[0].Name != "c" || g.Params[0].Type != ast.TypeChar || g.Params[1].Type != ast.TypeShort {
		t.Errorf("g params = %+v", g.Params)
	}

	h := decls[2].Data.(ast.FuncDeclNode)
	if !h.ReturnType.IsVoid() || h.Body == nil {
		t.Errorf("h parsed as %+v", h)
	}
}

func TestParsePrecedence(t *testing.T) {
	decls := parse(t, "int f() { return 1 + 2 * 3 << 1 == 14; }")
	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	ret := body.Stmts[0].Data.(ast.ReturnNode)

	eq := ret.Expr.Data.(ast.BinaryOpNode)
	if eq.Op != token.EqEq {
		t.Fatalf("top operator = %s, want ==", eq.Op)
	}
	shl := eq.Left.Data.(ast.BinaryOpNode)
	if shl.Op != token.Shl {
		t.Fatalf("left of == is %s, want <<", shl.Op)
	}
	add := shl.Left.Data.(ast.BinaryOpNode)
	if add.Op != token.Plus || add.Right.Data.(ast.BinaryOpNode).Op != token.Star {
		t.Errorf("1 + 2 * 3 parsed as %+v", add)
	}
}

func TestParseStatements(t *testing.T) {
	src := `int f(int n) {
		int a = 1, b;
		b = a = n;
		while (n) n = n - 1;
		if (a) { ; } else b = -~!a;
		g(a, b);
		return b;
	}`
	body := parse(t, src)[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	wantTypes := []ast.NodeType{ast.MultiVarDecl, ast.Assign, ast.While, ast.If, ast.FuncCall, ast.Return}
	if len(body.Stmts) != len(wantTypes) {
		t.Fatalf("got %d statements, want %d", len(body.Stmts), len(wantTypes))
	}
	for i, want := range wantTypes {
		if body.Stmts[i].Type != want {
			t.Errorf("statement %d has type %d, want %d", i, body.Stmts[i].Type, want)
		}
	}

	assign := body.Stmts[1].Data.(ast.AssignNode)
	if assign.Rhs.Type != ast.Assign {
		t.Errorf("assignment is not right associative")
	}

	decl := body.Stmts[0].Data.(ast.MultiVarDeclNode)
	if len(decl.Decls) != 2 || decl.Decls[1].Data.(ast.VarDeclNode).Init != nil {
		t.Errorf("declaration list parsed as %+v", decl)
	}

	call := body.Stmts[4].Data.(ast.FuncCallNode)
	if call.Name != "g" || len(call.Args) != 2 {
		t.Errorf("call parsed as %+v", call)
	}
}
