package parser

import (
	"strconv"

	"github.com/xplshn/lcc/pkg/ast"
	"github.com/xplshn/lcc/pkg/config"
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/token"
	"github.com/xplshn/lcc/pkg/util"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	cfg      *config.Config
}

// NewParser creates and initializes a new Parser from a token stream
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	p := &Parser{tokens: tokens, pos: 0, cfg: cfg}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, message string) {
	if p.check(tokType) {
		p.advance()
		return
	}
	util.Error(p.current, message)
}

// Parse parses a translation unit into a block of function declarations.
func (p *Parser) Parse() *ast.Node {
	var decls []*ast.Node
	tok := p.current
	for !p.check(token.EOF) {
		if p.match(token.Semi) {
			util.Warn(p.cfg, config.WarnPedantic, p.previous, "Extra ';' outside of a function")
			continue
		}
		decls = append(decls, p.parseTopLevel())
	}
	return ast.NewBlock(tok, decls)
}

func (p *Parser) parseType() *ast.CType {
	if typ, ok := ast.TypeFromToken(p.current.Type); ok {
		p.advance()
		if typ == ast.TypeLong && p.check(token.Long) {
			util.Warn(p.cfg, config.WarnPedantic, p.current, "'long long' is treated as 'long'")
			p.advance()
		}
		if (typ == ast.TypeShort || typ == ast.TypeLong) && p.check(token.Int) {
			p.advance()
		}
		return typ
	}
	util.Error(p.current, "Expected a type name.")
	return nil
}

func (p *Parser) parseTopLevel() *ast.Node {
	retType := p.parseType()
	nameTok := p.current
	p.expect(token.Ident, "Expected a name after the type.")
	if !p.check(token.LParen) {
		util.Error(nameTok, "Global variable '%s' is not supported; only functions may be declared at file scope.", nameTok.Value)
	}
	return p.parseFuncDecl(nameTok, retType)
}

func (p *Parser) parseFuncDecl(nameTok token.Token, retType *ast.CType) *ast.Node {
	p.expect(token.LParen, "Expected '(' after function name.")
	var params []ast.ParamNode

	if p.check(token.Void) && p.peekIs(token.RParen) {
		p.advance()
	} else if !p.check(token.RParen) {
		for {
			ptok := p.current
			typ := p.parseType()
			if typ.IsVoid() {
				util.Error(ptok, "Parameter cannot have type 'void'.")
			}
			param := ast.ParamNode{Type: typ, Tok: ptok}
			if p.check(token.Ident) {
				param.Name = p.current.Value
				param.Tok = p.current
				p.advance()
			}
			params = append(params, param)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RParen, "Expected ')' after parameters.")

	if len(params) > ir.MaxArgs {
		util.Error(nameTok, "Function '%s' has %d parameters; at most %d are supported.", nameTok.Value, len(params), ir.MaxArgs)
	}

	if p.match(token.Semi) {
		return ast.NewFuncDecl(nameTok, nameTok.Value, params, nil, retType)
	}

	for _, param := range params {
		if param.Name == "" {
			util.Error(param.Tok, "Parameter name omitted in function definition.")
		}
	}
	body := p.parseBlock()
	return ast.NewFuncDecl(nameTok, nameTok.Value, params, body, retType)
}

func (p *Parser) peekIs(tokType token.Type) bool {
	return p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Type == tokType
}

// Statement Parsing
func (p *Parser) parseBlock() *ast.Node {
	tok := p.current
	p.expect(token.LBrace, "Expected '{' to start a block.")
	var stmts []*ast.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		if stmt := p.parseStmt(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(token.RBrace, "Expected '}' to end a block.")
	return ast.NewBlock(tok, stmts)
}

func (p *Parser) parseStmt() *ast.Node {
	tok := p.current
	switch {
	case p.current.Type.IsTypeKeyword():
		return p.parseVarDecl()
	case p.check(token.LBrace):
		return p.parseBlock()
	case p.match(token.Semi):
		return nil
	case p.match(token.If):
		p.expect(token.LParen, "Expected '(' after 'if'.")
		cond := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after if condition.")
		thenBody := p.parseBody()
		var elseBody *ast.Node
		if p.match(token.Else) {
			elseBody = p.parseBody()
		}
		return ast.NewIf(tok, cond, thenBody, elseBody)
	case p.match(token.While):
		p.expect(token.LParen, "Expected '(' after 'while'.")
		cond := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after while condition.")
		body := p.parseBody()
		return ast.NewWhile(tok, cond, body)
	case p.match(token.Return):
		var expr *ast.Node
		if !p.check(token.Semi) {
			expr = p.parseExpr()
		}
		p.expect(token.Semi, "Expected ';' after return statement.")
		return ast.NewReturn(tok, expr)
	}

	expr := p.parseExpr()
	p.expect(token.Semi, "Expected ';' after expression statement.")
	return expr
}

// parseBody parses the body of an if or while. A lone ';' becomes an empty block.
func (p *Parser) parseBody() *ast.Node {
	tok := p.current
	if stmt := p.parseStmt(); stmt != nil {
		return stmt
	}
	return ast.NewBlock(tok, nil)
}

func (p *Parser) parseVarDecl() *ast.Node {
	tok := p.current
	typ := p.parseType()
	if typ.IsVoid() {
		util.Error(tok, "Variable cannot have type 'void'.")
	}
	var decls []*ast.Node
	for {
		nameTok := p.current
		p.expect(token.Ident, "Expected a variable name.")
		var init *ast.Node
		if p.match(token.Eq) {
			init = p.parseAssignmentExpr()
		}
		decls = append(decls, ast.NewVarDecl(nameTok, nameTok.Value, typ, init))
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.Semi, "Expected ';' after variable declaration.")
	if len(decls) == 1 {
		return decls[0]
	}
	return ast.NewMultiVarDecl(tok, decls)
}

// Expression Parsing
func getBinaryOpPrecedence(op token.Type) int {
	switch op {
	case token.Star, token.Slash, token.Rem:
		return 13
	case token.Plus, token.Minus:
		return 12
	case token.Shl, token.Shr:
		return 11
	case token.Lt, token.Gt, token.Lte, token.Gte:
		return 10
	case token.EqEq, token.Neq:
		return 9
	case token.And:
		return 8
	case token.Xor:
		return 7
	case token.Or:
		return 6
	default:
		return -1
	}
}

func (p *Parser) parseExpr() *ast.Node {
	return p.parseAssignmentExpr()
}

func (p *Parser) parseAssignmentExpr() *ast.Node {
	left := p.parseBinaryExpr(0)
	if p.check(token.Eq) {
		tok := p.current
		if left.Type != ast.Ident {
			util.Error(tok, "Invalid target for assignment.")
		}
		p.advance()
		right := p.parseAssignmentExpr()
		return ast.NewAssign(tok, left, right)
	}
	return left
}

func (p *Parser) parseBinaryExpr(minPrec int) *ast.Node {
	left := p.parseUnaryExpr()
	for {
		op := p.current.Type
		prec := getBinaryOpPrecedence(op)
		if prec < 0 || prec < minPrec {
			break
		}
		opTok := p.current
		p.advance()
		right := p.parseBinaryExpr(prec + 1)
		left = ast.NewBinaryOp(opTok, op, left, right)
	}
	return left
}

func (p *Parser) parseUnaryExpr() *ast.Node {
	tok := p.current
	if p.match(token.Plus) {
		return p.parseUnaryExpr()
	}
	if p.match(token.Not) || p.match(token.Complement) || p.match(token.Minus) {
		op := p.previous.Type
		operand := p.parseUnaryExpr()
		return ast.NewUnaryOp(tok, op, operand)
	}
	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() *ast.Node {
	tok := p.current
	if p.match(token.Number) {
		val, _ := strconv.ParseUint(p.previous.Value, 10, 64)
		return ast.NewNumber(tok, int64(val))
	}
	if p.match(token.Ident) {
		if p.match(token.LParen) {
			var args []*ast.Node
			if !p.check(token.RParen) {
				for {
					args = append(args, p.parseAssignmentExpr())
					if !p.match(token.Comma) {
						break
					}
				}
			}
			p.expect(token.RParen, "Expected ')' after function arguments.")
			if len(args) > ir.MaxArgs {
				util.Error(tok, "Call to '%s' passes %d arguments; at most %d are supported.", tok.Value, len(args), ir.MaxArgs)
			}
			return ast.NewFuncCall(tok, tok.Value, args)
		}
		return ast.NewIdent(tok, tok.Value)
	}
	if p.match(token.LParen) {
		expr := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after expression.")
		return expr
	}
	util.Error(tok, "Expected an expression.")
	return nil
}
