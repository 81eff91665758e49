package lexer

import (
	"strconv"
	"unicode"

	"github.com/xplshn/lcc/pkg/config"
	"github.com/xplshn/lcc/pkg/token"
	"github.com/xplshn/lcc/pkg/util"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
	cfg       *config.Config
}

func NewLexer(source []rune, fileIndex int, cfg *config.Config) *Lexer {
	return &Lexer{
		source: source, fileIndex: fileIndex, line: 1, column: 1, cfg: cfg,
	}
}

func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startPos, startCol, startLine)
	}

	ch := l.peek()
	if unicode.IsLetter(ch) || ch == '_' {
		l.advance()
		return l.identifierOrKeyword(startPos, startCol, startLine)
	}
	if unicode.IsDigit(ch) {
		return l.numberLiteral(startPos, startCol, startLine)
	}

	l.advance()
	switch ch {
	case '(':
		return l.makeToken(token.LParen, "", startPos, startCol, startLine)
	case ')':
		return l.makeToken(token.RParen, "", startPos, startCol, startLine)
	case '{':
		return l.makeToken(token.LBrace, "", startPos, startCol, startLine)
	case '}':
		return l.makeToken(token.RBrace, "", startPos, startCol, startLine)
	case ';':
		return l.makeToken(token.Semi, "", startPos, startCol, startLine)
	case ',':
		return l.makeToken(token.Comma, "", startPos, startCol, startLine)
	case '~':
		return l.makeToken(token.Complement, "", startPos, startCol, startLine)
	case '+':
		return l.makeToken(token.Plus, "", startPos, startCol, startLine)
	case '-':
		return l.makeToken(token.Minus, "", startPos, startCol, startLine)
	case '*':
		return l.makeToken(token.Star, "", startPos, startCol, startLine)
	case '/':
		return l.makeToken(token.Slash, "", startPos, startCol, startLine)
	case '%':
		return l.makeToken(token.Rem, "", startPos, startCol, startLine)
	case '&':
		return l.makeToken(token.And, "", startPos, startCol, startLine)
	case '|':
		return l.makeToken(token.Or, "", startPos, startCol, startLine)
	case '^':
		return l.makeToken(token.Xor, "", startPos, startCol, startLine)
	case '!':
		return l.matchThen('=', token.Neq, token.Not, startPos, startCol, startLine)
	case '=':
		return l.matchThen('=', token.EqEq, token.Eq, startPos, startCol, startLine)
	case '<':
		if l.match('<') {
			return l.makeToken(token.Shl, "", startPos, startCol, startLine)
		}
		return l.matchThen('=', token.Lte, token.Lt, startPos, startCol, startLine)
	case '>':
		if l.match('>') {
			return l.makeToken(token.Shr, "", startPos, startCol, startLine)
		}
		return l.matchThen('=', token.Gte, token.Gt, startPos, startCol, startLine)
	case '\'':
		return l.charLiteral(startPos, startCol, startLine)
	}

	tok := l.makeToken(token.EOF, "", startPos, startCol, startLine)
	util.Error(tok, "Unexpected character: '%c'", ch)
	return tok
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value, FileIndex: l.fileIndex,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.advance()
		case '/':
			switch {
			case l.peekNext() == '*':
				l.blockComment()
			case l.peekNext() == '/' && l.cfg.IsFeatureEnabled(config.FeatCComments):
				l.lineComment()
			default:
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) blockComment() {
	startTok := l.makeToken(token.EOF, "", l.pos, l.column, l.line)
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	util.Error(startTok, "Unterminated block comment")
}

func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])
	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		return l.makeToken(tokType, "", startPos, startCol, startLine)
	}
	return l.makeToken(token.Ident, value, startPos, startCol, startLine)
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// numberLiteral accepts decimal, 0x hex and 0-prefixed octal literals with
// optional u/l suffixes, which are ignored.
func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	if l.peek() == '0' && (l.peekNext() == 'x' || l.peekNext() == 'X') {
		l.advance()
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
	} else {
		for unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	digits := string(l.source[startPos:l.pos])
	for l.peek() == 'u' || l.peek() == 'U' || l.peek() == 'l' || l.peek() == 'L' {
		l.advance()
	}

	tok := l.makeToken(token.Number, "", startPos, startCol, startLine)
	val, err := strconv.ParseUint(digits, 0, 64)
	if err != nil {
		if e, ok := err.(*strconv.NumError); ok && e.Err == strconv.ErrRange {
			util.Warn(l.cfg, config.WarnOverflow, tok, "Integer constant overflow: %s", digits)
			tok.Value = strconv.FormatUint(^uint64(0), 10)
			return tok
		}
		util.Error(tok, "Invalid number literal: %s", digits)
		tok.Value = "0"
		return tok
	}
	tok.Value = strconv.FormatUint(val, 10)
	return tok
}

func (l *Lexer) charLiteral(startPos, startCol, startLine int) token.Token {
	var val int64
	if l.peek() == '\\' {
		l.advance()
		val = l.decodeEscape(startPos, startCol, startLine)
	} else {
		val = int64(l.advance())
	}
	tok := l.makeToken(token.Number, "", startPos, startCol, startLine)
	if !l.match('\'') {
		util.Error(tok, "Unterminated character literal")
	}
	tok.Value = strconv.FormatInt(val, 10)
	tok.Len = l.pos - startPos
	return tok
}

func (l *Lexer) decodeEscape(startPos, startCol, startLine int) int64 {
	if l.isAtEnd() {
		util.Error(l.makeToken(token.EOF, "", l.pos, l.column, l.line), "Unterminated escape sequence")
		return 0
	}
	c := l.advance()

	if c >= '0' && c <= '7' {
		val := int64(c - '0')
		for i := 0; i < 2 && l.peek() >= '0' && l.peek() <= '7'; i++ {
			val = val*8 + int64(l.advance()-'0')
		}
		return val
	}
	if c == 'x' {
		var val int64
		if !isHexDigit(l.peek()) {
			util.Error(l.makeToken(token.Number, "", startPos, startCol, startLine), "\\x used with no following hex digits")
		}
		for isHexDigit(l.peek()) {
			d, _ := strconv.ParseInt(string(l.advance()), 16, 64)
			val = val*16 + d
		}
		return val
	}

	escapes := map[rune]int64{
		'n': '\n', 't': '\t', 'b': '\b', 'r': '\r', 'a': '\a', 'f': '\f', 'v': '\v',
		'\\': '\\', '\'': '\'', '"': '"', '?': '?',
	}
	if val, ok := escapes[c]; ok {
		return val
	}
	util.Warn(l.cfg, config.WarnExtra, l.makeToken(token.Number, "", startPos, startCol, startLine), "Unrecognized escape sequence '\\%c'", c)
	return int64(c)
}

func (l *Lexer) matchThen(expected rune, thenType, elseType token.Type, sPos, sCol, sLine int) token.Token {
	if l.match(expected) {
		return l.makeToken(thenType, "", sPos, sCol, sLine)
	}
	return l.makeToken(elseType, "", sPos, sCol, sLine)
}

// Tokenize lexes the whole source, ending with an EOF token.
func Tokenize(source []rune, fileIndex int, cfg *config.Config) []token.Token {
	l := NewLexer(source, fileIndex, cfg)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}
