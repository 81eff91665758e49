package token

type Type int

const (
	EOF Type = iota
	Ident
	Number
	Char
	Short
	Int
	Long
	Void
	If
	Else
	While
	Return
	LParen
	RParen
	LBrace
	RBrace
	Semi
	Comma
	Eq
	Plus
	Minus
	Star
	Slash
	Rem
	And
	Or
	Xor
	Shl
	Shr
	EqEq
	Neq
	Lt
	Gt
	Lte
	Gte
	Not
	Complement
)

var KeywordMap = map[string]Type{
	"char":   Char,
	"short":  Short,
	"int":    Int,
	"long":   Long,
	"void":   Void,
	"if":     If,
	"else":   Else,
	"while":  While,
	"return": Return,
}

var names = map[Type]string{
	EOF: "end of file", Ident: "identifier", Number: "number",
	LParen: "'('", RParen: "')'", LBrace: "'{'", RBrace: "'}'", Semi: "';'", Comma: "','",
	Eq: "'='", Plus: "'+'", Minus: "'-'", Star: "'*'", Slash: "'/'", Rem: "'%'",
	And: "'&'", Or: "'|'", Xor: "'^'", Shl: "'<<'", Shr: "'>>'",
	EqEq: "'=='", Neq: "'!='", Lt: "'<'", Gt: "'>'", Lte: "'<='", Gte: "'>='",
	Not: "'!'", Complement: "'~'",
}

func init() {
	for str, typ := range KeywordMap {
		names[typ] = "'" + str + "'"
	}
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "unknown token"
}

// IsTypeKeyword reports whether t starts a type specifier.
func (t Type) IsTypeKeyword() bool {
	return t >= Char && t <= Void
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
