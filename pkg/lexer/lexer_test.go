package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/lcc/pkg/config"
	"github.com/xplshn/lcc/pkg/token"
)

type lexed struct {
	Type  token.Type
	Value string
}

func lex(src string, cfg *config.Config) []lexed {
	var out []lexed
	for _, tok := range Tokenize([]rune(src), 0, cfg) {
		out = append(out, lexed{tok.Type, tok.Value})
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []lexed
	}{
		{
			name: "declaration",
			src:  "long x = 0x1F;",
			want: []lexed{{token.Long, ""}, {token.Ident, "x"}, {token.Eq, ""}, {token.Number, "31"}, {token.Semi, ""}, {token.EOF, ""}},
		},
		{
			name: "operators",
			src:  "a<<b>>c<=d>=e==f!=g<h>i",
			want: []lexed{
				{token.Ident, "a"}, {token.Shl, ""}, {token.Ident, "b"}, {token.Shr, ""}, {token.Ident, "c"},
				{token.Lte, ""}, {token.Ident, "d"}, {token.Gte, ""}, {token.Ident, "e"}, {token.EqEq, ""},
				{token.Ident, "f"}, {token.Neq, ""}, {token.Ident, "g"}, {token.Lt, ""}, {token.Ident, "h"},
				{token.Gt, ""}, {token.Ident, "i"}, {token.EOF, ""},
			},
		},
		{
			name: "octal and suffixes",
			src:  "010 7L 3u",
			want: []lexed{{token.Number, "8"}, {token.Number, "7"}, {token.Number, "3"}, {token.EOF, ""}},
		},
		{
			name: "character literals",
			src:  `'A' '\n' '\0' '\x41'`,
			want: []lexed{{token.Number, "65"}, {token.Number, "10"}, {token.Number, "0"}, {token.Number, "65"}, {token.EOF, ""}},
		},
		{
			name: "comments",
			src:  "/* block\n comment */ if // line\n while",
			want: []lexed{{token.If, ""}, {token.While, ""}, {token.EOF, ""}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, lex(tt.src, config.NewConfig())); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLineCommentsRequireFeature(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatCComments, false)
	got := lex("a // b", cfg)
	want := []lexed{{token.Ident, "a"}, {token.Slash, ""}, {token.Slash, ""}, {token.Ident, "b"}, {token.EOF, ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenPositions(t *testing.T) {
	toks := Tokenize([]rune("int\n  main"), 0, config.NewConfig())
	if toks[1].Line != 2 || toks[1].Column != 3 || toks[1].Len != 4 {
		t.Errorf("main at %d:%d len %d, want 2:3 len 4", toks[1].Line, toks[1].Column, toks[1].Len)
	}
}
