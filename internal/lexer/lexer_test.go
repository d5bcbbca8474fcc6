package lexer

import (
	"testing"

	"github.com/halcyon-tools/pyas3c/internal/token"
)

func collect(src string) []token.Token {
	l := New(src)
	var out []token.Token
	for {
		t := l.NextToken()
		out = append(out, t)
		if t.Type == token.EOF {
			return out
		}
	}
}

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestIndentDedent(t *testing.T) {
	src := "def f():\n    if x:\n        pass\n    return 1\n"
	toks := types(collect(src))

	want := []token.Type{
		token.DEF, token.IDENT, token.LPAREN, token.RPAREN, token.COLON, token.NEWLINE,
		token.INDENT,
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT,
		token.PASS, token.NEWLINE,
		token.DEDENT,
		token.RETURN, token.INT, token.NEWLINE,
		token.DEDENT,
		token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d\ngot:  %v\nwant: %v", len(toks), len(want), toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, toks[i], want[i])
		}
	}
}

func TestBracketSuppressesNewline(t *testing.T) {
	src := "x = (1 +\n     2)\n"
	toks := types(collect(src))
	want := []token.Type{
		token.IDENT, token.ASSIGN, token.LPAREN, token.INT, token.PLUS, token.INT, token.RPAREN, token.NEWLINE, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d\ngot:  %v", len(toks), len(want), toks)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, toks[i], want[i])
		}
	}
}

func TestBlankAndCommentLinesIgnored(t *testing.T) {
	src := "x = 1\n\n# a comment\n\ny = 2\n"
	toks := collect(src)
	var idents []string
	for _, tk := range toks {
		if tk.Type == token.IDENT {
			idents = append(idents, tk.Literal)
		}
	}
	if len(idents) != 2 || idents[0] != "x" || idents[1] != "y" {
		t.Errorf("idents = %v, want [x y]", idents)
	}
}

func TestStringEscapes(t *testing.T) {
	toks := collect(`s = "a\nb"` + "\n")
	for _, tk := range toks {
		if tk.Type == token.STRING {
			if tk.Literal != "a\nb" {
				t.Errorf("string literal = %q, want %q", tk.Literal, "a\nb")
			}
			return
		}
	}
	t.Fatal("no STRING token found")
}

func TestOperators(t *testing.T) {
	toks := types(collect("a += 1\nb //= 2\n"))
	want := []token.Type{
		token.IDENT, token.PLUS_EQ, token.INT, token.NEWLINE,
		token.IDENT, token.SLASH2, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	}
	// `//=` is lexed as SLASH2 then ASSIGN since floor-div-assign has no
	// dedicated token type; the parser treats this as augmented-assign
	// sugar it doesn't support and reports a clear syntax error instead.
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d\ngot:  %v", len(toks), len(want), toks)
	}
}
