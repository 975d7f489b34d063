package lexer

import (
	"testing"

	"github.com/pepl-lang/pepl/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexSimpleAction(t *testing.T) {
	src := "action increment() {\n  set count = count + 1\n}\n"
	res := Lex("t.pepl", src)
	if res.Errors.HasErrors() {
		t.Fatalf("unexpected errors: %+v", res.Errors.Errors)
	}
	got := kinds(res.Tokens)
	want := []token.Kind{
		token.ACTION, token.IDENT, token.LPAREN, token.RPAREN, token.LBRACE, token.NEWLINE,
		token.SET, token.IDENT, token.ASSIGN, token.IDENT, token.PLUS, token.INT, token.NEWLINE,
		token.RBRACE, token.NEWLINE, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexStringInterpolation(t *testing.T) {
	src := `"count is ${count}!"` + "\n"
	res := Lex("t.pepl", src)
	if res.Errors.HasErrors() {
		t.Fatalf("unexpected errors: %+v", res.Errors.Errors)
	}
	got := kinds(res.Tokens)
	want := []token.Kind{
		token.STRING, token.INTERP_START, token.IDENT, token.INTERP_END, token.STRING, token.NEWLINE, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if res.Tokens[0].Literal != "count is " {
		t.Errorf("prefix literal = %q", res.Tokens[0].Literal)
	}
	if res.Tokens[4].Literal != "!" {
		t.Errorf("suffix literal = %q", res.Tokens[4].Literal)
	}
}

func TestLexBlockCommentRejected(t *testing.T) {
	src := "/* nope */ action foo() {}\n"
	res := Lex("t.pepl", src)
	if len(res.Errors.Errors) != 1 || res.Errors.Errors[0].Code != "E603" {
		t.Fatalf("expected single E603, got %+v", res.Errors.Errors)
	}
}

func TestLexUnknownByte(t *testing.T) {
	src := "let x = 1 ~ 2\n"
	res := Lex("t.pepl", src)
	if len(res.Errors.Errors) != 1 || res.Errors.Errors[0].Code != "E100" {
		t.Fatalf("expected single E100, got %+v", res.Errors.Errors)
	}
}

func TestLexEscapes(t *testing.T) {
	src := `"a\"b\\c\nd\te\$"` + "\n"
	res := Lex("t.pepl", src)
	if res.Errors.HasErrors() {
		t.Fatalf("unexpected errors: %+v", res.Errors.Errors)
	}
	want := "a\"b\\c\nd\te$"
	if res.Tokens[0].Literal != want {
		t.Errorf("got %q, want %q", res.Tokens[0].Literal, want)
	}
}

func TestLexDeterminism(t *testing.T) {
	src := "state { count: number = 0 }\naction increment() { set count = count + 1 }\n"
	first := Lex("t.pepl", src)
	for i := 0; i < 100; i++ {
		r := Lex("t.pepl", src)
		if len(r.Tokens) != len(first.Tokens) {
			t.Fatalf("iteration %d: token count drifted", i)
		}
		for j := range r.Tokens {
			if r.Tokens[j] != first.Tokens[j] {
				t.Fatalf("iteration %d: token %d drifted: %+v vs %+v", i, j, r.Tokens[j], first.Tokens[j])
			}
		}
	}
}

func TestLexNoHexNoExponent(t *testing.T) {
	src := "1.5\n"
	res := Lex("t.pepl", src)
	if res.Tokens[0].Kind != token.FLOAT || res.Tokens[0].Literal != "1.5" {
		t.Fatalf("got %+v", res.Tokens[0])
	}
}

func TestLexKeywordsReserveModuleNames(t *testing.T) {
	res := Lex("t.pepl", "math\n")
	if res.Tokens[0].Kind == token.IDENT {
		t.Fatalf("expected math to lex as a reserved module name, got IDENT")
	}
}
