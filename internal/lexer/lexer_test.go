package lexer

import (
	"testing"

	"github.com/dictu-lang/dictu-go/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `def add(a, b) {
  return a + b;
}`

	expected := []token.Token{
		{Type: token.Def, Literal: "def"},
		{Type: token.Identifier, Literal: "add"},
		{Type: token.LeftParen, Literal: "("},
		{Type: token.Identifier, Literal: "a"},
		{Type: token.Comma, Literal: ","},
		{Type: token.Identifier, Literal: "b"},
		{Type: token.RightParen, Literal: ")"},
		{Type: token.LeftBrace, Literal: "{"},
		{Type: token.Return, Literal: "return"},
		{Type: token.Identifier, Literal: "a"},
		{Type: token.Plus, Literal: "+"},
		{Type: token.Identifier, Literal: "b"},
		{Type: token.Semicolon, Literal: ";"},
		{Type: token.RightBrace, Literal: "}"},
		{Type: token.EOF},
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.Type || tok.Literal != want.Literal {
			t.Fatalf("token %d: expected %v %q, got %v %q", i, want.Type, want.Literal, tok.Type, tok.Literal)
		}
	}
}

func TestLexerCompoundOperators(t *testing.T) {
	input := `a += 1; b -= 2; c **= 3; d ++; e --;`

	expected := []token.Type{
		token.Identifier, token.PlusEqual, token.Number, token.Semicolon,
		token.Identifier, token.MinusEqual, token.Number, token.Semicolon,
		token.Identifier, token.StarStar, token.Equal, token.Number, token.Semicolon,
		token.Identifier, token.PlusPlus, token.Semicolon,
		token.Identifier, token.MinusMinus, token.Semicolon,
		token.EOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %v, got %v (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tok := New(`"line1\nline2\t\'end\'"`).NextToken()
	if tok.Type != token.String {
		t.Fatalf("expected a string token, got %v", tok.Type)
	}
	want := "line1\nline2\t'end'"
	if tok.Literal != want {
		t.Fatalf("expected %q, got %q", want, tok.Literal)
	}
}

func TestLexerUnknownEscapePassedThroughLiterally(t *testing.T) {
	tok := New(`"a\qb"`).NextToken()
	if tok.Type != token.String {
		t.Fatalf("expected a string token, got %v", tok.Type)
	}
	if tok.Literal != `a\qb` {
		t.Fatalf("expected unknown escape to pass through literally, got %q", tok.Literal)
	}
}

func TestLexerUnterminatedStringIsIllegal(t *testing.T) {
	tok := New(`"never closed`).NextToken()
	if tok.Type != token.Illegal {
		t.Fatalf("expected token.Illegal for an unterminated string, got %v", tok.Type)
	}
}

func TestLexerKeywords(t *testing.T) {
	input := "class trait use static this super if else var true false nil for while break continue with import and or"
	expected := []token.Type{
		token.Class, token.Trait, token.Use, token.Static, token.This, token.Super,
		token.If, token.Else, token.Var, token.True, token.False, token.Nil,
		token.For, token.While, token.Break, token.Continue, token.With, token.Import,
		token.And, token.Or, token.EOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %v, got %v (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestLexerNumberLiterals(t *testing.T) {
	input := "42 3.14 0"
	expected := []string{"42", "3.14", "0"}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != token.Number || tok.Literal != want {
			t.Fatalf("token %d: expected number %q, got %v %q", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestLexerLineCommentsAreSkipped(t *testing.T) {
	input := `var a = 1; // trailing comment
var b = 2;`

	expected := []token.Type{
		token.Var, token.Identifier, token.Equal, token.Number, token.Semicolon,
		token.Var, token.Identifier, token.Equal, token.Number, token.Semicolon,
		token.EOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %v, got %v (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestLexerSaveRestoreBacktracksCleanly(t *testing.T) {
	l := New(`{ "a": 1 }`)

	first := l.NextToken()
	if first.Type != token.LeftBrace {
		t.Fatalf("expected LeftBrace, got %v", first.Type)
	}

	saved := l.Save()
	peeked := l.NextToken()
	if peeked.Type != token.String {
		t.Fatalf("expected String while peeking ahead, got %v", peeked.Type)
	}

	l.Restore(saved)
	replayed := l.NextToken()
	if replayed.Type != token.String || replayed.Literal != peeked.Literal {
		t.Fatalf("expected Restore to replay the same token, got %v %q", replayed.Type, replayed.Literal)
	}
}
