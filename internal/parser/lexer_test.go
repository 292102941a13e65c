package parser

import (
	"errors"
	"testing"
)

type tok struct {
	typ   TokenType
	value string
}

var lexTestCases = []struct {
	src      string
	expected []tok
}{
	{"class Foo;", []tok{{TokenKeyword, "class"}, {TokenIdent, "Foo"}, {TokenPunctuation, ";"}}},
	{"std::vector<int>", []tok{
		{TokenIdent, "std"}, {TokenOperator, "::"}, {TokenIdent, "vector"},
		{TokenOperator, "<"}, {TokenKeyword, "int"}, {TokenOperator, ">"},
	}},
	{"a<b<c>>", []tok{
		{TokenIdent, "a"}, {TokenOperator, "<"}, {TokenIdent, "b"}, {TokenOperator, "<"},
		{TokenIdent, "c"}, {TokenOperator, ">"}, {TokenOperator, ">"},
	}},
	{"x >= 1", []tok{{TokenIdent, "x"}, {TokenOperator, ">"}, {TokenOperator, "="}, {TokenNumber, "1"}}},
	{"1 << 2", []tok{{TokenNumber, "1"}, {TokenOperator, "<<"}, {TokenNumber, "2"}}},
	{"int&& r", []tok{{TokenKeyword, "int"}, {TokenOperator, "&&"}, {TokenIdent, "r"}}},
	{"auto f() -> int", []tok{
		{TokenKeyword, "auto"}, {TokenIdent, "f"}, {TokenPunctuation, "("}, {TokenPunctuation, ")"},
		{TokenOperator, "->"}, {TokenKeyword, "int"},
	}},
	{"void f(...)", []tok{
		{TokenKeyword, "void"}, {TokenIdent, "f"}, {TokenPunctuation, "("},
		{TokenPunctuation, "..."}, {TokenPunctuation, ")"},
	}},
	{"0x1F 0b10 1'000 10ull 017", []tok{
		{TokenNumber, "0x1F"}, {TokenNumber, "0b10"}, {TokenNumber, "1'000"},
		{TokenNumber, "10ull"}, {TokenNumber, "017"},
	}},
	{"1.5 .5f 1e10 1e-3 0x1p+4", []tok{
		{TokenFloat, "1.5"}, {TokenFloat, ".5f"}, {TokenFloat, "1e10"},
		{TokenFloat, "1e-3"}, {TokenFloat, "0x1p+4"},
	}},
	{`"a\"b" 'c' L'x' u8"s"`, []tok{
		{TokenString, `"a\"b"`}, {TokenChar, "'c'"}, {TokenChar, "L'x'"}, {TokenString, `u8"s"`},
	}},
	{`R"(a "quoted" (x))"`, []tok{{TokenString, `R"(a "quoted" (x))"`}}},
	{`R"x(a)" b)x"`, []tok{{TokenString, `R"x(a)" b)x"`}}},
	{"a // comment\nb /* block\n comment */ c", []tok{
		{TokenIdent, "a"}, {TokenIdent, "b"}, {TokenIdent, "c"},
	}},
	{"#include <vector>\nint x;", []tok{
		{TokenDirective, "#include <vector>"}, {TokenKeyword, "int"}, {TokenIdent, "x"}, {TokenPunctuation, ";"},
	}},
	{"#define A \\\n  1\nA", []tok{{TokenDirective, "#define A    1"}, {TokenIdent, "A"}}},
	{"  #pragma once // why\n", []tok{{TokenDirective, "#pragma once"}}},
	{"#include \"a/*b.h\"\nint", []tok{{TokenDirective, "#include \"a/*b.h\""}, {TokenKeyword, "int"}}},
	{"#include <x//y.h> // note\nint", []tok{{TokenDirective, "#include <x//y.h>"}, {TokenKeyword, "int"}}},
	{"#define S \"//\" /* c */\nint", []tok{{TokenDirective, "#define S \"//\""}, {TokenKeyword, "int"}}},
	{"#if A<B // x\nint", []tok{{TokenDirective, "#if A<B"}, {TokenKeyword, "int"}}},
	{"final override", []tok{{TokenIdent, "final"}, {TokenIdent, "override"}}},
}

func TestTokenize(t *testing.T) {
	for _, tc := range lexTestCases {
		tokens, err := Tokenize(tc.src)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.src, err)
			continue
		}
		if last := tokens[len(tokens)-1]; last.Type != TokenEOF {
			t.Errorf("%q: missing EOF token, last is %v", tc.src, last)
			continue
		}
		tokens = tokens[:len(tokens)-1]
		if len(tokens) != len(tc.expected) {
			t.Errorf("%q: got %d tokens %v, expected %d", tc.src, len(tokens), tokens, len(tc.expected))
			continue
		}
		for i, want := range tc.expected {
			if tokens[i].Type != want.typ || tokens[i].Value != want.value {
				t.Errorf("%q: token %d is %v %q, expected %v %q",
					tc.src, i, tokens[i].Type, tokens[i].Value, want.typ, want.value)
			}
		}
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("class A {\n  int x;\n};")
	if err != nil {
		t.Fatal(err)
	}
	expected := []Pos{{1, 1}, {1, 7}, {1, 9}, {2, 3}, {2, 7}, {2, 8}, {3, 1}, {3, 2}, {3, 3}}
	if len(tokens) != len(expected) {
		t.Fatalf("got %d tokens, expected %d", len(tokens), len(expected))
	}
	for i, want := range expected {
		if got := tokens[i].Pos(); got != want {
			t.Errorf("token %d %q at %v, expected %v", i, tokens[i].Value, got, want)
		}
	}
}

var lexErrorTestCases = []struct {
	src string
	pos Pos
}{
	{"int x = @;", Pos{1, 9}},
	{"/* never closed", Pos{1, 1}},
	{"\"open string", Pos{1, 1}},
	{"a\n  'x", Pos{2, 3}},
	{"''", Pos{1, 1}},
	{"0x", Pos{1, 1}},
	{"12abc", Pos{1, 1}},
	{"08", Pos{1, 1}},
	{"0b102", Pos{1, 1}},
	{`R"abc`, Pos{1, 1}},
	{"$", Pos{1, 1}},
}

func TestTokenizeErrors(t *testing.T) {
	for _, tc := range lexErrorTestCases {
		_, err := Tokenize(tc.src)
		var lexErr *LexError
		if !errors.As(err, &lexErr) {
			t.Errorf("%q: expected *LexError, got %v", tc.src, err)
			continue
		}
		if lexErr.Pos != tc.pos {
			t.Errorf("%q: error at %v, expected %v (%v)", tc.src, lexErr.Pos, tc.pos, err)
		}
	}
}
