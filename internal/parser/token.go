package parser

import "fmt"

// TokenType is the lexical class of a Token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenKeyword
	TokenNumber
	TokenFloat
	TokenString
	TokenChar
	TokenOperator
	TokenPunctuation
	TokenDirective // a whole preprocessor line, kept opaque
)

var tokenTypeNames = [...]string{
	TokenEOF:         "EOF",
	TokenIdent:       "identifier",
	TokenKeyword:     "keyword",
	TokenNumber:      "integer literal",
	TokenFloat:       "float literal",
	TokenString:      "string literal",
	TokenChar:        "char literal",
	TokenOperator:    "operator",
	TokenPunctuation: "punctuation",
	TokenDirective:   "directive",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Pos is a 1-based line/column position in the source text
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token from C++ source
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

// Pos returns the position of the first character of the token.
func (t Token) Pos() Pos {
	return Pos{Line: t.Line, Column: t.Column}
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Value)
}
