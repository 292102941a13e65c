package parser

import "fmt"

// LexError reports malformed input the lexer could not turn into a token.
type LexError struct {
	Pos Pos
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: lex error: %s", e.Pos, e.Msg)
}

// SyntaxError reports a structural violation: an unexpected token, an
// unmatched delimiter or a construct outside the supported grammar.
type SyntaxError struct {
	Pos   Pos
	Token string
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: syntax error at %s: %s", e.Pos, e.Token, e.Msg)
}

// SemanticError reports well-formed input that contradicts itself, such as a
// method that is both static and virtual.
type SemanticError struct {
	Pos  Pos
	Name string
	Msg  string
}

func (e *SemanticError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Name, e.Msg)
}

func syntaxErrorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Pos: tok.Pos(), Token: tok.String(), Msg: fmt.Sprintf(format, args...)}
}

func semanticErrorf(pos Pos, name, format string, args ...any) error {
	return &SemanticError{Pos: pos, Name: name, Msg: fmt.Sprintf(format, args...)}
}
