package model

import (
	"fmt"
	"strings"

	"riggen/internal/parser"
)

// UnresolvedTypeError reports a type name that is neither a primitive, a
// supported standard library type nor declared in the translation unit.
type UnresolvedTypeError struct {
	Name string
	Pos  parser.Pos
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("%s: unresolved type %q", e.Pos, e.Name)
}

// AliasCycleError reports aliases that refer back to themselves. Chain lists
// the aliases in lookup order and ends with the name that closed the cycle.
type AliasCycleError struct {
	Chain []string
	Pos   parser.Pos
}

func (e *AliasCycleError) Error() string {
	return fmt.Sprintf("%s: alias cycle: %s", e.Pos, strings.Join(e.Chain, " -> "))
}

func semanticErrorf(pos parser.Pos, name, format string, args ...any) error {
	return &parser.SemanticError{Pos: pos, Name: name, Msg: fmt.Sprintf(format, args...)}
}
