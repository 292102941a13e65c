package model

import (
	"strings"

	"riggen/internal/parser"
)

type symbolKind int

const (
	symClass symbolKind = iota
	symEnum
	symAlias
)

func (k symbolKind) String() string {
	switch k {
	case symEnum:
		return "enum"
	case symAlias:
		return "alias"
	}
	return "class"
}

// symbol is one named type of a translation unit.
type symbol struct {
	kind  symbolKind
	class *Class
	enum  *Enum
	alias *Alias

	classDecl *parser.ClassDecl
	enumDecl  *parser.EnumDecl
	aliasDecl *parser.AliasDecl

	// resolved alias target, nil until first use
	target *TypeRef
}

// registry holds every type declared in a translation unit by qualified
// name. Forward declarations and definitions of the same name share one
// symbol so references taken before the definition stay valid.
type registry struct {
	symbols map[string]*symbol
}

func newRegistry() *registry {
	return &registry{symbols: make(map[string]*symbol)}
}

// declareClass records a forward declaration or definition of a class.
func (r *registry) declareClass(name, scope string, pos parser.Pos, def *parser.ClassDecl) (*Class, error) {
	qn := qualify(scope, name)
	sym, ok := r.symbols[qn]
	if !ok {
		cls := &Class{name: name, scope: scope, pos: pos}
		sym = &symbol{kind: symClass, class: cls}
		r.symbols[qn] = sym
	} else if sym.kind != symClass {
		return nil, semanticErrorf(pos, qn, "redeclared as class, previously declared as %s at %s", sym.kind, sym.pos())
	}
	if def == nil {
		return sym.class, nil
	}
	if sym.classDecl != nil {
		return nil, semanticErrorf(pos, qn, "redefinition of class, previous definition at %s", sym.classDecl.Pos)
	}
	sym.classDecl = def
	sym.class.defined = true
	sym.class.pos = pos
	sym.class.isStruct = def.IsStruct
	sym.class.isFinal = def.IsFinal
	return sym.class, nil
}

// declareEnum records an opaque declaration or definition of an enum.
func (r *registry) declareEnum(name, scope string, pos parser.Pos, def *parser.EnumDecl) (*Enum, error) {
	qn := qualify(scope, name)
	sym, ok := r.symbols[qn]
	if !ok {
		sym = &symbol{kind: symEnum, enum: &Enum{name: name, scope: scope, pos: pos}}
		r.symbols[qn] = sym
	} else if sym.kind != symEnum {
		return nil, semanticErrorf(pos, qn, "redeclared as enum, previously declared as %s at %s", sym.kind, sym.pos())
	}
	if def == nil {
		return sym.enum, nil
	}
	if sym.enumDecl != nil {
		return nil, semanticErrorf(pos, qn, "redefinition of enum, previous definition at %s", sym.enumDecl.Pos)
	}
	sym.enumDecl = def
	sym.enum.defined = true
	sym.enum.pos = pos
	sym.enum.scoped = def.Scoped
	return sym.enum, nil
}

// declareAlias records a typedef or using declaration. Repeating an alias
// with the same spelling is allowed and returns nil.
func (r *registry) declareAlias(d *parser.AliasDecl) (*Alias, error) {
	qn := parser.QualifiedName(d)
	if sym, ok := r.symbols[qn]; ok {
		if sym.kind == symAlias && sym.aliasDecl.Target.String() == d.Target.String() {
			return nil, nil
		}
		return nil, semanticErrorf(d.Pos, qn, "conflicting declaration, previously declared as %s at %s", sym.kind, sym.pos())
	}
	a := &Alias{name: d.Name, scope: d.Scope, isUsing: d.IsUsing, pos: d.Pos}
	r.symbols[qn] = &symbol{kind: symAlias, alias: a, aliasDecl: d}
	return a, nil
}

func (s *symbol) pos() parser.Pos {
	switch s.kind {
	case symEnum:
		return s.enum.pos
	case symAlias:
		return s.alias.pos
	}
	return s.class.pos
}

// lookup finds name as seen from scope, searching the scope and then each
// enclosing scope outward. A leading "::" restricts the search to the
// global scope. It returns the symbol and its qualified name.
func (r *registry) lookup(name, scope string) (*symbol, string) {
	if rest, ok := strings.CutPrefix(name, "::"); ok {
		return r.symbols[rest], rest
	}
	for {
		qn := qualify(scope, name)
		if sym, ok := r.symbols[qn]; ok {
			return sym, qn
		}
		if scope == "" {
			return nil, ""
		}
		scope = parentScope(scope)
	}
}

func parentScope(scope string) string {
	if i := strings.LastIndex(scope, "::"); i >= 0 {
		return scope[:i]
	}
	return ""
}
