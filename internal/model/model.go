// Package model turns parsed declarations into a resolved, read-only type
// model: every type reference is linked to a primitive, a class, an enum, a
// standard library template or a function type.
package model

import (
	"fmt"
	"iter"
	"slices"

	"riggen/internal/parser"
)

// Model is the resolved form of one translation unit. It is immutable once
// returned from Resolve and safe for concurrent reads.
type Model struct {
	file      string
	classes   []*Class
	enums     []*Enum
	aliases   []*Alias
	functions []*Function
	reg       *registry
}

// Load parses and resolves C++ source text.
func Load(src string) (*Model, error) {
	tu, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return Resolve(tu)
}

// LoadFile parses and resolves a header file.
func LoadFile(path string) (*Model, error) {
	tu, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Resolve(tu)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tu.File, err)
	}
	return m, nil
}

// File is the path the model was loaded from, empty for Load.
func (m *Model) File() string { return m.file }

// Classes yields the defined classes in declaration order. Nested classes
// follow their enclosing class.
func (m *Model) Classes() iter.Seq[*Class] { return slices.Values(m.classes) }

func (m *Model) Enums() iter.Seq[*Enum] { return slices.Values(m.enums) }

func (m *Model) Aliases() iter.Seq[*Alias] { return slices.Values(m.aliases) }

func (m *Model) Functions() iter.Seq[*Function] { return slices.Values(m.functions) }

// ForEachClass calls fn for each class until fn returns false.
func (m *Model) ForEachClass(fn func(*Class) bool) { m.Classes()(fn) }

func (m *Model) ForEachEnum(fn func(*Enum) bool) { m.Enums()(fn) }

func (m *Model) ForEachAlias(fn func(*Alias) bool) { m.Aliases()(fn) }

func (m *Model) ForEachFunction(fn func(*Function) bool) { m.Functions()(fn) }

func (m *Model) NumClasses() int   { return len(m.classes) }
func (m *Model) NumEnums() int     { return len(m.enums) }
func (m *Model) NumAliases() int   { return len(m.aliases) }
func (m *Model) NumFunctions() int { return len(m.functions) }

// Class returns the class with the given qualified name, including classes
// that were only forward declared.
func (m *Model) Class(qualifiedName string) *Class {
	if sym := m.reg.symbols[qualifiedName]; sym != nil && sym.kind == symClass {
		return sym.class
	}
	return nil
}

func (m *Model) Enum(qualifiedName string) *Enum {
	if sym := m.reg.symbols[qualifiedName]; sym != nil && sym.kind == symEnum {
		return sym.enum
	}
	return nil
}

func (m *Model) Alias(qualifiedName string) *Alias {
	if sym := m.reg.symbols[qualifiedName]; sym != nil && sym.kind == symAlias {
		return sym.alias
	}
	return nil
}

// Lookup returns the type named by a qualified class, enum or alias name.
// For an alias the result is its resolved target.
func (m *Model) Lookup(qualifiedName string) (TypeRef, bool) {
	sym := m.reg.symbols[qualifiedName]
	if sym == nil {
		return TypeRef{}, false
	}
	switch sym.kind {
	case symClass:
		return classRef(sym.class), true
	case symEnum:
		return enumRef(sym.enum), true
	}
	return sym.alias.target, true
}
