package model

import (
	"fmt"
	"slices"
	"strings"
)

// Kind tags the variant held by a TypeRef.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindClass
	KindEnum
	KindTemplate
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindClass:
		return "class"
	case KindEnum:
		return "enum"
	case KindTemplate:
		return "template"
	case KindFunction:
		return "function"
	}
	return "invalid"
}

// RefKind distinguishes lvalue and rvalue references.
type RefKind uint8

const (
	NoRef RefKind = iota
	LValueRef
	RValueRef
)

// Qualifiers are the decorations applied on top of a base type.
type Qualifiers struct {
	Const    bool
	Volatile bool
	Pointers int
	Ref      RefKind
}

// TemplateArg is one argument of a structural template: a type, or an
// integral constant as in std::array<int, 4>.
type TemplateArg struct {
	Type    TypeRef
	Value   int64
	IsValue bool
}

func (a TemplateArg) String() string {
	if a.IsValue {
		return fmt.Sprint(a.Value)
	}
	return a.Type.String()
}

// TypeRef is the canonical, resolved form of a C++ type. It is a value; the
// classes and enums it refers to are shared back-references owned by the
// Model. Aliases never appear as a kind: Alias reports the typedef or using
// name through which the type was reached, if any.
type TypeRef struct {
	kind     Kind
	name     string
	scope    string
	alias    string
	prim     Primitive
	class    *Class
	enum     *Enum
	args     []TemplateArg
	result   *TypeRef
	params   []TypeRef
	variadic bool
	quals    Qualifiers
	extents  []int64
}

func (t TypeRef) Kind() Kind { return t.kind }

// Name is the unqualified canonical name: "int", "VariousTypes", "variant".
func (t TypeRef) Name() string { return t.name }

// Scope is the enclosing namespace or class of a named type, "std" for
// standard library types.
func (t TypeRef) Scope() string { return t.scope }

func (t TypeRef) QualifiedName() string {
	if t.scope == "" {
		return t.name
	}
	return t.scope + "::" + t.name
}

// Alias returns the alias name used at the point of reference, or "".
func (t TypeRef) Alias() string { return t.alias }

func (t TypeRef) Primitive() (Primitive, bool) {
	return t.prim, t.kind == KindPrimitive
}

// Class returns the referenced class. It is nil for standard library records
// such as std::string.
func (t TypeRef) Class() *Class { return t.class }

// IsExternal reports a class type with no declaration in the model.
func (t TypeRef) IsExternal() bool { return t.kind == KindClass && t.class == nil }

func (t TypeRef) Enum() *Enum { return t.enum }

// Args returns the template arguments of a KindTemplate type.
func (t TypeRef) Args() []TemplateArg { return slices.Clone(t.args) }

// Result returns the result type of a KindFunction type.
func (t TypeRef) Result() TypeRef {
	if t.result == nil {
		return TypeRef{}
	}
	return *t.result
}

// Params returns the parameter types of a KindFunction type.
func (t TypeRef) Params() []TypeRef { return slices.Clone(t.params) }

func (t TypeRef) Variadic() bool { return t.variadic }

func (t TypeRef) Qualifiers() Qualifiers { return t.quals }

// Extents returns array extents, outermost first.
func (t TypeRef) Extents() []int64 { return slices.Clone(t.extents) }

// Unqualified returns t without qualifiers, extents or alias name.
func (t TypeRef) Unqualified() TypeRef {
	t.quals = Qualifiers{}
	t.extents = nil
	t.alias = ""
	return t
}

func (t TypeRef) String() string {
	var sb strings.Builder
	if t.quals.Const {
		sb.WriteString("const ")
	}
	if t.quals.Volatile {
		sb.WriteString("volatile ")
	}
	switch t.kind {
	case KindFunction:
		sb.WriteString(t.Result().String())
		sb.WriteByte('(')
		for i, p := range t.params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		if t.variadic {
			if len(t.params) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
		}
		sb.WriteByte(')')
	case KindTemplate:
		sb.WriteString(t.QualifiedName())
		sb.WriteByte('<')
		for i, a := range t.args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	default:
		sb.WriteString(t.QualifiedName())
	}
	sb.WriteString(strings.Repeat("*", t.quals.Pointers))
	switch t.quals.Ref {
	case LValueRef:
		sb.WriteByte('&')
	case RValueRef:
		sb.WriteString("&&")
	}
	for _, n := range t.extents {
		fmt.Fprintf(&sb, "[%d]", n)
	}
	return sb.String()
}

// Identical reports whether a and b denote the same type. Alias names are
// ignored and classes and enums compare by qualified name, so types from
// two separately resolved models can be compared.
func Identical(a, b TypeRef) bool {
	if a.kind != b.kind || a.name != b.name || a.scope != b.scope ||
		a.quals != b.quals || a.variadic != b.variadic || a.prim != b.prim ||
		!slices.Equal(a.extents, b.extents) ||
		len(a.args) != len(b.args) || len(a.params) != len(b.params) {
		return false
	}
	for i := range a.args {
		x, y := a.args[i], b.args[i]
		if x.IsValue != y.IsValue || x.Value != y.Value {
			return false
		}
		if !x.IsValue && !Identical(x.Type, y.Type) {
			return false
		}
	}
	for i := range a.params {
		if !Identical(a.params[i], b.params[i]) {
			return false
		}
	}
	if (a.result == nil) != (b.result == nil) {
		return false
	}
	return a.result == nil || Identical(*a.result, *b.result)
}
