package model

import (
	"slices"
	"strings"

	"riggen/internal/parser"
)

// Access is a C++ access specifier
type Access int

const (
	Public Access = iota
	Protected
	Private
)

func (a Access) String() string {
	switch a {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "::" + name
}

// Member is a data member of a class
type Member struct {
	Name   string
	Type   TypeRef
	Access Access
	Static bool
	Pos    parser.Pos
}

// Param is a function or method parameter; Name may be empty.
type Param struct {
	Name string
	Type TypeRef
}

// Method is a member function, constructor or destructor. Result is the zero
// TypeRef for constructors and destructors.
type Method struct {
	Name        string
	Params      []Param
	Variadic    bool
	Result      TypeRef
	Access      Access
	Const       bool
	Virtual     bool
	PureVirtual bool
	Static      bool
	HasBody     bool
	Pos         parser.Pos
}

func (m Method) clone() Method {
	m.Params = slices.Clone(m.Params)
	return m
}

// Signature renders the method the way it would be declared.
func (m Method) Signature() string {
	var sb strings.Builder
	if m.Static {
		sb.WriteString("static ")
	}
	if m.Virtual {
		sb.WriteString("virtual ")
	}
	if m.Result.Kind() != KindInvalid {
		sb.WriteString(m.Result.String())
		sb.WriteByte(' ')
	}
	sb.WriteString(m.Name)
	writeParams(&sb, m.Params, m.Variadic)
	if m.Const {
		sb.WriteString(" const")
	}
	if m.PureVirtual {
		sb.WriteString(" = 0")
	}
	return sb.String()
}

func writeParams(sb *strings.Builder, params []Param, variadic bool) {
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Type.String())
		if p.Name != "" {
			sb.WriteByte(' ')
			sb.WriteString(p.Name)
		}
	}
	if variadic {
		if len(params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteByte(')')
}

// Base is the single direct base of a class.
type Base struct {
	Type    TypeRef
	Access  Access
	Virtual bool
}

// Class is a resolved class or struct. A Class reached only through a
// forward declaration reports IsDefined false and has no members.
type Class struct {
	name     string
	scope    string
	isStruct bool
	isFinal  bool
	defined  bool
	base     *Base
	members  []Member
	methods  []Method
	ctors    []Method
	dtor     *Method
	pos      parser.Pos
	order    int
}

func (c *Class) Name() string          { return c.name }
func (c *Class) Scope() string         { return c.scope }
func (c *Class) QualifiedName() string { return qualify(c.scope, c.name) }
func (c *Class) IsStruct() bool        { return c.isStruct }
func (c *Class) IsFinal() bool         { return c.isFinal }
func (c *Class) IsDefined() bool       { return c.defined }
func (c *Class) Pos() parser.Pos       { return c.pos }

func (c *Class) Base() (Base, bool) {
	if c.base == nil {
		return Base{}, false
	}
	return *c.base, true
}

// BaseClass returns the model class of the base, or nil when there is no
// base or it is a standard library record.
func (c *Class) BaseClass() *Class {
	if c.base == nil {
		return nil
	}
	return c.base.Type.Class()
}

func (c *Class) Members() []Member { return slices.Clone(c.members) }

func (c *Class) Methods() []Method { return cloneMethods(c.methods) }

func (c *Class) Constructors() []Method { return cloneMethods(c.ctors) }

func (c *Class) Destructor() (Method, bool) {
	if c.dtor == nil {
		return Method{}, false
	}
	return c.dtor.clone(), true
}

// Member looks up a data member by name.
func (c *Class) Member(name string) (Member, bool) {
	for _, m := range c.members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// MethodsNamed returns every overload of name declared in c.
func (c *Class) MethodsNamed(name string) []Method {
	var out []Method
	for _, m := range c.methods {
		if m.Name == name {
			out = append(out, m.clone())
		}
	}
	return out
}

// IsPolymorphic reports whether c or any of its bases declares a virtual
// method or destructor.
func (c *Class) IsPolymorphic() bool {
	for k := c; k != nil; k = k.BaseClass() {
		if k.dtor != nil && k.dtor.Virtual {
			return true
		}
		for _, m := range k.methods {
			if m.Virtual {
				return true
			}
		}
	}
	return false
}

// IsAbstract reports whether c declares a pure virtual method or destructor.
// Pure virtuals inherited and not overridden also count.
func (c *Class) IsAbstract() bool {
	overridden := map[string]bool{}
	for k := c; k != nil; k = k.BaseClass() {
		if k.dtor != nil && k.dtor.PureVirtual && k == c {
			return true
		}
		for _, m := range k.methods {
			key := m.overrideKey()
			if m.PureVirtual && !overridden[key] {
				return true
			}
			overridden[key] = true
		}
	}
	return false
}

func (m Method) overrideKey() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	for _, p := range m.Params {
		sb.WriteByte(',')
		sb.WriteString(p.Type.Unqualified().String())
		sb.WriteString(strings.Repeat("*", p.Type.Qualifiers().Pointers))
	}
	if m.Const {
		sb.WriteString(" const")
	}
	return sb.String()
}

func cloneMethods(ms []Method) []Method {
	if ms == nil {
		return nil
	}
	out := make([]Method, len(ms))
	for i, m := range ms {
		out[i] = m.clone()
	}
	return out
}

// Enumerator is one named value of an enum.
type Enumerator struct {
	Name  string
	Value int64
	Pos   parser.Pos
}

// Enum is a resolved enumeration with computed enumerator values.
type Enum struct {
	name        string
	scope       string
	scoped      bool
	defined     bool
	underlying  TypeRef
	enumerators []Enumerator
	pos         parser.Pos

	resolving bool
	resolved  bool
}

func (e *Enum) Name() string          { return e.name }
func (e *Enum) Scope() string         { return e.scope }
func (e *Enum) QualifiedName() string { return qualify(e.scope, e.name) }

// Scoped reports an enum class or enum struct.
func (e *Enum) Scoped() bool        { return e.scoped }
func (e *Enum) IsDefined() bool     { return e.defined }
func (e *Enum) Pos() parser.Pos     { return e.pos }
func (e *Enum) Underlying() TypeRef { return e.underlying }

func (e *Enum) Enumerators() []Enumerator { return slices.Clone(e.enumerators) }

// Value returns the value of the named enumerator.
func (e *Enum) Value(name string) (int64, bool) {
	for _, en := range e.enumerators {
		if en.Name == name {
			return en.Value, true
		}
	}
	return 0, false
}

// Alias is a typedef or using declaration. Target is fully resolved, so it
// never names another alias except through its Alias metadata.
type Alias struct {
	name    string
	scope   string
	target  TypeRef
	isUsing bool
	pos     parser.Pos
}

func (a *Alias) Name() string          { return a.name }
func (a *Alias) Scope() string         { return a.scope }
func (a *Alias) QualifiedName() string { return qualify(a.scope, a.name) }
func (a *Alias) Target() TypeRef       { return a.target }
func (a *Alias) IsUsing() bool         { return a.isUsing }
func (a *Alias) Pos() parser.Pos       { return a.pos }

// Function is a free function declared at namespace scope.
type Function struct {
	name     string
	scope    string
	params   []Param
	variadic bool
	result   TypeRef
	static   bool
	hasBody  bool
	pos      parser.Pos
}

func (f *Function) Name() string          { return f.name }
func (f *Function) Scope() string         { return f.scope }
func (f *Function) QualifiedName() string { return qualify(f.scope, f.name) }
func (f *Function) Params() []Param       { return slices.Clone(f.params) }
func (f *Function) Variadic() bool        { return f.variadic }
func (f *Function) Result() TypeRef       { return f.result }
func (f *Function) IsStatic() bool        { return f.static }
func (f *Function) HasBody() bool         { return f.hasBody }
func (f *Function) Pos() parser.Pos       { return f.pos }

func (f *Function) Signature() string {
	var sb strings.Builder
	sb.WriteString(f.result.String())
	sb.WriteByte(' ')
	sb.WriteString(f.QualifiedName())
	writeParams(&sb, f.params, f.variadic)
	return sb.String()
}
