package parser

import "strings"

// Access is a C++ access specifier
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "public"
	}
}

// RefKind distinguishes lvalue and rvalue references.
type RefKind int

const (
	NoRef RefKind = iota
	LValueRef
	RValueRef
)

// TypeExpr is a type exactly as spelled in the source. Names are not looked
// up here; that is the resolver's job.
type TypeExpr struct {
	Name     string         // "int", "unsigned long long", "std::shared_ptr", "::ns::Foo"
	Args     []TemplateArg  // template arguments, nil when none were written
	Func     *FuncSignature // set for function types such as void(int)
	Const    bool
	Volatile bool
	Pointers int
	Ref      RefKind
	Extents  []int64 // array extents, outermost first
	Pos      Pos
}

// IsBuiltin reports whether the expression names a fundamental type spelled
// with keywords.
func (t *TypeExpr) IsBuiltin() bool {
	return t.Func == nil && builtinNames[t.Name]
}

func (t *TypeExpr) String() string {
	var sb strings.Builder
	if t.Const {
		sb.WriteString("const ")
	}
	if t.Volatile {
		sb.WriteString("volatile ")
	}
	if t.Func != nil {
		sb.WriteString(t.Func.String())
	} else {
		sb.WriteString(t.Name)
	}
	if t.Args != nil {
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	sb.WriteString(strings.Repeat("*", t.Pointers))
	switch t.Ref {
	case LValueRef:
		sb.WriteByte('&')
	case RValueRef:
		sb.WriteString("&&")
	}
	for _, n := range t.Extents {
		sb.WriteByte('[')
		sb.WriteString(formatInt(n))
		sb.WriteByte(']')
	}
	return sb.String()
}

// TemplateArg is either a type or an integral constant.
type TemplateArg struct {
	Type    *TypeExpr
	Value   int64
	IsValue bool
}

func (a TemplateArg) String() string {
	if a.IsValue {
		return formatInt(a.Value)
	}
	return a.Type.String()
}

// FuncSignature is the R(Args...) part of a function type.
type FuncSignature struct {
	Result   *TypeExpr
	Params   []Param
	Variadic bool
}

func (f *FuncSignature) String() string {
	var sb strings.Builder
	sb.WriteString(f.Result.String())
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Type.String())
	}
	if f.Variadic {
		if len(f.Params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteByte(')')
	return sb.String()
}

// Param is a function or method parameter; Name may be empty.
type Param struct {
	Name string
	Type *TypeExpr
}

// Decl is a declaration at namespace scope, or a type hoisted out of a class.
type Decl interface {
	// DeclName returns the unqualified name.
	DeclName() string
	// DeclScope returns the enclosing namespaces and classes joined by "::".
	DeclScope() string
	DeclPos() Pos
}

// QualifiedName joins a declaration's scope and name.
func QualifiedName(d Decl) string {
	if d.DeclScope() == "" {
		return d.DeclName()
	}
	return d.DeclScope() + "::" + d.DeclName()
}

// BaseSpec is the single base class of a ClassDecl.
type BaseSpec struct {
	Type    *TypeExpr
	Access  Access
	Virtual bool
}

// ClassDecl represents a C++ class or struct definition
type ClassDecl struct {
	Name         string
	Scope        string
	IsStruct     bool
	IsFinal      bool
	Base         *BaseSpec
	Members      []MemberDecl
	Methods      []MethodDecl
	Constructors []MethodDecl
	Destructor   *MethodDecl
	Pos          Pos
	EndLine      int
}

func (c *ClassDecl) DeclName() string  { return c.Name }
func (c *ClassDecl) DeclScope() string { return c.Scope }
func (c *ClassDecl) DeclPos() Pos      { return c.Pos }

// ForwardDecl is "class Foo;" or an opaque "enum class E : int;".
type ForwardDecl struct {
	Name   string
	Scope  string
	IsEnum bool
	Pos    Pos
}

func (f *ForwardDecl) DeclName() string  { return f.Name }
func (f *ForwardDecl) DeclScope() string { return f.Scope }
func (f *ForwardDecl) DeclPos() Pos      { return f.Pos }

// MemberDecl represents a class data member
type MemberDecl struct {
	Name     string
	Type     *TypeExpr
	Access   Access
	IsStatic bool
	Pos      Pos
}

// MethodDecl represents a member function, constructor or destructor
type MethodDecl struct {
	Name          string
	Params        []Param
	Variadic      bool
	Result        *TypeExpr // nil for constructors and destructors
	Access        Access
	IsConst       bool
	IsVirtual     bool
	IsPureVirtual bool
	IsStatic      bool
	HasBody       bool
	Pos           Pos
}

// EnumDecl is an enum definition with its raw enumerator list.
type EnumDecl struct {
	Name        string
	Scope       string
	Scoped      bool      // enum class / enum struct
	Underlying  *TypeExpr // nil when not written
	Enumerators []Enumerator
	Pos         Pos
}

func (e *EnumDecl) DeclName() string  { return e.Name }
func (e *EnumDecl) DeclScope() string { return e.Scope }
func (e *EnumDecl) DeclPos() Pos      { return e.Pos }

// Enumerator is one enum entry; Value holds the tokens of the explicit
// initializer and is empty when none was written.
type Enumerator struct {
	Name  string
	Value []Token
	Pos   Pos
}

// AliasDecl covers both "typedef T Name;" and "using Name = T;".
type AliasDecl struct {
	Name    string
	Scope   string
	Target  *TypeExpr
	IsUsing bool
	Pos     Pos
}

func (a *AliasDecl) DeclName() string  { return a.Name }
func (a *AliasDecl) DeclScope() string { return a.Scope }
func (a *AliasDecl) DeclPos() Pos      { return a.Pos }

// FunctionDecl is a function declared at namespace scope.
type FunctionDecl struct {
	Name     string
	Scope    string
	Params   []Param
	Variadic bool
	Result   *TypeExpr
	IsStatic bool
	HasBody  bool
	Pos      Pos
}

func (f *FunctionDecl) DeclName() string  { return f.Name }
func (f *FunctionDecl) DeclScope() string { return f.Scope }
func (f *FunctionDecl) DeclPos() Pos      { return f.Pos }

// TranslationUnit holds the declarations of one header in source order.
type TranslationUnit struct {
	File  string
	Decls []Decl
}
