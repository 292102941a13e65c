package model

import (
	"fmt"
	"slices"
	"strings"

	"riggen/internal/parser"
)

type resolver struct {
	reg   *registry
	model *Model
	// aliases currently being resolved, innermost last
	stack []string
}

// Resolve links the declarations of a translation unit into a Model. Every
// type name is looked up, aliases are followed to their canonical target and
// enumerator values are computed. Any failure aborts the whole unit.
func Resolve(tu *parser.TranslationUnit) (*Model, error) {
	r := &resolver{reg: newRegistry()}
	r.model = &Model{file: tu.File, reg: r.reg}

	if err := r.declare(tu.Decls); err != nil {
		return nil, err
	}
	for _, d := range tu.Decls {
		if err := r.resolveDecl(d); err != nil {
			return nil, err
		}
	}
	return r.model, nil
}

// declare registers every named type before any reference is resolved, so
// members may point at classes declared further down.
func (r *resolver) declare(decls []parser.Decl) error {
	for i, d := range decls {
		switch d := d.(type) {
		case *parser.ClassDecl:
			cls, err := r.reg.declareClass(d.Name, d.Scope, d.Pos, d)
			if err != nil {
				return err
			}
			cls.order = i + 1
			r.model.classes = append(r.model.classes, cls)
		case *parser.ForwardDecl:
			var err error
			if d.IsEnum {
				_, err = r.reg.declareEnum(d.Name, d.Scope, d.Pos, nil)
			} else {
				_, err = r.reg.declareClass(d.Name, d.Scope, d.Pos, nil)
			}
			if err != nil {
				return err
			}
		case *parser.EnumDecl:
			e, err := r.reg.declareEnum(d.Name, d.Scope, d.Pos, d)
			if err != nil {
				return err
			}
			r.model.enums = append(r.model.enums, e)
		case *parser.AliasDecl:
			a, err := r.reg.declareAlias(d)
			if err != nil {
				return err
			}
			if a != nil {
				r.model.aliases = append(r.model.aliases, a)
			}
		}
	}
	return nil
}

func (r *resolver) resolveDecl(d parser.Decl) error {
	switch d := d.(type) {
	case *parser.ClassDecl:
		return r.resolveClass(r.reg.symbols[parser.QualifiedName(d)].class, d)
	case *parser.EnumDecl:
		return r.resolveEnum(r.reg.symbols[parser.QualifiedName(d)].enum, d)
	case *parser.AliasDecl:
		qn := parser.QualifiedName(d)
		sym := r.reg.symbols[qn]
		if sym.aliasDecl != d {
			return nil
		}
		_, err := r.resolveAlias(sym, qn)
		return err
	case *parser.FunctionDecl:
		return r.resolveFunction(d)
	}
	return nil
}

func (r *resolver) resolveAlias(sym *symbol, qn string) (TypeRef, error) {
	if sym.target != nil {
		return *sym.target, nil
	}
	if i := slices.Index(r.stack, qn); i >= 0 {
		chain := append(slices.Clone(r.stack[i:]), qn)
		return TypeRef{}, &AliasCycleError{Chain: chain, Pos: sym.aliasDecl.Pos}
	}

	r.stack = append(r.stack, qn)
	target, err := r.resolveType(sym.aliasDecl.Target, sym.aliasDecl.Scope)
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		return TypeRef{}, err
	}
	sym.target = &target
	sym.alias.target = target
	return target, nil
}

// resolveType resolves a spelled type as seen from scope.
func (r *resolver) resolveType(t *parser.TypeExpr, scope string) (TypeRef, error) {
	base, err := r.resolveBase(t, scope)
	if err != nil {
		return TypeRef{}, err
	}
	if t.Pointers > 0 && base.quals.Ref != NoRef {
		return TypeRef{}, semanticErrorf(t.Pos, t.Name, "pointer to reference")
	}
	return applyQualifiers(base, t), nil
}

func (r *resolver) resolveBase(t *parser.TypeExpr, scope string) (TypeRef, error) {
	switch {
	case t.Func != nil:
		return r.resolveSignature(t.Func, scope)
	case t.IsBuiltin():
		return primitiveRef(primitives[t.Name]), nil
	case t.Name == "auto":
		return TypeRef{}, semanticErrorf(t.Pos, t.Name, "deduced types are not supported")
	case isStd(t.Name):
		return r.resolveStd(t, scope)
	}

	sym, qn := r.reg.lookup(t.Name, scope)
	if sym == nil {
		if p, ok := fixedWidth[strings.TrimPrefix(t.Name, "::")]; ok && t.Args == nil {
			return primitiveRef(p), nil
		}
		return TypeRef{}, &UnresolvedTypeError{Name: t.Name, Pos: t.Pos}
	}
	if t.Args != nil {
		return TypeRef{}, semanticErrorf(t.Pos, qn, "is not a template")
	}
	switch sym.kind {
	case symClass:
		return classRef(sym.class), nil
	case symEnum:
		return enumRef(sym.enum), nil
	}
	target, err := r.resolveAlias(sym, qn)
	if err != nil {
		return TypeRef{}, err
	}
	target.alias = qn
	return target, nil
}

func (r *resolver) resolveStd(t *parser.TypeExpr, scope string) (TypeRef, error) {
	name := stdName(t.Name)
	display := "std::" + name

	if p, ok := fixedWidth[name]; ok {
		if t.Args != nil {
			return TypeRef{}, semanticErrorf(t.Pos, display, "is not a template")
		}
		return primitiveRef(p), nil
	}
	if stdRecords[name] {
		if t.Args != nil {
			return TypeRef{}, semanticErrorf(t.Pos, display, "is not a template")
		}
		return TypeRef{kind: KindClass, name: name, scope: "std"}, nil
	}
	shape, ok := stdTemplates[name]
	if !ok {
		return TypeRef{}, &UnresolvedTypeError{Name: t.Name, Pos: t.Pos}
	}
	if t.Args == nil {
		return TypeRef{}, semanticErrorf(t.Pos, display, "missing template argument list")
	}
	if n := len(t.Args); n < shape.min || (shape.max >= 0 && n > shape.max) {
		return TypeRef{}, semanticErrorf(t.Pos, display, "expects %s template arguments, got %d", shape.arity(), n)
	}

	args := make([]TemplateArg, 0, len(t.Args))
	for i, a := range t.Args {
		switch {
		case a.IsValue && i != shape.valueAt:
			return TypeRef{}, semanticErrorf(t.Pos, display, "template argument %d must be a type", i+1)
		case a.IsValue:
			args = append(args, TemplateArg{Value: a.Value, IsValue: true})
			continue
		case i == shape.valueAt:
			return TypeRef{}, semanticErrorf(a.Type.Pos, display, "template argument %d must be an integral constant", i+1)
		}
		at, err := r.resolveType(a.Type, scope)
		if err != nil {
			return TypeRef{}, err
		}
		if shape.callable && (at.kind != KindFunction || at.quals != (Qualifiers{})) {
			return TypeRef{}, semanticErrorf(a.Type.Pos, display, "template argument must be a function type, got %s", at)
		}
		args = append(args, TemplateArg{Type: at})
	}
	return TypeRef{kind: KindTemplate, name: name, scope: "std", args: args}, nil
}

func (s templateShape) arity() string {
	switch {
	case s.max < 0:
		return fmt.Sprintf("at least %d", s.min)
	case s.min == s.max:
		return fmt.Sprint(s.min)
	}
	return fmt.Sprintf("%d to %d", s.min, s.max)
}

func (r *resolver) resolveSignature(f *parser.FuncSignature, scope string) (TypeRef, error) {
	result, err := r.resolveType(f.Result, scope)
	if err != nil {
		return TypeRef{}, err
	}
	params, err := r.resolveParams(f.Params, scope)
	if err != nil {
		return TypeRef{}, err
	}
	types := make([]TypeRef, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return TypeRef{kind: KindFunction, result: &result, params: types, variadic: f.Variadic}, nil
}

func (r *resolver) resolveParams(ps []parser.Param, scope string) ([]Param, error) {
	if len(ps) == 0 {
		return nil, nil
	}
	params := make([]Param, 0, len(ps))
	for _, p := range ps {
		pt, err := r.resolveType(p.Type, scope)
		if err != nil {
			return nil, err
		}
		if isVoid(pt) {
			return nil, semanticErrorf(p.Type.Pos, p.Name, "parameter has type void")
		}
		params = append(params, Param{Name: p.Name, Type: pt})
	}
	return params, nil
}

func (r *resolver) resolveClass(cls *Class, d *parser.ClassDecl) error {
	qn := cls.QualifiedName()

	if d.Base != nil {
		bt, err := r.resolveType(d.Base.Type, d.Scope)
		if err != nil {
			return err
		}
		if bt.kind != KindClass || bt.quals != (Qualifiers{}) || len(bt.extents) > 0 {
			return semanticErrorf(d.Base.Type.Pos, qn, "base %s is not a class", bt)
		}
		if b := bt.class; b != nil {
			switch {
			case b == cls:
				return semanticErrorf(d.Base.Type.Pos, qn, "class cannot derive from itself")
			case !b.defined || b.order >= cls.order:
				return semanticErrorf(d.Base.Type.Pos, qn, "base class %s is incomplete", b.QualifiedName())
			case b.isFinal:
				return semanticErrorf(d.Base.Type.Pos, qn, "cannot derive from final class %s", b.QualifiedName())
			}
		}
		cls.base = &Base{Type: bt, Access: Access(d.Base.Access), Virtual: d.Base.Virtual}
	}

	declared := make(map[string]parser.Pos)
	for _, md := range d.Members {
		mt, err := r.resolveType(md.Type, qn)
		if err != nil {
			return err
		}
		if err := checkFieldType(mt, cls, md); err != nil {
			return err
		}
		if prev, ok := declared[md.Name]; ok {
			return semanticErrorf(md.Pos, md.Name, "duplicate member, previous declaration at %s", prev)
		}
		declared[md.Name] = md.Pos
		cls.members = append(cls.members, Member{
			Name:   md.Name,
			Type:   mt,
			Access: Access(md.Access),
			Static: md.IsStatic,
			Pos:    md.Pos,
		})
	}

	methods, err := r.resolveOverloads(d.Methods, qn)
	if err != nil {
		return err
	}
	for _, m := range methods {
		if prev, ok := declared[m.Name]; ok {
			if _, isMember := cls.Member(m.Name); isMember {
				return semanticErrorf(m.Pos, m.Name, "method conflicts with data member declared at %s", prev)
			}
		}
		declared[m.Name] = m.Pos
	}
	cls.methods = methods

	if cls.ctors, err = r.resolveOverloads(d.Constructors, qn); err != nil {
		return err
	}
	if d.Destructor != nil {
		dtor, err := r.resolveMethod(*d.Destructor, qn)
		if err != nil {
			return err
		}
		cls.dtor = &dtor
	}
	inheritVirtual(cls)
	return nil
}

// resolveOverloads resolves a set of methods and rejects two declarations
// with the same name and parameter types.
func (r *resolver) resolveOverloads(decls []parser.MethodDecl, scope string) ([]Method, error) {
	var out []Method
	for _, md := range decls {
		m, err := r.resolveMethod(md, scope)
		if err != nil {
			return nil, err
		}
		for _, prev := range out {
			if prev.Name == m.Name && sameSignature(prev, m) {
				return nil, semanticErrorf(m.Pos, m.Name, "cannot be overloaded, same parameters as declaration at %s", prev.Pos)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *resolver) resolveMethod(md parser.MethodDecl, scope string) (Method, error) {
	m := Method{
		Name:        md.Name,
		Variadic:    md.Variadic,
		Access:      Access(md.Access),
		Const:       md.IsConst,
		Virtual:     md.IsVirtual || md.IsPureVirtual,
		PureVirtual: md.IsPureVirtual,
		Static:      md.IsStatic,
		HasBody:     md.HasBody,
		Pos:         md.Pos,
	}
	if m.Static && m.Virtual {
		return Method{}, semanticErrorf(md.Pos, md.Name, "method cannot be both static and virtual")
	}
	if md.Result != nil {
		res, err := r.resolveType(md.Result, scope)
		if err != nil {
			return Method{}, err
		}
		m.Result = res
	}
	params, err := r.resolveParams(md.Params, scope)
	if err != nil {
		return Method{}, err
	}
	m.Params = params
	return m, nil
}

func (r *resolver) resolveFunction(d *parser.FunctionDecl) error {
	result, err := r.resolveType(d.Result, d.Scope)
	if err != nil {
		return err
	}
	params, err := r.resolveParams(d.Params, d.Scope)
	if err != nil {
		return err
	}
	r.model.functions = append(r.model.functions, &Function{
		name:     d.Name,
		scope:    d.Scope,
		params:   params,
		variadic: d.Variadic,
		result:   result,
		static:   d.IsStatic,
		hasBody:  d.HasBody,
		pos:      d.Pos,
	})
	return nil
}

func (r *resolver) resolveEnum(e *Enum, d *parser.EnumDecl) error {
	if e.resolved {
		return nil
	}
	if e.resolving {
		return semanticErrorf(d.Pos, e.QualifiedName(), "enumerator values depend on themselves")
	}
	e.resolving = true
	defer func() { e.resolving = false }()

	var under Primitive
	if d.Underlying != nil {
		u, err := r.resolveType(d.Underlying, d.Scope)
		if err != nil {
			return err
		}
		p, ok := u.Primitive()
		if !ok || !p.IsIntegral() || u.quals.Pointers > 0 || u.quals.Ref != NoRef || len(u.extents) > 0 {
			return semanticErrorf(d.Underlying.Pos, e.QualifiedName(), "underlying type %s is not an integral type", u)
		}
		e.underlying = u
		under = p
	}

	values, err := enumeratorValues(d.Enumerators, []string{e.QualifiedName(), e.name}, r.enumConstant(d.Scope))
	if err != nil {
		return err
	}
	if d.Underlying == nil {
		under = primitives["int"]
		if !d.Scoped {
			under = fitUnderlying(values)
		}
		e.underlying = primitiveRef(under)
	}
	if err := checkRange(d.Enumerators, values, under); err != nil {
		return err
	}

	e.enumerators = make([]Enumerator, len(values))
	for i, v := range values {
		e.enumerators[i] = Enumerator{Name: d.Enumerators[i].Name, Value: v, Pos: d.Enumerators[i].Pos}
	}
	e.resolved = true
	return nil
}

// enumConstant looks up names outside the enumerator list being evaluated:
// "Other::x" for an enumerator of another enum, or a bare name declared by
// an unscoped enum in an enclosing scope.
func (r *resolver) enumConstant(scope string) func(string) (int64, bool) {
	return func(name string) (int64, bool) {
		if i := strings.LastIndex(name, "::"); i >= 0 {
			sym, _ := r.reg.lookup(name[:i], scope)
			if sym == nil || sym.kind != symEnum || sym.enumDecl == nil {
				return 0, false
			}
			if err := r.resolveEnum(sym.enum, sym.enumDecl); err != nil {
				return 0, false
			}
			return sym.enum.Value(name[i+2:])
		}
		for s := scope; ; s = parentScope(s) {
			for _, e := range r.model.enums {
				if e.resolved && !e.scoped && e.scope == s {
					if v, ok := e.Value(name); ok {
						return v, true
					}
				}
			}
			if s == "" {
				return 0, false
			}
		}
	}
}

// fitUnderlying picks the underlying type of an unscoped enum without a
// fixed type: the first of int, unsigned int, long, unsigned long that holds
// every value.
func fitUnderlying(values []int64) Primitive {
	for _, name := range []string{"int", "unsigned int", "long"} {
		p := primitives[name]
		lo, hi := p.Range()
		if !slices.ContainsFunc(values, func(v int64) bool { return v < lo || v > hi }) {
			return p
		}
	}
	return primitives["unsigned long"]
}

// inheritVirtual marks methods that override a virtual base method, and a
// destructor whose base destructor is virtual, as virtual.
func inheritVirtual(cls *Class) {
	base := cls.BaseClass()
	if base == nil {
		return
	}
	if cls.dtor != nil && !cls.dtor.Virtual {
		for b := base; b != nil; b = b.BaseClass() {
			if b.dtor != nil && b.dtor.Virtual {
				cls.dtor.Virtual = true
				break
			}
		}
	}
	for i := range cls.methods {
		m := &cls.methods[i]
		if m.Virtual || m.Static {
			continue
		}
		key := m.overrideKey()
		for b := base; b != nil && !m.Virtual; b = b.BaseClass() {
			for _, bm := range b.methods {
				if bm.Virtual && bm.overrideKey() == key {
					m.Virtual = true
					break
				}
			}
		}
	}
}

// checkFieldType rejects data members that cannot hold an object.
func checkFieldType(t TypeRef, owner *Class, md parser.MemberDecl) error {
	if t.quals.Pointers > 0 || t.quals.Ref != NoRef {
		return nil
	}
	switch {
	case isVoid(t):
		return semanticErrorf(md.Pos, md.Name, "member has type void")
	case t.kind == KindFunction:
		return semanticErrorf(md.Pos, md.Name, "member has function type %s", t)
	case md.IsStatic:
		return nil
	case t.class != nil && (t.class == owner || !t.class.defined):
		return semanticErrorf(md.Pos, md.Name, "member has incomplete type %s", t.class.QualifiedName())
	}
	return nil
}

func sameSignature(a, b Method) bool {
	if a.Variadic != b.Variadic || len(a.Params) != len(b.Params) {
		return false
	}
	if a.Const != b.Const && !a.Static && !b.Static {
		return false
	}
	for i := range a.Params {
		if !Identical(paramType(a.Params[i].Type), paramType(b.Params[i].Type)) {
			return false
		}
	}
	return true
}

// paramType drops top-level cv-qualifiers, which do not take part in
// overloading.
func paramType(t TypeRef) TypeRef {
	if t.quals.Pointers == 0 && t.quals.Ref == NoRef {
		t.quals.Const = false
		t.quals.Volatile = false
	}
	return t
}

func isVoid(t TypeRef) bool {
	return t.kind == KindPrimitive && t.prim.Name == "void" &&
		t.quals.Pointers == 0 && t.quals.Ref == NoRef
}

// applyQualifiers composes use-site decorations with a resolved type:
// pointers add, cv-qualifiers combine, references collapse and extents nest
// outside those of the target. A use-site cv on a pointer or reference
// target qualifies the pointer itself, and pointer-level cv is dropped.
func applyQualifiers(ref TypeRef, t *parser.TypeExpr) TypeRef {
	q := ref.quals
	if q.Pointers == 0 && q.Ref == NoRef {
		q.Const = q.Const || t.Const
		q.Volatile = q.Volatile || t.Volatile
	}
	q.Pointers += t.Pointers
	q.Ref = collapseRef(q.Ref, RefKind(t.Ref))
	ref.quals = q
	if len(t.Extents) > 0 {
		ref.extents = append(slices.Clone(t.Extents), ref.extents...)
	}
	return ref
}

func collapseRef(a, b RefKind) RefKind {
	switch {
	case a == NoRef:
		return b
	case b == NoRef:
		return a
	case a == LValueRef || b == LValueRef:
		return LValueRef
	}
	return RValueRef
}

func primitiveRef(p Primitive) TypeRef {
	return TypeRef{kind: KindPrimitive, name: p.Name, prim: p}
}

func classRef(c *Class) TypeRef {
	return TypeRef{kind: KindClass, name: c.name, scope: c.scope, class: c}
}

func enumRef(e *Enum) TypeRef {
	return TypeRef{kind: KindEnum, name: e.name, scope: e.scope, enum: e}
}
