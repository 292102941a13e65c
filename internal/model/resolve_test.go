package model

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"riggen/internal/parser"
)

func memberType(t *testing.T, m *Model, class, member string) TypeRef {
	t.Helper()
	c := m.Class(class)
	if c == nil {
		t.Fatalf("class %s not found", class)
	}
	mem, ok := c.Member(member)
	if !ok {
		t.Fatalf("%s has no member %s", class, member)
	}
	return mem.Type
}

func TestScopeLookup(t *testing.T) {
	m := mustLoad(t, `
struct T {};
namespace a {
    struct Inner {};
    namespace b {
        struct T {};
        struct User {
            Inner in;
            ::a::Inner global;
            a::Inner partial;
            T local;
            ::T outer;
        };
    }
}`)
	cases := []struct {
		member string
		class  string
	}{
		{"in", "a::Inner"},
		{"global", "a::Inner"},
		{"partial", "a::Inner"},
		{"local", "a::b::T"},
		{"outer", "T"},
	}
	for _, tc := range cases {
		mt := memberType(t, m, "a::b::User", tc.member)
		if mt.Kind() != KindClass || mt.QualifiedName() != tc.class || mt.Class() != m.Class(tc.class) {
			t.Errorf("%s: resolved to %s, expected %s", tc.member, mt, tc.class)
		}
	}
}

func TestAliasQualifiers(t *testing.T) {
	m := mustLoad(t, `
typedef int* IntPtr;
typedef const IntPtr ConstIntPtr;
using Ref = int&;
using RefRef = Ref&&;
typedef int Row[4];
typedef Row Grid[2];
typedef std::uint8_t Byte;
using IntRef = int&;
struct S {
    IntPtr* pp;
    ConstIntPtr c;
    int* const d;
    const IntRef cr;
    RefRef r;
    Grid g;
    const Byte b;
};`)
	cases := []struct {
		member string
		typ    string
		alias  string
	}{
		{"pp", "int**", "IntPtr"},
		{"c", "int*", "ConstIntPtr"},
		{"d", "int*", ""},
		{"cr", "int&", "IntRef"},
		{"r", "int&", "RefRef"},
		{"g", "int[2][4]", "Grid"},
		{"b", "const uint8_t", "Byte"},
	}
	for _, tc := range cases {
		mt := memberType(t, m, "S", tc.member)
		if mt.String() != tc.typ || mt.Alias() != tc.alias {
			t.Errorf("%s: got %q alias %q, expected %q alias %q", tc.member, mt, mt.Alias(), tc.typ, tc.alias)
		}
	}

	g := memberType(t, m, "S", "g")
	if !slices.Equal(g.Extents(), []int64{2, 4}) {
		t.Errorf("g extents %v", g.Extents())
	}
	if target := m.Alias("ConstIntPtr").Target(); target.Alias() != "IntPtr" {
		t.Errorf("ConstIntPtr target should remember IntPtr, got %q", target.Alias())
	}
	if c, d := memberType(t, m, "S", "c"), memberType(t, m, "S", "d"); !Identical(c, d) {
		t.Errorf("const on a pointer alias should match a const pointer: %q vs %q", c, d)
	}
	if p := memberType(t, m, "S", "pp"); p.Qualifiers().Const {
		t.Errorf("pp should not be const: %+v", p.Qualifiers())
	}
}

func TestIdenticalIgnoresAliases(t *testing.T) {
	m := mustLoad(t, `
typedef int I;
using J = I;
struct S { I a; J b; int c; long d; const int e; };`)
	a := memberType(t, m, "S", "a")
	b := memberType(t, m, "S", "b")
	c := memberType(t, m, "S", "c")
	if !Identical(a, b) || !Identical(a, c) {
		t.Error("aliases of int should be identical to int")
	}
	if Identical(c, memberType(t, m, "S", "d")) || Identical(c, memberType(t, m, "S", "e")) {
		t.Error("int should differ from long and const int")
	}
	if b.Alias() != "J" {
		t.Errorf("b alias %q", b.Alias())
	}

	other := mustLoad(t, "struct S { int c; };")
	if !Identical(c, memberType(t, other, "S", "c")) {
		t.Error("types from two models should compare structurally")
	}
}

func TestExternalRecords(t *testing.T) {
	m := mustLoad(t, `
struct S {
    std::string name;
    std::vector<std::string> tags;
    std::map<std::string, int> counts;
    std::array<double, 3> xyz;
    std::size_t size;
    size_t bare;
    std::unique_ptr<S> next;
};
class D : public std::string {};`)
	name := memberType(t, m, "S", "name")
	if !name.IsExternal() || name.QualifiedName() != "std::string" {
		t.Errorf("name: %s external=%v", name, name.IsExternal())
	}
	xyz := memberType(t, m, "S", "xyz")
	if args := xyz.Args(); len(args) != 2 || !args[1].IsValue || args[1].Value != 3 {
		t.Errorf("xyz args %v", xyz.Args())
	}
	if xyz.String() != "std::array<double, 3>" {
		t.Errorf("xyz: %s", xyz)
	}
	for _, member := range []string{"size", "bare"} {
		if p, ok := memberType(t, m, "S", member).Primitive(); !ok || p.Name != "size_t" || p.Bits != 64 {
			t.Errorf("%s: %+v", member, p)
		}
	}

	d := m.Class("D")
	base, ok := d.Base()
	if !ok || !base.Type.IsExternal() || d.BaseClass() != nil {
		t.Errorf("D base %+v", base)
	}
}

func TestFunctionPointers(t *testing.T) {
	m := mustLoad(t, `
typedef void (*Handler)(int, const char*);
struct S {
    Handler h;
    int (*cb)(double);
    std::function<bool(int, ...)> pred;
};
int add(int a, int b);
static void log(const char* fmt, ...);`)

	h := memberType(t, m, "S", "h")
	if h.Kind() != KindFunction || h.Qualifiers().Pointers != 1 || h.String() != "void(int, const char*)*" {
		t.Errorf("h: %s", h)
	}
	cb := memberType(t, m, "S", "cb")
	if cb.Result().Name() != "int" || len(cb.Params()) != 1 || cb.Params()[0].Name() != "double" {
		t.Errorf("cb: %s", cb)
	}
	pred := memberType(t, m, "S", "pred")
	if sig := pred.Args()[0].Type; !sig.Variadic() || sig.String() != "bool(int, ...)" {
		t.Errorf("pred: %s", pred)
	}

	var sigs []string
	for f := range m.Functions() {
		sigs = append(sigs, f.Signature())
	}
	expected := []string{"int add(int a, int b)", "void log(const char* fmt, ...)"}
	if !slices.Equal(sigs, expected) {
		t.Errorf("functions %v, expected %v", sigs, expected)
	}
}

func TestInheritance(t *testing.T) {
	m := mustLoad(t, `
class Base {
public:
    virtual ~Base();
    virtual void run(int n);
    void stop();
};
class Derived : public Base {
public:
    ~Derived();
    void run(int count);
    void stop();
    void run(long count);
};
class Leaf final : protected Derived {
    void run(const int n);
};`)
	base, derived, leaf := m.Class("Base"), m.Class("Derived"), m.Class("Leaf")
	if derived.BaseClass() != base || leaf.BaseClass() != derived {
		t.Fatal("bases not linked")
	}
	if b, _ := leaf.Base(); b.Access != Protected || b.Virtual {
		t.Errorf("Leaf base %+v", b)
	}
	if !leaf.IsFinal() {
		t.Error("Leaf should be final")
	}

	if dtor, ok := derived.Destructor(); !ok || !dtor.Virtual {
		t.Error("Derived destructor should inherit virtual")
	}
	runs := derived.MethodsNamed("run")
	if len(runs) != 2 || !runs[0].Virtual || runs[1].Virtual {
		t.Errorf("Derived run overloads %+v", runs)
	}
	if stop := derived.MethodsNamed("stop"); stop[0].Virtual {
		t.Error("stop should stay non-virtual")
	}
	if run := leaf.MethodsNamed("run"); !run[0].Virtual || run[0].Access != Private {
		t.Errorf("Leaf run %+v", run[0])
	}
	for _, c := range []*Class{base, derived, leaf} {
		if !c.IsPolymorphic() || c.IsAbstract() {
			t.Errorf("%s: polymorphic=%v abstract=%v", c.Name(), c.IsPolymorphic(), c.IsAbstract())
		}
	}
}

func TestAbstractInheritance(t *testing.T) {
	m := mustLoad(t, `
struct Shape { virtual double area() const = 0; };
struct Partial : Shape { void scale(); };
struct Square : Shape { double area() const; };`)
	if !m.Class("Partial").IsAbstract() {
		t.Error("Partial inherits an unimplemented pure virtual")
	}
	sq := m.Class("Square")
	if sq.IsAbstract() || !sq.MethodsNamed("area")[0].Virtual {
		t.Error("Square overrides area")
	}
}

func TestNestedTypes(t *testing.T) {
	m := mustLoad(t, `
struct W {
    enum Mode { off, on = 4 };
    struct Opts { Mode mode; };
    using Count = unsigned;
    Mode m;
    Opts o;
    Count n;
};`)
	if mt := memberType(t, m, "W", "m"); mt.Enum() != m.Enum("W::Mode") {
		t.Errorf("m: %s", mt)
	}
	if mt := memberType(t, m, "W::Opts", "mode"); mt.QualifiedName() != "W::Mode" {
		t.Errorf("Opts::mode: %s", mt)
	}
	if mt := memberType(t, m, "W", "n"); mt.String() != "unsigned int" || mt.Alias() != "W::Count" {
		t.Errorf("n: %s alias %q", mt, mt.Alias())
	}
	if v, ok := m.Enum("W::Mode").Value("on"); !ok || v != 4 {
		t.Errorf("W::Mode::on = %d", v)
	}
}

func TestOverloadsAndRepeats(t *testing.T) {
	m := mustLoad(t, `
typedef int I;
typedef int I;
typedef int R[3];
typedef int R[3];
struct S {
    void f(int);
    void f(long);
    void f(int) const;
    void f(int*);
    static void g(int);
    S();
    S(int);
    S* self;
    static S instance;
};`)
	if m.NumAliases() != 2 {
		t.Errorf("repeated typedef should be recorded once, got %d", m.NumAliases())
	}
	s := m.Class("S")
	if n := len(s.MethodsNamed("f")); n != 4 {
		t.Errorf("expected 4 overloads of f, got %d", n)
	}
	if n := len(s.Constructors()); n != 2 {
		t.Errorf("expected 2 constructors, got %d", n)
	}
}

func TestEnums(t *testing.T) {
	m := mustLoad(t, `
enum Small { s1 = -1 };
enum Unsigned { u1 = 0xffffffff };
enum Wide { w1 = -1, w2 = 0x100000000 };
enum Huge { h1 = 0x7fffffffffffffff };
enum class Defaulted { d1 };
enum Color { red = 1, green = red + 1 };
enum class Shade { light = Color::green * 10, dark = green + light, darker = Shade::dark << 1 };
enum class Early { x = Late::y + 1 };
enum class Late : short { y = 5 };
enum class Flags : std::uint8_t { a = 1 << 0, b = 1 << 7 };
struct Holder { enum Inner { i1 = red }; };`)

	underlying := []struct {
		enum string
		typ  string
	}{
		{"Small", "int"},
		{"Unsigned", "unsigned int"},
		{"Wide", "long"},
		{"Huge", "long"},
		{"Defaulted", "int"},
		{"Late", "short"},
		{"Flags", "uint8_t"},
	}
	for _, tc := range underlying {
		if got := m.Enum(tc.enum).Underlying().String(); got != tc.typ {
			t.Errorf("%s: underlying %s, expected %s", tc.enum, got, tc.typ)
		}
	}

	values := []struct {
		enum, name string
		value      int64
	}{
		{"Color", "green", 2},
		{"Shade", "light", 20},
		{"Shade", "dark", 22},
		{"Shade", "darker", 44},
		{"Early", "x", 6},
		{"Flags", "b", 128},
		{"Holder::Inner", "i1", 1},
	}
	for _, tc := range values {
		v, ok := m.Enum(tc.enum).Value(tc.name)
		if !ok || v != tc.value {
			t.Errorf("%s::%s = %d (%v), expected %d", tc.enum, tc.name, v, ok, tc.value)
		}
	}

	var names []string
	for e := range m.Enums() {
		names = append(names, e.QualifiedName())
	}
	if len(names) != 11 || names[7] != "Early" || names[8] != "Late" {
		t.Errorf("enums out of declaration order: %v", names)
	}
}

func TestEnumeratorValues(t *testing.T) {
	cases := []struct {
		src      string
		expected []int64
	}{
		{"enum class E { a, b, c };", []int64{0, 1, 2}},
		{"enum class E { a = 5, b, c = 1, d };", []int64{5, 6, 1, 2}},
		{"enum class E { a = -2, b, c };", []int64{-2, -1, 0}},
		{"enum class E { a = 'A', b = a | 0x20 };", []int64{65, 97}},
		{"enum class E { a = 1 << 3, b = (a + 1) * 2 };", []int64{8, 18}},
	}
	for _, tc := range cases {
		tu, err := parser.Parse(tc.src)
		if err != nil {
			t.Fatalf("%q: %v", tc.src, err)
		}
		got, err := EnumeratorValues(tu.Decls[0].(*parser.EnumDecl).Enumerators)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.src, err)
			continue
		}
		if !slices.Equal(got, tc.expected) {
			t.Errorf("%q: got %v, expected %v", tc.src, got, tc.expected)
		}
	}

	for _, src := range []string{
		"enum class E { a, a };",
		"enum class E { a = 0x7fffffffffffffff, b };",
		"enum class E { a = b, b };",
		"enum class E { a = E::a };",
	} {
		tu, err := parser.Parse(src)
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		if _, err := EnumeratorValues(tu.Decls[0].(*parser.EnumDecl).Enumerators); err == nil {
			t.Errorf("%q: expected error", src)
		}
	}

	if got, err := EnumeratorValues(nil); err != nil || len(got) != 0 {
		t.Errorf("empty list: %v, %v", got, err)
	}
}

func TestAliasCycle(t *testing.T) {
	cases := []struct {
		src   string
		chain []string
		pos   parser.Pos
	}{
		{"typedef A B;\ntypedef B A;", []string{"B", "A", "B"}, parser.Pos{Line: 1, Column: 11}},
		{"using S = S*;", []string{"S", "S"}, parser.Pos{Line: 1, Column: 7}},
		{"namespace n { using X = Y; using Y = const X; }", []string{"n::X", "n::Y", "n::X"}, parser.Pos{Line: 1, Column: 21}},
	}
	for _, tc := range cases {
		_, err := Load(tc.src)
		var cycle *AliasCycleError
		if !errors.As(err, &cycle) {
			t.Errorf("%q: expected alias cycle, got %v", tc.src, err)
			continue
		}
		if !slices.Equal(cycle.Chain, tc.chain) || cycle.Pos != tc.pos {
			t.Errorf("%q: got chain %v at %v, expected %v at %v", tc.src, cycle.Chain, cycle.Pos, tc.chain, tc.pos)
		}
		if !strings.Contains(err.Error(), strings.Join(tc.chain, " -> ")) {
			t.Errorf("%q: message %q lacks the chain", tc.src, err)
		}
	}
}

func TestUnresolvedTypes(t *testing.T) {
	cases := []struct {
		src  string
		name string
		pos  parser.Pos
	}{
		{"struct S { Missing m; };", "Missing", parser.Pos{Line: 1, Column: 12}},
		{"struct S {\n  std::thread t;\n};", "std::thread", parser.Pos{Line: 2, Column: 3}},
		{"struct S { ns::Missing* p; };", "ns::Missing", parser.Pos{Line: 1, Column: 12}},
		{"using X = std::vector<Unknown>;", "Unknown", parser.Pos{Line: 1, Column: 23}},
		{"void f(Thing t);", "Thing", parser.Pos{Line: 1, Column: 8}},
		{"namespace a { struct T {}; }\nstruct S { T t; };", "T", parser.Pos{Line: 2, Column: 12}},
	}
	for _, tc := range cases {
		_, err := Load(tc.src)
		var unresolved *UnresolvedTypeError
		if !errors.As(err, &unresolved) {
			t.Errorf("%q: expected unresolved type, got %v", tc.src, err)
			continue
		}
		if unresolved.Name != tc.name || unresolved.Pos != tc.pos {
			t.Errorf("%q: got %q at %v, expected %q at %v", tc.src, unresolved.Name, unresolved.Pos, tc.name, tc.pos)
		}
	}
}

// Declarations that parse but do not form a valid type model.
var semanticErrorTestCases = []string{
	// templates
	"struct S { std::vector<> v; };",
	"struct S { std::shared_ptr<int, int> p; };",
	"struct S { std::vector v; };",
	"struct S { std::string<int> s; };",
	"struct S { std::int32_t<int> i; };",
	"struct S { std::function<int> f; };",
	"struct S { std::function<void(*)(int)> f; };",
	"struct S { std::array<int, int> a; };",
	"struct S { std::array<3, int> a; };",
	"struct S { std::vector<int, 4> v; };",
	"struct A {}; struct S { A<int> a; };",
	// qualifiers
	"using R = int&; struct S { R* p; };",
	"struct S { auto x; };",
	"typedef int A[3]; typedef int A[4];",
	"typedef int A[3]; using A = int*;",
	// members
	"struct S { int x; float x; };",
	"struct S { int x; void x(); };",
	"struct S { void f(int); void f(const int); };",
	"struct S { void f(int) const; void f(int) const; };",
	"struct S { S(int); S(int); };",
	"struct S { void m; };",
	"typedef void F(int); struct S { F f; };",
	"struct S { void f(float x, void y); };",
	"class F; struct S { F f; };",
	"struct S { S s; };",
	// classes and bases
	"struct A {}; struct A {};",
	"struct A; enum A : int;",
	"typedef int A; struct A {};",
	"class D : public B {}; class B {};",
	"class B final {}; class D : B {};",
	"class D : public D {};",
	"typedef int I; class D : I {};",
	"enum E { a }; class D : E {};",
	"class B {}; typedef B* P; class D : P {};",
	"typedef int I; typedef long I;",
	// enums
	"enum class E : unsigned char { a = 256 };",
	"enum class E : float { a };",
	"struct S {}; enum class E : S { a };",
	"enum class E : bool { off, on, extra };",
	"enum class E { a = 3000000000 };",
	"enum E { a, a };",
	"enum class A { x = B::y }; enum class B { y = A::x };",
	"enum class E { a = Other::x };",
	"enum class Big : std::uint64_t { a = -1 };",
}

func TestSemanticErrors(t *testing.T) {
	for _, src := range semanticErrorTestCases {
		_, err := Load(src)
		var semErr *parser.SemanticError
		if !errors.As(err, &semErr) {
			t.Errorf("%q: expected semantic error, got %T: %v", src, err, err)
		}
	}
}

func TestLoadPropagatesParseErrors(t *testing.T) {
	_, err := Load("class A {")
	var synErr *parser.SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}
