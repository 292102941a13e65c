package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"riggen/internal/analyzer"
	"riggen/internal/model"
)

func loadFixtures(t *testing.T) []*model.Model {
	t.Helper()
	var models []*model.Model
	for _, path := range []string{"../model/testdata/SimpleClass.h", "../model/testdata/TypeParsing.h"} {
		m, err := model.LoadFile(path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		models = append(models, m)
	}
	return models
}

func report(t *testing.T, jsonOutput bool, models []*model.Model) string {
	t.Helper()
	a := analyzer.NewAnalyzer()
	for _, m := range models {
		a.AddModel(m)
	}
	var buf bytes.Buffer
	if err := NewReporter(&buf, jsonOutput).Report(models, a.Analyze()); err != nil {
		t.Fatalf("report: %v", err)
	}
	return buf.String()
}

func TestConsoleReport(t *testing.T) {
	out := report(t, false, loadFixtures(t))

	expected := []string{
		"SimpleClass.h:\n",
		"  class Foo\n",
		"    private   int member\n",
		"    public    virtual void ConstPureVirtualMethod() const = 0\n",
		"    public    static void StaticMethod()\n",
		"TypeParsing.h:\n",
		"  struct VariousTypes\n",
		"    public    std::function<void(int)> myFunction\n",
		"    public    std::shared_ptr<VariousTypes> mySharedPtr\n",
		"  enum class MyEnum : int64_t\n",
		"    c = 124\n",
		"  typedef IntTypedef = int\n",
		"  using FloatTypedef = float\n",
		"  [WARN] Line 2 [Foo]: polymorphic class has a non-virtual destructor\n",
		"Summary: 2 file(s), 2 class(es), 1 enum(s), 2 alias(es), 0 function(s), 1 warning(s)\n",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q\n%s", want, out)
		}
	}
	if strings.Index(out, "SimpleClass.h:") > strings.Index(out, "TypeParsing.h:") {
		t.Error("files should be reported in input order")
	}
}

func TestConsoleReportInlineSource(t *testing.T) {
	m, err := model.Load(`
namespace geo {
struct Point { double x, y; };
class Shape : public virtual Point {
public:
    Shape(int sides);
    virtual ~Shape();
};
}
int count(const geo::Shape& s, ...);`)
	if err != nil {
		t.Fatal(err)
	}
	out := report(t, false, []*model.Model{m})
	for _, want := range []string{
		"<input>:\n",
		"  class geo::Shape : virtual public geo::Point\n",
		"    public    Shape(int sides)\n",
		"    public    virtual ~Shape()\n",
		"  function int count(const geo::Shape& s, ...)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q\n%s", want, out)
		}
	}
}

func TestJSONReport(t *testing.T) {
	out := report(t, true, loadFixtures(t))

	var decoded struct {
		Files       []File                `json:"files"`
		Diagnostics []analyzer.Diagnostic `json:"diagnostics"`
		Summary     Summary               `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}

	s := decoded.Summary
	if s.Files != 2 || s.Classes != 2 || s.Enums != 1 || s.Aliases != 2 || s.Warnings != 1 || s.Diagnostics != 1 {
		t.Errorf("unexpected summary %+v", s)
	}

	foo := decoded.Files[0].Classes[0]
	if foo.Name != "Foo" || len(foo.Methods) != 6 || foo.Methods[3].Name != "PureVirtualMethod" || !foo.Methods[3].PureVirtual {
		t.Errorf("unexpected class %+v", foo)
	}
	if foo.Methods[0].Result == nil || foo.Methods[0].Result.Name != "void" {
		t.Errorf("Method result %+v", foo.Methods[0].Result)
	}

	types := decoded.Files[1]
	if len(types.Enums) != 1 || len(types.Enums[0].Enumerators) != 4 || types.Enums[0].Enumerators[3].Value != 456 {
		t.Errorf("unexpected enums %+v", types.Enums)
	}

	members := make(map[string]Type)
	for _, m := range types.Classes[0].Members {
		members[m.Name] = m.Type
	}
	if mt := members["myInt"]; mt.Kind != "primitive" || mt.Name != "int" || mt.Alias != "IntTypedef" || mt.Bits != 32 || !mt.Signed {
		t.Errorf("myInt %+v", mt)
	}
	if mt := members["myVariant"]; mt.Kind != "template" || mt.Name != "std::variant" || len(mt.Args) != 2 || mt.Args[1].Name != "float" {
		t.Errorf("myVariant %+v", mt)
	}
	fn := members["myFunction"]
	if len(fn.Args) != 1 || fn.Args[0].Kind != "function" || fn.Args[0].Result == nil || fn.Args[0].Result.Name != "void" {
		t.Errorf("myFunction %+v", fn)
	}
	if mt := members["myEnum"]; mt.Kind != "enum" || mt.Name != "MyEnum" {
		t.Errorf("myEnum %+v", mt)
	}
}

func TestJSONValueArguments(t *testing.T) {
	m, err := model.Load("struct S { std::array<int, 4> a; std::string s; int* const* p; };")
	if err != nil {
		t.Fatal(err)
	}
	f := NewFile(m)
	members := f.Classes[0].Members
	a := members[0].Type
	if len(a.Args) != 2 || a.Args[1].Kind != "value" || a.Args[1].Value == nil || *a.Args[1].Value != 4 {
		t.Errorf("array args %+v", a.Args)
	}
	if s := members[1].Type; !s.External || s.Name != "std::string" {
		t.Errorf("string %+v", s)
	}
	if p := members[2].Type; p.Pointers != 2 {
		t.Errorf("pointer %+v", p)
	}
}

func TestJSONEmptyReport(t *testing.T) {
	out := report(t, true, nil)
	if !strings.Contains(out, `"files": []`) || !strings.Contains(out, `"diagnostics": []`) {
		t.Errorf("empty report should use empty arrays:\n%s", out)
	}
}
