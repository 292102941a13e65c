package reporter

import (
	"encoding/json"

	"riggen/internal/analyzer"
	"riggen/internal/model"
)

// Type is the JSON form of a model.TypeRef.
type Type struct {
	Kind      string  `json:"kind"`
	Name      string  `json:"name,omitempty"`
	Alias     string  `json:"alias,omitempty"`
	Bits      int     `json:"bits,omitempty"`
	Signed    bool    `json:"signed,omitempty"`
	External  bool    `json:"external,omitempty"`
	Const     bool    `json:"const,omitempty"`
	Volatile  bool    `json:"volatile,omitempty"`
	Pointers  int     `json:"pointers,omitempty"`
	Reference string  `json:"reference,omitempty"`
	Extents   []int64 `json:"extents,omitempty"`
	Args      []Type  `json:"args,omitempty"`
	Value     *int64  `json:"value,omitempty"`
	Result    *Type   `json:"result,omitempty"`
	Params    []Type  `json:"params,omitempty"`
	Variadic  bool    `json:"variadic,omitempty"`
}

type Member struct {
	Name   string `json:"name"`
	Type   Type   `json:"type"`
	Access string `json:"access"`
	Static bool   `json:"static,omitempty"`
	Line   int    `json:"line"`
}

type Param struct {
	Name string `json:"name,omitempty"`
	Type Type   `json:"type"`
}

type Method struct {
	Name        string  `json:"name"`
	Result      *Type   `json:"result,omitempty"`
	Params      []Param `json:"params"`
	Variadic    bool    `json:"variadic,omitempty"`
	Access      string  `json:"access"`
	Const       bool    `json:"const,omitempty"`
	Virtual     bool    `json:"virtual,omitempty"`
	PureVirtual bool    `json:"pure_virtual,omitempty"`
	Static      bool    `json:"static,omitempty"`
	Line        int     `json:"line"`
}

type Class struct {
	Name         string   `json:"name"`
	Struct       bool     `json:"struct,omitempty"`
	Final        bool     `json:"final,omitempty"`
	Base         *Type    `json:"base,omitempty"`
	Members      []Member `json:"members"`
	Constructors []Method `json:"constructors,omitempty"`
	Destructor   *Method  `json:"destructor,omitempty"`
	Methods      []Method `json:"methods"`
	Line         int      `json:"line"`
}

type Enumerator struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type Enum struct {
	Name        string       `json:"name"`
	Scoped      bool         `json:"scoped,omitempty"`
	Underlying  Type         `json:"underlying"`
	Enumerators []Enumerator `json:"enumerators"`
	Line        int          `json:"line"`
}

type Alias struct {
	Name   string `json:"name"`
	Target Type   `json:"target"`
	Using  bool   `json:"using,omitempty"`
	Line   int    `json:"line"`
}

type Function struct {
	Name     string  `json:"name"`
	Result   Type    `json:"result"`
	Params   []Param `json:"params"`
	Variadic bool    `json:"variadic,omitempty"`
	Static   bool    `json:"static,omitempty"`
	Line     int     `json:"line"`
}

// File is the JSON form of one resolved translation unit.
type File struct {
	Path      string     `json:"path"`
	Classes   []Class    `json:"classes"`
	Enums     []Enum     `json:"enums"`
	Aliases   []Alias    `json:"aliases"`
	Functions []Function `json:"functions"`
}

// Summary holds aggregate information about the run
type Summary struct {
	Files       int `json:"files"`
	Classes     int `json:"classes"`
	Enums       int `json:"enums"`
	Aliases     int `json:"aliases"`
	Functions   int `json:"functions"`
	Warnings    int `json:"warnings"`
	Diagnostics int `json:"diagnostics"`
}

func (r *Reporter) reportJSON(models []*model.Model, diags []analyzer.Diagnostic) error {
	output := struct {
		Files       []File                `json:"files"`
		Diagnostics []analyzer.Diagnostic `json:"diagnostics"`
		Summary     Summary               `json:"summary"`
	}{
		Files:       make([]File, 0, len(models)),
		Diagnostics: diags,
		Summary: Summary{
			Files:       len(models),
			Warnings:    countBySeverity(diags, "warning"),
			Diagnostics: len(diags),
		},
	}
	for _, m := range models {
		f := NewFile(m)
		output.Summary.Classes += len(f.Classes)
		output.Summary.Enums += len(f.Enums)
		output.Summary.Aliases += len(f.Aliases)
		output.Summary.Functions += len(f.Functions)
		output.Files = append(output.Files, f)
	}
	if output.Diagnostics == nil {
		output.Diagnostics = []analyzer.Diagnostic{}
	}

	encoder := json.NewEncoder(r.output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// NewFile converts a model into its JSON form.
func NewFile(m *model.Model) File {
	f := File{
		Path:      m.File(),
		Classes:   []Class{},
		Enums:     []Enum{},
		Aliases:   []Alias{},
		Functions: []Function{},
	}
	for c := range m.Classes() {
		f.Classes = append(f.Classes, newClass(c))
	}
	for e := range m.Enums() {
		je := Enum{
			Name:        e.QualifiedName(),
			Scoped:      e.Scoped(),
			Underlying:  newType(e.Underlying()),
			Enumerators: []Enumerator{},
			Line:        e.Pos().Line,
		}
		for _, en := range e.Enumerators() {
			je.Enumerators = append(je.Enumerators, Enumerator{Name: en.Name, Value: en.Value})
		}
		f.Enums = append(f.Enums, je)
	}
	for a := range m.Aliases() {
		f.Aliases = append(f.Aliases, Alias{
			Name:   a.QualifiedName(),
			Target: newType(a.Target()),
			Using:  a.IsUsing(),
			Line:   a.Pos().Line,
		})
	}
	for fn := range m.Functions() {
		f.Functions = append(f.Functions, Function{
			Name:     fn.QualifiedName(),
			Result:   newType(fn.Result()),
			Params:   newParams(fn.Params()),
			Variadic: fn.Variadic(),
			Static:   fn.IsStatic(),
			Line:     fn.Pos().Line,
		})
	}
	return f
}

func newClass(c *model.Class) Class {
	jc := Class{
		Name:    c.QualifiedName(),
		Struct:  c.IsStruct(),
		Final:   c.IsFinal(),
		Members: []Member{},
		Methods: []Method{},
		Line:    c.Pos().Line,
	}
	if b, ok := c.Base(); ok {
		t := newType(b.Type)
		jc.Base = &t
	}
	for _, m := range c.Members() {
		jc.Members = append(jc.Members, Member{
			Name:   m.Name,
			Type:   newType(m.Type),
			Access: m.Access.String(),
			Static: m.Static,
			Line:   m.Pos.Line,
		})
	}
	for _, m := range c.Constructors() {
		jc.Constructors = append(jc.Constructors, newMethod(m))
	}
	if d, ok := c.Destructor(); ok {
		jd := newMethod(d)
		jc.Destructor = &jd
	}
	for _, m := range c.Methods() {
		jc.Methods = append(jc.Methods, newMethod(m))
	}
	return jc
}

func newMethod(m model.Method) Method {
	jm := Method{
		Name:        m.Name,
		Params:      newParams(m.Params),
		Variadic:    m.Variadic,
		Access:      m.Access.String(),
		Const:       m.Const,
		Virtual:     m.Virtual,
		PureVirtual: m.PureVirtual,
		Static:      m.Static,
		Line:        m.Pos.Line,
	}
	if m.Result.Kind() != model.KindInvalid {
		t := newType(m.Result)
		jm.Result = &t
	}
	return jm
}

func newParams(ps []model.Param) []Param {
	out := make([]Param, 0, len(ps))
	for _, p := range ps {
		out = append(out, Param{Name: p.Name, Type: newType(p.Type)})
	}
	return out
}

func newType(t model.TypeRef) Type {
	q := t.Qualifiers()
	jt := Type{
		Kind:     t.Kind().String(),
		Name:     t.QualifiedName(),
		Alias:    t.Alias(),
		External: t.IsExternal(),
		Const:    q.Const,
		Volatile: q.Volatile,
		Pointers: q.Pointers,
		Extents:  t.Extents(),
	}
	switch q.Ref {
	case model.LValueRef:
		jt.Reference = "lvalue"
	case model.RValueRef:
		jt.Reference = "rvalue"
	}
	if p, ok := t.Primitive(); ok {
		jt.Bits = p.Bits
		jt.Signed = p.Signed
	}
	for _, a := range t.Args() {
		if a.IsValue {
			v := a.Value
			jt.Args = append(jt.Args, Type{Kind: "value", Value: &v})
			continue
		}
		jt.Args = append(jt.Args, newType(a.Type))
	}
	if t.Kind() == model.KindFunction {
		res := newType(t.Result())
		jt.Result = &res
		for _, p := range t.Params() {
			jt.Params = append(jt.Params, newType(p))
		}
		jt.Variadic = t.Variadic()
	}
	return jt
}
