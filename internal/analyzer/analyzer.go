package analyzer

import (
	"fmt"

	"riggen/internal/model"
)

// Diagnostic is a warning about a declaration that resolved cleanly but is
// likely a mistake.
type Diagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Entity   string `json:"entity"`
	Name     string `json:"name,omitempty"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// Analyzer inspects resolved models for suspicious declarations
type Analyzer struct {
	models []*model.Model
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AddModel queues a resolved model for analysis
func (a *Analyzer) AddModel(m *model.Model) {
	a.models = append(a.models, m)
}

// Analyze runs every check over the queued models
func (a *Analyzer) Analyze() []Diagnostic {
	var diags []Diagnostic
	for _, m := range a.models {
		for class := range m.Classes() {
			diags = append(diags, analyzeClass(m.File(), class)...)
		}
		for enum := range m.Enums() {
			diags = append(diags, analyzeEnum(m.File(), enum)...)
		}
	}
	return diags
}

func analyzeClass(file string, class *model.Class) []Diagnostic {
	var diags []Diagnostic
	at := func(line, col int, name, severity, format string, args ...any) {
		diags = append(diags, Diagnostic{
			File:     file,
			Line:     line,
			Column:   col,
			Entity:   class.QualifiedName(),
			Name:     name,
			Reason:   fmt.Sprintf(format, args...),
			Severity: severity,
		})
	}
	pos := class.Pos()
	dtor, hasDtor := class.Destructor()

	// Rule 1: polymorphic class deleted through a base pointer needs a
	// virtual destructor
	if class.IsPolymorphic() && !(hasDtor && dtor.Virtual) && !inheritsVirtualDestructor(class) {
		at(pos.Line, pos.Column, "", "warning", "polymorphic class has a non-virtual destructor")
	}

	// Rule 2: a method with the name of a non-virtual base method hides it
	if base := class.BaseClass(); base != nil {
		for _, m := range class.Methods() {
			if m.Virtual {
				continue
			}
			for b := base; b != nil; b = b.BaseClass() {
				if hidden := b.MethodsNamed(m.Name); len(hidden) > 0 && !hidden[0].Virtual {
					at(m.Pos.Line, m.Pos.Column, m.Name, "warning", "hides non-virtual method of %s", b.QualifiedName())
					break
				}
			}
		}
	}

	// Rule 3: raw pointer members with no destructor to release them
	if !hasDtor {
		for _, member := range class.Members() {
			q := member.Type.Qualifiers()
			if q.Pointers > 0 && !member.Static && member.Type.Kind() != model.KindFunction {
				at(member.Pos.Line, member.Pos.Column, member.Name, "info", "raw pointer member but class declares no destructor")
			}
		}
	}

	// Rule 4: abstract class with a public constructor
	if class.IsAbstract() {
		for _, ctor := range class.Constructors() {
			if ctor.Access == model.Public {
				at(ctor.Pos.Line, ctor.Pos.Column, ctor.Name, "info", "abstract class has a public constructor")
			}
		}
	}
	return diags
}

func inheritsVirtualDestructor(class *model.Class) bool {
	for b := class.BaseClass(); b != nil; b = b.BaseClass() {
		if d, ok := b.Destructor(); ok && d.Virtual {
			return true
		}
	}
	return false
}

func analyzeEnum(file string, enum *model.Enum) []Diagnostic {
	var diags []Diagnostic
	first := make(map[int64]string)
	for _, e := range enum.Enumerators() {
		if prev, dup := first[e.Value]; dup {
			diags = append(diags, Diagnostic{
				File:     file,
				Line:     e.Pos.Line,
				Column:   e.Pos.Column,
				Entity:   enum.QualifiedName(),
				Name:     e.Name,
				Reason:   fmt.Sprintf("duplicates the value %d of %s", e.Value, prev),
				Severity: "info",
			})
			continue
		}
		first[e.Value] = e.Name
	}
	return diags
}

// AnalyzeModel is a convenience function to analyze a single model
func AnalyzeModel(m *model.Model) []Diagnostic {
	analyzer := NewAnalyzer()
	analyzer.AddModel(m)
	return analyzer.Analyze()
}
