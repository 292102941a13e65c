package reporter

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"riggen/internal/analyzer"
	"riggen/internal/model"
)

// Reporter formats and outputs resolved models and diagnostics
type Reporter struct {
	output io.Writer
	json   bool
}

// NewReporter creates a new reporter
func NewReporter(output io.Writer, jsonOutput bool) *Reporter {
	return &Reporter{
		output: output,
		json:   jsonOutput,
	}
}

// Report outputs every model in order followed by the diagnostics
func (r *Reporter) Report(models []*model.Model, diags []analyzer.Diagnostic) error {
	if r.json {
		return r.reportJSON(models, diags)
	}
	return r.reportConsole(models, diags)
}

func (r *Reporter) reportConsole(models []*model.Model, diags []analyzer.Diagnostic) error {
	var classes, enums, aliases, functions int
	for _, m := range models {
		fmt.Fprintf(r.output, "%s:\n", displayName(m.File()))
		for c := range m.Classes() {
			writeClass(r.output, c)
		}
		for e := range m.Enums() {
			writeEnum(r.output, e)
		}
		for a := range m.Aliases() {
			fmt.Fprintf(r.output, "  %s %s = %s\n", aliasKeyword(a), a.QualifiedName(), a.Target())
		}
		for f := range m.Functions() {
			fmt.Fprintf(r.output, "  function %s\n", f.Signature())
		}
		classes += m.NumClasses()
		enums += m.NumEnums()
		aliases += m.NumAliases()
		functions += m.NumFunctions()
	}

	// Sort by file, then line
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		return diags[i].Line < diags[j].Line
	})

	currentFile := ""
	for _, d := range diags {
		if d.File != currentFile {
			currentFile = d.File
			fmt.Fprintf(r.output, "\n%s:\n", displayName(currentFile))
		}
		icon := "[INFO]"
		if d.Severity == "warning" {
			icon = "[WARN]"
		}
		subject := d.Entity
		if d.Name != "" {
			subject += "::" + d.Name
		}
		fmt.Fprintf(r.output, "  %s Line %d [%s]: %s\n", icon, d.Line, subject, d.Reason)
	}

	fmt.Fprintf(r.output, "\nSummary: %d file(s), %d class(es), %d enum(s), %d alias(es), %d function(s), %d warning(s)\n",
		len(models), classes, enums, aliases, functions, countBySeverity(diags, "warning"))
	return nil
}

func writeClass(w io.Writer, c *model.Class) {
	kw := "class"
	if c.IsStruct() {
		kw = "struct"
	}
	fmt.Fprintf(w, "  %s %s", kw, c.QualifiedName())
	if c.IsFinal() {
		fmt.Fprint(w, " final")
	}
	if b, ok := c.Base(); ok {
		virt := ""
		if b.Virtual {
			virt = "virtual "
		}
		fmt.Fprintf(w, " : %s%s %s", virt, b.Access, b.Type)
	}
	fmt.Fprintln(w)

	for _, m := range c.Members() {
		static := ""
		if m.Static {
			static = "static "
		}
		fmt.Fprintf(w, "    %-9s %s%s %s\n", m.Access, static, m.Type, m.Name)
	}
	for _, m := range c.Constructors() {
		fmt.Fprintf(w, "    %-9s %s\n", m.Access, m.Signature())
	}
	if d, ok := c.Destructor(); ok {
		fmt.Fprintf(w, "    %-9s %s\n", d.Access, d.Signature())
	}
	for _, m := range c.Methods() {
		fmt.Fprintf(w, "    %-9s %s\n", m.Access, m.Signature())
	}
}

func writeEnum(w io.Writer, e *model.Enum) {
	kw := "enum"
	if e.Scoped() {
		kw = "enum class"
	}
	fmt.Fprintf(w, "  %s %s : %s\n", kw, e.QualifiedName(), e.Underlying())
	for _, en := range e.Enumerators() {
		fmt.Fprintf(w, "    %s = %d\n", en.Name, en.Value)
	}
}

func aliasKeyword(a *model.Alias) string {
	if a.IsUsing() {
		return "using"
	}
	return "typedef"
}

func displayName(file string) string {
	if file == "" {
		return "<input>"
	}
	return filepath.Base(file)
}

func countBySeverity(diags []analyzer.Diagnostic, severity string) int {
	count := 0
	for _, d := range diags {
		if strings.EqualFold(d.Severity, severity) {
			count++
		}
	}
	return count
}
