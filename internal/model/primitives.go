package model

import "strings"

// Primitive describes a fundamental type. Bits is 0 for void.
type Primitive struct {
	Name   string
	Bits   int
	Signed bool
	Float  bool
}

// IsIntegral reports whether the type may underlie an enum.
func (p Primitive) IsIntegral() bool {
	return !p.Float && p.Name != "void" && p.Name != ""
}

// Range returns the smallest and largest value representable by an integral
// primitive, clamped to int64.
func (p Primitive) Range() (lo, hi int64) {
	switch {
	case p.Name == "bool":
		return 0, 1
	case p.Bits >= 64 && p.Signed:
		return -1 << 63, 1<<63 - 1
	case p.Bits >= 64:
		return 0, 1<<63 - 1
	case p.Signed:
		return -1 << (p.Bits - 1), 1<<(p.Bits-1) - 1
	}
	return 0, 1<<p.Bits - 1
}

// Fundamental types spelled with keywords. The parser folds multi-keyword
// spellings ("long int unsigned") into these canonical names. The data model
// is LP64.
var primitives = map[string]Primitive{
	"void":               {Name: "void"},
	"bool":               {Name: "bool", Bits: 8},
	"char":               {Name: "char", Bits: 8, Signed: true},
	"signed char":        {Name: "signed char", Bits: 8, Signed: true},
	"unsigned char":      {Name: "unsigned char", Bits: 8},
	"wchar_t":            {Name: "wchar_t", Bits: 32, Signed: true},
	"char8_t":            {Name: "char8_t", Bits: 8},
	"char16_t":           {Name: "char16_t", Bits: 16},
	"char32_t":           {Name: "char32_t", Bits: 32},
	"short":              {Name: "short", Bits: 16, Signed: true},
	"unsigned short":     {Name: "unsigned short", Bits: 16},
	"int":                {Name: "int", Bits: 32, Signed: true},
	"unsigned int":       {Name: "unsigned int", Bits: 32},
	"long":               {Name: "long", Bits: 64, Signed: true},
	"unsigned long":      {Name: "unsigned long", Bits: 64},
	"long long":          {Name: "long long", Bits: 64, Signed: true},
	"unsigned long long": {Name: "unsigned long long", Bits: 64},
	"float":              {Name: "float", Bits: 32, Signed: true, Float: true},
	"double":             {Name: "double", Bits: 64, Signed: true, Float: true},
	"long double":        {Name: "long double", Bits: 128, Signed: true, Float: true},
}

// Aliases from <cstdint> and <cstddef>, valid with or without std::.
var fixedWidth = map[string]Primitive{
	"int8_t":    {Name: "int8_t", Bits: 8, Signed: true},
	"int16_t":   {Name: "int16_t", Bits: 16, Signed: true},
	"int32_t":   {Name: "int32_t", Bits: 32, Signed: true},
	"int64_t":   {Name: "int64_t", Bits: 64, Signed: true},
	"uint8_t":   {Name: "uint8_t", Bits: 8},
	"uint16_t":  {Name: "uint16_t", Bits: 16},
	"uint32_t":  {Name: "uint32_t", Bits: 32},
	"uint64_t":  {Name: "uint64_t", Bits: 64},
	"intptr_t":  {Name: "intptr_t", Bits: 64, Signed: true},
	"uintptr_t": {Name: "uintptr_t", Bits: 64},
	"intmax_t":  {Name: "intmax_t", Bits: 64, Signed: true},
	"uintmax_t": {Name: "uintmax_t", Bits: 64},
	"size_t":    {Name: "size_t", Bits: 64},
	"ptrdiff_t": {Name: "ptrdiff_t", Bits: 64, Signed: true},
}

// LookupPrimitive finds a fundamental type or fixed-width alias by name,
// accepting an optional std:: prefix on the latter.
func LookupPrimitive(name string) (Primitive, bool) {
	if p, ok := primitives[name]; ok {
		return p, true
	}
	p, ok := fixedWidth[stdName(name)]
	return p, ok
}

// stdName strips a leading std:: or ::std:: and returns the rest; names in
// other namespaces come back unchanged.
func stdName(name string) string {
	name = strings.TrimPrefix(name, "::")
	return strings.TrimPrefix(name, "std::")
}

func isStd(name string) bool {
	return strings.HasPrefix(strings.TrimPrefix(name, "::"), "std::")
}

// templateShape is the structural contract of a whitelisted std template.
type templateShape struct {
	min, max int  // argument count bounds, max < 0 for variadic
	valueAt  int  // index of an integral argument, -1 for none
	callable bool // the single argument must be a function type
}

var stdTemplates = map[string]templateShape{
	"shared_ptr":    {min: 1, max: 1, valueAt: -1},
	"weak_ptr":      {min: 1, max: 1, valueAt: -1},
	"unique_ptr":    {min: 1, max: 2, valueAt: -1},
	"optional":      {min: 1, max: 1, valueAt: -1},
	"vector":        {min: 1, max: 2, valueAt: -1},
	"list":          {min: 1, max: 2, valueAt: -1},
	"deque":         {min: 1, max: 2, valueAt: -1},
	"set":           {min: 1, max: 3, valueAt: -1},
	"unordered_set": {min: 1, max: 4, valueAt: -1},
	"map":           {min: 2, max: 4, valueAt: -1},
	"unordered_map": {min: 2, max: 5, valueAt: -1},
	"pair":          {min: 2, max: 2, valueAt: -1},
	"tuple":         {min: 0, max: -1, valueAt: -1},
	"variant":       {min: 1, max: -1, valueAt: -1},
	"array":         {min: 2, max: 2, valueAt: 1},
	"function":      {min: 1, max: 1, valueAt: -1, callable: true},
}

// Standard library classes treated as opaque external records.
var stdRecords = map[string]bool{
	"string":      true,
	"wstring":     true,
	"u16string":   true,
	"u32string":   true,
	"string_view": true,
	"nullptr_t":   true,
	"byte":        true,
}
