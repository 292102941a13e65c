package model

import (
	"math"
	"strings"

	"riggen/internal/parser"
)

// EnumeratorValues computes the value of every enumerator in order. An
// enumerator takes its explicit initializer if it has one, otherwise the
// previous value plus one; the first defaults to 0. Initializers may refer to
// earlier enumerators of the same list.
func EnumeratorValues(entries []parser.Enumerator) ([]int64, error) {
	return enumeratorValues(entries, nil, nil)
}

// enumeratorValues is EnumeratorValues with the enclosing enum's names, so
// "Color::red" is found, and a fallback for names outside the list.
func enumeratorValues(entries []parser.Enumerator, ownNames []string, outer func(string) (int64, bool)) ([]int64, error) {
	values := make([]int64, len(entries))
	seen := make(map[string]int64, len(entries))

	lookup := func(name string) (int64, bool) {
		if v, ok := seen[name]; ok {
			return v, true
		}
		for _, own := range ownNames {
			if rest, ok := strings.CutPrefix(name, own+"::"); ok {
				v, ok := seen[rest]
				return v, ok
			}
		}
		if outer != nil {
			return outer(name)
		}
		return 0, false
	}

	for i, e := range entries {
		if _, dup := seen[e.Name]; dup {
			return nil, semanticErrorf(e.Pos, e.Name, "duplicate enumerator")
		}
		switch {
		case len(e.Value) > 0:
			v, err := parser.EvalConstExpr(e.Value, lookup)
			if err != nil {
				return nil, err
			}
			values[i] = v
		case i == 0:
			values[i] = 0
		default:
			if values[i-1] == math.MaxInt64 {
				return nil, semanticErrorf(e.Pos, e.Name, "enumerator value overflows int64")
			}
			values[i] = values[i-1] + 1
		}
		seen[e.Name] = values[i]
	}
	return values, nil
}

// checkRange verifies that every value fits the enum's underlying type.
func checkRange(entries []parser.Enumerator, values []int64, underlying Primitive) error {
	lo, hi := underlying.Range()
	for i, v := range values {
		if v < lo || v > hi {
			return semanticErrorf(entries[i].Pos, entries[i].Name,
				"value %d is outside the range of underlying type %s", v, underlying.Name)
		}
	}
	return nil
}
