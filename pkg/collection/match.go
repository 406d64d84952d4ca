package collection

import "fmt"

// Match evaluates a Filter tree against a property bag. It is provided here
// so every in-process Collection implementation (internal/memstore and
// internal/store's pure-Go fallback paths) shares one evaluator instead of
// reinventing filter semantics.
func Match(f Filter, props Properties) bool {
	if f.IsZero() {
		return true
	}
	if f.Combine != "" {
		switch f.Combine {
		case CombineAnd:
			for _, c := range f.Children {
				if !Match(c, props) {
					return false
				}
			}
			return true
		case CombineOr:
			for _, c := range f.Children {
				if Match(c, props) {
					return true
				}
			}
			return false
		}
		return false
	}

	v := props[f.Property]
	switch f.Op {
	case OpEqual:
		return fmt.Sprint(v) == fmt.Sprint(f.Value)
	case OpNotEqual:
		return fmt.Sprint(v) != fmt.Sprint(f.Value)
	case OpIsNull:
		wantNull, _ := f.Value.(bool)
		isNull := v == nil
		return isNull == wantNull
	case OpGreaterOrEqual:
		return toFloat(v) >= toFloat(f.Value)
	case OpLessOrEqual:
		return toFloat(v) <= toFloat(f.Value)
	case OpLessThanOrEq:
		return toFloat(v) <= toFloat(f.Value)
	case OpContainsAny:
		return containsAny(v, f.Value)
	default:
		return false
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func containsAny(haystack any, needle any) bool {
	items, ok := toStringSlice(haystack)
	if !ok {
		return false
	}
	wanted, ok := toStringSlice(needle)
	if !ok {
		wanted = []string{fmt.Sprint(needle)}
	}
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	for _, w := range wanted {
		if set[w] {
			return true
		}
	}
	return false
}

func toStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, fmt.Sprint(e))
		}
		return out, true
	default:
		return nil, false
	}
}
