package collection

// Op is a comparison operator a backing store's filter evaluator must
// support. Names follow spec.md §6's filter builder surface.
type Op string

const (
	OpEqual          Op = "equal"
	OpNotEqual       Op = "notEqual"
	OpContainsAny    Op = "containsAny"
	OpGreaterOrEqual Op = "greaterOrEqual"
	OpLessOrEqual    Op = "lessOrEqual"
	OpLessThanOrEq   Op = "lessThanOrEqual"
	OpIsNull         Op = "isNull"
)

// Combine is the boolean combinator for composite filters.
type Combine string

const (
	CombineAnd Combine = "and"
	CombineOr  Combine = "or"
)

// Filter is a node in a filter expression tree: either a leaf predicate on a
// single property, or a combinator over child filters. A nil Filter matches
// everything.
type Filter struct {
	// Leaf fields.
	Property string
	Op       Op
	Value    any

	// Combinator fields.
	Combine  Combine
	Children []Filter
}

// IsZero reports whether f carries no predicate (used to mean "no filter").
func (f Filter) IsZero() bool {
	return f.Property == "" && f.Combine == ""
}

// propertyFilter is the fluent handle returned by ByProperty, mirroring
// `filter.byProperty(name).equal(v)` from spec.md §6.
type propertyFilter struct {
	name string
}

// ByProperty starts a leaf-filter builder scoped to the named property.
func ByProperty(name string) propertyFilter {
	return propertyFilter{name: name}
}

func (p propertyFilter) Equal(v any) Filter { return Filter{Property: p.name, Op: OpEqual, Value: v} }
func (p propertyFilter) NotEqual(v any) Filter {
	return Filter{Property: p.name, Op: OpNotEqual, Value: v}
}
func (p propertyFilter) ContainsAny(v any) Filter {
	return Filter{Property: p.name, Op: OpContainsAny, Value: v}
}
func (p propertyFilter) GreaterOrEqual(v any) Filter {
	return Filter{Property: p.name, Op: OpGreaterOrEqual, Value: v}
}
func (p propertyFilter) LessOrEqual(v any) Filter {
	return Filter{Property: p.name, Op: OpLessOrEqual, Value: v}
}
func (p propertyFilter) LessThanOrEqual(v any) Filter {
	return Filter{Property: p.name, Op: OpLessThanOrEq, Value: v}
}
func (p propertyFilter) IsNull(v bool) Filter {
	return Filter{Property: p.name, Op: OpIsNull, Value: v}
}

// And combines filters with AND semantics, dropping zero-value members.
func And(filters ...Filter) Filter {
	return combine(CombineAnd, filters)
}

// Or combines filters with OR semantics, dropping zero-value members.
func Or(filters ...Filter) Filter {
	return combine(CombineOr, filters)
}

func combine(c Combine, filters []Filter) Filter {
	kept := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if !f.IsZero() {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return Filter{}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return Filter{Combine: c, Children: kept}
}
