package query

import (
	"regexp"
	"strings"
)

// Logical combinators whose operand is a list of nested field maps.
const (
	LogicalAnd = "$and"
	LogicalOr  = "$or"
	LogicalNor = "$nor"
)

func isLogical(key string) bool {
	return key == LogicalAnd || key == LogicalOr || key == LogicalNor
}

// rewrite compiles the filterable fields. Repeated fields accumulate their
// conditions instead of replacing earlier ones.
func (c *Compiler) rewrite(fields []Pair) Filter {
	filter := Filter{}
	for _, p := range fields {
		switch {
		case p.Key == KeyText:
			if _, ok := p.Value.AsMap(); !ok {
				continue
			}
			if i := filter.index(KeyText); i >= 0 {
				filter[i].Raw = p.Value
				continue
			}
			filter = append(filter, FieldFilter{Field: KeyText, Raw: p.Value})

		case isLogical(p.Key):
			branches := c.rewriteBranches(p.Value)
			if len(branches) == 0 {
				continue
			}
			if i := filter.index(p.Key); i >= 0 {
				filter[i].Raw.List = append(filter[i].Raw.List, branches...)
				continue
			}
			filter = append(filter, FieldFilter{Field: p.Key, Raw: Array(branches...)})

		default:
			cond, ok := rewriteCondition(p.Value)
			if !ok {
				continue
			}
			if i := filter.index(p.Key); i >= 0 && !filter[i].Raw.IsDefined() {
				filter[i].Conditions = append(filter[i].Conditions, cond)
				continue
			}
			filter = append(filter, FieldFilter{Field: p.Key, Conditions: []Condition{cond}})
		}
	}
	return filter
}

// rewriteBranches compiles each element of a logical combinator into its own
// sub-filter. Both arrays and index-keyed maps are accepted.
func (c *Compiler) rewriteBranches(v Value) []Value {
	items, ok := listItems(v)
	if !ok {
		return nil
	}

	branches := make([]Value, 0, len(items))
	for _, item := range items {
		m, ok := item.AsMap()
		if !ok {
			continue
		}
		var fields []Pair
		for _, p := range m.Pairs() {
			if p.Value.IsDefined() && !IsReserved(p.Key) {
				fields = append(fields, p)
			}
		}
		sub := c.rewrite(fields)
		if len(sub) == 0 {
			continue
		}
		branches = append(branches, filterValue(sub))
	}
	return branches
}

// listItems returns the elements of a list operand. Index-keyed maps, as
// produced by "a[0]=x&a[1]=y", count as lists in key order.
func listItems(v Value) ([]Value, bool) {
	switch v.Kind {
	case KindArray:
		return v.List, true
	case KindMap:
		items := make([]Value, 0, v.Map.Len())
		for _, p := range v.Map.Pairs() {
			items = append(items, p.Value)
		}
		return items, true
	default:
		return nil, false
	}
}

// filterValue converts a compiled sub-filter back into a Value tree so it can
// be carried by a logical combinator.
func filterValue(f Filter) Value {
	m := NewMap()
	for _, ff := range f {
		switch {
		case ff.Raw.IsDefined():
			m.Add(ff.Field, ff.Raw)
		case len(ff.Conditions) == 1:
			m.Add(ff.Field, conditionValue(ff.Conditions[0]))
		default:
			list := make([]Value, len(ff.Conditions))
			for i, cond := range ff.Conditions {
				list[i] = conditionValue(cond)
			}
			m.Add(ff.Field, Array(list...))
		}
	}
	return Nested(m)
}

func conditionValue(cond Condition) Value {
	m := NewMap()
	for _, cl := range cond {
		m.Add(cl.Op, cl.Operand)
	}
	return Nested(m)
}

// rewriteCondition maps short operator names to their tokens and coerces the
// operands that need it. Non-object values yield no condition.
func rewriteCondition(v Value) (Condition, bool) {
	m, ok := v.AsMap()
	if !ok {
		return nil, false
	}
	cond := make(Condition, 0, m.Len())
	for _, p := range m.Pairs() {
		if !p.Value.IsDefined() {
			continue
		}
		op := OperatorToken(p.Key)
		operand := p.Value
		switch op {
		case OpIn:
			operand = coerceIn(p.Value)
		case OpNin:
			operand = coerceList(p.Value)
		}
		cond = append(cond, Clause{Op: op, Operand: operand})
	}
	if len(cond) == 0 {
		return nil, false
	}
	return cond, true
}

// coerceIn turns an $in operand into a list of case-insensitive patterns.
// Array elements are split into words so a phrase matches any of its words.
// The literals "true" and "false" are kept as-is so boolean fields still match.
func coerceIn(v Value) Value {
	if v.Kind == KindString {
		return Array(matchToken(v.Str))
	}
	items, ok := listItems(v)
	if !ok {
		return Array()
	}
	tokens := make([]Value, 0, len(items))
	for _, item := range items {
		s, ok := item.AsString()
		if !ok {
			continue
		}
		for _, word := range strings.Fields(s) {
			tokens = append(tokens, matchToken(word))
		}
	}
	return Array(tokens...)
}

func matchToken(s string) Value {
	if isBoolLiteral(s) {
		return String(s)
	}
	return CaseInsensitive(regexp.QuoteMeta(s))
}

func isBoolLiteral(s string) bool {
	return s == "true" || s == "false"
}

// coerceList wraps a scalar operand in a list.
func coerceList(v Value) Value {
	if v.Kind == KindString {
		return Array(v)
	}
	items, ok := listItems(v)
	if !ok {
		return Array()
	}
	return Array(items...)
}
