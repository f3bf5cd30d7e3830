package query

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// maxSkip bounds computed offsets so page arithmetic cannot overflow.
const maxSkip = math.MaxInt32

// resolveProjection builds the exclusion list. The version field is always
// excluded.
func (c *Compiler) resolveProjection(v Value) Projection {
	out := Projection{}
	add := func(s string) {
		field := strings.TrimPrefix(strings.TrimSpace(s), "-")
		if field == "" || field == c.versionField {
			return
		}
		out = append(out, "-"+field)
	}

	switch v.Kind {
	case KindString:
		add(v.Str)
	case KindArray:
		for _, item := range v.List {
			if s, ok := item.AsString(); ok {
				add(s)
			}
		}
	}
	return append(out, "-"+c.versionField)
}

// resolveSort applies the default sort and appends the tiebreaker when a
// single key is given, using the same direction. A sort on the tiebreaker
// alone stays a single key, since it is already unique and an object cannot
// repeat it.
func (c *Compiler) resolveSort(sort Sort) Sort {
	if len(sort) == 0 {
		sort = Sort{{Field: c.defaultSort, Direction: -1}}
	}
	if len(sort) == 1 && sort[0].Field != c.tiebreaker {
		dir := 1
		if sort[0].Direction < 0 {
			dir = -1
		}
		sort = append(sort, SortKey{Field: c.tiebreaker, Direction: dir})
	}
	return sort
}

// parseSort accepts "a -b", "a,-b", ["a","-b"] or {a: "1", b: "desc"}.
func parseSort(v Value) Sort {
	var sort Sort
	add := func(field string, dir int) {
		if field == "" {
			return
		}
		for i := range sort {
			if sort[i].Field == field {
				sort[i].Direction = dir
				return
			}
		}
		sort = append(sort, SortKey{Field: field, Direction: dir})
	}
	addTokens := func(s string) {
		for _, token := range strings.FieldsFunc(s, isSortSeparator) {
			switch {
			case strings.HasPrefix(token, "-"):
				add(token[1:], -1)
			case strings.HasPrefix(token, "+"):
				add(token[1:], 1)
			default:
				add(token, 1)
			}
		}
	}

	switch v.Kind {
	case KindString:
		addTokens(v.Str)
	case KindArray:
		for _, item := range v.List {
			if s, ok := item.AsString(); ok {
				addTokens(s)
			}
		}
	case KindMap:
		for _, p := range v.Map.Pairs() {
			add(strings.TrimSpace(p.Key), parseDirection(p.Value))
		}
	}
	return sort
}

func isSortSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\t' || r == '\n'
}

func parseDirection(v Value) int {
	s, ok := v.AsString()
	if !ok {
		return 1
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return -1
	case "asc", "ascending":
		return 1
	}
	if n, ok := numeric(v); ok && n < 0 {
		return -1
	}
	return 1
}

// resolvePagination computes limit and skip. Limits below 1 fall back to the
// default, limits above the maximum are clamped. An explicit skip wins over
// the page number.
func (c *Compiler) resolvePagination(limitV, pageV, skipV Value) (int, int) {
	limit := float64(c.defaultLimit)
	if n, ok := numeric(limitV); ok && n != 0 {
		limit = n
	}
	if limit < 1 {
		limit = float64(c.defaultLimit)
	}
	if limit > float64(c.maxLimit) {
		limit = float64(c.maxLimit)
	}
	lim := int(limit)

	page := 1.0
	if n, ok := numeric(pageV); ok && n != 0 {
		page = math.Trunc(n)
	}
	if page < 1 {
		page = 1
	}

	skip := (page - 1) * float64(lim)
	if n, ok := numeric(skipV); ok {
		skip = math.Trunc(n)
	}
	if skip < 0 {
		skip = 0
	}
	if skip > maxSkip {
		skip = maxSkip
	}
	return lim, int(skip)
}

// numeric parses a scalar as a finite number.
func numeric(v Value) (float64, bool) {
	s, ok := v.AsString()
	if !ok {
		return 0, false
	}
	n, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func parseFlag(v Value) bool {
	s, ok := v.AsString()
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return b
}

func parseCount(v Value) int64 {
	n, ok := numeric(v)
	if !ok || n < 0 {
		return 0
	}
	if n > math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(n)
}
