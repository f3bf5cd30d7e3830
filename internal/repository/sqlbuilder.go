package repository

import (
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/restquery/internal/domain"
	"github.com/rpattn/restquery/internal/query"
)

type columnKind uint8

const (
	columnText columnKind = iota
	columnTime
	columnInt
)

type systemColumn struct {
	expr string
	kind columnKind
}

// systemColumns maps client field names onto real columns.
var systemColumns = map[string]systemColumn{
	domain.FieldID:        {expr: "id::text", kind: columnText},
	domain.FieldCreatedAt: {expr: "created_at", kind: columnTime},
	domain.FieldUpdatedAt: {expr: "updated_at", kind: columnTime},
	domain.FieldVersion:   {expr: "version", kind: columnInt},
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// sqlBuilder accumulates positional arguments while rendering SQL fragments.
// Field names and operands are always bound as arguments.
type sqlBuilder struct {
	args    []any
	ignored []string
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func fieldPath(field string) []string {
	return strings.Split(field, ".")
}

// jsonExpr and textExpr address a body field, which may be a dotted path.
func (b *sqlBuilder) jsonExpr(field string) string {
	return "(body #> " + b.arg(fieldPath(field)) + "::text[])"
}

func (b *sqlBuilder) textExpr(field string) string {
	return "(body #>> " + b.arg(fieldPath(field)) + "::text[])"
}

func buildFindQuery(resource string, q query.Result) (string, []any, []string) {
	b := &sqlBuilder{}
	var sb strings.Builder

	resourceArg := b.arg(resource)
	sb.WriteString("SELECT id, ")
	sb.WriteString(b.projectBody(q.Projection))
	sb.WriteString(" AS body, version, created_at, updated_at FROM documents WHERE resource = ")
	sb.WriteString(resourceArg)
	sb.WriteString(" AND ")
	sb.WriteString(b.filter(q.Filter))
	sb.WriteString(" ORDER BY ")
	sb.WriteString(b.orderBy(q.Options.Sort))
	sb.WriteString(" LIMIT ")
	sb.WriteString(b.arg(q.Options.Limit))
	sb.WriteString(" OFFSET ")
	sb.WriteString(b.arg(q.Options.Skip))

	return sb.String(), b.args, b.ignored
}

func buildCountQuery(resource string, filter query.Filter) (string, []any, []string) {
	b := &sqlBuilder{}
	resourceArg := b.arg(resource)
	where := b.filter(filter)
	return "SELECT count(*) FROM documents WHERE resource = " + resourceArg + " AND " + where, b.args, b.ignored
}

func (b *sqlBuilder) projectBody(p query.Projection) string {
	expr := "body"
	var topLevel []string
	for _, field := range p.Excluded() {
		if _, ok := systemColumns[field]; ok {
			continue
		}
		if strings.Contains(field, ".") {
			expr = "(" + expr + " #- " + b.arg(fieldPath(field)) + "::text[])"
			continue
		}
		topLevel = append(topLevel, field)
	}
	if len(topLevel) > 0 {
		expr = "(" + expr + " - " + b.arg(topLevel) + "::text[])"
	}
	return expr
}

// hiddenSystemFields lists system fields a projection removes.
func hiddenSystemFields(p query.Projection) []string {
	var hidden []string
	for _, field := range p.Excluded() {
		if _, ok := systemColumns[field]; ok {
			hidden = append(hidden, field)
		}
	}
	return hidden
}

func (b *sqlBuilder) orderBy(sort query.Sort) string {
	if len(sort) == 0 {
		return "created_at DESC, id DESC"
	}
	parts := make([]string, 0, len(sort))
	for _, key := range sort {
		expr := ""
		if col, ok := systemColumns[key.Field]; ok {
			expr = col.expr
			if key.Field == domain.FieldID {
				expr = "id"
			}
		} else {
			expr = b.jsonExpr(key.Field)
		}
		if key.Direction < 0 {
			parts = append(parts, expr+" DESC NULLS LAST")
		} else {
			parts = append(parts, expr+" ASC NULLS FIRST")
		}
	}
	return strings.Join(parts, ", ")
}

// filter renders a compiled filter as a conjunction.
func (b *sqlBuilder) filter(f query.Filter) string {
	parts := make([]string, 0, len(f))
	for _, ff := range f {
		if sql := b.entry(ff.Field, ff.Conditions, ff.Raw); sql != "" {
			parts = append(parts, sql)
		}
	}
	return conjunction(parts)
}

func conjunction(parts []string) string {
	switch len(parts) {
	case 0:
		return "TRUE"
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " AND ") + ")"
	}
}

func (b *sqlBuilder) entry(field string, conds []query.Condition, raw query.Value) string {
	switch field {
	case query.KeyText:
		return b.textSearch(raw)
	case query.LogicalAnd, query.LogicalOr, query.LogicalNor:
		return b.logical(field, raw)
	}

	var parts []string
	for _, cond := range conds {
		for _, cl := range cond {
			if sql := b.clause(field, cl); sql != "" {
				parts = append(parts, sql)
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return conjunction(parts)
}

func (b *sqlBuilder) logical(op string, raw query.Value) string {
	branches, _ := raw.AsArray()
	parts := make([]string, 0, len(branches))
	for _, branch := range branches {
		m, ok := branch.AsMap()
		if !ok {
			continue
		}
		parts = append(parts, b.filter(filterFromValue(m)))
	}
	if len(parts) == 0 {
		return ""
	}
	switch op {
	case query.LogicalOr:
		return "(" + strings.Join(parts, " OR ") + ")"
	case query.LogicalNor:
		return "NOT (" + strings.Join(parts, " OR ") + ")"
	default:
		return conjunction(parts)
	}
}

// filterFromValue rebuilds a Filter from the Value form carried by logical
// combinators.
func filterFromValue(m *query.Map) query.Filter {
	var f query.Filter
	for _, p := range m.Pairs() {
		ff := query.FieldFilter{Field: p.Key}
		switch {
		case p.Key == query.KeyText || p.Key == query.LogicalAnd || p.Key == query.LogicalOr || p.Key == query.LogicalNor:
			ff.Raw = p.Value
		case p.Value.Kind == query.KindMap:
			ff.Conditions = []query.Condition{conditionFromMap(p.Value.Map)}
		case p.Value.Kind == query.KindArray:
			for _, item := range p.Value.List {
				if cm, ok := item.AsMap(); ok {
					ff.Conditions = append(ff.Conditions, conditionFromMap(cm))
				}
			}
		default:
			continue
		}
		f = append(f, ff)
	}
	return f
}

func conditionFromMap(m *query.Map) query.Condition {
	cond := make(query.Condition, 0, m.Len())
	for _, p := range m.Pairs() {
		cond = append(cond, query.Clause{Op: p.Key, Operand: p.Value})
	}
	return cond
}

func (b *sqlBuilder) textSearch(raw query.Value) string {
	m, ok := raw.AsMap()
	if !ok {
		return ""
	}
	term, _ := m.Get("$search")
	s, ok := term.AsString()
	if !ok || strings.TrimSpace(s) == "" {
		return ""
	}
	caseSensitive := false
	if cs, ok := m.Get("$caseSensitive"); ok {
		caseSensitive = cs.Str == "true"
	}
	if caseSensitive {
		return "strpos(body::text, " + b.arg(s) + ") > 0"
	}
	return "strpos(lower(body::text), lower(" + b.arg(s) + ")) > 0"
}

func (b *sqlBuilder) clause(field string, cl query.Clause) string {
	switch cl.Op {
	case query.OpEq, query.OpNe, query.OpGt, query.OpGte, query.OpLt, query.OpLte:
		s, ok := cl.Operand.AsString()
		if !ok {
			b.ignored = append(b.ignored, field+"."+cl.Op)
			return ""
		}
		return b.compare(field, cl.Op, s)
	case query.OpIn:
		return b.membership(field, cl.Operand)
	case query.OpNin:
		return "NOT " + b.membership(field, cl.Operand)
	case query.OpText:
		s, ok := cl.Operand.AsString()
		if !ok {
			b.ignored = append(b.ignored, field+"."+cl.Op)
			return ""
		}
		return "strpos(lower(" + b.fieldText(field) + "), lower(" + b.arg(s) + ")) > 0"
	default:
		b.ignored = append(b.ignored, field+"."+cl.Op)
		return ""
	}
}

var sqlOperators = map[string]string{
	query.OpEq:  "=",
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

func (b *sqlBuilder) compare(field, op, operand string) string {
	if col, ok := systemColumns[field]; ok {
		value, ok := convertOperand(col.kind, operand)
		if !ok {
			if op == query.OpNe {
				return "TRUE"
			}
			return "FALSE"
		}
		if op == query.OpNe {
			return col.expr + " IS DISTINCT FROM " + b.arg(value)
		}
		return col.expr + " " + sqlOperators[op] + " " + b.arg(value)
	}

	switch op {
	case query.OpEq:
		return b.textExpr(field) + " = " + b.arg(operand)
	case query.OpNe:
		return b.textExpr(field) + " IS DISTINCT FROM " + b.arg(operand)
	}
	if n, err := strconv.ParseFloat(operand, 64); err == nil {
		path := b.arg(fieldPath(field))
		return "(CASE WHEN jsonb_typeof(body #> " + path + "::text[]) = 'number' THEN (body #>> " + path +
			"::text[])::numeric " + sqlOperators[op] + " " + b.arg(n) + " ELSE FALSE END)"
	}
	return b.textExpr(field) + " " + sqlOperators[op] + " " + b.arg(operand)
}

// membership matches when any element of the field (or the field itself when
// it is a scalar) equals a literal or matches a pattern.
func (b *sqlBuilder) membership(field string, operand query.Value) string {
	items, _ := operand.AsArray()

	var elem string
	if _, ok := systemColumns[field]; ok {
		elem = b.fieldText(field)
	} else {
		elem = "e.v"
	}

	var alts []string
	for _, item := range items {
		switch item.Kind {
		case query.KindPattern:
			alts = append(alts, elem+" ~* "+b.arg(item.Pattern.Source))
		case query.KindString:
			alts = append(alts, elem+" = "+b.arg(item.Str))
		}
	}
	if len(alts) == 0 {
		return "FALSE"
	}
	match := "(" + strings.Join(alts, " OR ") + ")"

	if _, ok := systemColumns[field]; ok {
		return match
	}
	path := b.arg(fieldPath(field))
	return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(CASE jsonb_typeof(body #> " + path +
		"::text[]) WHEN 'array' THEN body #> " + path + "::text[] ELSE jsonb_build_array(body #> " + path +
		"::text[]) END) AS e(v) WHERE " + match + ")"
}

func (b *sqlBuilder) fieldText(field string) string {
	if col, ok := systemColumns[field]; ok {
		if col.kind == columnText {
			return col.expr
		}
		return col.expr + "::text"
	}
	return b.textExpr(field)
}

func convertOperand(kind columnKind, s string) (any, bool) {
	s = strings.TrimSpace(s)
	switch kind {
	case columnTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return nil, false
	case columnInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	default:
		return s, true
	}
}
