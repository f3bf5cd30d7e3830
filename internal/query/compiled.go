package query

import (
	"encoding/json"
	"strconv"
)

// Clause is one operator/operand pair.
type Clause struct {
	Op      string
	Operand Value
}

// Condition is an ordered set of clauses on a single field, all of which must
// hold.
type Condition []Clause

// Operand returns the operand of the first clause using op.
func (c Condition) Operand(op string) (Value, bool) {
	for _, cl := range c {
		if cl.Op == op {
			return cl.Operand, true
		}
	}
	return Value{}, false
}

// MarshalJSON renders the condition as an object keyed by operator token.
func (c Condition) MarshalJSON() ([]byte, error) {
	m := NewMap()
	for _, cl := range c {
		m.Add(cl.Op, cl.Operand)
	}
	return m.MarshalJSON()
}

// FieldFilter holds the compiled conditions for one field. Raw is used
// instead of Conditions for payloads that bypass rewriting, such as $text.
type FieldFilter struct {
	Field      string
	Conditions []Condition
	Raw        Value
}

// Filter is the compiled predicate. Fields appear in first-seen order.
type Filter []FieldFilter

// Field returns the entry for name.
func (f Filter) Field(name string) (FieldFilter, bool) {
	for _, ff := range f {
		if ff.Field == name {
			return ff, true
		}
	}
	return FieldFilter{}, false
}

func (f Filter) index(name string) int {
	for i := range f {
		if f[i].Field == name {
			return i
		}
	}
	return -1
}

// MarshalJSON renders the filter as an object. A field holding more than one
// condition is rendered as an array of condition objects.
func (f Filter) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, ff := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(ff.Field)
		if err != nil {
			return nil, err
		}
		var val []byte
		switch {
		case ff.Raw.IsDefined():
			val, err = json.Marshal(ff.Raw)
		case len(ff.Conditions) == 1:
			val, err = json.Marshal(ff.Conditions[0])
		default:
			val, err = json.Marshal(ff.Conditions)
		}
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// Projection lists excluded fields, each prefixed with "-". A nil projection
// selects every field.
type Projection []string

// MarshalJSON renders a nil projection as "".
func (p Projection) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte(`""`), nil
	}
	return json.Marshal([]string(p))
}

// Excluded returns the field names without their exclusion prefix.
func (p Projection) Excluded() []string {
	out := make([]string, 0, len(p))
	for _, token := range p {
		if len(token) > 1 && token[0] == '-' {
			out = append(out, token[1:])
		}
	}
	return out
}

// SortKey is one field of a sort specification. Direction is 1 or -1.
type SortKey struct {
	Field     string
	Direction int
}

// Sort is an ordered sort specification.
type Sort []SortKey

// MarshalJSON renders the sort as an ordered object.
func (s Sort) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(k.Field)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(k.Direction), 10)
	}
	return append(buf, '}'), nil
}

// Options are the non-predicate query parameters.
type Options struct {
	Sort  Sort
	Limit int
	Skip  int
	// Extra carries passthrough execution flags in input order.
	Extra []Clause
}

// MarshalJSON renders sort, limit and skip followed by passthrough flags.
func (o Options) MarshalJSON() ([]byte, error) {
	buf := []byte(`{"sort":`)
	sort, err := o.Sort.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf = append(buf, sort...)
	buf = append(buf, `,"limit":`...)
	buf = strconv.AppendInt(buf, int64(o.Limit), 10)
	buf = append(buf, `,"skip":`...)
	buf = strconv.AppendInt(buf, int64(o.Skip), 10)
	for _, cl := range o.Extra {
		key, err := json.Marshal(cl.Op)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(cl.Operand)
		if err != nil {
			return nil, err
		}
		buf = append(buf, ',')
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// Raw renders the resolved options back into raw query form, so that the
// output of one compilation can be fed to another.
func (o Options) Raw() *Map {
	m := NewMap()
	if len(o.Sort) > 0 {
		sort := NewMap()
		for _, k := range o.Sort {
			sort.Add(k.Field, String(strconv.Itoa(k.Direction)))
		}
		m.Add(KeySort, Nested(sort))
	}
	m.Add(KeyLimit, String(strconv.Itoa(o.Limit)))
	m.Add(KeySkip, String(strconv.Itoa(o.Skip)))
	for _, cl := range o.Extra {
		m.Add(cl.Op, cl.Operand)
	}
	return m
}

// Result is the output of one compilation.
type Result struct {
	Filter     Filter
	Projection Projection
	Options    Options
	// NewQuery and TotalDocuments echo the caller's count bookkeeping.
	NewQuery       bool
	TotalDocuments int64
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	filter := r.Filter
	if filter == nil {
		filter = Filter{}
	}
	return json.Marshal(struct {
		Filter         Filter     `json:"filter"`
		Projection     Projection `json:"projection"`
		Options        Options    `json:"options"`
		NewQuery       bool       `json:"newQuery"`
		TotalDocuments int64      `json:"totalDocuments"`
	}{filter, r.Projection, r.Options, r.NewQuery, r.TotalDocuments})
}
