// Package query compiles client-supplied query parameters into the filter,
// projection and options triple consumed by the document store.
//
// The compiler is pure: it performs no I/O, keeps no state between calls and
// never fails. Malformed input degrades to documented defaults.
package query

import (
	"encoding/json"
	"slices"
)

// Kind identifies the concrete shape stored in a Value.
type Kind uint8

const (
	// KindUndefined marks an absent value. Undefined values are dropped.
	KindUndefined Kind = iota
	// KindString is a scalar string.
	KindString
	// KindArray is an ordered list of values.
	KindArray
	// KindMap is a nested, ordered mapping.
	KindMap
	// KindPattern is a compiled case-insensitive match.
	KindPattern
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindPattern:
		return "pattern"
	default:
		return "undefined"
	}
}

// Pattern is a regular expression source with its match flags.
type Pattern struct {
	Source string
	Flags  string
}

// MarshalJSON renders the pattern in extended-JSON form.
func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Regex   string `json:"$regex"`
		Options string `json:"$options"`
	}{p.Source, p.Flags})
}

// Value is a small tagged variant used for raw query input and compiled
// operands. Only the field matching Kind is meaningful.
type Value struct {
	Kind    Kind
	Str     string
	List    []Value
	Map     *Map
	Pattern Pattern
}

// String returns a scalar string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Array returns an array Value.
func Array(items ...Value) Value { return Value{Kind: KindArray, List: items} }

// Strings returns an array Value of scalar strings.
func Strings(items ...string) Value {
	list := make([]Value, len(items))
	for i, s := range items {
		list[i] = String(s)
	}
	return Array(list...)
}

// Nested returns a map Value.
func Nested(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{Kind: KindMap, Map: m}
}

// CaseInsensitive returns a pattern Value matching source with the "i" flag.
func CaseInsensitive(source string) Value {
	return Value{Kind: KindPattern, Pattern: Pattern{Source: source, Flags: "i"}}
}

// IsDefined reports whether v carries a value.
func (v Value) IsDefined() bool { return v.Kind != KindUndefined }

// AsString returns the string if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsArray returns the list if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.List, true
}

// AsMap returns the nested map if Kind is KindMap.
func (v Value) AsMap() (*Map, bool) {
	if v.Kind != KindMap || v.Map == nil {
		return nil, false
	}
	return v.Map, true
}

// AsPattern returns the pattern if Kind is KindPattern.
func (v Value) AsPattern() (Pattern, bool) {
	if v.Kind != KindPattern {
		return Pattern{}, false
	}
	return v.Pattern, true
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindArray:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindMap:
		return json.Marshal(v.Map)
	case KindPattern:
		return json.Marshal(v.Pattern)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes strings, arrays and objects. Numbers and booleans
// are kept as their literal text so they behave like query-string input.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// FromAny converts decoded JSON (or similar loosely typed data) into a Value.
func FromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		if t {
			return String("true")
		}
		return String("false")
	case float64:
		b, _ := json.Marshal(t)
		return String(string(b))
	case json.Number:
		return String(t.String())
	case int:
		b, _ := json.Marshal(t)
		return String(string(b))
	case int64:
		b, _ := json.Marshal(t)
		return String(string(b))
	case []string:
		return Strings(t...)
	case []any:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			list = append(list, FromAny(item))
		}
		return Array(list...)
	case map[string]any:
		return Nested(MapFromAny(t))
	case *Map:
		return Nested(t)
	default:
		return Value{}
	}
}

// Pair is one entry of a Map.
type Pair struct {
	Key   string
	Value Value
}

// Map is an ordered mapping from string keys to values. Unlike a Go map it
// keeps insertion order and tolerates repeated keys.
type Map struct {
	pairs []Pair
}

// NewMap returns a Map holding the given pairs in order.
func NewMap(pairs ...Pair) *Map {
	m := &Map{pairs: make([]Pair, 0, len(pairs))}
	m.pairs = append(m.pairs, pairs...)
	return m
}

// MapFromAny builds a Map from a Go map. Keys are sorted since Go maps have
// no order.
func MapFromAny(src map[string]any) *Map {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	m := NewMap()
	for _, k := range keys {
		m.Add(k, FromAny(src[k]))
	}
	return m
}

// Add appends a pair, keeping any earlier pair with the same key.
func (m *Map) Add(key string, v Value) *Map {
	m.pairs = append(m.pairs, Pair{Key: key, Value: v})
	return m
}

// Get returns the first value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	for _, p := range m.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Pairs returns the entries in order. The slice must not be modified.
func (m *Map) Pairs() []Pair {
	if m == nil {
		return nil
	}
	return m.pairs
}

// Len returns the number of entries, counting repeats.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// MarshalJSON renders the map as a JSON object in insertion order.
// Repeated keys are emitted as-is.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	buf := []byte{'{'}
	for i, p := range m.pairs {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}
