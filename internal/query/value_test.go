package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueUnmarshalKeepsScalarsAsText(t *testing.T) {
	var m struct {
		Q Value `json:"q"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"q":{"price":{"gte":10.5},"active":{"in":true},"tags":{"in":["a",null]}}}`), &m))

	qm, ok := m.Q.AsMap()
	require.True(t, ok)
	assert.Equal(t, `{"active":{"in":"true"},"price":{"gte":"10.5"},"tags":{"in":["a",null]}}`, mustJSON(t, qm))
}

func TestFromAnyHandlesGoTypes(t *testing.T) {
	v := FromAny(map[string]any{
		"limit":  25,
		"page":   int64(2),
		"select": []string{"a", "b"},
		"skip":   json.Number("4"),
		"gone":   struct{}{},
	})

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, `{"gone":null,"limit":"25","page":"2","select":["a","b"],"skip":"4"}`, mustJSON(t, m))
}

func TestMapKeepsRepeatsAndGetReturnsFirst(t *testing.T) {
	m := NewMap().Add("a", String("1")).Add("a", String("2")).Add("b", String("3"))

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v.Str)
	assert.Equal(t, 3, m.Len())

	_, ok = (*Map)(nil).Get("a")
	assert.False(t, ok)
}

func TestValueAccessorsRejectOtherKinds(t *testing.T) {
	s := String("x")
	_, ok := s.AsArray()
	assert.False(t, ok)
	_, ok = s.AsMap()
	assert.False(t, ok)
	_, ok = s.AsPattern()
	assert.False(t, ok)
	_, ok = Array().AsString()
	assert.False(t, ok)
	assert.Equal(t, "pattern", CaseInsensitive("x").Kind.String())
	assert.Equal(t, "undefined", Value{}.Kind.String())
	assert.Equal(t, "[]", mustJSON(t, Array()))
}
