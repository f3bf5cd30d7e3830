package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueryStringBracketSyntax(t *testing.T) {
	m := ParseQueryString("?createdAt[eq]=2023-11-11&reasonForLeave[in]=Vacation&limit=10&page=1")

	assert.Equal(t,
		`{"createdAt":{"eq":"2023-11-11"},"reasonForLeave":{"in":"Vacation"},"limit":"10","page":"1"}`,
		mustJSON(t, m))
}

func TestParseQueryStringArrays(t *testing.T) {
	cases := map[string]string{
		"tags[in][]=a&tags[in][]=b":       `{"tags":{"in":["a","b"]}}`,
		"tags[in]=a&tags[in]=b":           `{"tags":{"in":["a","b"]}}`,
		"select[]=notes&select[]=secret":  `{"select":["notes","secret"]}`,
		"select=notes&select[]=secret":    `{"select":["notes","secret"]}`,
		"limit=10&limit=20&limit=30":      `{"limit":["10","20","30"]}`,
		"q[name][in]=Vacation+Rental":     `{"q":{"name":{"in":"Vacation Rental"}}}`,
		"sort[createdAt]=-1&sort[_id]=-1": `{"sort":{"createdAt":"-1","_id":"-1"}}`,
		"a[][b]=1":                        `{"a":[{"b":"1"}]}`,
		"flag":                            `{"flag":""}`,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, mustJSON(t, ParseQueryString(in)))
		})
	}
}

func TestParseQueryStringSkipsMalformedPairs(t *testing.T) {
	m := ParseQueryString("&&bad=%zz&=x&%zz=1&ok=1&name[=x&status[eq]=open&status=ignored")

	assert.Equal(t, `{"ok":"1","name[":"x","status":{"eq":"open"}}`, mustJSON(t, m))
}

func TestParseQueryStringLimitsDepth(t *testing.T) {
	m := ParseQueryString("a[b][c][d][e][f][g][h]=1")

	assert.Equal(t, `{"a":{"b":{"c":{"d":{"e":{"f[g][h]":"1"}}}}}}`, mustJSON(t, m))
}

func TestParsedQueryCompiles(t *testing.T) {
	res := Compile(ParseQueryString("name[in][]=Vacation+Rental&active[in]=true&sort=-price&limit=5&page=3"))

	assert.Equal(t,
		`{"name":{"$in":[{"$regex":"Vacation","$options":"i"},{"$regex":"Rental","$options":"i"}]},"active":{"$in":["true"]}}`,
		mustJSON(t, res.Filter))
	assert.Equal(t, `{"sort":{"price":-1,"_id":-1},"limit":5,"skip":10}`, mustJSON(t, res.Options))
}
