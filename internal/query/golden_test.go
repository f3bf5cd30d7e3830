package query

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestCompileGolden(t *testing.T) {
	cases := []struct {
		name string
		raw  *Map
	}{
		{name: "no_query", raw: nil},
		{
			name: "leave_requests",
			raw:  ParseQueryString("createdAt[eq]=2023-11-11&reasonForLeave[in]=Vacation&limit=10&page=1"),
		},
		{
			name: "rentals_search",
			raw: ParseQueryString("name[in][]=Vacation+Rental&active[in]=true&price[gte]=10&price[lt]=99" +
				"&$text[$search]=beach&$text[$caseSensitive]=false&select[]=notes&select[]=secret" +
				"&sort=-price&limit=100&page=3&lean=true&newQuery=true&totalDocuments=42"),
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := json.MarshalIndent(Compile(tc.raw), "", "  ")
			require.NoError(t, err)
			g.Assert(t, tc.name, append(out, '\n'))
		})
	}
}
