package countloader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/restquery/internal/query"
)

type fakeCounter struct {
	mu     sync.Mutex
	calls  []string
	totals map[string]int64
	err    error
}

func (f *fakeCounter) Count(_ context.Context, resource string, _ query.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, resource)
	if f.err != nil {
		return 0, f.err
	}
	return f.totals[resource], nil
}

func (f *fakeCounter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestCountLoaderSharesIdenticalLookups(t *testing.T) {
	counter := &fakeCounter{totals: map[string]int64{"events": 42}}
	loader := NewCountLoader(counter)
	filter := query.Compile(query.ParseQueryString("status[in]=open")).Filter

	var wg sync.WaitGroup
	results := make([]int64, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := loader.Count(context.Background(), "events", filter)
			assert.NoError(t, err)
			results[i] = n
		}(i)
	}
	wg.Wait()

	for _, n := range results {
		assert.EqualValues(t, 42, n)
	}
	assert.Equal(t, 1, counter.callCount())
}

func TestCountLoaderSeparatesResources(t *testing.T) {
	counter := &fakeCounter{totals: map[string]int64{"events": 3, "rentals": 7}}
	loader := NewCountLoader(counter)
	filter := query.Filter{}

	events, err := loader.Count(context.Background(), "events", filter)
	require.NoError(t, err)
	rentals, err := loader.Count(context.Background(), "rentals", filter)
	require.NoError(t, err)

	assert.EqualValues(t, 3, events)
	assert.EqualValues(t, 7, rentals)
	assert.Equal(t, 2, counter.callCount())
}

func TestNewKeyIsCanonical(t *testing.T) {
	a, err := NewKey("events", query.Compile(query.ParseQueryString("status[in]=open&limit=5")).Filter)
	require.NoError(t, err)
	b, err := NewKey("events", query.Compile(query.ParseQueryString("limit=50&status[in]=open")).Filter)
	require.NoError(t, err)
	c, err := NewKey("rentals", query.Compile(query.ParseQueryString("status[in]=open")).Filter)
	require.NoError(t, err)

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
}

func TestResolveReusesClientTotal(t *testing.T) {
	counter := &fakeCounter{totals: map[string]int64{"events": 9}}
	loader := NewCountLoader(counter)

	reused := query.Compile(query.ParseQueryString("newQuery=false&totalDocuments=120"))
	n, err := loader.Resolve(context.Background(), "events", reused)
	require.NoError(t, err)
	assert.EqualValues(t, 120, n)
	assert.Equal(t, 0, counter.callCount())

	fresh := query.Compile(query.ParseQueryString("newQuery=true&totalDocuments=120"))
	n, err = loader.Resolve(context.Background(), "events", fresh)
	require.NoError(t, err)
	assert.EqualValues(t, 9, n)
	assert.Equal(t, 1, counter.callCount())
}

func TestResolveCountsWhenTotalUnknown(t *testing.T) {
	counter := &fakeCounter{totals: map[string]int64{"events": 4}}
	loader := NewCountLoader(counter)

	n, err := loader.Resolve(context.Background(), "events", query.Compile(query.ParseQueryString("totalDocuments=0")))
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.Equal(t, 1, counter.callCount())
}

func TestCountLoaderPropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	loader := NewCountLoader(&fakeCounter{err: boom})

	_, err := loader.Count(context.Background(), "events", query.Filter{})
	assert.ErrorIs(t, err, boom)
}
