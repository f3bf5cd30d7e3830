package countloader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/restquery/internal/query"
)

// Counter counts the documents of a resource matching a filter.
type Counter interface {
	Count(ctx context.Context, resource string, filter query.Filter) (int64, error)
}

// countKey identifies one count lookup. Two lookups with the same resource and
// the same canonical filter JSON share a key.
type countKey struct {
	resource string
	filter   query.Filter
	id       string
}

func (k countKey) String() string   { return k.id }
func (k countKey) Raw() interface{} { return k }

// NewKey builds the loader key for a count of filter within resource.
func NewKey(resource string, filter query.Filter) (dataloader.Key, error) {
	b, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter for %s: %w", resource, err)
	}
	return countKey{resource: resource, filter: filter, id: resource + "\x00" + string(b)}, nil
}

type CountLoader struct {
	Loader *dataloader.Loader
}

func NewCountLoader(counter Counter) *CountLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			key, ok := k.Raw().(countKey)
			if !ok {
				results[i] = &dataloader.Result{Error: fmt.Errorf("invalid count key %q", k.String())}
				continue
			}
			n, err := counter.Count(ctx, key.resource, key.filter)
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			results[i] = &dataloader.Result{Data: n}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))

	return &CountLoader{Loader: loader}
}

// Count returns the number of documents of resource matching filter.
// Identical lookups within a batch window are counted once.
func (l *CountLoader) Count(ctx context.Context, resource string, filter query.Filter) (int64, error) {
	key, err := NewKey(resource, filter)
	if err != nil {
		return 0, err
	}
	data, err := l.Loader.Load(ctx, key)()
	if err != nil {
		return 0, err
	}
	n, ok := data.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T for %s", data, resource)
	}
	return n, nil
}

// Resolve returns the total for a compiled query. A positive total echoed by
// the client is reused unless the client reports a new query.
func (l *CountLoader) Resolve(ctx context.Context, resource string, result query.Result) (int64, error) {
	if !result.NewQuery && result.TotalDocuments > 0 {
		return result.TotalDocuments, nil
	}
	return l.Count(ctx, resource, result.Filter)
}
