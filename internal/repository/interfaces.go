package repository

import (
	"context"
	"errors"

	"github.com/rpattn/restquery/internal/domain"
	"github.com/rpattn/restquery/internal/query"
)

// ErrInvalidResource is returned for resource names that cannot name a collection.
var ErrInvalidResource = errors.New("invalid resource name")

// DocumentRepository executes compiled queries against the document store.
type DocumentRepository interface {
	Find(ctx context.Context, resource string, q query.Result) ([]domain.Document, error)
	Count(ctx context.Context, resource string, filter query.Filter) (int64, error)
	Insert(ctx context.Context, doc domain.Document) (domain.Document, error)
}
