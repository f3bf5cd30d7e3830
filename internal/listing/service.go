package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpattn/restquery/internal/countloader"
	"github.com/rpattn/restquery/internal/domain"
	"github.com/rpattn/restquery/internal/middleware"
	"github.com/rpattn/restquery/internal/query"
	"github.com/rpattn/restquery/internal/repository"
)

// ErrUnknownResource is returned for resources outside the configured allow-list.
var ErrUnknownResource = errors.New("unknown resource")

const defaultMaxExportRows = 50000

// Service answers list and export requests by compiling the raw query and
// running it against the document store.
type Service struct {
	repo          repository.DocumentRepository
	compiler      *query.Compiler
	resources     map[string]struct{}
	maxExportRows int
}

type Option func(*Service)

// WithCompiler replaces the default compiler.
func WithCompiler(c *query.Compiler) Option {
	return func(s *Service) {
		if c != nil {
			s.compiler = c
		}
	}
}

// WithResources restricts the service to the named resources. An empty list
// allows every valid resource name.
func WithResources(names ...string) Option {
	return func(s *Service) {
		if len(names) == 0 {
			s.resources = nil
			return
		}
		s.resources = make(map[string]struct{}, len(names))
		for _, name := range names {
			s.resources[name] = struct{}{}
		}
	}
}

// WithMaxExportRows caps the number of rows written by Export.
func WithMaxExportRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxExportRows = n
		}
	}
}

func NewService(repo repository.DocumentRepository, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		compiler:      query.New(),
		maxExportRows: defaultMaxExportRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile returns the query List would run for resource.
func (s *Service) Compile(resource string, raw *query.Map) (query.Result, error) {
	if err := s.checkResource(resource); err != nil {
		return query.Result{}, err
	}
	return s.compiler.Compile(raw), nil
}

// List returns one page of resource matching raw.
func (s *Service) List(ctx context.Context, resource string, raw *query.Map) (domain.Page, error) {
	if err := s.checkResource(resource); err != nil {
		return domain.Page{}, err
	}

	q := s.compiler.Compile(raw)
	items, err := s.repo.Find(ctx, resource, q)
	if err != nil {
		return domain.Page{}, fmt.Errorf("list %s: %w", resource, err)
	}

	total, err := s.loader(ctx).Resolve(ctx, resource, q)
	if err != nil {
		return domain.Page{}, fmt.Errorf("count %s: %w", resource, err)
	}

	return domain.Page{
		Items:          items,
		TotalDocuments: total,
		Page:           q.Options.Skip/q.Options.Limit + 1,
		Limit:          q.Options.Limit,
		Skip:           q.Options.Skip,
		NewQuery:       false,
	}, nil
}

func (s *Service) checkResource(resource string) error {
	if err := repository.ValidateResource(resource); err != nil {
		return err
	}
	if s.resources == nil {
		return nil
	}
	if _, ok := s.resources[resource]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}
	return nil
}

// loader prefers the request-scoped loader so concurrent lookups in the same
// request share count queries.
func (s *Service) loader(ctx context.Context) *countloader.CountLoader {
	if l := middleware.CountLoaderFromContext(ctx); l != nil {
		return l
	}
	return countloader.NewCountLoader(s.repo)
}
