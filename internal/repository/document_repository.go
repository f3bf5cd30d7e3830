package repository

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/restquery/internal/domain"
	"github.com/rpattn/restquery/internal/query"
)

var resourcePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

// ValidateResource checks that name can identify a collection.
func ValidateResource(name string) error {
	if !resourcePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidResource, name)
	}
	return nil
}

// Querier is the subset of pgxpool.Pool and pgx.Tx used by the repository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// documentRepository implements DocumentRepository over a JSONB table.
type documentRepository struct {
	db Querier
}

// NewDocumentRepository creates a new document repository over a pool or a
// transaction.
func NewDocumentRepository(db Querier) DocumentRepository {
	return &documentRepository{db: db}
}

// Find returns one page of documents matching the compiled query.
func (r *documentRepository) Find(ctx context.Context, resource string, q query.Result) ([]domain.Document, error) {
	if err := ValidateResource(resource); err != nil {
		return nil, err
	}

	sql, args, ignored := buildFindQuery(resource, q)
	logIgnored(resource, ignored)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s documents: %w", resource, err)
	}
	defer rows.Close()

	hidden := hiddenSystemFields(q.Projection)
	docs := make([]domain.Document, 0, q.Options.Limit)
	for rows.Next() {
		var (
			id        uuid.UUID
			body      []byte
			version   int64
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&id, &body, &version, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w", resource, err)
		}
		doc, err := buildDocument(id, resource, body, version, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		doc.Hidden = hidden
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s documents: %w", resource, err)
	}

	return docs, nil
}

// Count returns the number of documents matching filter.
func (r *documentRepository) Count(ctx context.Context, resource string, filter query.Filter) (int64, error) {
	if err := ValidateResource(resource); err != nil {
		return 0, err
	}

	sql, args, ignored := buildCountQuery(resource, filter)
	logIgnored(resource, ignored)

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s documents: %w", resource, err)
	}
	return count, nil
}

// Insert stores a new document.
func (r *documentRepository) Insert(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if err := ValidateResource(doc.Resource); err != nil {
		return domain.Document{}, err
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	body, err := doc.BodyJSON()
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to marshal document body: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO documents (id, resource, body, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Resource, string(body), doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to insert %s document: %w", doc.Resource, err)
	}
	return doc, nil
}

func buildDocument(
	id uuid.UUID,
	resource string,
	bodyJSON []byte,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) (domain.Document, error) {
	body, err := domain.BodyFromJSON(bodyJSON)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to decode body for document %s: %w", id, err)
	}

	return domain.Document{
		ID:        id,
		Resource:  resource,
		Body:      body,
		Version:   version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func logIgnored(resource string, ignored []string) {
	if len(ignored) > 0 {
		log.Printf("[STORE] %s: ignoring unsupported conditions %s", resource, strings.Join(ignored, ", "))
	}
}
