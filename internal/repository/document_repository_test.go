package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/restquery/internal/domain"
	"github.com/rpattn/restquery/internal/query"
)

type fakeRow struct {
	count int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.count
	return nil
}

type fakeQuerier struct {
	sql  []string
	args [][]any
	row  fakeRow
	err  error
}

func (f *fakeQuerier) record(sql string, args []any) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	return nil, f.err
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	return f.row
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestCountRunsCountQuery(t *testing.T) {
	db := &fakeQuerier{row: fakeRow{count: 17}}
	repo := NewDocumentRepository(db)

	n, err := repo.Count(context.Background(), "events", query.Compile(query.ParseQueryString("status[eq]=open")).Filter)
	require.NoError(t, err)

	assert.EqualValues(t, 17, n)
	require.Len(t, db.sql, 1)
	assert.Equal(t, "SELECT count(*) FROM documents WHERE resource = $1 AND (body #>> $2::text[]) = $3", db.sql[0])
	assert.Equal(t, []any{"events", []string{"status"}, "open"}, db.args[0])
}

func TestCountWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	repo := NewDocumentRepository(&fakeQuerier{row: fakeRow{err: boom}})

	_, err := repo.Count(context.Background(), "events", query.Filter{})
	assert.ErrorIs(t, err, boom)
}

func TestFindRejectsInvalidResource(t *testing.T) {
	db := &fakeQuerier{}
	repo := NewDocumentRepository(db)

	_, err := repo.Find(context.Background(), "no spaces", query.Compile(nil))
	assert.ErrorIs(t, err, ErrInvalidResource)
	assert.Empty(t, db.sql)
}

func TestFindWrapsQueryErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := NewDocumentRepository(&fakeQuerier{err: boom})

	_, err := repo.Find(context.Background(), "events", query.Compile(nil))
	assert.ErrorIs(t, err, boom)
}

func TestInsertFillsSystemFields(t *testing.T) {
	db := &fakeQuerier{}
	repo := NewDocumentRepository(db)

	doc, err := repo.Insert(context.Background(), domain.Document{
		Resource: "events",
		Body:     map[string]any{"title": "retro", "_id": "ignored"},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)

	require.Len(t, db.args, 1)
	args := db.args[0]
	assert.Equal(t, doc.ID, args[0])
	assert.Equal(t, "events", args[1])
	assert.JSONEq(t, `{"title":"retro"}`, args[2].(string))
}
