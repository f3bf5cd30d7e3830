package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentFieldsMergesSystemFields(t *testing.T) {
	id := uuid.MustParse("6f1c2f3e-0000-4000-8000-000000000001")
	created := time.Date(2023, 11, 11, 9, 30, 0, 0, time.UTC)
	doc := Document{
		ID:        id,
		Body:      map[string]any{"name": "desk", "_id": "spoofed"},
		Version:   3,
		CreatedAt: created,
		UpdatedAt: created,
	}

	fields := doc.Fields()
	assert.Equal(t, id.String(), fields["_id"])
	assert.Equal(t, "desk", fields["name"])
	assert.Equal(t, "2023-11-11T09:30:00Z", fields["createdAt"])
	assert.EqualValues(t, 3, fields["__v"])
}

func TestDocumentHiddenFields(t *testing.T) {
	doc := NewDocument("mice", map[string]any{"dpi": 1600})
	doc.Hidden = []string{FieldVersion}

	b, err := json.Marshal(doc)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.NotContains(t, out, "__v")
	assert.Contains(t, out, "_id")
	assert.EqualValues(t, 1600, out["dpi"])
}

func TestBodyJSONStripsSystemFields(t *testing.T) {
	doc := NewDocument("gpus", map[string]any{"_id": "x", "__v": 9, "vram": 16})

	b, err := doc.BodyJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"vram":16}`, string(b))

	body, err := BodyFromJSON(b)
	require.NoError(t, err)
	assert.EqualValues(t, 16, body["vram"])
}

func TestBodyFromJSONHandlesEmptyAndNull(t *testing.T) {
	body, err := BodyFromJSON(nil)
	require.NoError(t, err)
	assert.Empty(t, body)

	body, err = BodyFromJSON([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, body)

	_, err = BodyFromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestPageTotalPages(t *testing.T) {
	assert.Equal(t, 0, Page{}.TotalPages())
	assert.Equal(t, 3, Page{Limit: 10, TotalDocuments: 21}.TotalPages())
	assert.Equal(t, 2, Page{Limit: 10, TotalDocuments: 20}.TotalPages())
}
