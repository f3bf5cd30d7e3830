package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// System field names as exposed to clients. Everything else lives in Body.
const (
	FieldID        = "_id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldVersion   = "__v"
)

// IsSystemField reports whether name is stored outside the body.
func IsSystemField(name string) bool {
	switch name {
	case FieldID, FieldCreatedAt, FieldUpdatedAt, FieldVersion:
		return true
	}
	return false
}

// Document is one stored resource instance (an event, a mouse, a repair note).
type Document struct {
	ID        uuid.UUID      `json:"_id"`
	Resource  string         `json:"-"`
	Body      map[string]any `json:"-"`
	Version   int64          `json:"__v"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`

	// Hidden lists system fields removed by a projection.
	Hidden []string `json:"-"`
}

// NewDocument creates a new document for resource with a fresh id.
func NewDocument(resource string, body map[string]any) Document {
	now := time.Now().UTC()
	return Document{
		ID:        uuid.New(),
		Resource:  resource,
		Body:      copyBody(body),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Fields returns the flattened client view: system fields merged with the body.
// System fields win over body keys of the same name.
func (d Document) Fields() map[string]any {
	out := make(map[string]any, len(d.Body)+4)
	for k, v := range d.Body {
		out[k] = v
	}
	out[FieldID] = d.ID.String()
	out[FieldCreatedAt] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	out[FieldUpdatedAt] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	out[FieldVersion] = d.Version
	for _, field := range d.Hidden {
		delete(out, field)
	}
	return out
}

// MarshalJSON renders the flattened client view.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Fields())
}

// BodyFromJSON decodes a stored JSONB body.
func BodyFromJSON(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document body: %w", err)
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// BodyJSON encodes the body for storage. System fields are never stored in
// the body.
func (d Document) BodyJSON() ([]byte, error) {
	body := copyBody(d.Body)
	for field := range body {
		if IsSystemField(field) {
			delete(body, field)
		}
	}
	return json.Marshal(body)
}

func copyBody(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
