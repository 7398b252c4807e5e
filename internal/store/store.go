package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound is returned when a document does not exist at the given path.
var ErrNotFound = errors.New("store: not found")

// RangeQuery selects the last LimitToLast children of a collection in
// ascending key order, optionally ending at (inclusive of) EndAtKey.
// LimitToLast <= 0 means no limit.
type RangeQuery struct {
	EndAtKey    string
	LimitToLast int
}

// KeyedValue is a child document paired with its key.
type KeyedValue struct {
	Key   string
	Value json.RawMessage
}

// DocumentStore abstracts a key-ordered hierarchical document database.
// Paths are slash-delimited (e.g. "posts/<id>", "artwall/drawing/<id>").
// Range reads are only defined over a collection node's immediate children,
// ordered lexically by key.
type DocumentStore interface {
	// Read returns the document at path, or ErrNotFound.
	Read(ctx context.Context, path string) (json.RawMessage, error)
	// ReadRange returns children of the collection at path in ascending key
	// order, per the query.
	ReadRange(ctx context.Context, path string, q RangeQuery) ([]KeyedValue, error)
	// Write stores value at path, replacing any existing document.
	Write(ctx context.Context, path string, value any) error
	// Update merges fields into the document at path, creating it if absent.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the document at path. Deleting an absent path is a no-op.
	Delete(ctx context.Context, path string) error
	// Push stores value under a new generated key and returns that key.
	// Generated keys sort lexically by creation instant.
	Push(ctx context.Context, path string, value any) (string, error)
}

// splitPath separates a document path into its parent collection and key.
func splitPath(path string) (collection, key string) {
	path = strings.Trim(path, "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func marshalValue(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// mergeFields applies a partial update to an existing raw document. A nil
// field value removes the field, mirroring the database's update semantics.
func mergeFields(existing json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	doc := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	return json.Marshal(doc)
}
