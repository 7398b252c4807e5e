package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory DocumentStore used by tests and local
// development. Documents are keyed by full path; key ordering is recomputed
// per range read.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]json.RawMessage)}
}

func (s *MemoryStore) Read(_ context.Context, path string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[strings.Trim(path, "/")]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *MemoryStore) ReadRange(_ context.Context, path string, q RangeQuery) ([]KeyedValue, error) {
	prefix := strings.Trim(path, "/") + "/"

	s.mu.RLock()
	var children []KeyedValue
	for p, doc := range s.docs {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		key := p[len(prefix):]
		if strings.ContainsRune(key, '/') {
			continue
		}
		if q.EndAtKey != "" && key > q.EndAtKey {
			continue
		}
		children = append(children, KeyedValue{Key: key, Value: doc})
	}
	s.mu.RUnlock()

	sort.Slice(children, func(i, j int) bool { return children[i].Key < children[j].Key })

	if q.LimitToLast > 0 && len(children) > q.LimitToLast {
		children = children[len(children)-q.LimitToLast:]
	}
	return children, nil
}

func (s *MemoryStore) Write(_ context.Context, path string, value any) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[strings.Trim(path, "/")] = raw
	return nil
}

func (s *MemoryStore) Update(_ context.Context, path string, fields map[string]any) error {
	p := strings.Trim(path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := mergeFields(s.docs[p], fields)
	if err != nil {
		return err
	}
	s.docs[p] = merged
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	p := strings.Trim(path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, p)
	prefix := p + "/"
	for k := range s.docs {
		if strings.HasPrefix(k, prefix) {
			delete(s.docs, k)
		}
	}
	return nil
}

func (s *MemoryStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := newPushKey(time.Now())
	if err := s.Write(ctx, strings.Trim(path, "/")+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}
