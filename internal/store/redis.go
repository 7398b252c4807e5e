package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	colKeyPrefix = "aw:col:"
	idxKeyPrefix = "aw:idx:"
)

// RedisStore is the production DocumentStore backend. Every collection node
// is kept as a hash (key -> JSON document) paired with a lexicographic sorted
// set of its child keys, which gives ReadRange its ordering guarantee.
type RedisStore struct {
	rdb *redis.Client
}

// Connect creates a Redis-backed store and verifies connectivity.
func Connect(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStore wraps an existing client (used by tests).
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error { return s.rdb.Close() }

// Raw returns the underlying redis client, for middleware that shares the
// same connection (rate limiting, response caching).
func (s *RedisStore) Raw() *redis.Client { return s.rdb }

func (s *RedisStore) Read(ctx context.Context, path string) (json.RawMessage, error) {
	collection, key := splitPath(path)
	val, err := s.rdb.HGet(ctx, colKeyPrefix+collection, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return json.RawMessage(val), nil
}

func (s *RedisStore) ReadRange(ctx context.Context, path string, q RangeQuery) ([]KeyedValue, error) {
	collection := strings.Trim(path, "/")

	keys, err := s.rangeKeys(ctx, collection, q)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", path, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := s.rdb.HMGet(ctx, colKeyPrefix+collection, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", path, err)
	}

	children := make([]KeyedValue, 0, len(keys))
	for i, key := range keys {
		str, ok := vals[i].(string)
		if !ok {
			// index entry without a document; skip rather than fail the page
			continue
		}
		children = append(children, KeyedValue{Key: key, Value: json.RawMessage(str)})
	}
	return children, nil
}

// rangeKeys returns child keys in ascending order per the query.
func (s *RedisStore) rangeKeys(ctx context.Context, collection string, q RangeQuery) ([]string, error) {
	idxKey := idxKeyPrefix + collection

	max := "+"
	if q.EndAtKey != "" {
		max = "[" + q.EndAtKey
	}

	if q.LimitToLast <= 0 {
		return s.rdb.ZRangeByLex(ctx, idxKey, &redis.ZRangeBy{Min: "-", Max: max}).Result()
	}

	// last N: walk downward from the end key, then restore ascending order
	keys, err := s.rdb.ZRevRangeByLex(ctx, idxKey, &redis.ZRangeBy{
		Min: "-", Max: max, Offset: 0, Count: int64(q.LimitToLast),
	}).Result()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys, nil
}

func (s *RedisStore) Write(ctx context.Context, path string, value any) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}

	collection, key := splitPath(path)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, colKeyPrefix+collection, key, string(raw))
	pipe.ZAdd(ctx, idxKeyPrefix+collection, redis.Z{Score: 0, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, path string, fields map[string]any) error {
	existing, err := s.Read(ctx, path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	merged, err := mergeFields(existing, fields)
	if err != nil {
		return err
	}
	return s.Write(ctx, path, merged)
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	collection, key := splitPath(path)
	pipe := s.rdb.TxPipeline()
	pipe.HDel(ctx, colKeyPrefix+collection, key)
	pipe.ZRem(ctx, idxKeyPrefix+collection, key)
	// the path may itself be a collection node
	full := strings.Trim(path, "/")
	pipe.Del(ctx, colKeyPrefix+full, idxKeyPrefix+full)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := newPushKey(time.Now())
	if err := s.Write(ctx, strings.Trim(path, "/")+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}
