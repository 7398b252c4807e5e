package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/artwall/core/internal/config"
	"github.com/artwall/core/internal/models"
	"github.com/artwall/core/internal/store"
	"go.uber.org/zap"
)

const (
	postsPath      = "posts"
	legacyRootPath = "artwall"
	userIndexPath  = "user-posts"
)

var (
	// ErrInvalidCursor is returned for a cursor the active view cannot interpret.
	ErrInvalidCursor = errors.New("post: invalid cursor")
	// ErrInvalidLimit is returned for a non-positive page size.
	ErrInvalidLimit = errors.New("post: limit must be positive")
	// ErrInvalidScoreField is returned when updating a field outside the score contract.
	ErrInvalidScoreField = errors.New("post: field is not an updatable score")
	// ErrInvalidScore is returned for score values outside 1..5.
	ErrInvalidScore = errors.New("post: score must be an integer between 1 and 5")
)

// ScoreFields are the only fields the update contract accepts.
var ScoreFields = map[string]bool{"evaluationNum": true, "ratingNum": true}

// Service handles post reads, writes and pagination over the document store.
// The view (flat vs legacy) is fixed at construction so pagination semantics
// never change mid-session.
type Service struct {
	store store.DocumentStore
	view  string
	log   *zap.Logger
}

func NewService(st store.DocumentStore, view string, log *zap.Logger) *Service {
	if view == "" {
		view = config.StoreViewFlat
	}
	return &Service{store: st, view: view, log: log}
}

// Paginate returns one page of posts, newest first, and the opaque cursor for
// the next page ("" when exhausted).
func (s *Service) Paginate(ctx context.Context, limit int, cursor string) ([]models.Post, string, error) {
	if limit < 1 {
		return nil, "", ErrInvalidLimit
	}
	if s.view == config.StoreViewLegacy {
		return s.paginateLegacy(ctx, limit, cursor)
	}
	return s.paginateFlat(ctx, limit, cursor)
}

// paginateFlat pages the flat /posts collection with a key-based cursor. The
// store hands back the last limit+1 children ending at the cursor key in
// ascending order; the cursor entry itself belongs to the previous page.
func (s *Service) paginateFlat(ctx context.Context, limit int, cursor string) ([]models.Post, string, error) {
	children, err := s.store.ReadRange(ctx, postsPath, store.RangeQuery{
		EndAtKey:    cursor,
		LimitToLast: limit + 1,
	})
	if err != nil {
		return nil, "", fmt.Errorf("paginate posts: %w", err)
	}
	rawCount := len(children)

	posts := make([]models.Post, 0, rawCount)
	for i := rawCount - 1; i >= 0; i-- {
		p, ok := s.decodePost(children[i])
		if !ok {
			continue
		}
		posts = append(posts, p)
	}

	if cursor != "" && len(posts) > 0 && posts[0].ID == cursor {
		posts = posts[1:]
	}
	if len(posts) == 0 {
		return []models.Post{}, "", nil
	}

	next := ""
	switch {
	case len(posts) > limit:
		posts = posts[:limit]
		next = posts[limit-1].ID
	case len(posts) == limit && rawCount == limit+1:
		// a full batch came back, so older items may still exist upstream
		next = posts[len(posts)-1].ID
	}
	return posts, next, nil
}

// paginateLegacy merges the four per-medium collections, sorts them by the
// artwork date composite, and pages by positional offset. The merged set is
// materialized in memory, so there is no live key ordering to cursor against;
// this mode exists only while both data shapes coexist.
func (s *Service) paginateLegacy(ctx context.Context, limit int, cursor string) ([]models.Post, string, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, "", ErrInvalidCursor
		}
		offset = n
	}

	var all []models.Post
	for _, medium := range models.Mediums {
		children, err := s.store.ReadRange(ctx, legacyRootPath+"/"+string(medium), store.RangeQuery{})
		if err != nil {
			return nil, "", fmt.Errorf("paginate %s: %w", medium, err)
		}
		for _, child := range children {
			p, ok := s.decodePost(child)
			if !ok {
				continue
			}
			p.Medium = medium
			if p.Timestamp == 0 && p.RecordCreationDate != 0 {
				p.Timestamp = p.RecordCreationDate
			}
			all = append(all, p)
		}
	}
	if len(all) == 0 {
		return []models.Post{}, "", nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		return legacySortKey(all[i]) > legacySortKey(all[j])
	})

	if offset >= len(all) {
		return []models.Post{}, "", nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	next := ""
	if len(all) > offset+limit {
		next = strconv.Itoa(offset + limit)
	}
	return all[offset:end], next, nil
}

// legacySortKey orders merged posts by artwork creation date; missing month
// and day default to the first.
func legacySortKey(p models.Post) int {
	month := p.Month
	if month == 0 {
		month = 1
	}
	day := p.Day
	if day == 0 {
		day = 1
	}
	return p.Year*10000 + month*100 + day
}

func (s *Service) decodePost(child store.KeyedValue) (models.Post, bool) {
	var p models.Post
	if err := json.Unmarshal(child.Value, &p); err != nil {
		// records in the live database are schemaless; tolerate stray shapes
		s.log.Warn("skipping undecodable post record", zap.String("key", child.Key), zap.Error(err))
		return models.Post{}, false
	}
	p.ID = child.Key
	return p, true
}

// GetByID fetches a single post, trying the flat collection first and falling
// back to the four legacy per-medium paths. Returns (nil, nil) when absent.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Post, error) {
	raw, err := s.store.Read(ctx, postsPath+"/"+id)
	if err == nil {
		var p models.Post
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode post %s: %w", id, err)
		}
		p.ID = id
		return &p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	for _, medium := range models.Mediums {
		raw, err := s.store.Read(ctx, legacyRootPath+"/"+string(medium)+"/"+id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var p models.Post
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode post %s: %w", id, err)
		}
		p.ID = id
		p.Medium = medium
		return &p, nil
	}
	return nil, nil
}

// Create stores a new post under the flat collection and returns its key.
func (s *Service) Create(ctx context.Context, p models.Post) (string, error) {
	if p.Timestamp == 0 {
		p.Timestamp = float64(time.Now().Unix())
	}
	p.ID = "" // the key is the identity; never persisted inside the document

	id, err := s.store.Push(ctx, postsPath, p)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	s.log.Info("created post", zap.String("id", id))
	return id, nil
}

// IndexUserPost writes the denormalized user-to-post index entry used for
// per-user lookups (fan-out on write).
func (s *Service) IndexUserPost(ctx context.Context, userID, postID string) error {
	if err := s.store.Write(ctx, userIndexPath+"/"+userID+"/"+postID, true); err != nil {
		return fmt.Errorf("user index: %w", err)
	}
	return nil
}

// UpdateScore sets evaluationNum or ratingNum on a post. Values outside 1..5
// and unknown fields are rejected before any store mutation. After the
// primary write commits, the same field is fanned out to the legacy
// per-medium copy on a best-effort basis: a failure there is logged and
// swallowed, never surfaced to the caller.
func (s *Service) UpdateScore(ctx context.Context, postID, field string, value int) error {
	if !ScoreFields[field] {
		return ErrInvalidScoreField
	}
	if value < 1 || value > 5 {
		return ErrInvalidScore
	}

	existing, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}

	updates := map[string]any{
		field:        value,
		"updated_at": float64(time.Now().Unix()),
	}
	if err := s.store.Update(ctx, postsPath+"/"+postID, updates); err != nil {
		return fmt.Errorf("update post %s: %w", postID, err)
	}

	if existing.Medium.IsValid() {
		legacyPath := legacyRootPath + "/" + string(existing.Medium) + "/" + postID
		if err := s.store.Update(ctx, legacyPath, map[string]any{field: value}); err != nil {
			s.log.Warn("legacy score fan-out failed",
				zap.String("id", postID),
				zap.String("field", field),
				zap.Error(err),
			)
		}
	}

	s.log.Info("updated post score", zap.String("id", postID), zap.String("field", field), zap.Int("value", value))
	return nil
}

// Delete removes a post from the flat collection. This is the terminal state.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, postsPath+"/"+id); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	s.log.Info("deleted post", zap.String("id", id))
	return nil
}
