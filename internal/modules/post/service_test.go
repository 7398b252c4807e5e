package post

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artwall/core/internal/config"
	"github.com/artwall/core/internal/models"
	"github.com/artwall/core/internal/store"
)

func newTestService(t *testing.T, view string) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewService(st, view, zap.NewNop()), st
}

func seedFlat(t *testing.T, st store.DocumentStore, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, st.Write(context.Background(), "posts/"+key, models.Post{Title: "post " + key}))
	}
}

func idsOf(posts []models.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestPaginateFlatWalk(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	seedFlat(t, st, "1", "2", "3", "4", "5")
	ctx := context.Background()

	page, next, err := svc.Paginate(ctx, 4, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "4", "3", "2"}, idsOf(page))
	assert.Equal(t, "2", next)

	page, next, err = svc.Paginate(ctx, 4, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, idsOf(page))
	assert.Equal(t, "", next)
}

func TestPaginateFlatExactMultiple(t *testing.T) {
	// total divides evenly by the page size, so the walk ends on an empty page
	svc, st := newTestService(t, config.StoreViewFlat)
	seedFlat(t, st, "1", "2", "3", "4")
	ctx := context.Background()

	page, next, err := svc.Paginate(ctx, 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3"}, idsOf(page))
	assert.Equal(t, "3", next)

	page, next, err = svc.Paginate(ctx, 2, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, idsOf(page))
	// a full batch came back, so the walk only learns it is done next page
	assert.Equal(t, "1", next)

	page, next, err = svc.Paginate(ctx, 2, next)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, "", next)
}

func TestPaginateFlatWalkNeverRepeats(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	keys := []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11"}
	seedFlat(t, st, keys...)
	ctx := context.Background()

	seen := make(map[string]bool)
	cursor := ""
	for i := 0; i < 10; i++ {
		page, next, err := svc.Paginate(ctx, 3, cursor)
		require.NoError(t, err)
		for _, p := range page {
			assert.False(t, seen[p.ID], "post %s returned twice", p.ID)
			seen[p.ID] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	assert.Len(t, seen, len(keys), "walk must visit every post exactly once")
}

func TestPaginateFlatSinglePage(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	seedFlat(t, st, "1", "2", "3")
	ctx := context.Background()

	page, next, err := svc.Paginate(ctx, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, idsOf(page))
	assert.Equal(t, "", next)
}

func TestPaginateFlatEmpty(t *testing.T) {
	svc, _ := newTestService(t, config.StoreViewFlat)

	page, next, err := svc.Paginate(context.Background(), 5, "")
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, "", next)
}

func TestPaginateInvalidLimit(t *testing.T) {
	svc, _ := newTestService(t, config.StoreViewFlat)

	_, _, err := svc.Paginate(context.Background(), 0, "")
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, _, err = svc.Paginate(context.Background(), -3, "")
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestPaginateFlatSkipsUndecodable(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	seedFlat(t, st, "1", "3")
	require.NoError(t, st.Write(context.Background(), "posts/2", json.RawMessage(`[1,2,3]`)))

	page, _, err := svc.Paginate(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, idsOf(page))
}

func seedLegacy(t *testing.T, st store.DocumentStore, medium models.Medium, key string, p models.Post) {
	t.Helper()
	require.NoError(t, st.Write(context.Background(), "artwall/"+string(medium)+"/"+key, p))
}

func TestPaginateLegacyMergesAndSorts(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewLegacy)
	seedLegacy(t, st, models.MediumDrawing, "d1", models.Post{Title: "sketch", Year: 2023, Month: 4, Day: 10})
	seedLegacy(t, st, models.MediumWriting, "w1", models.Post{Title: "poem", Year: 2025, Month: 1, Day: 2})
	seedLegacy(t, st, models.MediumAudio, "a1", models.Post{Title: "song", Year: 2024, Month: 11, Day: 30})
	seedLegacy(t, st, models.MediumSculpture, "s1", models.Post{Title: "bust", Year: 2024}) // missing month/day -> Jan 1

	page, next, err := svc.Paginate(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "a1", "s1", "d1"}, idsOf(page))
	assert.Equal(t, "", next)

	// the merged view stamps the medium from the collection the record lives in
	assert.Equal(t, models.MediumWriting, page[0].Medium)
	assert.Equal(t, models.MediumSculpture, page[2].Medium)
}

func TestPaginateLegacyOffsetCursor(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewLegacy)
	for i, key := range []string{"a", "b", "c", "d", "e"} {
		seedLegacy(t, st, models.MediumDrawing, key, models.Post{Year: 2020 + i})
	}
	ctx := context.Background()

	page, next, err := svc.Paginate(ctx, 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, idsOf(page))
	assert.Equal(t, "2", next)

	page, next, err = svc.Paginate(ctx, 2, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, idsOf(page))
	assert.Equal(t, "4", next)

	page, next, err = svc.Paginate(ctx, 2, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, idsOf(page))
	assert.Equal(t, "", next)
}

func TestPaginateLegacyOffsetPastEnd(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewLegacy)
	seedLegacy(t, st, models.MediumDrawing, "a", models.Post{Year: 2024})

	page, next, err := svc.Paginate(context.Background(), 5, "99")
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, "", next)
}

func TestPaginateLegacyInvalidCursor(t *testing.T) {
	svc, _ := newTestService(t, config.StoreViewLegacy)

	for _, cursor := range []string{"abc", "-1", "1.5"} {
		_, _, err := svc.Paginate(context.Background(), 5, cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor, "cursor %q", cursor)
	}
}

func TestGetByIDFlat(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	require.NoError(t, st.Write(context.Background(), "posts/p1", models.Post{Title: "hello"}))

	p, err := svc.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "hello", p.Title)
}

func TestGetByIDLegacyFallback(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	seedLegacy(t, st, models.MediumSculpture, "s9", models.Post{Title: "bust"})

	p, err := svc.GetByID(context.Background(), "s9")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "s9", p.ID)
	assert.Equal(t, models.MediumSculpture, p.Medium)
}

func TestGetByIDAbsent(t *testing.T) {
	svc, _ := newTestService(t, config.StoreViewFlat)

	p, err := svc.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCreateDefaultsAndStripsID(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	ctx := context.Background()

	id, err := svc.Create(ctx, models.Post{ID: "should-not-persist", Title: "new"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	raw, err := st.Read(ctx, "posts/"+id)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.NotContains(t, doc, "id")
	assert.NotZero(t, doc["timestamp"])
}

func TestIndexUserPost(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	ctx := context.Background()

	require.NoError(t, svc.IndexUserPost(ctx, "u1", "p1"))

	raw, err := st.Read(ctx, "user-posts/u1/p1")
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))
}

func TestUpdateScoreValidation(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	seedFlat(t, st, "p1")
	ctx := context.Background()

	assert.ErrorIs(t, svc.UpdateScore(ctx, "p1", "title", 3), ErrInvalidScoreField)

	for _, v := range []int{0, 6, -1, 100} {
		assert.ErrorIs(t, svc.UpdateScore(ctx, "p1", "evaluationNum", v), ErrInvalidScore, "value %d", v)
	}
	for _, v := range []int{1, 5} {
		assert.NoError(t, svc.UpdateScore(ctx, "p1", "ratingNum", v), "value %d", v)
	}
}

func TestUpdateScoreAbsentPost(t *testing.T) {
	svc, _ := newTestService(t, config.StoreViewFlat)

	err := svc.UpdateScore(context.Background(), "missing", "evaluationNum", 3)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateScoreWritesPrimary(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	ctx := context.Background()
	require.NoError(t, st.Write(ctx, "posts/p1", models.Post{Title: "art", Year: 2024}))

	require.NoError(t, svc.UpdateScore(ctx, "p1", "evaluationNum", 4))

	raw, err := st.Read(ctx, "posts/p1")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, 4, doc["evaluationNum"])
	assert.Equal(t, "art", doc["title"])
	assert.NotZero(t, doc["updated_at"])
}

func TestUpdateScoreFansOutToLegacy(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	ctx := context.Background()
	require.NoError(t, st.Write(ctx, "posts/p1", models.Post{Title: "art", Medium: models.MediumDrawing}))
	seedLegacy(t, st, models.MediumDrawing, "p1", models.Post{Title: "art"})

	require.NoError(t, svc.UpdateScore(ctx, "p1", "ratingNum", 5))

	raw, err := st.Read(ctx, "artwall/drawing/p1")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, 5, doc["ratingNum"])
}

// failingStore wraps a real store and fails updates under a path prefix.
type failingStore struct {
	store.DocumentStore
	failPrefix string
}

func (f *failingStore) Update(ctx context.Context, path string, fields map[string]any) error {
	if strings.HasPrefix(path, f.failPrefix) {
		return errors.New("simulated store failure")
	}
	return f.DocumentStore.Update(ctx, path, fields)
}

func TestUpdateScoreFanOutFailureIsSwallowed(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, mem.Write(ctx, "posts/p1", models.Post{Title: "art", Medium: models.MediumAudio}))

	svc := NewService(&failingStore{DocumentStore: mem, failPrefix: "artwall/"}, config.StoreViewFlat, zap.NewNop())

	// the primary write succeeds, so the caller must not see the fan-out error
	require.NoError(t, svc.UpdateScore(ctx, "p1", "evaluationNum", 3))

	raw, err := mem.Read(ctx, "posts/p1")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, 3, doc["evaluationNum"])
}

func TestDelete(t *testing.T) {
	svc, st := newTestService(t, config.StoreViewFlat)
	ctx := context.Background()
	seedFlat(t, st, "p1")

	require.NoError(t, svc.Delete(ctx, "p1"))

	_, err := st.Read(ctx, "posts/p1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
