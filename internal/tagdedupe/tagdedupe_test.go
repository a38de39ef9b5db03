package tagdedupe_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyski/bbmemo/internal/store"
	"github.com/tonyski/bbmemo/internal/tagdedupe"
	"github.com/tonyski/bbmemo/internal/testdb"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := testdb.NewStoreInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedTag inserts a tag row directly, bypassing the upsert's key dedup, the
// way databases that predate key tracking end up with duplicates.
func seedTag(t *testing.T, s *store.Store, id, displayName, key string, usage int64, createdAt time.Time) {
	t.Helper()
	_, err := s.DB().Exec(
		`INSERT INTO tags (id, display_name, normalized_key, usage_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, displayName, key, usage, createdAt.Unix())
	require.NoError(t, err)
}

func seedNote(t *testing.T, s *store.Store, content string, tagIDs ...string) string {
	t.Helper()
	ctx := context.Background()
	n := &store.Note{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	require.NoError(t, store.InsertNoteTx(ctx, s.DB(), n))
	for _, id := range tagIDs {
		require.NoError(t, store.AddNoteTagTx(ctx, s.DB(), n.ID, id))
	}
	return n.ID
}

func TestMergeDuplicatesCaseVariants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedTag(t, s, "tag-upper", "Work", "work", 0, baseTime)
	seedTag(t, s, "tag-lower", "work", "work", 0, baseTime.Add(time.Hour))
	seedNote(t, s, "first", "tag-upper")
	seedNote(t, s, "second", "tag-lower")

	merged, err := tagdedupe.New(s).MergeDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	tags, err := s.ListTags(ctx, store.TagSortNameAsc)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	// Equal usage: the earlier-created tag survives.
	assert.Equal(t, "tag-upper", tags[0].ID)
	assert.EqualValues(t, 2, tags[0].UsageCount)
}

func TestMergeDuplicatesSurvivorByUsage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// The most-used tag wins even when it was created later.
	seedTag(t, s, "tag-old", "reading", "reading", 1, baseTime)
	seedTag(t, s, "tag-popular", "Reading", "reading", 5, baseTime.Add(time.Hour))

	var notes []string
	for i := 0; i < 5; i++ {
		notes = append(notes, seedNote(t, s, "n", "tag-popular"))
	}
	seedNote(t, s, "old note", "tag-old")

	merged, err := tagdedupe.New(s).MergeDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	tags, err := s.ListTags(ctx, store.TagSortNameAsc)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "tag-popular", tags[0].ID)
	assert.EqualValues(t, 6, tags[0].UsageCount)

	// Every note, including the former duplicate's, now points at the survivor.
	for _, id := range notes {
		n, err := s.GetNote(ctx, id)
		require.NoError(t, err)
		require.Len(t, n.Tags, 1)
		assert.Equal(t, "tag-popular", n.Tags[0].ID)
	}
}

func TestMergeDuplicatesSharedNoteNotDoubleLinked(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedTag(t, s, "tag-a", "Go", "go", 0, baseTime)
	seedTag(t, s, "tag-b", "go", "go", 0, baseTime.Add(time.Hour))
	noteID := seedNote(t, s, "both variants", "tag-a", "tag-b")

	merged, err := tagdedupe.New(s).MergeDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	n, err := s.GetNote(ctx, noteID)
	require.NoError(t, err)
	require.Len(t, n.Tags, 1)
	assert.EqualValues(t, 1, n.Tags[0].UsageCount)
}

func TestMergeDuplicatesStaleKeysCollide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// One row carries a stale key; grouping must use the freshly computed one.
	seedTag(t, s, "tag-good", "idea", "idea", 0, baseTime)
	seedTag(t, s, "tag-stale", "Idea", "STALE", 0, baseTime.Add(time.Hour))

	merged, err := tagdedupe.New(s).MergeDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	tags, err := s.ListTags(ctx, store.TagSortNameAsc)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "tag-good", tags[0].ID)
	assert.Equal(t, "idea", tags[0].NormalizedKey)
}

func TestMergeDuplicatesIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedTag(t, s, "tag-1", "One", "one", 0, baseTime)
	seedTag(t, s, "tag-2", "one", "one", 0, baseTime.Add(time.Hour))
	seedTag(t, s, "tag-3", "two", "two", 0, baseTime)

	d := tagdedupe.New(s)
	merged, err := d.MergeDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	merged, err = d.MergeDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, merged)

	tags, err := s.ListTags(ctx, store.TagSortNameAsc)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestMergeDuplicatesNoDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedTag(t, s, "tag-a", "alpha", "alpha", 0, baseTime)
	seedTag(t, s, "tag-b", "beta", "beta", 0, baseTime)

	merged, err := tagdedupe.New(s).MergeDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, merged)
}
