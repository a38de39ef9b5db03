package tagcount_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyski/bbmemo/internal/store"
	"github.com/tonyski/bbmemo/internal/tagcount"
	"github.com/tonyski/bbmemo/internal/testdb"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := testdb.NewStoreInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func upsert(t *testing.T, s *store.Store, name string) store.Tag {
	t.Helper()
	tag, err := s.UpsertTag(context.Background(), name)
	require.NoError(t, err)
	return tag
}

func usage(t *testing.T, s *store.Store, tagID string) int64 {
	t.Helper()
	m, err := s.TagUsageByID(context.Background())
	require.NoError(t, err)
	return m[tagID]
}

func TestIncrementDecrement(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := upsert(t, s, "work")

	require.NoError(t, tagcount.Increment(ctx, s.DB(), []store.Tag{tag}, 1))
	require.NoError(t, tagcount.Increment(ctx, s.DB(), []store.Tag{tag}, 2))
	assert.EqualValues(t, 3, usage(t, s, tag.ID))

	require.NoError(t, tagcount.Decrement(ctx, s.DB(), []store.Tag{tag}, 1))
	assert.EqualValues(t, 2, usage(t, s, tag.ID))

	// Floored at zero, never negative.
	require.NoError(t, tagcount.Decrement(ctx, s.DB(), []store.Tag{tag}, 10))
	assert.EqualValues(t, 0, usage(t, s, tag.ID))
}

func TestIncrementDeduplicatesByKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := upsert(t, s, "work")

	// The same tag referenced twice in one call counts once.
	require.NoError(t, tagcount.Increment(ctx, s.DB(), []store.Tag{tag, tag}, 1))
	assert.EqualValues(t, 1, usage(t, s, tag.ID))
}

func TestApplyDelta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	kept := upsert(t, s, "kept")
	dropped := upsert(t, s, "dropped")
	added := upsert(t, s, "added")

	require.NoError(t, tagcount.Increment(ctx, s.DB(), []store.Tag{kept, dropped}, 1))

	oldTags := []store.Tag{kept, dropped}
	newTags := []store.Tag{kept, added}
	require.NoError(t, tagcount.ApplyDelta(ctx, s.DB(), oldTags, newTags))

	assert.EqualValues(t, 1, usage(t, s, kept.ID), "unchanged tag untouched")
	assert.EqualValues(t, 0, usage(t, s, dropped.ID))
	assert.EqualValues(t, 1, usage(t, s, added.ID))
}

func TestApplyDeltaNoChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := upsert(t, s, "same")
	require.NoError(t, tagcount.Increment(ctx, s.DB(), []store.Tag{tag}, 1))

	require.NoError(t, tagcount.ApplyDelta(ctx, s.DB(), []store.Tag{tag}, []store.Tag{tag}))
	assert.EqualValues(t, 1, usage(t, s, tag.ID))
}

func TestResyncAllCorrectsDrift(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := upsert(t, s, "drifted")
	note := &store.Note{
		ID:        uuid.New().String(),
		Content:   "x",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertNoteTx(ctx, s.DB(), note))
	require.NoError(t, store.AddNoteTagTx(ctx, s.DB(), note.ID, tag.ID))

	// Drift the denormalized count away from the real association count.
	require.NoError(t, tagcount.Increment(ctx, s.DB(), []store.Tag{tag}, 7))

	require.NoError(t, tagcount.ResyncAll(ctx, s))
	assert.EqualValues(t, 1, usage(t, s, tag.ID))
}
