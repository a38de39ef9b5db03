package importer_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyski/bbmemo/internal/errs"
	"github.com/tonyski/bbmemo/internal/fingerprint"
	"github.com/tonyski/bbmemo/internal/importer"
	"github.com/tonyski/bbmemo/internal/store"
	"github.com/tonyski/bbmemo/internal/testdb"
)

var baseTime = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := testdb.NewStoreInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func candidate(content string, createdAt time.Time) importer.Candidate {
	return importer.Candidate{
		Content:    content,
		CreatedAt:  createdAt,
		SourceType: "flomo_html",
	}
}

func TestImportBatchInsertsAndTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := importer.New(s).ImportBatch(ctx, []importer.Candidate{
		candidate("first note #work #Ideas", baseTime),
		candidate("second note #work", baseTime.Add(time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImportedCount)

	notes, err := s.ListNotes(ctx, store.ListFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	for _, n := range notes {
		assert.Equal(t, "flomo_html", n.SourceType)
		assert.NotEmpty(t, n.SourceIdentifier)
		assert.NotNil(t, n.ImportedAt)
		assert.Equal(t, fingerprint.Hash(n.Content), n.ContentHash)
	}

	tags, err := s.ListTags(ctx, store.TagSortUsageDesc)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "work", tags[0].NormalizedKey)
	assert.EqualValues(t, 2, tags[0].UsageCount)
	assert.Equal(t, "ideas", tags[1].NormalizedKey)
	assert.EqualValues(t, 1, tags[1].UsageCount)
}

func TestImportBatchIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := importer.New(s)

	batch := []importer.Candidate{
		candidate("alpha", baseTime),
		candidate("beta #tag", baseTime.Add(time.Minute)),
		candidate("gamma", baseTime.Add(2*time.Minute)),
	}

	res, err := r.ImportBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ImportedCount)

	res, err = r.ImportBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedCount)

	active, _, err := s.CountNotes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, active)
}

func TestImportBatchPartialOverlap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := importer.New(s)

	_, err := r.ImportBatch(ctx, []importer.Candidate{candidate("existing", baseTime)})
	require.NoError(t, err)

	res, err := r.ImportBatch(ctx, []importer.Candidate{
		candidate("existing", baseTime),
		candidate("brand new", baseTime.Add(time.Hour)),
		candidate("also new", baseTime.Add(2*time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImportedCount)
}

func TestImportBatchWithinBatchDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := importer.New(s).ImportBatch(ctx, []importer.Candidate{
		candidate("same record", baseTime),
		candidate("same record", baseTime),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedCount)
}

func TestImportBatchLegacyIdentityBlocks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A natively-created note has no source fields; its hash+timestamp legacy
	// identity must still block an import of the same content.
	content := "written in the app"
	native := &store.Note{
		ID:          uuid.New().String(),
		Content:     content,
		ContentHash: fingerprint.Hash(content),
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
	require.NoError(t, store.InsertNoteTx(ctx, s.DB(), native))

	res, err := importer.New(s).ImportBatch(ctx, []importer.Candidate{
		candidate(content, baseTime),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedCount)
}

func TestImportBatchDeletedNoteStillBlocks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := importer.New(s)

	_, err := r.ImportBatch(ctx, []importer.Candidate{candidate("later deleted", baseTime)})
	require.NoError(t, err)

	notes, err := s.ListNotes(ctx, store.ListFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	n := notes[0]
	d := baseTime.Add(time.Hour)
	n.DeletedAt = &d
	n.UpdatedAt = d
	require.NoError(t, store.UpdateNoteTx(ctx, s.DB(), &n))

	res, err := r.ImportBatch(ctx, []importer.Candidate{candidate("later deleted", baseTime)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedCount, "a note in the recycle bin still blocks re-import")
}

func TestImportBatchSkipsEmptyContent(t *testing.T) {
	s := newTestStore(t)
	res, err := importer.New(s).ImportBatch(context.Background(), []importer.Candidate{
		{Content: "", CreatedAt: baseTime},
		candidate("real", baseTime),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedCount)
}

func TestImportBatchSuppliedSourceIdentifier(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := importer.New(s)

	c := importer.Candidate{
		Content:          "has its own id",
		CreatedAt:        baseTime,
		SourceType:       "flomo_html",
		SourceIdentifier: "export-42",
	}
	res, err := r.ImportBatch(ctx, []importer.Candidate{c})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedCount)

	// Same identity with edited content is still a duplicate.
	c.Content = "has its own id (edited upstream)"
	res, err = r.ImportBatch(ctx, []importer.Candidate{c})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedCount)
}

func TestImportBatchCancelledContext(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := importer.New(s).ImportBatch(ctx, []importer.Candidate{candidate("never lands", baseTime)})
	require.Error(t, err)
	assert.Equal(t, errs.ImportSource, errs.CodeOf(err))

	active, deleted, err := s.CountNotes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, active)
	assert.Zero(t, deleted)
}

func TestImportBatchEmpty(t *testing.T) {
	s := newTestStore(t)
	res, err := importer.New(s).ImportBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedCount)
}
