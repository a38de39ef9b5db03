// Package importer reconciles externally-sourced candidate notes against the
// store: already-imported candidates are skipped by identity, new ones are
// inserted in a single transaction with their hashtags resolved to tags.
package importer

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tonyski/bbmemo/internal/errs"
	"github.com/tonyski/bbmemo/internal/fingerprint"
	"github.com/tonyski/bbmemo/internal/obs"
	"github.com/tonyski/bbmemo/internal/store"
	"github.com/tonyski/bbmemo/internal/tagcount"
	"github.com/tonyski/bbmemo/internal/tagutil"
)

// Candidate is one externally-sourced note record, as produced by an import
// source collaborator such as the flomo HTML parser.
type Candidate struct {
	Content          string
	CreatedAt        time.Time
	SourceType       string
	SourceIdentifier string
}

// Result summarizes one batch.
type Result struct {
	ImportedCount int
}

// Reconciler performs idempotent batch imports.
type Reconciler struct {
	store *store.Store
	log   *slog.Logger
}

// New creates a Reconciler.
func New(s *store.Store) *Reconciler {
	return &Reconciler{store: s, log: obs.Pkg("importer")}
}

// ImportBatch inserts the candidates that are not already present and
// returns how many were imported. Dedup runs against every existing note's
// import identity AND its legacy (hash+timestamp) identity, so data imported
// before source-identifier tracking still blocks re-import. Within-batch
// duplicates are caught by adding each staged candidate's identities to the
// lookup as it is accepted.
//
// All staged notes commit in one transaction; a persistence failure rolls
// the whole batch back, and cancellation before commit leaves the store
// untouched. Importing the identical batch twice yields a second count of 0.
func (r *Reconciler) ImportBatch(ctx context.Context, candidates []Candidate) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, errs.Wrap(errs.ImportSource, "import cancelled", err)
	}

	existing, err := r.store.ListImportIdentityRows(ctx)
	if err != nil {
		return Result{}, err
	}
	seen := make(map[string]struct{}, 2*len(existing))
	for _, row := range existing {
		seen[store.ImportIdentity(row.SourceType, row.SourceIdentifier, row.ContentHash, row.CreatedAt)] = struct{}{}
		seen[store.LegacyImportIdentity(row.ContentHash, row.CreatedAt)] = struct{}{}
	}

	now := time.Now().UTC()
	var staged []store.Note
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{}, errs.Wrap(errs.ImportSource, "import cancelled", err)
		}
		if c.Content == "" {
			continue
		}

		hash := fingerprint.Hash(c.Content)
		sourceID := c.SourceIdentifier
		if sourceID == "" {
			// Synthesize a stable per-record identifier so re-exports of the
			// same source line up across imports.
			sourceID = deriveSourceIdentifier(c.CreatedAt, hash)
		}

		createdAt := c.CreatedAt.UTC()
		identity := store.ImportIdentity(c.SourceType, sourceID, hash, createdAt)
		legacy := store.LegacyImportIdentity(hash, createdAt)

		if _, dup := seen[identity]; dup {
			continue
		}
		if _, dup := seen[legacy]; dup {
			continue
		}
		seen[identity] = struct{}{}
		seen[legacy] = struct{}{}

		importedAt := now
		staged = append(staged, store.Note{
			ID:               uuid.New().String(),
			Content:          c.Content,
			ContentHash:      hash,
			SourceType:       c.SourceType,
			SourceIdentifier: sourceID,
			ImportedAt:       &importedAt,
			CreatedAt:        createdAt,
			UpdatedAt:        createdAt,
		})
	}

	if len(staged) == 0 {
		return Result{ImportedCount: 0}, nil
	}

	err = r.store.WithTx(ctx, func(tx *sql.Tx) error {
		// Per-batch tag cache: one lookup/create per normalized key.
		tagCache := make(map[string]store.Tag)

		for i := range staged {
			if err := ctx.Err(); err != nil {
				return errs.Wrap(errs.ImportSource, "import cancelled", err)
			}
			n := &staged[i]
			if err := store.InsertNoteTx(ctx, tx, n); err != nil {
				return err
			}

			noteSeen := make(map[string]struct{})
			for _, raw := range tagutil.ExtractHashtags(n.Content) {
				name := tagutil.Normalize(raw)
				if name == "" {
					continue
				}
				key := tagutil.Key(name)
				if _, ok := noteSeen[key]; ok {
					continue
				}
				noteSeen[key] = struct{}{}

				tag, ok := tagCache[key]
				if !ok {
					var err error
					tag, _, err = store.UpsertTagTx(ctx, tx, name, now)
					if err != nil {
						return err
					}
					tagCache[key] = tag
				}
				if err := store.AddNoteTagTx(ctx, tx, n.ID, tag.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	// Import touches many tags at once; incremental counting is not
	// attempted. Resync failure is a diagnostic, not an import failure:
	// the notes are already committed.
	if err := tagcount.ResyncAll(ctx, r.store); err != nil {
		r.log.Warn("post-import usage resync failed", "error", err)
	}

	return Result{ImportedCount: len(staged)}, nil
}

func deriveSourceIdentifier(createdAt time.Time, contentHash string) string {
	return strconv.FormatInt(createdAt.Unix(), 10) + "_" + contentHash
}
