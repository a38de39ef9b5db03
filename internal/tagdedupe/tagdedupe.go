// Package tagdedupe merges tags whose normalized keys collide. It runs as a
// maintenance pass, typically once at startup, and restores the invariant
// that no two live tags share a normalized key.
package tagdedupe

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"

	"github.com/tonyski/bbmemo/internal/obs"
	"github.com/tonyski/bbmemo/internal/store"
	"github.com/tonyski/bbmemo/internal/tagcount"
	"github.com/tonyski/bbmemo/internal/tagutil"
)

// Deduplicator merges duplicate tags through the store.
type Deduplicator struct {
	store *store.Store
	log   *slog.Logger
}

// New creates a Deduplicator.
func New(s *store.Store) *Deduplicator {
	return &Deduplicator{store: s, log: obs.Pkg("tagdedupe")}
}

// MergeDuplicates groups tags by normalized key and merges each group into a
// canonical survivor: highest usage count wins, ties broken by earliest
// creation, then id for determinism. Non-canonical tags have their note
// associations re-pointed to the survivor (existing associations are kept,
// never duplicated) and are then deleted. A full usage resync runs after the
// merges: counts can be stale mid-merge and incremental tracking is not
// trusted here.
//
// Returns the number of tags merged away. Idempotent: a second run with no
// new duplicates merges nothing.
func (d *Deduplicator) MergeDuplicates(ctx context.Context) (int, error) {
	merged := 0
	err := d.store.WithTx(ctx, func(tx *sql.Tx) error {
		tags, err := store.ListTagsTx(ctx, tx, store.TagSortNameAsc)
		if err != nil {
			return err
		}

		groups := make(map[string][]store.Tag)
		for _, t := range tags {
			// Group on the freshly computed key, not the stored one,
			// so tags with a stale normalized_key still collide.
			key := tagutil.NormalizedKey(t.DisplayName)
			groups[key] = append(groups[key], t)
		}

		for _, group := range groups {
			if len(group) < 2 {
				continue
			}
			sort.Slice(group, func(i, j int) bool {
				if group[i].UsageCount != group[j].UsageCount {
					return group[i].UsageCount > group[j].UsageCount
				}
				if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
					return group[i].CreatedAt.Before(group[j].CreatedAt)
				}
				return group[i].ID < group[j].ID
			})
			canonical := group[0]

			for _, dup := range group[1:] {
				if err := store.RepointTagTx(ctx, tx, dup.ID, canonical.ID); err != nil {
					return err
				}
				if err := store.DeleteTagRowTx(ctx, tx, dup.ID); err != nil {
					return err
				}
				merged++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if merged > 0 {
		d.log.Info("merged duplicate tags", "count", merged)
	}
	if err := tagcount.ResyncAll(ctx, d.store); err != nil {
		return merged, err
	}
	return merged, nil
}
