// Package tagcount maintains the denormalized Tag.usage_count. Increment,
// Decrement, and ApplyDelta are the incremental performance path used on
// single-note edits; ResyncAll recomputes everything from the association
// table and is the truth path after bulk operations or a suspected crash.
//
// Counts live only on the tag row; this package keeps no cache of its own.
package tagcount

import (
	"context"

	"github.com/tonyski/bbmemo/internal/store"
)

// Increment raises usage_count by `by` for each distinct tag. The input set
// is deduplicated by normalized key, so a tag referenced twice in one call
// is adjusted once.
func Increment(ctx context.Context, q store.DBTX, tags []store.Tag, by int64) error {
	return store.AdjustTagUsageTx(ctx, q, dedupIDs(tags), by)
}

// Decrement lowers usage_count by `by` for each distinct tag, floored at
// zero.
func Decrement(ctx context.Context, q store.DBTX, tags []store.Tag, by int64) error {
	return store.AdjustTagUsageTx(ctx, q, dedupIDs(tags), -by)
}

// ApplyDelta adjusts counts for an edit that replaced oldTags with newTags:
// +1 for tags only in newTags, -1 (floored at zero) for tags only in
// oldTags. Unchanged tags are untouched; this avoids a full resync on every
// edit and is an optimization, not a correctness fallback.
func ApplyDelta(ctx context.Context, q store.DBTX, oldTags, newTags []store.Tag) error {
	oldByKey := byKey(oldTags)
	newByKey := byKey(newTags)

	var addedIDs, removedIDs []string
	for key, t := range newByKey {
		if _, ok := oldByKey[key]; !ok {
			addedIDs = append(addedIDs, t.ID)
		}
	}
	for key, t := range oldByKey {
		if _, ok := newByKey[key]; !ok {
			removedIDs = append(removedIDs, t.ID)
		}
	}

	if err := store.AdjustTagUsageTx(ctx, q, addedIDs, 1); err != nil {
		return err
	}
	return store.AdjustTagUsageTx(ctx, q, removedIDs, -1)
}

// ResyncAll recomputes every tag's usage_count by counting associated
// non-deleted notes, and repairs stale normalized keys. Run after import,
// dedup, and at startup, where incremental tracking may have drifted.
func ResyncAll(ctx context.Context, s *store.Store) error {
	return s.ResyncTagUsage(ctx)
}

func byKey(tags []store.Tag) map[string]store.Tag {
	m := make(map[string]store.Tag, len(tags))
	for _, t := range tags {
		if _, ok := m[t.NormalizedKey]; !ok {
			m[t.NormalizedKey] = t
		}
	}
	return m
}

func dedupIDs(tags []store.Tag) []string {
	seen := make(map[string]bool, len(tags))
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t.NormalizedKey] {
			continue
		}
		seen[t.NormalizedKey] = true
		ids = append(ids, t.ID)
	}
	return ids
}
