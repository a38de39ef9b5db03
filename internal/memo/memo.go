// Package memo owns the note lifecycle: create, edit, soft-delete into the
// recycle bin, restore, and permanent deletion, with their ripple effects on
// tag relationships and usage counts. It is the write surface the UI layer
// calls into.
package memo

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tonyski/bbmemo/internal/errs"
	"github.com/tonyski/bbmemo/internal/fingerprint"
	"github.com/tonyski/bbmemo/internal/importer"
	"github.com/tonyski/bbmemo/internal/obs"
	"github.com/tonyski/bbmemo/internal/store"
	"github.com/tonyski/bbmemo/internal/tagcount"
	"github.com/tonyski/bbmemo/internal/tagutil"
)

// Service is the note lifecycle manager.
type Service struct {
	store      *store.Store
	reconciler *importer.Reconciler
	scheduler  ReminderScheduler
	clock      Clock
	log        *slog.Logger

	mu        sync.Mutex
	listeners []func()
}

// Option configures a Service.
type Option func(*Service)

// WithScheduler wires the external reminder-scheduling collaborator.
func WithScheduler(sched ReminderScheduler) Option {
	return func(s *Service) { s.scheduler = sched }
}

// WithClock replaces the time source, for tests.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService creates a lifecycle service over the given store.
func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		reconciler: importer.New(st),
		scheduler:  NopScheduler{},
		clock:      systemClock{},
		log:        obs.Pkg("memo"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnDataChanged registers a callback invoked after every committed mutation.
// The UI layer uses it to re-query and re-render.
func (s *Service) OnDataChanged(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// CreateNote creates an active note with the given tags. Inline #hashtags in
// the content are merged with the explicit tag names; the result is
// normalized and resolved to existing tags by key, creating missing ones.
// Empty content (after trimming) is rejected.
func (s *Service) CreateNote(ctx context.Context, p CreateParams) (*store.Note, error) {
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return nil, errs.New(errs.InvalidArgument, "note content is empty")
	}

	now := s.now()
	note := &store.Note{
		ID:          uuid.New().String(),
		Content:     content,
		ContentHash: fingerprint.Hash(content),
		ReminderAt:  p.ReminderAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var tags []store.Tag
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		tags, err = resolveTagsTx(ctx, tx, tagNamesFor(content, p.TagNames), now)
		if err != nil {
			return err
		}
		if err := store.InsertNoteTx(ctx, tx, note); err != nil {
			return err
		}
		// Relationship sync first, count adjustment second.
		if _, _, err := store.SetNoteTagsTx(ctx, tx, note.ID, tagIDs(tags)); err != nil {
			return err
		}
		return tagcount.Increment(ctx, tx, tags, 1)
	})
	if err != nil {
		return nil, err
	}

	note.Tags = tags
	s.afterCommit(ctx)
	s.syncReminder(note)
	return note, nil
}

// UpdateNote replaces a note's content, reminder, and tag set. Inline
// #hashtags in the new content are merged with the explicit tag names.
// Saving always produces a live note, so updating a note that sits in the
// recycle bin brings it back. The tag diff runs SetNoteTags first and the
// incremental count delta second, both inside the same commit.
func (s *Service) UpdateNote(ctx context.Context, id string, p UpdateParams) (*store.Note, error) {
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return nil, errs.New(errs.InvalidArgument, "note content is empty")
	}

	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	oldTags := note.Tags
	if note.Deleted() {
		// Tags of a binned note were not counted while it was deleted, so the
		// delta below must treat them all as newly added.
		oldTags = nil
		note.DeletedAt = nil
	}

	now := s.now()
	note.Content = content
	note.ContentHash = fingerprint.Hash(content)
	note.ReminderAt = p.ReminderAt
	note.UpdatedAt = now

	var newTags []store.Tag
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		newTags, err = resolveTagsTx(ctx, tx, tagNamesFor(content, p.TagNames), now)
		if err != nil {
			return err
		}
		if err := store.UpdateNoteTx(ctx, tx, note); err != nil {
			return err
		}
		if _, _, err := store.SetNoteTagsTx(ctx, tx, note.ID, tagIDs(newTags)); err != nil {
			return err
		}
		return tagcount.ApplyDelta(ctx, tx, oldTags, newTags)
	})
	if err != nil {
		return nil, err
	}

	note.Tags = newTags
	s.afterCommit(ctx)
	s.syncReminder(note)
	return note, nil
}

// SoftDeleteNote moves a note into the recycle bin. The reminder is cleared
// so a deleted note can never fire a notification; tag associations stay in
// place, and the note stops counting toward usage via resync.
func (s *Service) SoftDeleteNote(ctx context.Context, id string) (*store.Note, error) {
	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Deleted() {
		return note, nil
	}

	now := s.now()
	note.DeletedAt = &now
	note.UpdatedAt = now
	note.ReminderAt = nil

	if err := store.UpdateNoteTx(ctx, s.store.DB(), note); err != nil {
		return nil, err
	}

	s.afterCommit(ctx)
	if err := s.scheduler.Cancel(note.ID); err != nil {
		s.log.Warn("reminder cancel failed", "note_id", note.ID, "error", err)
	}
	return note, nil
}

// RestoreNote brings a note back from the recycle bin.
func (s *Service) RestoreNote(ctx context.Context, id string) (*store.Note, error) {
	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.Deleted() {
		return note, nil
	}

	note.DeletedAt = nil
	note.UpdatedAt = s.now()

	if err := store.UpdateNoteTx(ctx, s.store.DB(), note); err != nil {
		return nil, err
	}

	s.afterCommit(ctx)
	return note, nil
}

// PermanentlyDeleteNote detaches a note from all tags and removes it for
// good. Terminal: the id is never reused.
func (s *Service) PermanentlyDeleteNote(ctx context.Context, id string) error {
	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, _, err := store.SetNoteTagsTx(ctx, tx, note.ID, nil); err != nil {
			return err
		}
		return store.DeleteNoteRowTx(ctx, tx, note.ID)
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx)
	if err := s.scheduler.Cancel(note.ID); err != nil {
		s.log.Warn("reminder cancel failed", "note_id", note.ID, "error", err)
	}
	return nil
}

// TogglePinned flips the pin flag. Pinning affects sort order only, never
// tags or counts.
func (s *Service) TogglePinned(ctx context.Context, id string) (*store.Note, error) {
	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}

	note.IsPinned = !note.IsPinned
	note.UpdatedAt = s.now()

	if err := store.UpdateNoteTx(ctx, s.store.DB(), note); err != nil {
		return nil, err
	}

	s.afterCommit(ctx)
	return note, nil
}

// GetNote retrieves a note with its tags.
func (s *Service) GetNote(ctx context.Context, id string) (*store.Note, error) {
	return s.store.GetNote(ctx, id)
}

// ListNotes returns notes matching the filter.
func (s *Service) ListNotes(ctx context.Context, f store.ListFilter) ([]store.Note, error) {
	return s.store.ListNotes(ctx, f)
}

// ListTags returns tags in the requested order.
func (s *Service) ListTags(ctx context.Context, sortBy store.TagSort) ([]store.Tag, error) {
	return s.store.ListTags(ctx, sortBy)
}

// DeleteTag detaches the tag from every note and removes it. The notes
// themselves are untouched.
func (s *Service) DeleteTag(ctx context.Context, tagID string) error {
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return store.DeleteTagRowTx(ctx, tx, tagID)
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx)
	return nil
}

// ImportBatch runs an idempotent batch import and notifies listeners when
// anything was inserted.
func (s *Service) ImportBatch(ctx context.Context, candidates []importer.Candidate) (importer.Result, error) {
	res, err := s.reconciler.ImportBatch(ctx, candidates)
	if err != nil {
		return res, err
	}
	if res.ImportedCount > 0 {
		s.notifyDataChanged()
	}
	return res, nil
}

// PurgeRecycleBin permanently removes notes soft-deleted more than olderThan
// ago. Returns the number purged.
func (s *Service) PurgeRecycleBin(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	n, err := s.store.PurgeRecycleBin(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.afterCommit(ctx)
	}
	return n, nil
}

// ResyncTagUsage recounts every tag's usage from live associations. Unlike
// the post-commit resync, an explicitly requested resync surfaces failures.
func (s *Service) ResyncTagUsage(ctx context.Context) error {
	if err := tagcount.ResyncAll(ctx, s.store); err != nil {
		return errs.Wrap(errs.Resync, "resync tag usage", err)
	}
	s.notifyDataChanged()
	return nil
}

// now returns the clock time truncated to whole seconds, matching the
// storage resolution so returned notes compare equal to re-read ones.
func (s *Service) now() time.Time {
	return time.Unix(s.clock.Now().Unix(), 0).UTC()
}

// afterCommit runs the best-effort post-commit steps: a full usage resync
// and the data-changed notification. A resync failure is logged and
// swallowed; the primary mutation already succeeded and matters more than
// the cached count.
func (s *Service) afterCommit(ctx context.Context) {
	if err := tagcount.ResyncAll(ctx, s.store); err != nil {
		s.log.Warn("usage resync failed after commit",
			"error", errs.Wrap(errs.Resync, "post-commit resync", err))
	}
	s.notifyDataChanged()
}

func (s *Service) notifyDataChanged() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// syncReminder pushes the note's reminder state to the external scheduler.
func (s *Service) syncReminder(note *store.Note) {
	var err error
	if note.ReminderAt != nil && !note.Deleted() {
		err = s.scheduler.Schedule(note.ID, note.Content, *note.ReminderAt)
	} else {
		err = s.scheduler.Cancel(note.ID)
	}
	if err != nil {
		s.log.Warn("reminder scheduling failed", "note_id", note.ID, "error", err)
	}
}

// tagNamesFor merges the note's inline #hashtags with the explicitly chosen
// tag names. resolveTagsTx collapses duplicates between the two sources by
// normalized key.
func tagNamesFor(content string, explicit []string) []string {
	return append(tagutil.ExtractHashtags(content), explicit...)
}

// resolveTagsTx normalizes, deduplicates, and upserts tag names. Names are
// processed in sorted order so tag creation is deterministic regardless of
// input order.
func resolveTagsTx(ctx context.Context, q store.DBTX, names []string, now time.Time) ([]store.Tag, error) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	seen := make(map[string]struct{}, len(sorted))
	var tags []store.Tag
	for _, raw := range sorted {
		name := tagutil.Normalize(raw)
		if name == "" {
			continue
		}
		key := tagutil.Key(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		tag, _, err := store.UpsertTagTx(ctx, q, name, now)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func tagIDs(tags []store.Tag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
