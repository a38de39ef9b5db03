// Package store is the sole owner of persisted note/tag state. Every
// component reads and writes through it; nothing else touches the database.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonyski/bbmemo/internal/errs"
	"github.com/tonyski/bbmemo/internal/obs"
	"github.com/tonyski/bbmemo/internal/tagutil"
)

const (
	// MaxOpenConns is kept low: SQLite is single-writer and the engine
	// assumes one logical owner of the store at a time.
	MaxOpenConns = 2
	// MaxIdleConns is the maximum idle connections per store.
	MaxIdleConns = 1
)

// DBTX is the common surface of *sql.DB and *sql.Tx. Mutation helpers take
// it so the same statement runs standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the SQLite connection for one note database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the note database at path. A non-nil
// 32-byte key enables SQLCipher encryption, matching how the hosting app
// protects on-device data; nil opens an unencrypted database.
func Open(path string, key []byte) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errs.Wrap(errs.Persistence, "create data directory", err)
	}

	dsn := path
	if len(key) > 0 {
		if len(key) != 32 {
			return nil, fmt.Errorf("encryption key must be exactly 32 bytes, got %d", len(key))
		}
		dsn = fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", path, hex.EncodeToString(key))
	}
	dsn = appendSQLiteParams(dsn, sqliteCommonParams())

	return OpenDSN(dsn)
}

// OpenDSN opens a store from a raw DSN. Used directly by tests for
// in-memory databases; Open builds the production DSN.
func OpenDSN(dsn string) (*Store, error) {
	db, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "open note database", err)
	}

	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)

	// Verify connection (and the encryption key, when one is set).
	var sqliteVersion string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Persistence, "verify note database connection", err)
	}

	s := &Store{db: db, log: obs.Pkg("store")}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return errs.Wrap(errs.Persistence, "initialize schema", err)
	}
	if err := s.migrate(); err != nil {
		return err
	}
	for _, stmt := range repairStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errs.Wrap(errs.Persistence, "repair pass", err)
		}
	}
	return nil
}

// migrate applies idempotent schema migrations to databases created before a
// column existed. SQLite ADD COLUMN errors if the column exists, so that
// specific error is caught and ignored.
func (s *Store) migrate() error {
	for _, stmt := range strings.Split(Migrations, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return errs.Wrap(errs.Persistence, "migration failed", err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying sql.DB for direct access when needed.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a transaction. Any error from fn rolls the
// transaction back, so a failed commit never leaves a partially-applied
// mutation behind.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Persistence, "begin transaction", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Persistence, "commit transaction", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Notes
// ---------------------------------------------------------------------------

const noteColumns = `id, content, content_hash, is_pinned, reminder_at, source_type, source_identifier, imported_at, created_at, updated_at, deleted_at`

// InsertNoteTx inserts a note row. n.ID must already be assigned (uuid);
// associations are not touched here, use SetNoteTagsTx or AddNoteTagTx.
func InsertNoteTx(ctx context.Context, q DBTX, n *Note) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID, n.Content, n.ContentHash, boolToInt(n.IsPinned),
		unixPtr(n.ReminderAt), nullStr(n.SourceType), nullStr(n.SourceIdentifier),
		unixPtr(n.ImportedAt), n.CreatedAt.Unix(), n.UpdatedAt.Unix(), unixPtr(n.DeletedAt),
	)
	if err != nil {
		return errs.Wrap(errs.Persistence, "insert note", err)
	}
	return nil
}

// UpdateNoteTx writes every mutable note column from n.
func UpdateNoteTx(ctx context.Context, q DBTX, n *Note) error {
	res, err := q.ExecContext(ctx, `
		UPDATE notes
		SET content = ?, content_hash = ?, is_pinned = ?, reminder_at = ?,
		    updated_at = ?, deleted_at = ?
		WHERE id = ?
	`,
		n.Content, n.ContentHash, boolToInt(n.IsPinned), unixPtr(n.ReminderAt),
		n.UpdatedAt.Unix(), unixPtr(n.DeletedAt), n.ID,
	)
	if err != nil {
		return errs.Wrap(errs.Persistence, "update note", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return errs.New(errs.NotFound, fmt.Sprintf("note not found: %s", n.ID))
	}
	return nil
}

// DeleteNoteRowTx removes a note row permanently. Associations in note_tags
// go with it via ON DELETE CASCADE.
func DeleteNoteRowTx(ctx context.Context, q DBTX, noteID string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, noteID)
	if err != nil {
		return errs.Wrap(errs.Persistence, "delete note", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return errs.New(errs.NotFound, fmt.Sprintf("note not found: %s", noteID))
	}
	return nil
}

// GetNote retrieves a note with its tags.
func (s *Store) GetNote(ctx context.Context, id string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("note not found: %s", id))
	}
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "read note", err)
	}
	tags, err := s.loadTags(ctx, []string{n.ID})
	if err != nil {
		return nil, err
	}
	n.Tags = tags[n.ID]
	return n, nil
}

// ListNotes returns notes matching the filter in the documented order.
// Tag membership filters in SQL; the free-text filter applies after tags are
// loaded so matching stays case-insensitive for non-ASCII content too.
func (s *Store) ListNotes(ctx context.Context, f ListFilter) ([]Note, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`SELECT n.id, n.content, n.content_hash, n.is_pinned, n.reminder_at,
		n.source_type, n.source_identifier, n.imported_at, n.created_at, n.updated_at, n.deleted_at
		FROM notes n`)
	if f.TagID != "" {
		sb.WriteString(` JOIN note_tags nt ON nt.note_id = n.id AND nt.tag_id = ?`)
		args = append(args, f.TagID)
	}
	if f.IncludeDeleted {
		sb.WriteString(` WHERE n.deleted_at IS NOT NULL`)
	} else {
		sb.WriteString(` WHERE n.deleted_at IS NULL`)
	}
	if f.Since != nil {
		sb.WriteString(` AND n.created_at >= ?`)
		args = append(args, f.Since.Unix())
	}
	if f.IncludeDeleted {
		// Recycle bin: most recently deleted first; updated_at is bumped on delete.
		sb.WriteString(` ORDER BY n.updated_at DESC, n.created_at DESC, n.id DESC`)
	} else {
		sb.WriteString(` ORDER BY n.is_pinned DESC, n.created_at DESC, n.id DESC`)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "list notes", err)
	}
	defer rows.Close()

	var notes []Note
	var ids []string
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan note", err)
		}
		notes = append(notes, *n)
		ids = append(ids, n.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Persistence, "iterate notes", err)
	}

	tagsByNote, err := s.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		notes[i].Tags = tagsByNote[notes[i].ID]
	}

	if f.SearchText == "" {
		return notes, nil
	}

	needle := strings.ToLower(f.SearchText)
	filtered := notes[:0]
	for _, n := range notes {
		if noteMatchesSearch(&n, needle) {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// noteMatchesSearch reports a case-insensitive substring match against the
// content or any tag display name.
func noteMatchesSearch(n *Note, lowerNeedle string) bool {
	if strings.Contains(strings.ToLower(n.Content), lowerNeedle) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t.DisplayName), lowerNeedle) {
			return true
		}
	}
	return false
}

// CountNotes returns (active, deleted) note counts.
func (s *Store) CountNotes(ctx context.Context) (active, deleted int64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE deleted_at IS NULL),
		       COUNT(*) FILTER (WHERE deleted_at IS NOT NULL)
		FROM notes
	`).Scan(&active, &deleted)
	if err != nil {
		return 0, 0, errs.Wrap(errs.Persistence, "count notes", err)
	}
	return active, deleted, nil
}

// PurgeRecycleBin permanently deletes notes soft-deleted before cutoff.
// Returns the number of notes removed.
func (s *Store) PurgeRecycleBin(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notes WHERE deleted_at IS NOT NULL AND deleted_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, errs.Wrap(errs.Persistence, "purge recycle bin", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Wrap(errs.Persistence, "purge recycle bin", err)
	}
	return n, nil
}

// ImportIdentityRow carries the columns needed to rebuild import identities
// for existing notes without loading content.
type ImportIdentityRow struct {
	ContentHash      string
	SourceType       string
	SourceIdentifier string
	CreatedAt        time.Time
}

// ListImportIdentityRows returns identity inputs for every note, deleted
// included: a note in the recycle bin still blocks a duplicate import.
func (s *Store) ListImportIdentityRows(ctx context.Context) ([]ImportIdentityRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content_hash, source_type, source_identifier, created_at FROM notes`)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "list import identities", err)
	}
	defer rows.Close()

	var out []ImportIdentityRow
	for rows.Next() {
		var r ImportIdentityRow
		var srcType, srcID sql.NullString
		var createdAt int64
		if err := rows.Scan(&r.ContentHash, &srcType, &srcID, &createdAt); err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan import identity", err)
		}
		r.SourceType = srcType.String
		r.SourceIdentifier = srcID.String
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Persistence, "iterate import identities", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Tags
// ---------------------------------------------------------------------------

const tagColumns = `id, display_name, normalized_key, usage_count, created_at`

// UpsertTagTx looks a tag up by normalized key and returns it, creating it
// with usage_count=0 at the given creation time when absent. The display name
// of an existing tag is preserved: the case first established wins. When
// legacy duplicates exist, the earliest-created one is returned so repeated
// calls stay deterministic.
func UpsertTagTx(ctx context.Context, q DBTX, displayName string, now time.Time) (Tag, bool, error) {
	name := tagutil.Normalize(displayName)
	if name == "" {
		return Tag{}, false, errs.New(errs.InvalidArgument, "tag name is empty after normalization")
	}
	key := tagutil.Key(name)

	row := q.QueryRowContext(ctx, `
		SELECT `+tagColumns+` FROM tags
		WHERE normalized_key = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, key)
	tag, err := scanTag(row)
	if err == nil {
		return tag, false, nil
	}
	if err != sql.ErrNoRows {
		return Tag{}, false, errs.Wrap(errs.Persistence, "look up tag", err)
	}

	now = now.UTC()
	tag = Tag{
		ID:            uuid.New().String(),
		DisplayName:   name,
		NormalizedKey: key,
		UsageCount:    0,
		CreatedAt:     now.Truncate(time.Second),
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO tags (`+tagColumns+`) VALUES (?, ?, ?, 0, ?)
	`, tag.ID, tag.DisplayName, tag.NormalizedKey, now.Unix())
	if err != nil {
		return Tag{}, false, errs.Wrap(errs.Persistence, "insert tag", err)
	}
	return tag, true, nil
}

// UpsertTag is the single-operation form of UpsertTagTx.
func (s *Store) UpsertTag(ctx context.Context, displayName string) (Tag, error) {
	var tag Tag
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		tag, _, err = UpsertTagTx(ctx, tx, displayName, time.Now())
		return err
	})
	return tag, err
}

// FindTagsByNormalizedKey returns the live tag for each key that exists.
func (s *Store) FindTagsByNormalizedKey(ctx context.Context, keys []string) (map[string]Tag, error) {
	out := make(map[string]Tag, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	// Earliest-created wins per key when legacy duplicates exist.
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumns+` FROM tags
		WHERE normalized_key IN (?`+strings.Repeat(",?", len(keys)-1)+`)
		ORDER BY created_at DESC, id DESC
	`, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "find tags by key", err)
	}
	defer rows.Close()

	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan tag", err)
		}
		out[tag.NormalizedKey] = tag
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Persistence, "iterate tags", err)
	}
	return out, nil
}

// ListTags returns all tags in the requested order.
func (s *Store) ListTags(ctx context.Context, sortBy TagSort) ([]Tag, error) {
	return listTags(ctx, s.db, sortBy)
}

// ListTagsTx is ListTags inside a transaction.
func ListTagsTx(ctx context.Context, q DBTX, sortBy TagSort) ([]Tag, error) {
	return listTags(ctx, q, sortBy)
}

func listTags(ctx context.Context, q DBTX, sortBy TagSort) ([]Tag, error) {
	order := `usage_count DESC, display_name ASC, id ASC`
	if sortBy == TagSortNameAsc {
		order = `display_name COLLATE NOCASE ASC, id ASC`
	}
	rows, err := q.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY `+order)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "list tags", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan tag", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Persistence, "iterate tags", err)
	}
	return tags, nil
}

// DeleteTagRowTx detaches a tag from every note and deletes it. The notes
// themselves are untouched.
func DeleteTagRowTx(ctx context.Context, q DBTX, tagID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM note_tags WHERE tag_id = ?`, tagID); err != nil {
		return errs.Wrap(errs.Persistence, "detach tag", err)
	}
	res, err := q.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID)
	if err != nil {
		return errs.Wrap(errs.Persistence, "delete tag", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return errs.New(errs.NotFound, fmt.Sprintf("tag not found: %s", tagID))
	}
	return nil
}

// RepointTagTx moves every association of fromID onto toID, skipping notes
// that already reference toID, then drops fromID's associations. Used by the
// dedup merge; the duplicate tag row itself is deleted separately.
func RepointTagTx(ctx context.Context, q DBTX, fromID, toID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO note_tags (note_id, tag_id)
		SELECT note_id, ? FROM note_tags WHERE tag_id = ?
	`, toID, fromID)
	if err != nil {
		return errs.Wrap(errs.Persistence, "repoint tag associations", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM note_tags WHERE tag_id = ?`, fromID); err != nil {
		return errs.Wrap(errs.Persistence, "drop old tag associations", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Note-tag relationship
// ---------------------------------------------------------------------------

// SetNoteTagsTx replaces a note's tag set and returns the tag IDs that were
// added and removed, so the caller can apply an incremental usage-count
// delta. INSERT OR IGNORE guards against duplicate associations from stale
// data.
func SetNoteTagsTx(ctx context.Context, q DBTX, noteID string, tagIDs []string) (added, removed []string, err error) {
	rows, err := q.QueryContext(ctx, `SELECT tag_id FROM note_tags WHERE note_id = ?`, noteID)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Persistence, "read note tags", err)
	}
	current := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, nil, errs.Wrap(errs.Persistence, "scan note tag", err)
		}
		current[id] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, errs.Wrap(errs.Persistence, "iterate note tags", err)
	}
	rows.Close()

	want := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		want[id] = true
	}

	for id := range want {
		if !current[id] {
			added = append(added, id)
		}
	}
	for id := range current {
		if !want[id] {
			removed = append(removed, id)
		}
	}

	for _, id := range added {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)`, noteID, id); err != nil {
			return nil, nil, errs.Wrap(errs.Persistence, "add note tag", err)
		}
	}
	for _, id := range removed {
		if _, err := q.ExecContext(ctx,
			`DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?`, noteID, id); err != nil {
			return nil, nil, errs.Wrap(errs.Persistence, "remove note tag", err)
		}
	}
	return added, removed, nil
}

// AddNoteTagTx attaches a tag to a note, skipping an existing association.
func AddNoteTagTx(ctx context.Context, q DBTX, noteID, tagID string) error {
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)`, noteID, tagID); err != nil {
		return errs.Wrap(errs.Persistence, "add note tag", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Usage counts
// ---------------------------------------------------------------------------

// AdjustTagUsageTx shifts usage_count for the given tags by delta, floored
// at zero. The caller is responsible for deduplicating the ID set.
func AdjustTagUsageTx(ctx context.Context, q DBTX, tagIDs []string, delta int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	args := make([]any, 0, len(tagIDs)+1)
	args = append(args, delta)
	for _, id := range tagIDs {
		args = append(args, id)
	}
	_, err := q.ExecContext(ctx, `
		UPDATE tags SET usage_count = MAX(0, usage_count + ?)
		WHERE id IN (?`+strings.Repeat(",?", len(tagIDs)-1)+`)
	`, args...)
	if err != nil {
		return errs.Wrap(errs.Persistence, "adjust tag usage", err)
	}
	return nil
}

// ResyncTagUsage recomputes every tag's usage_count from the join table
// (counting only non-deleted notes) and repairs stale normalized keys. This
// is the authoritative correctness path; incremental adjustment is only an
// optimization.
func (s *Store) ResyncTagUsage(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(errs.Persistence, "resync cancelled", err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE tags SET usage_count = (
				SELECT COUNT(*)
				FROM note_tags nt
				JOIN notes n ON n.id = nt.note_id
				WHERE nt.tag_id = tags.id AND n.deleted_at IS NULL
			)
		`)
		if err != nil {
			return errs.Wrap(errs.Persistence, "recount tag usage", err)
		}

		tags, err := ListTagsTx(ctx, tx, TagSortNameAsc)
		if err != nil {
			return err
		}
		for _, t := range tags {
			key := tagutil.NormalizedKey(t.DisplayName)
			if key == t.NormalizedKey {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE tags SET normalized_key = ? WHERE id = ?`, key, t.ID); err != nil {
				return errs.Wrap(errs.Persistence, "repair normalized key", err)
			}
		}
		return nil
	})
}

// TagUsageByID returns usage_count per tag id, for verification and the CLI.
func (s *Store) TagUsageByID(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, usage_count FROM tags`)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "read tag usage", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id string
		var count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan tag usage", err)
		}
		out[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Persistence, "iterate tag usage", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Scan helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*Note, error) {
	var n Note
	var isPinned int64
	var reminderAt, importedAt, deletedAt sql.NullInt64
	var srcType, srcID sql.NullString
	var createdAt, updatedAt int64

	err := r.Scan(&n.ID, &n.Content, &n.ContentHash, &isPinned, &reminderAt,
		&srcType, &srcID, &importedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	n.IsPinned = isPinned != 0
	n.ReminderAt = timePtr(reminderAt)
	n.SourceType = srcType.String
	n.SourceIdentifier = srcID.String
	n.ImportedAt = timePtr(importedAt)
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	n.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	n.DeletedAt = timePtr(deletedAt)
	return &n, nil
}

func scanTag(r rowScanner) (Tag, error) {
	var t Tag
	var createdAt int64
	if err := r.Scan(&t.ID, &t.DisplayName, &t.NormalizedKey, &t.UsageCount, &createdAt); err != nil {
		return Tag{}, err
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return t, nil
}

// loadTags fetches tags for a batch of notes in one query, ordered by
// display name within each note.
func (s *Store) loadTags(ctx context.Context, noteIDs []string) (map[string][]Tag, error) {
	out := make(map[string][]Tag, len(noteIDs))
	if len(noteIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(noteIDs))
	for i, id := range noteIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT nt.note_id, t.id, t.display_name, t.normalized_key, t.usage_count, t.created_at
		FROM note_tags nt
		JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id IN (?`+strings.Repeat(",?", len(noteIDs)-1)+`)
		ORDER BY t.display_name COLLATE NOCASE ASC, t.id ASC
	`, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "load note tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var noteID string
		var t Tag
		var createdAt int64
		if err := rows.Scan(&noteID, &t.ID, &t.DisplayName, &t.NormalizedKey, &t.UsageCount, &createdAt); err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan note tag row", err)
		}
		t.CreatedAt = time.Unix(createdAt, 0).UTC()
		out[noteID] = append(out[noteID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Persistence, "iterate note tag rows", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// DSN helpers
// ---------------------------------------------------------------------------

func sqliteCommonParams() string {
	// WAL + NORMAL provides good throughput while preserving safety; the
	// busy timeout serializes the occasional concurrent opener.
	return "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
}

func appendSQLiteParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func unixPtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
