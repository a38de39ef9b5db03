package store

// SQL schema for the note/tag store. One notes collection with a nullable
// deleted_at (soft delete is a filtered view, not a separate table), a tags
// collection with a denormalized usage_count, and a single note_tags join
// table. Both relationship directions are views over note_tags; no code path
// maintains an inverse list by hand.

// Schema contains the CREATE statements for a fresh database.
const Schema = `
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL DEFAULT '',
    is_pinned INTEGER NOT NULL DEFAULT 0,
    reminder_at INTEGER,
    source_type TEXT,
    source_identifier TEXT,
    imported_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notes_deleted_at ON notes(deleted_at);
CREATE INDEX IF NOT EXISTS idx_notes_content_hash ON notes(content_hash);

-- normalized_key is deliberately NOT unique: databases that predate key
-- tracking may hold duplicates, which the dedup pass merges away.
CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    normalized_key TEXT NOT NULL,
    usage_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tags_normalized_key ON tags(normalized_key);

CREATE TABLE IF NOT EXISTS note_tags (
    note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
    tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (note_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_note_tags_tag_id ON note_tags(tag_id);
`

// Migrations contains idempotent ALTER TABLE statements for schema evolution.
// SQLite ADD COLUMN errors on existing columns; those errors are caught and
// ignored during migration.
const Migrations = `
ALTER TABLE notes ADD COLUMN content_hash TEXT NOT NULL DEFAULT '';
ALTER TABLE notes ADD COLUMN source_type TEXT;
ALTER TABLE notes ADD COLUMN source_identifier TEXT;
ALTER TABLE notes ADD COLUMN imported_at INTEGER;
ALTER TABLE notes ADD COLUMN deleted_at INTEGER;
ALTER TABLE tags ADD COLUMN usage_count INTEGER NOT NULL DEFAULT 0;
CREATE INDEX IF NOT EXISTS idx_notes_deleted_at ON notes(deleted_at);
CREATE INDEX IF NOT EXISTS idx_notes_content_hash ON notes(content_hash)
`

// repairStatements run after migration on every open. They restore the
// timestamp invariant (updated_at >= created_at) and backfill fingerprints
// for rows created before content_hash existed.
var repairStatements = []string{
	`UPDATE notes SET updated_at = created_at WHERE updated_at < created_at`,
	`UPDATE notes SET content_hash = content_fingerprint(content) WHERE content_hash = ''`,
}
