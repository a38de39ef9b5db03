package store

import (
	"fmt"
	"time"
)

// Note is a single note. ID is an opaque uuid assigned at creation and never
// reused; all cross-session references use it, never the SQLite rowid.
type Note struct {
	ID               string
	Content          string
	ContentHash      string
	IsPinned         bool
	ReminderAt       *time.Time
	SourceType       string
	SourceIdentifier string
	ImportedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
	Tags             []Tag
}

// Deleted reports whether the note sits in the recycle bin.
func (n *Note) Deleted() bool {
	return n.DeletedAt != nil
}

// ImportIdentity returns the idempotency key used to detect duplicate
// imports: the source identity when the note has one, otherwise the
// hash+timestamp fallback.
func (n *Note) ImportIdentity() string {
	return ImportIdentity(n.SourceType, n.SourceIdentifier, n.ContentHash, n.CreatedAt)
}

// LegacyImportIdentity returns the identity a note would have had before
// source-identifier tracking existed. Kept so re-imports of data recorded
// under the old scheme still dedup.
func (n *Note) LegacyImportIdentity() string {
	return LegacyImportIdentity(n.ContentHash, n.CreatedAt)
}

// ImportIdentity derives the import idempotency key from its parts.
func ImportIdentity(sourceType, sourceIdentifier, contentHash string, createdAt time.Time) string {
	if sourceType != "" && sourceIdentifier != "" {
		return sourceType + ":" + sourceIdentifier
	}
	return LegacyImportIdentity(contentHash, createdAt)
}

// LegacyImportIdentity derives the purely hash+timestamp based key.
func LegacyImportIdentity(contentHash string, createdAt time.Time) string {
	return fmt.Sprintf("hash:%s|created:%d", contentHash, createdAt.Unix())
}

// Tag is a note tag. NormalizedKey is the lowercase identity; the dedup pass
// keeps it unique among live tags. UsageCount is denormalized: it must equal
// the number of associated non-deleted notes once a resync has run.
type Tag struct {
	ID            string
	DisplayName   string
	NormalizedKey string
	UsageCount    int64
	CreatedAt     time.Time
}

// ListFilter selects and orders notes.
//
// IncludeDeleted=false lists active notes: pinned first, then newest created,
// id as the stable tie-break. IncludeDeleted=true lists the recycle bin:
// most recently deleted first (updated_at is bumped on delete), then created,
// then id.
type ListFilter struct {
	TagID          string
	SearchText     string
	IncludeDeleted bool
	Since          *time.Time
}

// TagSort orders tag listings.
type TagSort int

const (
	TagSortUsageDesc TagSort = iota
	TagSortNameAsc
)
