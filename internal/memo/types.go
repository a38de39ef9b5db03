package memo

import "time"

// CreateParams contains parameters for creating a note.
type CreateParams struct {
	Content    string
	ReminderAt *time.Time
	TagNames   []string
}

// UpdateParams contains parameters for updating a note. The full tag set is
// always supplied; the service diffs it against the stored set.
type UpdateParams struct {
	Content    string
	ReminderAt *time.Time
	TagNames   []string
}

// ReminderScheduler is the external notification-scheduling collaborator.
// The engine calls it after create/update when a reminder is set or cleared,
// and after a soft delete. Scheduling failures are surfaced as a secondary
// warning, never as a failure of the save itself.
type ReminderScheduler interface {
	Schedule(noteID, content string, at time.Time) error
	Cancel(noteID string) error
}

// NopScheduler ignores all reminder hooks. Used when no notification
// collaborator is wired in.
type NopScheduler struct{}

func (NopScheduler) Schedule(string, string, time.Time) error { return nil }
func (NopScheduler) Cancel(string) error                      { return nil }
