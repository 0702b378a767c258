package models

import "time"

// GroupRedirect is an append-only ledger entry mapping a merged (and
// subsequently deleted) group's old identity to the group that superseded
// it. PreviousGroupID is unique: a dead group redirects to exactly one
// target. The (PreviousShortID, PreviousProjectSlug) pair is unique too so
// lookups by the old human-facing ID keep resolving.
type GroupRedirect struct {
	ID                  int64     `db:"id"                    json:"id"`
	GroupID             int64     `db:"group_id"              json:"group_id"`
	PreviousGroupID     int64     `db:"previous_group_id"     json:"previous_group_id"`
	PreviousShortID     *int64    `db:"previous_short_id"     json:"previous_short_id,omitempty"`
	PreviousProjectSlug *string   `db:"previous_project_slug" json:"previous_project_slug,omitempty"`
	CreatedAt           time.Time `db:"created_at"            json:"created_at"`
}
