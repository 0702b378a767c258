// Package models contains shared data models used across the codebase.
package models

import (
	"time"
)

// Group statuses. The stored status is only part of the picture: the
// effective status additionally folds in snooze expiry and the project's
// auto-resolve age, computed at read time by the issues package.
const (
	GroupStatusUnresolved         = 0
	GroupStatusResolved           = 1
	GroupStatusIgnored            = 2
	GroupStatusPendingDeletion    = 3
	GroupStatusDeletionInProgress = 4
	GroupStatusPendingMerge       = 5
)

// Group is the aggregated issue record summarizing a set of events that
// share a fingerprint. ShortID is unique within a project and never
// reassigned; when a group is merged away its value survives in a
// GroupRedirect.
type Group struct {
	ID          int64          `db:"id"           json:"id"`
	ProjectID   int64          `db:"project_id"   json:"project_id"`
	Logger      string         `db:"logger"       json:"logger"`
	Level       string         `db:"level"        json:"level"`
	Message     string         `db:"message"      json:"message"`
	Culprit     string         `db:"culprit"      json:"culprit"`
	NumComments int            `db:"num_comments" json:"num_comments"`
	Platform    string         `db:"platform"     json:"platform"`
	Status      int            `db:"status"       json:"status"`
	TimesSeen   int64          `db:"times_seen"   json:"times_seen"`
	LastSeen    time.Time      `db:"last_seen"    json:"last_seen"`
	FirstSeen   time.Time      `db:"first_seen"   json:"first_seen"`
	ResolvedAt  *time.Time     `db:"resolved_at"  json:"resolved_at,omitempty"`
	ActiveAt    *time.Time     `db:"active_at"    json:"active_at,omitempty"`
	Score       int64          `db:"score"        json:"score"`
	Data        map[string]any `db:"data"         json:"data,omitempty"`
	ShortID     *int64         `db:"short_id"     json:"short_id,omitempty"`
	CreatedAt   time.Time      `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"   json:"updated_at"`
}

// EventType returns the event type tag stored in the data blob, defaulting
// to "default" when absent.
func (g *Group) EventType() string {
	if t, ok := g.Data["type"].(string); ok && t != "" {
		return t
	}
	return "default"
}

// EventMetadata returns the metadata map stored in the data blob.
func (g *Group) EventMetadata() map[string]any {
	if m, ok := g.Data["metadata"].(map[string]any); ok {
		return m
	}
	return nil
}
