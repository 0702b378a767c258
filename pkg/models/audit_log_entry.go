package models

import "time"

// Audit log event types.
const (
	AuditEventTeamAdd = "team.add"
)

// AuditLogEntry records a mutating API action for later review.
type AuditLogEntry struct {
	ID             int64          `db:"id"              json:"id"`
	OrganizationID int64          `db:"organization_id" json:"organization_id"`
	ActorUserID    *int64         `db:"actor_user_id"   json:"actor_user_id,omitempty"`
	Event          string         `db:"event"           json:"event"`
	TargetObjectID int64          `db:"target_object_id" json:"target_object_id"`
	Data           map[string]any `db:"data"            json:"data,omitempty"`
	CreatedAt      time.Time      `db:"created_at"      json:"created_at"`
}
