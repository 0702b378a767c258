package models

import "time"

// GroupShare is the external share token for a group. A group has at most
// one; the token is a 32-character hex string handed out in public links.
type GroupShare struct {
	ID        int64     `db:"id"         json:"id"`
	ProjectID int64     `db:"project_id" json:"project_id"`
	GroupID   int64     `db:"group_id"   json:"group_id"`
	UUID      string    `db:"uuid"       json:"uuid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
