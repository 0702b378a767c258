package models

import "time"

// Project owns groups. Slug is unique within an organization and is the
// prefix of every qualified short ID. ResolveAgeHours is the opt-in
// auto-resolve window: zero disables it.
type Project struct {
	ID              int64     `db:"id"                json:"id"`
	OrganizationID  int64     `db:"organization_id"   json:"organization_id"`
	TeamID          *int64    `db:"team_id"           json:"team_id,omitempty"`
	Slug            string    `db:"slug"              json:"slug"`
	Name            string    `db:"name"              json:"name"`
	Platform        string    `db:"platform"          json:"platform"`
	ResolveAgeHours int       `db:"resolve_age_hours" json:"resolve_age_hours"`
	CreatedAt       time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"        json:"updated_at"`
}
