package models

import "time"

// Organization is the top-level owner of projects and teams.
type Organization struct {
	ID        int64     `db:"id"         json:"id"`
	Slug      string    `db:"slug"       json:"slug"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrganizationMember links a user to an organization.
type OrganizationMember struct {
	ID             int64     `db:"id"              json:"id"`
	OrganizationID int64     `db:"organization_id" json:"organization_id"`
	UserID         int64     `db:"user_id"         json:"user_id"`
	Role           string    `db:"role"            json:"role"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
