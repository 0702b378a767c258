package models

import "time"

// Team statuses.
const (
	TeamStatusVisible         = 0
	TeamStatusPendingDeletion = 1
)

// Team is a named group of members within an organization. Slug is unique
// per organization.
type Team struct {
	ID             int64     `db:"id"              json:"id"`
	OrganizationID int64     `db:"organization_id" json:"organization_id"`
	Slug           string    `db:"slug"            json:"slug"`
	Name           string    `db:"name"            json:"name"`
	Status         int       `db:"status"          json:"status"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"      json:"updated_at"`
}

// TeamMember links an organization member to a team.
type TeamMember struct {
	ID                   int64     `db:"id"                     json:"id"`
	TeamID               int64     `db:"team_id"                json:"team_id"`
	OrganizationMemberID int64     `db:"organization_member_id" json:"organization_member_id"`
	CreatedAt            time.Time `db:"created_at"             json:"created_at"`
}
