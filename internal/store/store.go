package store

import (
	"context"
	"errors"

	"github.com/alexpeters0n/sentry/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	GetProjectByID(ctx context.Context, id int64) (*models.Project, error)
	GetProjectBySlug(ctx context.Context, organizationID int64, slug string) (*models.Project, error)
	ListProjectsByTeam(ctx context.Context, teamID int64) ([]*models.Project, error)
	ListProjectsByOrganization(ctx context.Context, organizationID int64) ([]*models.Project, error)

	CreateGroup(ctx context.Context, group *models.Group) error
	UpdateGroup(ctx context.Context, group *models.Group) error
	GetGroupByID(ctx context.Context, id int64) (*models.Group, error)
	GetGroupByShortID(ctx context.Context, projectSlug string, shortID int64) (*models.Group, error)
	GetGroupByShortIDScoped(ctx context.Context, organizationID int64, projectSlug string, shortID int64, excludeStatuses []int) (*models.Group, error)
	GetGroupsByIDs(ctx context.Context, ids []int64) ([]*models.Group, error)

	CreateGroupRedirect(ctx context.Context, redirect *models.GroupRedirect) error
	GetRedirectByPreviousGroupID(ctx context.Context, previousGroupID int64) (*models.GroupRedirect, error)
	GetRedirectByPreviousShortID(ctx context.Context, projectSlug string, shortID int64) (*models.GroupRedirect, error)

	GetGroupSnooze(ctx context.Context, groupID int64) (*models.GroupSnooze, error)

	CreateGroupShare(ctx context.Context, share *models.GroupShare) error
	GetGroupShareUUID(ctx context.Context, groupID int64) (string, error)
	GetGroupIDByShareUUID(ctx context.Context, shareUUID string) (int64, error)

	ListTeams(ctx context.Context, filter TeamFilter) ([]*models.Team, int, error)
	CreateTeam(ctx context.Context, team *models.Team) error
	GetOrganizationMember(ctx context.Context, organizationID, userID int64) (*models.OrganizationMember, error)
	AddTeamMember(ctx context.Context, member *models.TeamMember) error
	CreateAuditLogEntry(ctx context.Context, entry *models.AuditLogEntry) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
}

// TeamFilter narrows team listings. Query, when set, matches name or slug
// case-insensitively. Only visible teams are returned.
type TeamFilter struct {
	OrganizationID int64
	Query          string
	Page           int
	Limit          int
}
