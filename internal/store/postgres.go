package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexpeters0n/sentry/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Organizations & Projects ---

func (s *PostgresStore) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var o models.Organization
	err := s.pool.QueryRow(ctx,
		`SELECT id, slug, name, created_at, updated_at FROM organizations WHERE slug = $1`, slug,
	).Scan(&o.ID, &o.Slug, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization by slug: %w", err)
	}
	return &o, nil
}

const projectColumns = `id, organization_id, team_id, slug, name, platform, resolve_age_hours, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.OrganizationID, &p.TeamID, &p.Slug, &p.Name, &p.Platform,
		&p.ResolveAgeHours, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) GetProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetProjectBySlug(ctx context.Context, organizationID int64, slug string) (*models.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE organization_id = $1 AND slug = $2`,
		organizationID, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project by slug: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProjectsByTeam(ctx context.Context, teamID int64) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE team_id = $1 ORDER BY slug`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list projects by team: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) ListProjectsByOrganization(ctx context.Context, organizationID int64) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE organization_id = $1 ORDER BY slug`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list projects by organization: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// --- Groups ---

const groupColumns = `g.id, g.project_id, g.logger, g.level, g.message, g.culprit, g.num_comments,
	g.platform, g.status, g.times_seen, g.last_seen, g.first_seen, g.resolved_at, g.active_at,
	g.score, g.data, g.short_id, g.created_at, g.updated_at`

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.ProjectID, &g.Logger, &g.Level, &g.Message, &g.Culprit,
		&g.NumComments, &g.Platform, &g.Status, &g.TimesSeen, &g.LastSeen, &g.FirstSeen,
		&g.ResolvedAt, &g.ActiveAt, &g.Score, &g.Data, &g.ShortID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGroup inserts a group and assigns both its ID and the next short_id
// within its project. The (project_id, short_id) unique constraint arbitrates
// concurrent inserts; the loser gets ErrDuplicateKey and should retry.
func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO groups (project_id, logger, level, message, culprit, num_comments, platform,
		                     status, times_seen, last_seen, first_seen, resolved_at, active_at,
		                     score, data, short_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		         (SELECT COALESCE(MAX(short_id), 0) + 1 FROM groups WHERE project_id = $1))
		 RETURNING id, short_id, created_at, updated_at`,
		group.ProjectID, group.Logger, group.Level, group.Message, group.Culprit,
		group.NumComments, group.Platform, group.Status, group.TimesSeen, group.LastSeen,
		group.FirstSeen, group.ResolvedAt, group.ActiveAt, group.Score, group.Data,
	).Scan(&group.ID, &group.ShortID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE groups SET logger = $2, level = $3, message = $4, culprit = $5, num_comments = $6,
		        platform = $7, status = $8, times_seen = $9, last_seen = $10, first_seen = $11,
		        resolved_at = $12, active_at = $13, score = $14, data = $15, updated_at = NOW()
		 WHERE id = $1`,
		group.ID, group.Logger, group.Level, group.Message, group.Culprit, group.NumComments,
		group.Platform, group.Status, group.TimesSeen, group.LastSeen, group.FirstSeen,
		group.ResolvedAt, group.ActiveAt, group.Score, group.Data)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetGroupByID(ctx context.Context, id int64) (*models.Group, error) {
	g, err := scanGroup(s.pool.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM groups g WHERE g.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group by id: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) GetGroupByShortID(ctx context.Context, projectSlug string, shortID int64) (*models.Group, error) {
	g, err := scanGroup(s.pool.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM groups g
		 JOIN projects p ON p.id = g.project_id
		 WHERE p.slug = $1 AND g.short_id = $2`, projectSlug, shortID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group by short id: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) GetGroupByShortIDScoped(ctx context.Context, organizationID int64, projectSlug string, shortID int64, excludeStatuses []int) (*models.Group, error) {
	g, err := scanGroup(s.pool.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM groups g
		 JOIN projects p ON p.id = g.project_id
		 WHERE p.organization_id = $1 AND p.slug = $2 AND g.short_id = $3
		   AND NOT (g.status = ANY($4))`,
		organizationID, projectSlug, shortID, excludeStatuses))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group by short id scoped: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) GetGroupsByIDs(ctx context.Context, ids []int64) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+groupColumns+` FROM groups g WHERE g.id = ANY($1) ORDER BY g.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("get groups by ids: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// --- Group redirects ---

// CreateGroupRedirect appends a redirect ledger entry. Both the
// previous_group_id unique constraint and the (previous_short_id,
// previous_project_slug) pair surface as ErrDuplicateKey so racing merges
// have exactly one winner.
func (s *PostgresStore) CreateGroupRedirect(ctx context.Context, redirect *models.GroupRedirect) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO group_redirects (group_id, previous_group_id, previous_short_id, previous_project_slug)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		redirect.GroupID, redirect.PreviousGroupID, redirect.PreviousShortID, redirect.PreviousProjectSlug,
	).Scan(&redirect.ID, &redirect.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create group redirect: %w", err)
	}
	return nil
}

func scanRedirect(row pgx.Row) (*models.GroupRedirect, error) {
	var r models.GroupRedirect
	err := row.Scan(&r.ID, &r.GroupID, &r.PreviousGroupID, &r.PreviousShortID,
		&r.PreviousProjectSlug, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const redirectColumns = `id, group_id, previous_group_id, previous_short_id, previous_project_slug, created_at`

func (s *PostgresStore) GetRedirectByPreviousGroupID(ctx context.Context, previousGroupID int64) (*models.GroupRedirect, error) {
	r, err := scanRedirect(s.pool.QueryRow(ctx,
		`SELECT `+redirectColumns+` FROM group_redirects WHERE previous_group_id = $1`, previousGroupID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get redirect by previous group id: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) GetRedirectByPreviousShortID(ctx context.Context, projectSlug string, shortID int64) (*models.GroupRedirect, error) {
	r, err := scanRedirect(s.pool.QueryRow(ctx,
		`SELECT `+redirectColumns+` FROM group_redirects
		 WHERE previous_short_id = $1 AND previous_project_slug = $2`, shortID, projectSlug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get redirect by previous short id: %w", err)
	}
	return r, nil
}

// --- Group snoozes ---

func (s *PostgresStore) GetGroupSnooze(ctx context.Context, groupID int64) (*models.GroupSnooze, error) {
	var sn models.GroupSnooze
	err := s.pool.QueryRow(ctx,
		`SELECT id, group_id, until, count, times_seen_base, created_at
		 FROM group_snoozes WHERE group_id = $1`, groupID,
	).Scan(&sn.ID, &sn.GroupID, &sn.Until, &sn.Count, &sn.TimesSeenBase, &sn.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group snooze: %w", err)
	}
	return &sn, nil
}

// --- Group shares ---

func (s *PostgresStore) CreateGroupShare(ctx context.Context, share *models.GroupShare) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO group_shares (project_id, group_id, uuid) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		share.ProjectID, share.GroupID, share.UUID,
	).Scan(&share.ID, &share.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create group share: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGroupShareUUID(ctx context.Context, groupID int64) (string, error) {
	var shareUUID string
	err := s.pool.QueryRow(ctx,
		`SELECT uuid FROM group_shares WHERE group_id = $1`, groupID,
	).Scan(&shareUUID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get group share uuid: %w", err)
	}
	return shareUUID, nil
}

func (s *PostgresStore) GetGroupIDByShareUUID(ctx context.Context, shareUUID string) (int64, error) {
	var groupID int64
	err := s.pool.QueryRow(ctx,
		`SELECT group_id FROM group_shares WHERE uuid = $1`, shareUUID,
	).Scan(&groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get group id by share uuid: %w", err)
	}
	return groupID, nil
}

// --- Teams ---

func (s *PostgresStore) ListTeams(ctx context.Context, filter TeamFilter) ([]*models.Team, int, error) {
	where := ` WHERE organization_id = $1 AND status = $2`
	args := []any{filter.OrganizationID, models.TeamStatusVisible}

	if filter.Query != "" {
		where += ` AND (name ILIKE $3 OR slug ILIKE $3)`
		args = append(args, "%"+filter.Query+"%")
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count teams: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	query := `SELECT id, organization_id, slug, name, status, created_at, updated_at FROM teams` +
		where + fmt.Sprintf(` ORDER BY slug LIMIT %d OFFSET %d`, limit, (page-1)*limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Slug, &t.Name, &t.Status,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, &t)
	}
	return teams, total, rows.Err()
}

func (s *PostgresStore) CreateTeam(ctx context.Context, team *models.Team) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO teams (organization_id, slug, name, status) VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		team.OrganizationID, team.Slug, team.Name, team.Status,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrganizationMember(ctx context.Context, organizationID, userID int64) (*models.OrganizationMember, error) {
	var m models.OrganizationMember
	err := s.pool.QueryRow(ctx,
		`SELECT id, organization_id, user_id, role, created_at
		 FROM organization_members WHERE organization_id = $1 AND user_id = $2`,
		organizationID, userID,
	).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization member: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) AddTeamMember(ctx context.Context, member *models.TeamMember) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO team_members (team_id, organization_member_id) VALUES ($1, $2)
		 RETURNING id, created_at`,
		member.TeamID, member.OrganizationMemberID,
	).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAuditLogEntry(ctx context.Context, entry *models.AuditLogEntry) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO audit_log_entries (organization_id, actor_user_id, event, target_object_id, data)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		entry.OrganizationID, entry.ActorUserID, entry.Event, entry.TargetObjectID, entry.Data,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audit log entry: %w", err)
	}
	return nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.OrganizationID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.Scopes, &k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
