// Package teams implements team listing and creation within an
// organization.
package teams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/pkg/models"
)

// ErrSlugConflict means another team in the organization already owns the
// requested slug.
var ErrSlugConflict = errors.New("team slug conflict")

// SlugConflictMessage is the client-facing detail for ErrSlugConflict. The
// wording is stable; clients match on it.
const SlugConflictMessage = "A team with this slug already exists."

const (
	maxNameLength = 64
	maxSlugLength = 50
)

var slugRe = regexp.MustCompile(`^[a-z0-9_\-]+$`)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Notifier receives team lifecycle notifications.
type Notifier interface {
	TeamCreated(ctx context.Context, org *models.Organization, team *models.Team)
}

// LogNotifier writes notifications to the log. It stands in where no real
// notification transport is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) TeamCreated(_ context.Context, org *models.Organization, team *models.Team) {
	n.Logger.Info("team created", "organization_slug", org.Slug, "team_slug", team.Slug)
}

// Service handles team operations.
type Service struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
}

func NewService(st store.Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{store: st, notifier: notifier, logger: logger}
}

// List returns the organization's visible teams matching the search query,
// ordered by slug, plus the total count. The query is a token list: bare
// words and `query:` tokens search name and slug, any other token key
// matches nothing at all.
func (s *Service) List(ctx context.Context, organizationID int64, query string, page, limit int) ([]*models.Team, int, error) {
	tokens, ok := tokenizeQuery(query)
	if !ok {
		return []*models.Team{}, 0, nil
	}

	filter := store.TeamFilter{
		OrganizationID: organizationID,
		Query:          strings.Join(tokens["query"], " "),
		Page:           page,
		Limit:          limit,
	}
	teams, total, err := s.store.ListTeams(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("listing teams: %w", err)
	}
	return teams, total, nil
}

// tokenizeQuery splits a search string into key/value tokens. Bare words
// collect under the "query" key. The second return value is false when the
// query uses a key this service does not understand.
func tokenizeQuery(query string) (map[string][]string, bool) {
	tokens := make(map[string][]string)
	for _, field := range strings.Fields(query) {
		key, value, found := strings.Cut(field, ":")
		if !found || key == "" {
			tokens["query"] = append(tokens["query"], field)
			continue
		}
		tokens[key] = append(tokens[key], value)
	}
	for key := range tokens {
		if key != "query" {
			return nil, false
		}
	}
	return tokens, true
}

// CreateParams are the inputs for Create. At least one of Name and Slug
// must be set; a missing slug is derived from the name.
type CreateParams struct {
	Name string
	Slug string
}

// Create makes a new team in the organization. On success the notifier is
// told, the acting user joins the team when they are an organization
// member, and an audit log entry is written.
func (s *Service) Create(ctx context.Context, org *models.Organization, params CreateParams, actorUserID *int64) (*models.Team, error) {
	name := strings.TrimSpace(params.Name)
	slug := strings.TrimSpace(params.Slug)

	if name == "" && slug == "" {
		return nil, &ValidationError{Field: "name", Message: "Name or slug is required"}
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if name == "" {
		name = slug
	}

	if len(name) > maxNameLength {
		return nil, &ValidationError{Field: "name", Message: fmt.Sprintf("Ensure this field has no more than %d characters", maxNameLength)}
	}
	if len(slug) > maxSlugLength {
		return nil, &ValidationError{Field: "slug", Message: fmt.Sprintf("Ensure this field has no more than %d characters", maxSlugLength)}
	}
	if !slugRe.MatchString(slug) {
		return nil, &ValidationError{Field: "slug", Message: "Enter a valid slug consisting of lowercase letters, numbers, underscores or hyphens"}
	}

	team := &models.Team{
		OrganizationID: org.ID,
		Name:           name,
		Slug:           slug,
		Status:         models.TeamStatusVisible,
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("creating team: %w", err)
	}

	s.notifier.TeamCreated(ctx, org, team)

	if actorUserID != nil {
		if orgMember, err := s.store.GetOrganizationMember(ctx, org.ID, *actorUserID); err == nil {
			member := &models.TeamMember{TeamID: team.ID, OrganizationMemberID: orgMember.ID}
			if err := s.store.AddTeamMember(ctx, member); err != nil {
				s.logger.Warn("failed to add creator to team", "team_id", team.ID, "user_id", *actorUserID, "error", err)
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to look up organization member", "user_id", *actorUserID, "error", err)
		}
	}

	entry := &models.AuditLogEntry{
		OrganizationID: org.ID,
		ActorUserID:    actorUserID,
		Event:          models.AuditEventTeamAdd,
		TargetObjectID: team.ID,
		Data:           map[string]any{"slug": team.Slug, "name": team.Name},
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateAuditLogEntry(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log entry", "team_id", team.ID, "error", err)
	}

	return team, nil
}

// Slugify derives a URL-safe slug from a display name.
func Slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}
