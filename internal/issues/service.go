package issues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexpeters0n/sentry/internal/cache"
	"github.com/alexpeters0n/sentry/internal/eventstore"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/internal/tagstore"
	"github.com/alexpeters0n/sentry/pkg/models"
)

// ErrHashDiscarded is returned by an Ingester when the event's fingerprint
// hash has been marked discarded for the project.
var ErrHashDiscarded = errors.New("hash discarded")

// Ingester turns raw event payloads into saved groups. The implementation
// lives with the ingest pipeline; this package only consumes it.
type Ingester interface {
	FromEventData(ctx context.Context, project *models.Project, data map[string]any) (*models.Group, error)
}

const shareIDLength = 32

// Service coordinates group reads and writes across the relational store,
// the cache, and the event/tag services.
type Service struct {
	store    store.Store
	cache    cache.Cache
	events   eventstore.Client
	tags     tagstore.Client
	ingester Ingester
	logger   *slog.Logger
	cacheTTL time.Duration
}

// NewService creates the group service. Ingester may be nil when the
// deployment does not ingest through this process.
func NewService(st store.Store, c cache.Cache, events eventstore.Client, tags tagstore.Client, ingester Ingester, logger *slog.Logger, cacheTTL time.Duration) *Service {
	return &Service{
		store:    st,
		cache:    c,
		events:   events,
		tags:     tags,
		ingester: ingester,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// SaveGroup normalizes and persists a group, creating it when it has no ID
// yet. The cache entry is invalidated so the next read sees the new row.
func (s *Service) SaveGroup(ctx context.Context, g *models.Group) error {
	Normalize(g, time.Now().UTC())

	var err error
	if g.ID == 0 {
		err = s.store.CreateGroup(ctx, g)
	} else {
		err = s.store.UpdateGroup(ctx, g)
	}
	if err != nil {
		return fmt.Errorf("saving group: %w", err)
	}

	if err := s.cache.Delete(ctx, cache.GroupKey(g.ID)); err != nil {
		s.logger.Warn("failed to invalidate group cache", "group_id", g.ID, "error", err)
	}
	return nil
}

// Status computes the group's effective status, folding in snooze state and
// the project's auto-resolve age.
func (s *Service) Status(ctx context.Context, g *models.Group) (int, error) {
	var snooze *models.GroupSnooze
	if g.Status == models.GroupStatusIgnored {
		sn, err := s.store.GetGroupSnooze(ctx, g.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("fetching group snooze: %w", err)
		}
		snooze = sn
	}

	project, err := s.store.GetProjectByID(ctx, g.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("fetching project: %w", err)
	}
	resolveAge := time.Duration(project.ResolveAgeHours) * time.Hour

	return ResolveStatus(g, snooze, resolveAge, time.Now().UTC()), nil
}

// AddTags records tag observations for the group against the tag store.
// Counter increments are advisory; failures are logged, not returned.
func (s *Service) AddTags(ctx context.Context, g *models.Group, environmentID int64, tags map[string]string) {
	extra := map[string]any{"last_seen": g.LastSeen}
	for key, value := range tags {
		if err := s.tags.IncrTagValueTimesSeen(ctx, g.ProjectID, environmentID, key, value, extra); err != nil {
			s.logger.Warn("tag increment failed", "group_id", g.ID, "key", key, "error", err)
		}
		if err := s.tags.IncrGroupTagValueTimesSeen(ctx, g.ProjectID, g.ID, environmentID, key, value, extra); err != nil {
			s.logger.Warn("group tag increment failed", "group_id", g.ID, "key", key, "error", err)
		}
	}
}

// ShareID returns the group's existing share token, or store.ErrNotFound
// when the group has never been shared. Tokens never change once issued,
// so cached entries are safe indefinitely.
func (s *Service) ShareID(ctx context.Context, groupID int64) (string, error) {
	key := cache.GroupShareKey(groupID)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return string(cached), nil
	}

	shareID, err := s.store.GetGroupShareUUID(ctx, groupID)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, []byte(shareID), s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache share id", "group_id", groupID, "error", err)
	}
	return shareID, nil
}

// Share returns the group's share token, creating one on first use. A
// concurrent create loses to the existing row and returns its token.
func (s *Service) Share(ctx context.Context, g *models.Group) (string, error) {
	shareID, err := s.store.GetGroupShareUUID(ctx, g.ID)
	if err == nil {
		return shareID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("fetching group share: %w", err)
	}

	share := &models.GroupShare{
		ProjectID: g.ProjectID,
		GroupID:   g.ID,
		UUID:      strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	if err := s.store.CreateGroupShare(ctx, share); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return s.store.GetGroupShareUUID(ctx, g.ID)
		}
		return "", fmt.Errorf("creating group share: %w", err)
	}
	return share.UUID, nil
}

// FromShareID resolves a share token back to its group. Tokens are exactly
// 32 characters; anything else is not found by definition.
func (s *Service) FromShareID(ctx context.Context, shareID string) (*models.Group, error) {
	if len(shareID) != shareIDLength {
		return nil, store.ErrNotFound
	}
	groupID, err := s.store.GetGroupIDByShareUUID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	return s.getByID(ctx, groupID, true)
}

// RedirectGroup records that from has been merged into to, preserving the
// old group's short ID so stale links keep resolving. A redirect that
// already exists for the old group is not an error; the winning row is
// returned as-is.
func (s *Service) RedirectGroup(ctx context.Context, from, to *models.Group) (*models.GroupRedirect, error) {
	redirect := &models.GroupRedirect{
		GroupID:         to.ID,
		PreviousGroupID: from.ID,
	}
	if from.ShortID != nil {
		project, err := s.store.GetProjectByID(ctx, from.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("fetching project: %w", err)
		}
		redirect.PreviousShortID = from.ShortID
		redirect.PreviousProjectSlug = &project.Slug
	}

	if err := s.store.CreateGroupRedirect(ctx, redirect); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return s.store.GetRedirectByPreviousGroupID(ctx, from.ID)
		}
		return nil, fmt.Errorf("creating group redirect: %w", err)
	}
	return redirect, nil
}

// FromEventData ingests a raw event payload for the project. A payload
// whose hash has been discarded is logged and dropped.
func (s *Service) FromEventData(ctx context.Context, project *models.Project, data map[string]any) (*models.Group, error) {
	if s.ingester == nil {
		return nil, errors.New("no ingester configured")
	}
	g, err := s.ingester.FromEventData(ctx, project, data)
	if err != nil {
		if errors.Is(err, ErrHashDiscarded) {
			s.logger.Info("discarded.hash", "project_id", project.ID)
			return nil, err
		}
		return nil, fmt.Errorf("ingesting event: %w", err)
	}
	return g, nil
}
