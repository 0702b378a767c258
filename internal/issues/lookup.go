package issues

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/alexpeters0n/sentry/internal/cache"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/pkg/models"
	"github.com/alexpeters0n/sentry/pkg/shortid"
)

type lookupOptions struct {
	directRead bool
}

// LookupOption tunes a group lookup.
type LookupOption func(*lookupOptions)

// DirectRead bypasses the cache and reads straight from the store. Use it
// when the caller is about to mutate the group.
func DirectRead() LookupOption {
	return func(o *lookupOptions) { o.directRead = true }
}

// Statuses that hide a group from qualified short-ID resolution. Groups on
// their way out of existence should not resolve for new references.
var shortIDExcludedStatuses = []int{
	models.GroupStatusPendingDeletion,
	models.GroupStatusDeletionInProgress,
	models.GroupStatusPendingMerge,
}

// GetGroupWithRedirect resolves a group reference, either a numeric ID or a
// qualified short ID, following the redirect table when the referenced
// group has been merged away. The second return value reports whether a
// redirect was followed. A reference that parses as neither form is simply
// not found.
func (s *Service) GetGroupWithRedirect(ctx context.Context, token string, opts ...LookupOption) (*models.Group, bool, error) {
	var o lookupOptions
	for _, opt := range opts {
		opt(&o)
	}

	if id, convErr := strconv.ParseInt(token, 10, 64); convErr == nil {
		g, err := s.getByID(ctx, id, !o.directRead)
		if err == nil {
			return g, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, err
		}
		return s.followRedirect(ctx, err, &o, func() (*models.GroupRedirect, error) {
			return s.store.GetRedirectByPreviousGroupID(ctx, id)
		})
	}

	sid, ok := shortid.Parse(token)
	if !ok {
		return nil, false, store.ErrNotFound
	}
	g, err := s.store.GetGroupByShortID(ctx, sid.ProjectSlug, sid.ShortID)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	return s.followRedirect(ctx, err, &o, func() (*models.GroupRedirect, error) {
		return s.store.GetRedirectByPreviousShortID(ctx, sid.ProjectSlug, sid.ShortID)
	})
}

// followRedirect retries a missed lookup through the redirect table. Any
// miss along the way surfaces the original lookup error, not the
// redirect's.
func (s *Service) followRedirect(ctx context.Context, original error, o *lookupOptions, fetch func() (*models.GroupRedirect, error)) (*models.Group, bool, error) {
	redirect, err := fetch()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, original
		}
		return nil, false, err
	}

	g, err := s.getByID(ctx, redirect.GroupID, !o.directRead)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, original
		}
		return nil, false, err
	}
	return g, true, nil
}

// ByQualifiedShortID resolves a qualified short ID within an organization,
// skipping groups that are pending deletion or merge.
func (s *Service) ByQualifiedShortID(ctx context.Context, organizationID int64, token string) (*models.Group, error) {
	sid, ok := shortid.Parse(token)
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.store.GetGroupByShortIDScoped(ctx, organizationID, sid.ProjectSlug, sid.ShortID, shortIDExcludedStatuses)
}

// FromEventID finds the group owning the event with the given ID in the
// project.
func (s *Service) FromEventID(ctx context.Context, project *models.Project, eventID string) (*models.Group, error) {
	ids, err := s.events.GroupIDsForEventID(ctx, []int64{project.ID}, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying event store: %w", err)
	}
	if len(ids) == 0 {
		return nil, store.ErrNotFound
	}
	return s.store.GetGroupByID(ctx, ids[0])
}

// FilterByEventID returns every group across the given projects that owns
// an event with the given ID.
func (s *Service) FilterByEventID(ctx context.Context, projectIDs []int64, eventID string) ([]*models.Group, error) {
	ids, err := s.events.GroupIDsForEventID(ctx, projectIDs, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying event store: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.store.GetGroupsByIDs(ctx, ids)
}

// getByID reads a group by ID, going through the cache unless the caller
// opted out. Cache failures degrade to a store read.
func (s *Service) getByID(ctx context.Context, id int64, useCache bool) (*models.Group, error) {
	key := cache.GroupKey(id)
	if useCache {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var g models.Group
			if err := json.Unmarshal(data, &g); err == nil {
				return &g, nil
			}
		}
	}

	g, err := s.store.GetGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if useCache {
		if data, err := json.Marshal(g); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache group", "group_id", id, "error", err)
			}
		}
	}
	return g, nil
}

// GroupDetails wraps a group for the lifetime of one request, memoizing the
// boundary-event reads so repeated accessors hit the event store once.
type GroupDetails struct {
	*models.Group

	svc          *Service
	environments []string

	latestDone bool
	latest     *models.Event
	latestErr  error

	oldestDone bool
	oldest     *models.Event
	oldestErr  error
}

// Details wraps g for request-scoped access. Not safe for concurrent use.
func (s *Service) Details(g *models.Group, environments []string) *GroupDetails {
	return &GroupDetails{Group: g, svc: s, environments: environments}
}

// LatestEvent returns the group's most recent event. A group with no events
// in the store reports store.ErrNotFound.
func (d *GroupDetails) LatestEvent(ctx context.Context) (*models.Event, error) {
	if !d.latestDone {
		d.latest, d.latestErr = d.svc.events.LatestEvent(ctx, d.ProjectID, d.ID, d.environments)
		if d.latest == nil && d.latestErr == nil {
			d.latestErr = store.ErrNotFound
		}
		d.latestDone = true
	}
	return d.latest, d.latestErr
}

// OldestEvent returns the group's first recorded event.
func (d *GroupDetails) OldestEvent(ctx context.Context) (*models.Event, error) {
	if !d.oldestDone {
		d.oldest, d.oldestErr = d.svc.events.OldestEvent(ctx, d.ProjectID, d.ID, d.environments)
		if d.oldest == nil && d.oldestErr == nil {
			d.oldestErr = store.ErrNotFound
		}
		d.oldestDone = true
	}
	return d.oldest, d.oldestErr
}
