package issues

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alexpeters0n/sentry/internal/cache"
	"github.com/alexpeters0n/sentry/internal/eventstore"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/internal/tagstore"
	"github.com/alexpeters0n/sentry/pkg/models"
)

// ─── mock store ──────────────────────────────────────────────────────────────

type mockStore struct {
	organizations []*models.Organization
	projects      []*models.Project
	groups        map[int64]*models.Group
	redirects     []*models.GroupRedirect
	snoozes       map[int64]*models.GroupSnooze
	shares        map[int64]*models.GroupShare
	nextID        int64
}

func newMockStore() *mockStore {
	return &mockStore{
		groups:  make(map[int64]*models.Group),
		snoozes: make(map[int64]*models.GroupSnooze),
		shares:  make(map[int64]*models.GroupShare),
		nextID:  1000,
	}
}

func (s *mockStore) addGroup(g *models.Group) *models.Group {
	s.groups[g.ID] = g
	return g
}

func (s *mockStore) Ping(_ context.Context) error { return nil }

func (s *mockStore) GetOrganizationBySlug(_ context.Context, slug string) (*models.Organization, error) {
	for _, o := range s.organizations {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) GetProjectByID(_ context.Context, id int64) (*models.Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) GetProjectBySlug(_ context.Context, organizationID int64, slug string) (*models.Project, error) {
	for _, p := range s.projects {
		if p.OrganizationID == organizationID && p.Slug == slug {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) ListProjectsByTeam(_ context.Context, teamID int64) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range s.projects {
		if p.TeamID != nil && *p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *mockStore) ListProjectsByOrganization(_ context.Context, organizationID int64) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range s.projects {
		if p.OrganizationID == organizationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *mockStore) CreateGroup(_ context.Context, g *models.Group) error {
	s.nextID++
	g.ID = s.nextID
	var maxShort int64
	for _, existing := range s.groups {
		if existing.ProjectID == g.ProjectID && existing.ShortID != nil && *existing.ShortID > maxShort {
			maxShort = *existing.ShortID
		}
	}
	short := maxShort + 1
	g.ShortID = &short
	s.groups[g.ID] = g
	return nil
}

func (s *mockStore) UpdateGroup(_ context.Context, g *models.Group) error {
	if _, ok := s.groups[g.ID]; !ok {
		return store.ErrNotFound
	}
	s.groups[g.ID] = g
	return nil
}

func (s *mockStore) GetGroupByID(_ context.Context, id int64) (*models.Group, error) {
	if g, ok := s.groups[id]; ok {
		return g, nil
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) projectSlug(projectID int64) string {
	for _, p := range s.projects {
		if p.ID == projectID {
			return p.Slug
		}
	}
	return ""
}

func (s *mockStore) GetGroupByShortID(_ context.Context, projectSlug string, shortID int64) (*models.Group, error) {
	for _, g := range s.groups {
		if g.ShortID != nil && *g.ShortID == shortID && s.projectSlug(g.ProjectID) == projectSlug {
			return g, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) GetGroupByShortIDScoped(_ context.Context, organizationID int64, projectSlug string, shortID int64, excludeStatuses []int) (*models.Group, error) {
	for _, g := range s.groups {
		if g.ShortID == nil || *g.ShortID != shortID {
			continue
		}
		var project *models.Project
		for _, p := range s.projects {
			if p.ID == g.ProjectID {
				project = p
			}
		}
		if project == nil || project.OrganizationID != organizationID || project.Slug != projectSlug {
			continue
		}
		excluded := false
		for _, status := range excludeStatuses {
			if g.Status == status {
				excluded = true
			}
		}
		if excluded {
			continue
		}
		return g, nil
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) GetGroupsByIDs(_ context.Context, ids []int64) ([]*models.Group, error) {
	var out []*models.Group
	for _, id := range ids {
		if g, ok := s.groups[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *mockStore) CreateGroupRedirect(_ context.Context, r *models.GroupRedirect) error {
	for _, existing := range s.redirects {
		if existing.PreviousGroupID == r.PreviousGroupID {
			return store.ErrDuplicateKey
		}
	}
	s.redirects = append(s.redirects, r)
	return nil
}

func (s *mockStore) GetRedirectByPreviousGroupID(_ context.Context, previousGroupID int64) (*models.GroupRedirect, error) {
	for _, r := range s.redirects {
		if r.PreviousGroupID == previousGroupID {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) GetRedirectByPreviousShortID(_ context.Context, projectSlug string, shortID int64) (*models.GroupRedirect, error) {
	for _, r := range s.redirects {
		if r.PreviousShortID != nil && *r.PreviousShortID == shortID &&
			r.PreviousProjectSlug != nil && *r.PreviousProjectSlug == projectSlug {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) GetGroupSnooze(_ context.Context, groupID int64) (*models.GroupSnooze, error) {
	if sn, ok := s.snoozes[groupID]; ok {
		return sn, nil
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) CreateGroupShare(_ context.Context, share *models.GroupShare) error {
	if _, ok := s.shares[share.GroupID]; ok {
		return store.ErrDuplicateKey
	}
	s.shares[share.GroupID] = share
	return nil
}

func (s *mockStore) GetGroupShareUUID(_ context.Context, groupID int64) (string, error) {
	if share, ok := s.shares[groupID]; ok {
		return share.UUID, nil
	}
	return "", store.ErrNotFound
}

func (s *mockStore) GetGroupIDByShareUUID(_ context.Context, shareUUID string) (int64, error) {
	for _, share := range s.shares {
		if share.UUID == shareUUID {
			return share.GroupID, nil
		}
	}
	return 0, store.ErrNotFound
}

func (s *mockStore) ListTeams(_ context.Context, _ store.TeamFilter) ([]*models.Team, int, error) {
	return nil, 0, nil
}

func (s *mockStore) CreateTeam(_ context.Context, _ *models.Team) error { return nil }

func (s *mockStore) GetOrganizationMember(_ context.Context, _, _ int64) (*models.OrganizationMember, error) {
	return nil, store.ErrNotFound
}

func (s *mockStore) AddTeamMember(_ context.Context, _ *models.TeamMember) error { return nil }

func (s *mockStore) CreateAuditLogEntry(_ context.Context, _ *models.AuditLogEntry) error { return nil }

func (s *mockStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}

func (s *mockStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }

var _ store.Store = (*mockStore)(nil)

// ─── mock cache ──────────────────────────────────────────────────────────────

type mockCache struct {
	entries  map[string][]byte
	counters map[string]int64
	gets     int
	sets     int
	deletes  int
}

func newMockCache() *mockCache {
	return &mockCache{
		entries:  make(map[string][]byte),
		counters: make(map[string]int64),
	}
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.deletes++
	delete(c.entries, key)
	return nil
}

func (c *mockCache) Ping(_ context.Context) error { return nil }

func (c *mockCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.counters[key]++
	return c.counters[key], nil
}

var _ cache.Cache = (*mockCache)(nil)

// ─── mock event store ────────────────────────────────────────────────────────

type mockEventStore struct {
	events       map[int64][]models.Event // keyed by group ID, newest first
	eventGroups  map[string][]int64       // event ID -> owning group IDs
	latestCalls  int
	oldestCalls  int
	groupIDCalls int
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{
		events:      make(map[int64][]models.Event),
		eventGroups: make(map[string][]int64),
	}
}

func (e *mockEventStore) Query(_ context.Context, _ eventstore.QueryRequest) ([]models.Event, error) {
	return nil, nil
}

func (e *mockEventStore) LatestEvent(_ context.Context, _, groupID int64, _ []string) (*models.Event, error) {
	e.latestCalls++
	rows := e.events[groupID]
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (e *mockEventStore) OldestEvent(_ context.Context, _, groupID int64, _ []string) (*models.Event, error) {
	e.oldestCalls++
	rows := e.events[groupID]
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[len(rows)-1], nil
}

func (e *mockEventStore) GroupIDsForEventID(_ context.Context, _ []int64, eventID string) ([]int64, error) {
	e.groupIDCalls++
	return e.eventGroups[eventID], nil
}

func (e *mockEventStore) Ready(_ context.Context) error { return nil }

var _ eventstore.Client = (*mockEventStore)(nil)

// ─── mock tag store ──────────────────────────────────────────────────────────

type tagIncr struct {
	groupID *int64
	key     string
	value   string
}

type mockTagStore struct {
	incrs []tagIncr
}

func (t *mockTagStore) IncrTagValueTimesSeen(_ context.Context, _, _ int64, key, value string, _ map[string]any) error {
	t.incrs = append(t.incrs, tagIncr{key: key, value: value})
	return nil
}

func (t *mockTagStore) IncrGroupTagValueTimesSeen(_ context.Context, _, groupID, _ int64, key, value string, _ map[string]any) error {
	t.incrs = append(t.incrs, tagIncr{groupID: &groupID, key: key, value: value})
	return nil
}

var _ tagstore.Client = (*mockTagStore)(nil)

// ─── harness ─────────────────────────────────────────────────────────────────

type testEnv struct {
	svc    *Service
	store  *mockStore
	cache  *mockCache
	events *mockEventStore
	tags   *mockTagStore
}

func newTestEnv() *testEnv {
	ms := newMockStore()
	mc := newMockCache()
	ev := newMockEventStore()
	tg := &mockTagStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		svc:    NewService(ms, mc, ev, tg, nil, logger, time.Hour),
		store:  ms,
		cache:  mc,
		events: ev,
		tags:   tg,
	}
}
