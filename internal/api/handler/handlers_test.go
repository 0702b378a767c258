package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexpeters0n/sentry/internal/api/handler"
	mw "github.com/alexpeters0n/sentry/internal/api/middleware"
	"github.com/alexpeters0n/sentry/internal/issues"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/internal/teams"
	"github.com/alexpeters0n/sentry/pkg/models"
)

// ─── fixtures ────────────────────────────────────────────────────────────────

var (
	testOrg     = &models.Organization{ID: 1, Slug: "acme", Name: "Acme"}
	testProject = &models.Project{ID: 5, OrganizationID: 1, Slug: "backend", Name: "Backend"}
)

func testGroup() *models.Group {
	short := int64(44)
	return &models.Group{
		ID:        10,
		ProjectID: 5,
		Level:     "error",
		Culprit:   "app.views in render",
		Status:    models.GroupStatusUnresolved,
		TimesSeen: 7,
		FirstSeen: time.Now().Add(-time.Hour),
		LastSeen:  time.Now(),
		ShortID:   &short,
		Data: map[string]any{
			"type":     "error",
			"metadata": map[string]any{"type": "ValueError", "value": "bad input"},
		},
	}
}

// ─── mock directory ──────────────────────────────────────────────────────────

type mockDirectory struct {
	orgs     []*models.Organization
	projects []*models.Project
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		orgs:     []*models.Organization{testOrg},
		projects: []*models.Project{testProject},
	}
}

func (d *mockDirectory) GetOrganizationBySlug(_ context.Context, slug string) (*models.Organization, error) {
	for _, o := range d.orgs {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *mockDirectory) GetProjectByID(_ context.Context, id int64) (*models.Project, error) {
	for _, p := range d.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *mockDirectory) ListProjectsByTeam(_ context.Context, teamID int64) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range d.projects {
		if p.TeamID != nil && *p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (d *mockDirectory) ListProjectsByOrganization(_ context.Context, organizationID int64) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range d.projects {
		if p.OrganizationID == organizationID {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ handler.Directory = (*mockDirectory)(nil)

// ─── mock services ───────────────────────────────────────────────────────────

type mockTeamService struct {
	teams     []*models.Team
	createErr error
	lastQuery string
}

func (m *mockTeamService) List(_ context.Context, _ int64, query string, _, _ int) ([]*models.Team, int, error) {
	m.lastQuery = query
	return m.teams, len(m.teams), nil
}

func (m *mockTeamService) Create(_ context.Context, org *models.Organization, params teams.CreateParams, _ *int64) (*models.Team, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	slug := params.Slug
	if slug == "" {
		slug = teams.Slugify(params.Name)
	}
	return &models.Team{ID: 99, OrganizationID: org.ID, Slug: slug, Name: params.Name}, nil
}

type mockIssueService struct {
	group      *models.Group
	redirected bool
	err        error
	status     int
}

func (m *mockIssueService) GetGroupWithRedirect(_ context.Context, _ string, _ ...issues.LookupOption) (*models.Group, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.group, m.redirected, nil
}

func (m *mockIssueService) ByQualifiedShortID(_ context.Context, _ int64, _ string) (*models.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.group, nil
}

func (m *mockIssueService) FilterByEventID(_ context.Context, _ []int64, _ string) ([]*models.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.group == nil {
		return nil, nil
	}
	return []*models.Group{m.group}, nil
}

func (m *mockIssueService) FromShareID(_ context.Context, shareID string) (*models.Group, error) {
	if len(shareID) != 32 || m.group == nil {
		return nil, store.ErrNotFound
	}
	return m.group, nil
}

func (m *mockIssueService) Status(_ context.Context, _ *models.Group) (int, error) {
	return m.status, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func serve(t *testing.T, method, path string, body []byte, register func(r chi.Router)) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	register(r)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req = req.WithContext(mw.SetOrganizationID(req.Context(), testOrg.ID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ─── team handler tests ──────────────────────────────────────────────────────

func TestListTeams(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockTeamService{teams: []*models.Team{
		{ID: 1, OrganizationID: 1, Slug: "backend", Name: "Backend"},
		{ID: 2, OrganizationID: 1, Slug: "ops", Name: "Ops"},
	}}

	w := serve(t, "GET", "/api/v1/organizations/acme/teams", nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/teams", handler.NewListTeamsHandler(dir, svc))
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].([]any)
	assert.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "backend", first["slug"])
	assert.Equal(t, "1", first["id"])

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["total"])
}

func TestListTeamsPassesQuery(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockTeamService{}

	w := serve(t, "GET", "/api/v1/organizations/acme/teams?query=query%3Abackend", nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/teams", handler.NewListTeamsHandler(dir, svc))
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "query:backend", svc.lastQuery)
}

func TestListTeamsUnknownOrganization(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockTeamService{}

	w := serve(t, "GET", "/api/v1/organizations/nope/teams", nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/teams", handler.NewListTeamsHandler(dir, svc))
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTeamsCrossOrganization(t *testing.T) {
	dir := newMockDirectory()
	dir.orgs = append(dir.orgs, &models.Organization{ID: 2, Slug: "other"})
	svc := &mockTeamService{}

	// Authenticated as org 1, asking for org 2.
	w := serve(t, "GET", "/api/v1/organizations/other/teams", nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/teams", handler.NewListTeamsHandler(dir, svc))
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTeam(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockTeamService{}

	body, _ := json.Marshal(map[string]string{"name": "The A Team"})
	w := serve(t, "POST", "/api/v1/organizations/acme/teams", body, func(r chi.Router) {
		r.Post("/api/v1/organizations/{orgSlug}/teams", handler.NewCreateTeamHandler(dir, svc))
	})

	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "the-a-team", data["slug"])
}

func TestCreateTeamValidationError(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockTeamService{createErr: &teams.ValidationError{Field: "name", Message: "Name or slug is required"}}

	body, _ := json.Marshal(map[string]string{})
	w := serve(t, "POST", "/api/v1/organizations/acme/teams", body, func(r chi.Router) {
		r.Post("/api/v1/organizations/{orgSlug}/teams", handler.NewCreateTeamHandler(dir, svc))
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	errObj := decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Contains(t, details, "name")
}

func TestCreateTeamSlugConflict(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockTeamService{createErr: teams.ErrSlugConflict}

	body, _ := json.Marshal(map[string]string{"slug": "backend"})
	w := serve(t, "POST", "/api/v1/organizations/acme/teams", body, func(r chi.Router) {
		r.Post("/api/v1/organizations/{orgSlug}/teams", handler.NewCreateTeamHandler(dir, svc))
	})

	require.Equal(t, http.StatusConflict, w.Code)
	errObj := decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "A team with this slug already exists.", errObj["message"])
}

func TestCreateTeamInvalidJSON(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockTeamService{}

	w := serve(t, "POST", "/api/v1/organizations/acme/teams", []byte("{not json"), func(r chi.Router) {
		r.Post("/api/v1/organizations/{orgSlug}/teams", handler.NewCreateTeamHandler(dir, svc))
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ─── issue handler tests ─────────────────────────────────────────────────────

func TestGetIssue(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockIssueService{group: testGroup(), redirected: true, status: models.GroupStatusUnresolved}

	w := serve(t, "GET", "/api/v1/issues/10", nil, func(r chi.Router) {
		r.Get("/api/v1/issues/{issueID}", handler.NewGetIssueHandler(svc, dir))
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "10", data["id"])
	assert.Equal(t, "BACKEND-1C", data["shortId"])
	assert.Equal(t, "ValueError: bad input", data["title"])
	assert.Equal(t, "unresolved", data["status"])
	assert.Equal(t, true, data["wasRedirected"])
}

func TestGetIssueNotFound(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockIssueService{err: store.ErrNotFound}

	w := serve(t, "GET", "/api/v1/issues/999", nil, func(r chi.Router) {
		r.Get("/api/v1/issues/{issueID}", handler.NewGetIssueHandler(svc, dir))
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ─── short id lookup tests ───────────────────────────────────────────────────

func TestShortIDLookup(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockIssueService{group: testGroup()}

	w := serve(t, "GET", "/api/v1/organizations/acme/shortids/BACKEND-1C", nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/shortids/{shortID}", handler.NewShortIDLookupHandler(dir, svc))
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "acme", data["organizationSlug"])
	assert.Equal(t, "backend", data["projectSlug"])
	assert.Equal(t, "BACKEND-1C", data["shortId"])
	assert.Equal(t, "10", data["groupId"])
}

func TestShortIDLookupMiss(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockIssueService{err: store.ErrNotFound}

	w := serve(t, "GET", "/api/v1/organizations/acme/shortids/BACKEND-ZZ", nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/shortids/{shortID}", handler.NewShortIDLookupHandler(dir, svc))
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ─── event id lookup tests ───────────────────────────────────────────────────

func TestEventIDLookup(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockIssueService{group: testGroup()}
	eventID := strings.Repeat("ab", 16)

	w := serve(t, "GET", "/api/v1/organizations/acme/eventids/"+eventID, nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/eventids/{eventID}", handler.NewEventIDLookupHandler(dir, svc))
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "acme", data["organizationSlug"])
	assert.Equal(t, "backend", data["projectSlug"])
	assert.Equal(t, "10", data["groupId"])
	assert.Equal(t, eventID, data["eventId"])
}

func TestEventIDLookupBadLength(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockIssueService{group: testGroup()}

	w := serve(t, "GET", "/api/v1/organizations/acme/eventids/tooshort", nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/eventids/{eventID}", handler.NewEventIDLookupHandler(dir, svc))
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventIDLookupMiss(t *testing.T) {
	dir := newMockDirectory()
	svc := &mockIssueService{}
	eventID := strings.Repeat("cd", 16)

	w := serve(t, "GET", "/api/v1/organizations/acme/eventids/"+eventID, nil, func(r chi.Router) {
		r.Get("/api/v1/organizations/{orgSlug}/eventids/{eventID}", handler.NewEventIDLookupHandler(dir, svc))
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ─── shared group tests ──────────────────────────────────────────────────────

func TestSharedGroup(t *testing.T) {
	svc := &mockIssueService{group: testGroup(), status: models.GroupStatusResolved}
	shareID := strings.Repeat("ef", 16)

	w := serve(t, "GET", "/api/v1/shared/"+shareID, nil, func(r chi.Router) {
		r.Get("/api/v1/shared/{shareID}", handler.NewSharedGroupHandler(svc))
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, shareID, data["shareId"])
	assert.Equal(t, "ValueError: bad input", data["title"])
	assert.Equal(t, "resolved", data["status"])
	// No internal identifiers leak through the shared payload.
	assert.NotContains(t, data, "id")
	assert.NotContains(t, data, "shortId")
}

func TestSharedGroupBadToken(t *testing.T) {
	svc := &mockIssueService{group: testGroup()}

	w := serve(t, "GET", "/api/v1/shared/short", nil, func(r chi.Router) {
		r.Get("/api/v1/shared/{shareID}", handler.NewSharedGroupHandler(svc))
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
