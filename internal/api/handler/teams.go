package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/alexpeters0n/sentry/internal/api/middleware"
	"github.com/alexpeters0n/sentry/internal/api/response"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/internal/teams"
	"github.com/alexpeters0n/sentry/pkg/models"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

// TeamService is the slice of the teams service the handlers need.
type TeamService interface {
	List(ctx context.Context, organizationID int64, query string, page, limit int) ([]*models.Team, int, error)
	Create(ctx context.Context, org *models.Organization, params teams.CreateParams, actorUserID *int64) (*models.Team, error)
}

type teamPayload struct {
	ID          string           `json:"id"`
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	DateCreated time.Time        `json:"dateCreated"`
	Projects    []projectPayload `json:"projects,omitempty"`
}

type projectPayload struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func serializeTeam(team *models.Team, projects []*models.Project) teamPayload {
	p := teamPayload{
		ID:          strconv.FormatInt(team.ID, 10),
		Slug:        team.Slug,
		Name:        team.Name,
		DateCreated: team.CreatedAt,
	}
	for _, project := range projects {
		p.Projects = append(p.Projects, projectPayload{
			ID:   strconv.FormatInt(project.ID, 10),
			Slug: project.Slug,
			Name: project.Name,
		})
	}
	return p
}

// resolveOrganization loads the organization from the URL and checks it
// against the authenticated organization. A cross-organization request is
// indistinguishable from a missing one.
func resolveOrganization(r *http.Request, dir Directory) (*models.Organization, error) {
	org, err := dir.GetOrganizationBySlug(r.Context(), chi.URLParam(r, "orgSlug"))
	if err != nil {
		return nil, err
	}
	if authedOrg, ok := mw.GetOrganizationID(r); ok && authedOrg != org.ID {
		return nil, store.ErrNotFound
	}
	return org, nil
}

// NewListTeamsHandler returns the handler for
// GET /api/v1/organizations/{orgSlug}/teams.
func NewListTeamsHandler(dir Directory, svc TeamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org, err := resolveOrganization(r, dir)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Organization not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load organization", nil)
			return
		}

		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit < 1 {
			limit = defaultPageLimit
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
		light := q.Get("light") == "1" || q.Get("light") == "true"

		teamList, total, err := svc.List(r.Context(), org.ID, q.Get("query"), page, limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list teams", nil)
			return
		}

		payload := make([]teamPayload, 0, len(teamList))
		for _, team := range teamList {
			var projects []*models.Project
			if !light {
				projects, err = dir.ListProjectsByTeam(r.Context(), team.ID)
				if err != nil {
					response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load team projects", nil)
					return
				}
			}
			payload = append(payload, serializeTeam(team, projects))
		}

		response.Collection(w, payload, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}

// NewCreateTeamHandler returns the handler for
// POST /api/v1/organizations/{orgSlug}/teams.
func NewCreateTeamHandler(dir Directory, svc TeamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org, err := resolveOrganization(r, dir)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Organization not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load organization", nil)
			return
		}

		var req struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		var actorUserID *int64
		if userID, ok := mw.GetUserID(r); ok {
			actorUserID = &userID
		}

		team, err := svc.Create(r.Context(), org, teams.CreateParams{Name: req.Name, Slug: req.Slug}, actorUserID)
		if err != nil {
			var verr *teams.ValidationError
			switch {
			case errors.As(err, &verr):
				response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid params",
					map[string][]string{verr.Field: {verr.Message}})
			case errors.Is(err, teams.ErrSlugConflict):
				response.Error(w, http.StatusConflict, "CONFLICT", teams.SlugConflictMessage, nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create team", nil)
			}
			return
		}

		response.Created(w, serializeTeam(team, nil))
	}
}
