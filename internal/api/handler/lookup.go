package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alexpeters0n/sentry/internal/api/response"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/pkg/models"
	"github.com/alexpeters0n/sentry/pkg/shortid"
)

const eventIDLength = 32

// ShortIDResolver resolves qualified short IDs within an organization.
type ShortIDResolver interface {
	ByQualifiedShortID(ctx context.Context, organizationID int64, token string) (*models.Group, error)
}

// EventIDResolver finds groups owning a given event ID.
type EventIDResolver interface {
	FilterByEventID(ctx context.Context, projectIDs []int64, eventID string) ([]*models.Group, error)
}

// NewShortIDLookupHandler returns the handler for
// GET /api/v1/organizations/{orgSlug}/shortids/{shortID}.
func NewShortIDLookupHandler(dir Directory, resolver ShortIDResolver) http.HandlerFunc {
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

		token := chi.URLParam(r, "shortID")
		g, err := resolver.ByQualifiedShortID(r.Context(), org.ID, token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Short ID not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve short ID", nil)
			return
		}

		project, err := dir.GetProjectByID(r.Context(), g.ProjectID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load project", nil)
			return
		}

		payload := map[string]any{
			"organizationSlug": org.Slug,
			"projectSlug":      project.Slug,
			"shortId":          token,
			"groupId":          strconv.FormatInt(g.ID, 10),
		}
		if g.ShortID != nil {
			payload["shortId"] = shortid.Qualified(project.Slug, *g.ShortID)
		}
		response.JSON(w, payload)
	}
}

// NewEventIDLookupHandler returns the handler for
// GET /api/v1/organizations/{orgSlug}/eventids/{eventID}.
func NewEventIDLookupHandler(dir Directory, resolver EventIDResolver) http.HandlerFunc {
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

		eventID := chi.URLParam(r, "eventID")
		if len(eventID) != eventIDLength {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Event ID must be 32 characters", nil)
			return
		}

		projects, err := dir.ListProjectsByOrganization(r.Context(), org.ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load projects", nil)
			return
		}
		projectIDs := make([]int64, 0, len(projects))
		projectSlugs := make(map[int64]string, len(projects))
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
			projectSlugs[p.ID] = p.Slug
		}

		groups, err := resolver.FilterByEventID(r.Context(), projectIDs, eventID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve event ID", nil)
			return
		}
		if len(groups) == 0 {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Event ID not found", nil)
			return
		}

		g := groups[0]
		response.JSON(w, map[string]any{
			"organizationSlug": org.Slug,
			"projectSlug":      projectSlugs[g.ProjectID],
			"groupId":          strconv.FormatInt(g.ID, 10),
			"eventId":          eventID,
		})
	}
}
