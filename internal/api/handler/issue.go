package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alexpeters0n/sentry/internal/api/response"
	"github.com/alexpeters0n/sentry/internal/eventtypes"
	"github.com/alexpeters0n/sentry/internal/issues"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/pkg/models"
)

// IssueService is the slice of the group service the issue handler needs.
type IssueService interface {
	GetGroupWithRedirect(ctx context.Context, token string, opts ...issues.LookupOption) (*models.Group, bool, error)
	Status(ctx context.Context, g *models.Group) (int, error)
}

// NewGetIssueHandler returns the handler for GET /api/v1/issues/{issueID}.
// The issue ID may be a numeric group ID or a qualified short ID; merged
// groups resolve through the redirect table.
func NewGetIssueHandler(svc IssueService, dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "issueID")

		g, wasRedirected, err := svc.GetGroupWithRedirect(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load issue", nil)
			return
		}

		status, err := svc.Status(r.Context(), g)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute issue status", nil)
			return
		}

		project, err := dir.GetProjectByID(r.Context(), g.ProjectID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load project", nil)
			return
		}

		response.JSON(w, serializeIssue(g, project, status, eventtypes.Title(g), eventtypes.Location(g), wasRedirected))
	}
}
