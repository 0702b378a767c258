package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alexpeters0n/sentry/internal/api/response"
	"github.com/alexpeters0n/sentry/internal/eventtypes"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/pkg/models"
)

// SharedGroupService resolves share tokens back to groups.
type SharedGroupService interface {
	FromShareID(ctx context.Context, shareID string) (*models.Group, error)
	Status(ctx context.Context, g *models.Group) (int, error)
}

// NewSharedGroupHandler returns the handler for
// GET /api/v1/shared/{shareID}. The payload is deliberately thin; shared
// links must not expose internal identifiers beyond the token itself.
func NewSharedGroupHandler(svc SharedGroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shareID := chi.URLParam(r, "shareID")

		g, err := svc.FromShareID(r.Context(), shareID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Shared issue not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load shared issue", nil)
			return
		}

		status, err := svc.Status(r.Context(), g)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute issue status", nil)
			return
		}

		response.JSON(w, map[string]any{
			"shareId":   shareID,
			"title":     eventtypes.Title(g),
			"culprit":   g.Culprit,
			"level":     g.Level,
			"status":    statusLabel(status),
			"firstSeen": g.FirstSeen,
			"lastSeen":  g.LastSeen,
		})
	}
}
