package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "github.com/alexpeters0n/sentry/internal/api/middleware"
	"github.com/alexpeters0n/sentry/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	ListTeamsHandler  http.HandlerFunc
	CreateTeamHandler http.HandlerFunc

	ShortIDLookupHandler http.HandlerFunc
	EventIDLookupHandler http.HandlerFunc
	GetIssueHandler      http.HandlerFunc
	SharedGroupHandler   http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Route("/api/v1/organizations/{orgSlug}", func(r chi.Router) {
			r.Get("/teams", orNotImplemented(deps.ListTeamsHandler))
			r.Post("/teams", orNotImplemented(deps.CreateTeamHandler))

			r.Get("/shortids/{shortID}", orNotImplemented(deps.ShortIDLookupHandler))
			r.Get("/eventids/{eventID}", orNotImplemented(deps.EventIDLookupHandler))
		})

		r.Get("/api/v1/issues/{issueID}", orNotImplemented(deps.GetIssueHandler))
		r.Get("/api/v1/shared/{shareID}", orNotImplemented(deps.SharedGroupHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
