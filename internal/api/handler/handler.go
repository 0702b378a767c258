// Package handler contains the HTTP handlers. Each handler depends on a
// narrow interface satisfied by the real services, so tests swap in fakes.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/alexpeters0n/sentry/pkg/models"
	"github.com/alexpeters0n/sentry/pkg/shortid"
)

// Directory resolves organizations and projects. store.Store satisfies it.
type Directory interface {
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	GetProjectByID(ctx context.Context, id int64) (*models.Project, error)
	ListProjectsByTeam(ctx context.Context, teamID int64) ([]*models.Project, error)
	ListProjectsByOrganization(ctx context.Context, organizationID int64) ([]*models.Project, error)
}

func statusLabel(status int) string {
	switch status {
	case models.GroupStatusResolved:
		return "resolved"
	case models.GroupStatusIgnored:
		return "ignored"
	case models.GroupStatusPendingDeletion, models.GroupStatusDeletionInProgress:
		return "pendingDeletion"
	case models.GroupStatusPendingMerge:
		return "pendingMerge"
	default:
		return "unresolved"
	}
}

type issuePayload struct {
	ID            string     `json:"id"`
	ShortID       string     `json:"shortId,omitempty"`
	ProjectSlug   string     `json:"projectSlug"`
	Title         string     `json:"title"`
	Location      string     `json:"location,omitempty"`
	Culprit       string     `json:"culprit,omitempty"`
	Logger        string     `json:"logger,omitempty"`
	Level         string     `json:"level"`
	Status        string     `json:"status"`
	TimesSeen     int64      `json:"timesSeen"`
	FirstSeen     time.Time  `json:"firstSeen"`
	LastSeen      time.Time  `json:"lastSeen"`
	ActiveAt      *time.Time `json:"activeAt,omitempty"`
	NumComments   int        `json:"numComments"`
	WasRedirected bool       `json:"wasRedirected"`
}

func serializeIssue(g *models.Group, project *models.Project, status int, title, location string, wasRedirected bool) issuePayload {
	p := issuePayload{
		ID:            strconv.FormatInt(g.ID, 10),
		ProjectSlug:   project.Slug,
		Title:         title,
		Location:      location,
		Culprit:       g.Culprit,
		Logger:        g.Logger,
		Level:         g.Level,
		Status:        statusLabel(status),
		TimesSeen:     g.TimesSeen,
		FirstSeen:     g.FirstSeen,
		LastSeen:      g.LastSeen,
		ActiveAt:      g.ActiveAt,
		NumComments:   g.NumComments,
		WasRedirected: wasRedirected,
	}
	if g.ShortID != nil {
		p.ShortID = shortid.Qualified(project.Slug, *g.ShortID)
	}
	return p
}
