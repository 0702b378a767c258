package issues

import (
	"strings"
	"time"

	"github.com/alexpeters0n/sentry/pkg/models"
)

const maxMessageLength = 255

// Normalize applies the save-time contract to a group. It runs on every
// save, new or existing: zero-valued timestamps and counters get defaults,
// the message collapses to its trimmed first line capped at 255 runes, and
// the score is recomputed from the resulting state.
func Normalize(g *models.Group, now time.Time) {
	if g.LastSeen.IsZero() {
		g.LastSeen = now
	}
	if g.FirstSeen.IsZero() {
		g.FirstSeen = g.LastSeen
	}
	if g.ActiveAt == nil || g.ActiveAt.IsZero() {
		activeAt := g.FirstSeen
		g.ActiveAt = &activeAt
	}
	if g.TimesSeen == 0 {
		g.TimesSeen = 1
	}

	g.Message = normalizeMessage(g.Message)
	g.Score = Score(g.TimesSeen, g.LastSeen)
}

func normalizeMessage(message string) string {
	message = strings.TrimSpace(message)
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = strings.TrimSpace(message[:i])
	}
	runes := []rune(message)
	if len(runes) > maxMessageLength {
		message = string(runes[:maxMessageLength-3]) + "..."
	}
	return message
}
