package issues

import (
	"time"

	"github.com/alexpeters0n/sentry/pkg/models"
)

// ResolveStatus derives the effective status of a group from its stored
// status, its snooze (nil when none exists), and the project's auto-resolve
// age (0 disables auto-resolve). The stored row is never written back;
// readers recompute on every access.
//
// An Ignored group whose snooze is missing or no longer valid is treated as
// Unresolved, and an Unresolved group that has not been seen within the
// auto-resolve window is treated as Resolved.
func ResolveStatus(g *models.Group, snooze *models.GroupSnooze, resolveAge time.Duration, now time.Time) int {
	status := g.Status

	if status == models.GroupStatusIgnored {
		if snooze == nil || !snooze.IsValid(g.TimesSeen, now) {
			status = models.GroupStatusUnresolved
		}
	}

	if status == models.GroupStatusUnresolved && resolveAge > 0 && now.Sub(g.LastSeen) > resolveAge {
		status = models.GroupStatusResolved
	}

	return status
}
