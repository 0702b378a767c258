package models

import "time"

// GroupSnooze suppresses an Ignored group until a condition is met: a
// deadline passes, or the group is seen Count more times past the
// TimesSeenBase recorded when the snooze was created. The snooze is
// consulted, never mutated, when deriving effective status.
type GroupSnooze struct {
	ID            int64      `db:"id"              json:"id"`
	GroupID       int64      `db:"group_id"        json:"group_id"`
	Until         *time.Time `db:"until"           json:"until,omitempty"`
	Count         *int64     `db:"count"           json:"count,omitempty"`
	TimesSeenBase int64      `db:"times_seen_base" json:"times_seen_base"`
	CreatedAt     time.Time  `db:"created_at"      json:"created_at"`
}

// IsValid reports whether the snooze still holds for the given group state.
// A snooze with no conditions never expires on its own.
func (s *GroupSnooze) IsValid(timesSeen int64, now time.Time) bool {
	if s.Until != nil && !now.Before(*s.Until) {
		return false
	}
	if s.Count != nil && timesSeen-s.TimesSeenBase >= *s.Count {
		return false
	}
	return true
}
