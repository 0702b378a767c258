package models

import "time"

// Event is a single error occurrence as returned by the event store. Rows
// are time-ordered with the event ID as tie-break; this core only reads
// them, ingestion writes them elsewhere.
type Event struct {
	EventID   string            `json:"event_id"`
	GroupID   int64             `json:"group_id"`
	ProjectID int64             `json:"project_id"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Platform  string            `json:"platform"`
	Tags      map[string]string `json:"tags"`
}
