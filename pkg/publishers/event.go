package publishers

import (
	"encoding/json"
	"time"
)

// Event represents a changed API resource published downstream.
type Event struct {
	WatchID      string          `json:"watch_id"`
	Path         string          `json:"path"`
	LastModified string          `json:"last_modified,omitempty"`
	Payload      json.RawMessage `json:"payload"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// NewEvent constructs an Event for a fetched body. JSON bodies are embedded
// as-is; anything else is embedded as a JSON string.
func NewEvent(watchID, path, lastModified, body string) Event {
	payload := json.RawMessage(body)
	if !json.Valid(payload) {
		encoded, _ := json.Marshal(body)
		payload = encoded
	}
	return Event{
		WatchID:      watchID,
		Path:         path,
		LastModified: lastModified,
		Payload:      payload,
		FetchedAt:    time.Now().UTC(),
	}
}
