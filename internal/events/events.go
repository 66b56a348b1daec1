// Package events publishes profile change events to Pub/Sub so the worker
// can keep derived data such as cached suggestions current.
package events

import (
	"encoding/json"
	"time"
)

// Job types carried in Message.JobType.
const (
	JobProfileUpdated     = "profile_updated"
	JobSuggestionsRefresh = "suggestions_refresh"
	JobHealthCheck        = "health_check"
)

// Message is the payload of every worker message.
type Message struct {
	EventID    string    `json:"event_id,omitempty"`
	JobType    string    `json:"job_type"`
	ProfileID  string    `json:"profile_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at,omitzero"`
}

// Encode serializes the message.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a message payload.
func Decode(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}
