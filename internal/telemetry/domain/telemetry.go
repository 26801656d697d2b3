package domain

import "time"

// Event is an access or auth occurrence exported as an OTel log record.
// All ids are optional; Metadata is a JSON object.
type Event struct {
	ChurchID  string
	UserID    string
	SessionID string
	EventType string
	Source    string
	Metadata  []byte
	CreatedAt time.Time
}
