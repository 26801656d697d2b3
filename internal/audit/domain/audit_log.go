package domain

import "time"

// AuditLog represents an audit event. ChurchID is empty for events outside a church
// (sign-in failures, applications not yet approved).
type AuditLog struct {
	ID        string
	ChurchID  string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  map[string]string
	CreatedAt time.Time
}
