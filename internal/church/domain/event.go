package domain

import "time"

// EventType categorizes a church event.
type EventType string

const (
	EventService    EventType = "SERVICE"
	EventBibleStudy EventType = "BIBLE_STUDY"
	EventFellowship EventType = "FELLOWSHIP"
	EventOutreach   EventType = "OUTREACH"
	EventMeeting    EventType = "MEETING"
	EventSpecial    EventType = "SPECIAL"
	EventOther      EventType = "OTHER"
)

// EventTypes lists every EventType in display order.
func EventTypes() []EventType {
	return []EventType{EventService, EventBibleStudy, EventFellowship, EventOutreach, EventMeeting, EventSpecial, EventOther}
}

// Visibility limits who sees an event.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityMembers Visibility = "MEMBERS"
	VisibilityAdmin   Visibility = "ADMIN"
)

// Event is a scheduled church event.
type Event struct {
	ID          string
	ChurchID    string
	CreatedBy   string
	Title       string
	Description string
	Type        EventType
	Location    string
	StartTime   time.Time
	EndTime     *time.Time
	Visibility  Visibility
	CreatedAt   time.Time
}

// VisibleToMembers reports whether non-admin members may see e.
func (e *Event) VisibleToMembers() bool {
	return e.Visibility != VisibilityAdmin
}
