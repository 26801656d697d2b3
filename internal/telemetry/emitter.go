// Package telemetry carries access and auth events to OpenTelemetry.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"church-portal/internal/telemetry/domain"
)

// Event types.
const (
	EventAccessDecision = "access_decision"
	EventHTTPRequest    = "http_request"
)

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// NewEvent builds an event stamped now. metadata is encoded as a JSON object and may be nil.
func NewEvent(eventType, source string, metadata map[string]string) *domain.Event {
	ev := &domain.Event{
		EventType: eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			ev.Metadata = b
		}
	}
	return ev
}
