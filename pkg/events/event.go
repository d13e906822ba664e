package events

import "time"

// Event type codes published on the bus. The NATS subject is derived as
// "events.<code>".
const (
	TypeTriageCompleted      = "TRIAGE_COMPLETED"
	TypeEmergencyDetected    = "EMERGENCY_DETECTED"
	TypeDocumentIngested     = "DOCUMENT_INGESTED"
	TypeDocumentIngestFailed = "DOCUMENT_INGEST_FAILED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TRIAGE_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation services publish directly.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
