package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/sla"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSLAAssigned          EventType = "sla_assigned"
	EventSLAPaused            EventType = "sla_paused"
	EventSLAResumed           EventType = "sla_resumed"
	EventSLAFirstResponse     EventType = "sla_first_response_recorded"
	EventSLAResolution        EventType = "sla_resolution_recorded"
	EventSLANextResponseReset EventType = "sla_next_response_reset"
	EventSLAEscalated         EventType = "sla_escalated"
)

// Event represents a domain event emitted by the SLA engine. Payloads are
// plain records; formatting and delivery belong to the notification
// collaborator.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SLAAssignedPayload payload.
type SLAAssignedPayload struct {
	PolicyID           string     `json:"policy_id"`
	FirstResponseDueAt time.Time  `json:"first_response_due_at"`
	NextResponseDueAt  *time.Time `json:"next_response_due_at,omitempty"`
	ResolutionDueAt    time.Time  `json:"resolution_due_at"`
	Reassigned         bool       `json:"reassigned"`
}

// SLAPausedPayload payload.
type SLAPausedPayload struct {
	StatusName string `json:"status_name,omitempty"`
}

// SLAResumedPayload payload.
type SLAResumedPayload struct {
	PausedMinutes float64 `json:"paused_minutes"`
}

// SLAResponsePayload covers first-response and resolution recordings.
type SLAResponsePayload struct {
	Met   bool      `json:"met"`
	DueAt time.Time `json:"due_at"`
}

// SLANextResponseResetPayload payload.
type SLANextResponseResetPayload struct {
	NextResponseDueAt time.Time `json:"next_response_due_at"`
}

// SLAEscalatedPayload carries the single highest matching level and its
// action set for one scan.
type SLAEscalatedPayload struct {
	Level      sla.EscalationLevel    `json:"level"`
	Percentage float64                `json:"percentage"`
	Actions    []sla.EscalationAction `json:"actions"`
}
