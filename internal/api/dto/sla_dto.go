package dto

import "time"

// StatusChangeRequest reports a ticket status transition to the engine.
type StatusChangeRequest struct {
	OldStatus string     `json:"old_status"`
	NewStatus string     `json:"new_status"`
	At        *time.Time `json:"at,omitempty"`
}

// LifecycleEventRequest covers first-response, resolution, and
// customer-reply notifications, which only need an instant.
type LifecycleEventRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// SLAStatusResponse renders a tracker's point-in-time status.
type SLAStatusResponse struct {
	TicketID                      string  `json:"ticket_id"`
	Frozen                        bool    `json:"frozen"`
	FirstResponseBreached         bool    `json:"first_response_breached"`
	ResolutionBreached            bool    `json:"resolution_breached"`
	FirstResponseRemainingMinutes float64 `json:"first_response_remaining_minutes"`
	ResolutionRemainingMinutes    float64 `json:"resolution_remaining_minutes"`
	FirstResponsePercentage       float64 `json:"first_response_percentage"`
	ResolutionPercentage          float64 `json:"resolution_percentage"`
}

// TrackerResponse renders an assigned tracker.
type TrackerResponse struct {
	TicketID           string     `json:"ticket_id"`
	PolicyID           string     `json:"policy_id"`
	FirstResponseDueAt time.Time  `json:"first_response_due_at"`
	NextResponseDueAt  *time.Time `json:"next_response_due_at,omitempty"`
	ResolutionDueAt    time.Time  `json:"resolution_due_at"`
}
