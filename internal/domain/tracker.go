package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// PausePeriod is one interval during which a ticket's SLA clock was
// suspended. EndedAt is nil while the pause is still open.
type PausePeriod struct {
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// Open reports whether the period has not been terminated yet.
func (p PausePeriod) Open() bool {
	return p.EndedAt == nil
}

// PolicySnapshot is the resolved hour-budget copy a tracker carries, so that
// policy edits never silently move due dates that were already computed.
type PolicySnapshot struct {
	PolicyID           string   `json:"policy_id"`
	FirstResponseHours float64  `json:"first_response_hours"`
	NextResponseHours  *float64 `json:"next_response_hours,omitempty"`
	ResolutionHours    float64  `json:"resolution_hours"`
	BusinessHoursOnly  bool     `json:"business_hours_only"`
}

// SLATracker owns a ticket's SLA due dates, met flags, and pause ledger.
// Persisted as one row per ticket (table sla_policy_tickets).
type SLATracker struct {
	TicketID           string
	OrganizationID     string
	CreatedAt          time.Time // ticket creation, the SLA clock origin
	Policy             *PolicySnapshot
	FirstResponseDueAt time.Time
	NextResponseDueAt  *time.Time
	ResolutionDueAt    time.Time
	FirstResponseMet   *bool
	NextResponseMet    *bool
	ResolutionMet      *bool
	PausePeriods       []PausePeriod
	UpdatedAt          time.Time
}

// HasPolicy reports whether a policy snapshot is attached. Tracker operations
// without one are defined as no-ops.
func (t *SLATracker) HasPolicy() bool {
	return t != nil && t.Policy != nil
}

// IsPaused reports whether the ledger currently has an open pause.
func (t *SLATracker) IsPaused() bool {
	if t == nil || len(t.PausePeriods) == 0 {
		return false
	}
	return t.PausePeriods[len(t.PausePeriods)-1].Open()
}

// Resolved reports whether the resolution met flag has been decided.
func (t *SLATracker) Resolved() bool {
	return t != nil && t.ResolutionMet != nil
}

// MarshalPausePeriods renders the ledger in its single canonical form: a JSON
// array of {"started_at", "ended_at"} RFC3339 UTC timestamps.
func MarshalPausePeriods(periods []PausePeriod) ([]byte, error) {
	if periods == nil {
		periods = []PausePeriod{}
	}
	normalized := make([]PausePeriod, len(periods))
	for i, p := range periods {
		normalized[i].StartedAt = p.StartedAt.UTC()
		if p.EndedAt != nil {
			ended := p.EndedAt.UTC()
			normalized[i].EndedAt = &ended
		}
	}
	return json.Marshal(normalized)
}

// ParsePausePeriods decodes and validates a serialized pause ledger. The
// stored blob is never trusted: timestamps are forced to UTC, a terminated
// period must not end before it starts, and only the final period may be open.
func ParsePausePeriods(raw []byte) ([]PausePeriod, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var periods []PausePeriod
	if err := json.Unmarshal(raw, &periods); err != nil {
		return nil, fmt.Errorf("decode pause periods: %w", err)
	}
	for i := range periods {
		periods[i].StartedAt = periods[i].StartedAt.UTC()
		if periods[i].EndedAt != nil {
			ended := periods[i].EndedAt.UTC()
			if ended.Before(periods[i].StartedAt) {
				return nil, fmt.Errorf("pause period %d ends before it starts", i)
			}
			periods[i].EndedAt = &ended
		} else if i != len(periods)-1 {
			return nil, fmt.Errorf("pause period %d is open but not last", i)
		}
	}
	return periods, nil
}
