package domain

import "time"

// SLAPolicy defines the response and resolution time budgets for one
// (organization, priority) pair. At most one policy exists per pair; the
// resolver's create/update path enforces that, not the engine.
type SLAPolicy struct {
	ID                 string
	OrganizationID     string
	PriorityID         string
	Name               string
	Description        string
	FirstResponseHours float64
	NextResponseHours  *float64
	ResolutionHours    float64
	BusinessHoursOnly  bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Snapshot captures the resolved hour budgets for a tracker. Later edits to
// the policy do not retroactively change already-computed due dates.
func (p SLAPolicy) Snapshot() PolicySnapshot {
	snap := PolicySnapshot{
		PolicyID:           p.ID,
		FirstResponseHours: p.FirstResponseHours,
		ResolutionHours:    p.ResolutionHours,
		BusinessHoursOnly:  p.BusinessHoursOnly,
	}
	if p.NextResponseHours != nil {
		v := *p.NextResponseHours
		snap.NextResponseHours = &v
	}
	return snap
}
