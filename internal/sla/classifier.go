package sla

import "strings"

// StatusClass buckets free-form ticket status names into the three states
// the SLA clock cares about. Classification happens once at the boundary;
// nothing downstream re-parses status strings.
type StatusClass int

const (
	StatusOther StatusClass = iota
	StatusPending
	StatusInProgress
	StatusResolved
)

func (c StatusClass) String() string {
	switch c {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusResolved:
		return "resolved"
	default:
		return "other"
	}
}

// TransitionAction is what a status change means for the SLA clock.
type TransitionAction int

const (
	TransitionNone TransitionAction = iota
	TransitionPause
	TransitionResume
	TransitionComplete
)

func (a TransitionAction) String() string {
	switch a {
	case TransitionPause:
		return "pause"
	case TransitionResume:
		return "resume"
	case TransitionComplete:
		return "complete"
	default:
		return "none"
	}
}

var (
	pendingKeywords    = []string{"pending", "awaiting", "waiting", "on hold", "customer response", "suspended", "deferred"}
	inProgressKeywords = []string{"open", "in progress", "active", "assigned", "processing", "responded"}
	resolvedKeywords   = []string{"resolved", "closed"}
)

// ClassifyStatus maps a status name to a StatusClass by case-insensitive
// keyword membership. Resolved keywords win outright, which also excludes
// names like "closed as resolved" from the in-progress bucket.
func ClassifyStatus(name string) StatusClass {
	lower := strings.ToLower(name)
	if containsAny(lower, resolvedKeywords) {
		return StatusResolved
	}
	if containsAny(lower, pendingKeywords) {
		return StatusPending
	}
	if containsAny(lower, inProgressKeywords) {
		return StatusInProgress
	}
	return StatusOther
}

// DecideTransition determines whether a status change pauses, resumes, or
// completes the SLA clock. The conditions are mutually exclusive given the
// keyword partition; on ambiguous data Pause wins over Resume over Complete.
func DecideTransition(oldStatus, newStatus string) TransitionAction {
	oldClass, newClass := ClassifyStatus(oldStatus), ClassifyStatus(newStatus)
	switch {
	case newClass == StatusPending && oldClass != StatusPending:
		return TransitionPause
	case newClass == StatusInProgress && oldClass == StatusPending:
		return TransitionResume
	case newClass == StatusResolved && oldClass != StatusResolved:
		return TransitionComplete
	default:
		return TransitionNone
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
