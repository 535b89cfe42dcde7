package sla

// EscalationLevel is a discrete tier of response actions triggered by the
// percentage of resolution budget consumed. Levels are re-evaluated on every
// scan; a tracker can move back down if its deadline is extended.
type EscalationLevel int

const (
	LevelNone EscalationLevel = iota
	Level1
	Level2
	Level3
	Level4
)

// EscalationAction names a side effect the surrounding system performs on
// the engine's behalf. The engine only emits them.
type EscalationAction string

const (
	ActionNotifyAgent      EscalationAction = "notify_agent"
	ActionNotifyManager    EscalationAction = "notify_manager"
	ActionFlagReassignment EscalationAction = "flag_reassignment"
	ActionIncreasePriority EscalationAction = "increase_priority"
)

// Thresholds holds the percentage cutoffs for levels 1 through 4, ascending.
type Thresholds [4]float64

// DefaultThresholds matches the standard 75/90/100/120 escalation ladder.
var DefaultThresholds = Thresholds{75, 90, 100, 120}

// LevelFor maps a percentage consumed to the highest matching level.
func (th Thresholds) LevelFor(pct float64) EscalationLevel {
	level := LevelNone
	for i, cutoff := range th {
		if pct >= cutoff {
			level = EscalationLevel(i + 1)
		}
	}
	return level
}

// ActionsForLevel returns the action set for one level. Only the highest
// matching level's set fires per scan; sets are not accumulated across levels.
func ActionsForLevel(level EscalationLevel) []EscalationAction {
	switch level {
	case Level1:
		return []EscalationAction{ActionNotifyAgent}
	case Level2:
		return []EscalationAction{ActionNotifyAgent, ActionNotifyManager}
	case Level3:
		return []EscalationAction{ActionNotifyAgent, ActionNotifyManager, ActionFlagReassignment}
	case Level4:
		return []EscalationAction{ActionNotifyAgent, ActionNotifyManager, ActionFlagReassignment, ActionIncreasePriority}
	default:
		return nil
	}
}
