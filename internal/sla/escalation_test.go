package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForPercentage(t *testing.T) {
	th := DefaultThresholds

	assert.Equal(t, LevelNone, th.LevelFor(0))
	assert.Equal(t, LevelNone, th.LevelFor(60))
	assert.Equal(t, LevelNone, th.LevelFor(74.99))
	assert.Equal(t, Level1, th.LevelFor(75))
	assert.Equal(t, Level1, th.LevelFor(89.9))
	assert.Equal(t, Level2, th.LevelFor(95))
	assert.Equal(t, Level3, th.LevelFor(100))
	assert.Equal(t, Level3, th.LevelFor(119))
	assert.Equal(t, Level4, th.LevelFor(130))
	assert.Equal(t, Level4, th.LevelFor(500))
}

func TestActionsForLevel(t *testing.T) {
	assert.Nil(t, ActionsForLevel(LevelNone))
	assert.Equal(t, []EscalationAction{ActionNotifyAgent}, ActionsForLevel(Level1))
	assert.Equal(t,
		[]EscalationAction{ActionNotifyAgent, ActionNotifyManager},
		ActionsForLevel(Level2))
	assert.Equal(t,
		[]EscalationAction{ActionNotifyAgent, ActionNotifyManager, ActionFlagReassignment},
		ActionsForLevel(Level3))
	assert.Equal(t,
		[]EscalationAction{ActionNotifyAgent, ActionNotifyManager, ActionFlagReassignment, ActionIncreasePriority},
		ActionsForLevel(Level4))
}

func TestEscalationLevelMonotonicOverTime(t *testing.T) {
	tracker := wallClockTracker()
	th := DefaultThresholds

	lastPct := -1.0
	lastLevel := LevelNone
	for hours := 1; hours <= 36; hours++ {
		now := t0.Add(time.Duration(hours) * time.Hour)
		pct, ok := PercentageConsumed(tracker, now)
		require.True(t, ok)
		assert.GreaterOrEqual(t, pct, lastPct)

		level := th.LevelFor(pct)
		assert.GreaterOrEqual(t, int(level), int(lastLevel))
		lastPct, lastLevel = pct, level
	}
}
