package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePausePeriodsValidates(t *testing.T) {
	_, err := ParsePausePeriods([]byte(`{"not":"a list"}`))
	assert.Error(t, err)

	// An open period anywhere but last is corrupt.
	_, err = ParsePausePeriods([]byte(
		`[{"started_at":"2025-01-01T10:00:00Z"},{"started_at":"2025-01-01T12:00:00Z","ended_at":"2025-01-01T13:00:00Z"}]`))
	assert.Error(t, err)

	// A period ending before it starts is corrupt.
	_, err = ParsePausePeriods([]byte(
		`[{"started_at":"2025-01-01T10:00:00Z","ended_at":"2025-01-01T09:00:00Z"}]`))
	assert.Error(t, err)
}

func TestParsePausePeriodsNormalizesToUTC(t *testing.T) {
	periods, err := ParsePausePeriods([]byte(
		`[{"started_at":"2025-01-01T12:00:00+02:00","ended_at":"2025-01-01T14:00:00+02:00"}]`))
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), periods[0].StartedAt)
	assert.Equal(t, time.UTC, periods[0].StartedAt.Location())
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), *periods[0].EndedAt)
}

func TestParsePausePeriodsEmpty(t *testing.T) {
	periods, err := ParsePausePeriods(nil)
	require.NoError(t, err)
	assert.Nil(t, periods)

	periods, err = ParsePausePeriods([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestMarshalPausePeriodsCanonicalForm(t *testing.T) {
	ended := time.Date(2025, 1, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))
	raw, err := MarshalPausePeriods([]PausePeriod{
		{StartedAt: time.Date(2025, 1, 1, 11, 0, 0, 0, time.FixedZone("CET", 3600)), EndedAt: &ended},
		{StartedAt: time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"started_at":"2025-01-01T10:00:00Z","ended_at":"2025-01-01T12:00:00Z"},
		  {"started_at":"2025-01-01T15:00:00Z","ended_at":null}]`,
		string(raw))
}

func TestTrackerStateHelpers(t *testing.T) {
	tracker := &SLATracker{TicketID: "ticket-1"}
	assert.False(t, tracker.HasPolicy())
	assert.False(t, tracker.IsPaused())
	assert.False(t, tracker.Resolved())

	tracker.Policy = &PolicySnapshot{PolicyID: "policy-1"}
	tracker.PausePeriods = []PausePeriod{{StartedAt: time.Now().UTC()}}
	met := false
	tracker.ResolutionMet = &met

	assert.True(t, tracker.HasPolicy())
	assert.True(t, tracker.IsPaused())
	assert.True(t, tracker.Resolved())
}
