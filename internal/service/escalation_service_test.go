package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/sla"
)

func unresolvedTracker(ticketID string, budgetHours float64, age time.Duration) domain.SLATracker {
	created := time.Now().UTC().Add(-age)
	return domain.SLATracker{
		TicketID:           ticketID,
		OrganizationID:     "org-1",
		CreatedAt:          created,
		Policy:             &domain.PolicySnapshot{PolicyID: "policy-1", FirstResponseHours: 1, ResolutionHours: budgetHours},
		FirstResponseDueAt: created.Add(time.Hour),
		ResolutionDueAt:    created.Add(time.Duration(budgetHours * float64(time.Hour))),
	}
}

func newEscalationFixture(trackers ...domain.SLATracker) (*EscalationService, *fakeTrackerRepo, *capturingDispatcher, *observability.Metrics) {
	repo := newFakeTrackerRepo()
	for i := range trackers {
		_ = repo.Upsert(context.Background(), &trackers[i])
	}
	dispatcher := &capturingDispatcher{}
	metrics := observability.NewMetrics()
	svc := NewEscalationService(EscalationDependencies{
		TrackerRepo: repo,
		Cache:       (*persistence.Redis)(nil),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      zap.NewNop(),
		Thresholds:  sla.DefaultThresholds,
		CacheTTL:    time.Minute,
	})
	return svc, repo, dispatcher, metrics
}

func TestScanEscalatesByConsumedBudget(t *testing.T) {
	// 10h resolution budget, aged 6h / 9.5h / 13h: roughly 60%, 95%, 130%.
	svc, _, dispatcher, metrics := newEscalationFixture(
		unresolvedTracker("ticket-calm", 10, 6*time.Hour),
		unresolvedTracker("ticket-warm", 10, 9*time.Hour+30*time.Minute),
		unresolvedTracker("ticket-breached", 10, 13*time.Hour),
	)

	result, err := svc.Scan(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Processed: 3, Escalated: 2, Errors: 0}, result)

	escalated := dispatcher.byType(events.EventSLAEscalated)
	require.Len(t, escalated, 2)

	levels := map[string]sla.EscalationLevel{}
	actions := map[string][]sla.EscalationAction{}
	for _, e := range escalated {
		payload, ok := e.Payload.(events.SLAEscalatedPayload)
		require.True(t, ok)
		levels[e.TicketID] = payload.Level
		actions[e.TicketID] = payload.Actions
	}
	assert.NotContains(t, levels, "ticket-calm")
	assert.Equal(t, sla.Level2, levels["ticket-warm"])
	assert.Equal(t, sla.Level4, levels["ticket-breached"])

	// Only the highest matching level's action set fires.
	assert.Equal(t, []sla.EscalationAction{sla.ActionNotifyAgent, sla.ActionNotifyManager}, actions["ticket-warm"])
	assert.Equal(t, []sla.EscalationAction{
		sla.ActionNotifyAgent, sla.ActionNotifyManager, sla.ActionFlagReassignment, sla.ActionIncreasePriority,
	}, actions["ticket-breached"])

	totals := metrics.ScanTotals()
	assert.Equal(t, int64(3), totals.Processed)
	assert.Equal(t, int64(2), totals.Escalated)
}

func TestScanSkipsPausedTrackers(t *testing.T) {
	paused := unresolvedTracker("ticket-paused", 10, 13*time.Hour)
	paused.PausePeriods = sla.OpenPause(nil, time.Now().UTC().Add(-time.Hour))

	svc, _, dispatcher, _ := newEscalationFixture(paused)

	result, err := svc.Scan(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Processed: 1}, result)
	assert.Empty(t, dispatcher.events)
}

func TestScanSkipsResolvedTrackers(t *testing.T) {
	resolved := unresolvedTracker("ticket-done", 10, 13*time.Hour)
	met := true
	resolved.ResolutionMet = &met

	svc, _, dispatcher, _ := newEscalationFixture(resolved)

	result, err := svc.Scan(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{}, result)
	assert.Empty(t, dispatcher.events)
}

func TestScanStopsOnCancelledContext(t *testing.T) {
	svc, _, _, _ := newEscalationFixture(
		unresolvedTracker("ticket-a", 10, 13*time.Hour),
		unresolvedTracker("ticket-b", 10, 13*time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.Scan(ctx, 100)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Processed)
}

func TestScanHonorsBatchLimit(t *testing.T) {
	svc, _, _, _ := newEscalationFixture(
		unresolvedTracker("ticket-a", 10, time.Hour),
		unresolvedTracker("ticket-b", 10, time.Hour),
		unresolvedTracker("ticket-c", 10, time.Hour),
	)

	result, err := svc.Scan(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
}
