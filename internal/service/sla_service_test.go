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
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

var created = time.Date(2025, 1, 10, 16, 0, 0, 0, time.UTC) // Friday 16:00

type slaFixture struct {
	svc        *SLAService
	trackers   *fakeTrackerRepo
	policies   *fakePolicyRepo
	dispatcher *capturingDispatcher
}

func newSLAFixture(t *testing.T, policies []domain.SLAPolicy, cal *domain.BusinessCalendar) *slaFixture {
	t.Helper()
	trackers := newFakeTrackerRepo()
	policyRepo := &fakePolicyRepo{policies: policies}
	dispatcher := &capturingDispatcher{}

	calendars := &fakeCalendarRepo{calendars: map[string]*domain.BusinessCalendar{}}
	if cal != nil {
		calendars.calendars[cal.OrganizationID] = cal
	}

	svc := NewSLAService(SLADependencies{
		PolicyRepo:   policyRepo,
		TrackerRepo:  trackers,
		CalendarRepo: calendars,
		TicketRepo: &fakeTicketRepo{tickets: map[string]*domain.Ticket{
			"ticket-1": {
				ID:             "ticket-1",
				OrganizationID: "org-1",
				PriorityID:     "prio-high",
				StatusName:     "Open",
				CreatedAt:      created,
			},
		}},
		PriorityRepo: &fakePriorityRepo{priorities: map[string]*domain.TicketPriority{
			"prio-high": {ID: "prio-high", OrganizationID: "org-1", Name: "High", Rank: 3},
		}},
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return &slaFixture{svc: svc, trackers: trackers, policies: policyRepo, dispatcher: dispatcher}
}

func wallClockPolicy() domain.SLAPolicy {
	next := 8.0
	return domain.SLAPolicy{
		ID:                 "policy-1",
		OrganizationID:     "org-1",
		PriorityID:         "prio-high",
		Name:               "High priority SLA",
		FirstResponseHours: 4,
		NextResponseHours:  &next,
		ResolutionHours:    24,
	}
}

func TestResolveExactMatch(t *testing.T) {
	fix := newSLAFixture(t, []domain.SLAPolicy{wallClockPolicy()}, nil)

	policy, err := fix.svc.Resolve(context.Background(), "org-1", "prio-high")
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, "policy-1", policy.ID)
}

func TestResolveNameFallback(t *testing.T) {
	fallback := wallClockPolicy()
	fallback.ID = "policy-fallback"
	fallback.PriorityID = "prio-other"
	fallback.Name = "Escalated high severity"
	fix := newSLAFixture(t, []domain.SLAPolicy{fallback}, nil)

	policy, err := fix.svc.Resolve(context.Background(), "org-1", "prio-high")
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, "policy-fallback", policy.ID)
}

func TestResolveNoMatchIsNotAnError(t *testing.T) {
	other := wallClockPolicy()
	other.PriorityID = "prio-other"
	other.Name = "Default SLA"
	other.Description = "standard handling"
	fix := newSLAFixture(t, []domain.SLAPolicy{other}, nil)

	policy, err := fix.svc.Resolve(context.Background(), "org-1", "prio-high")
	require.NoError(t, err)
	assert.Nil(t, policy)
}

func TestAssignToTicketWallClock(t *testing.T) {
	fix := newSLAFixture(t, []domain.SLAPolicy{wallClockPolicy()}, nil)

	tracker, err := fix.svc.AssignToTicketID(context.Background(), "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracker)

	assert.Equal(t, created.Add(4*time.Hour), tracker.FirstResponseDueAt)
	assert.Equal(t, created.Add(24*time.Hour), tracker.ResolutionDueAt)
	require.NotNil(t, tracker.NextResponseDueAt)
	assert.Equal(t, created.Add(8*time.Hour), *tracker.NextResponseDueAt)
	assert.Nil(t, tracker.FirstResponseMet)
	assert.Nil(t, tracker.ResolutionMet)

	published := fix.dispatcher.byType(events.EventSLAAssigned)
	require.Len(t, published, 1)
	assert.Equal(t, "ticket-1", published[0].TicketID)
}

func TestAssignToTicketBusinessHours(t *testing.T) {
	cal := &domain.BusinessCalendar{ID: "cal-1", OrganizationID: "org-1", Name: "weekdays"}
	for day := time.Monday; day <= time.Friday; day++ {
		cal.Windows = append(cal.Windows, domain.WeeklyWindow{Weekday: day, StartMinute: 9 * 60, EndMinute: 17 * 60})
	}
	policy := wallClockPolicy()
	policy.BusinessHoursOnly = true
	fix := newSLAFixture(t, []domain.SLAPolicy{policy}, cal)

	tracker, err := fix.svc.AssignToTicketID(context.Background(), "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracker)

	// Friday 16:00 + 4 business hours: 1h Friday, weekend skipped, 3h Monday.
	assert.Equal(t, time.Date(2025, 1, 13, 12, 0, 0, 0, time.UTC), tracker.FirstResponseDueAt)
}

func TestAssignWithoutCalendarIsConfigurationError(t *testing.T) {
	policy := wallClockPolicy()
	policy.BusinessHoursOnly = true
	fix := newSLAFixture(t, []domain.SLAPolicy{policy}, nil)

	_, err := fix.svc.AssignToTicketID(context.Background(), "ticket-1")
	require.Error(t, err)
	assert.Equal(t, "CONFIGURATION_ERROR", apperrors.ToDomainError(err).Code)
}

func TestAssignNoPolicyIsNoOp(t *testing.T) {
	fix := newSLAFixture(t, nil, nil)

	tracker, err := fix.svc.AssignToTicketID(context.Background(), "ticket-1")
	require.NoError(t, err)
	assert.Nil(t, tracker)
	assert.Empty(t, fix.dispatcher.events)
}

func TestReassignmentAnchorsAtCreationAndKeepsLedger(t *testing.T) {
	fix := newSLAFixture(t, []domain.SLAPolicy{wallClockPolicy()}, nil)
	ctx := context.Background()

	_, err := fix.svc.AssignToTicketID(ctx, "ticket-1")
	require.NoError(t, err)

	// Two hours of closed pause on the persisted tracker.
	require.NoError(t, fix.svc.HandleStatusChange(ctx, "ticket-1", "Open", "Pending", created.Add(2*time.Hour)))
	require.NoError(t, fix.svc.HandleStatusChange(ctx, "ticket-1", "Pending", "In Progress", created.Add(4*time.Hour)))

	tracker, err := fix.svc.AssignToTicketID(ctx, "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracker)

	// Anchored at creation, then extended by the 2h already paused.
	assert.Equal(t, created.Add(26*time.Hour), tracker.ResolutionDueAt)
	assert.Len(t, tracker.PausePeriods, 1)
	assert.Nil(t, tracker.FirstResponseMet)
}

func TestHandleStatusChangePauseAndResume(t *testing.T) {
	fix := newSLAFixture(t, []domain.SLAPolicy{wallClockPolicy()}, nil)
	ctx := context.Background()

	_, err := fix.svc.AssignToTicketID(ctx, "ticket-1")
	require.NoError(t, err)

	require.NoError(t, fix.svc.HandleStatusChange(ctx, "ticket-1", "Open", "Awaiting Customer", created.Add(time.Hour)))
	tracker, err := fix.trackers.GetByTicketID(ctx, "ticket-1")
	require.NoError(t, err)
	assert.True(t, tracker.IsPaused())
	assert.Len(t, fix.dispatcher.byType(events.EventSLAPaused), 1)

	require.NoError(t, fix.svc.HandleStatusChange(ctx, "ticket-1", "Awaiting Customer", "In Progress", created.Add(3*time.Hour)))
	tracker, err = fix.trackers.GetByTicketID(ctx, "ticket-1")
	require.NoError(t, err)
	assert.False(t, tracker.IsPaused())
	assert.Equal(t, created.Add(26*time.Hour), tracker.ResolutionDueAt)

	resumed := fix.dispatcher.byType(events.EventSLAResumed)
	require.Len(t, resumed, 1)
	payload, ok := resumed[0].Payload.(events.SLAResumedPayload)
	require.True(t, ok)
	assert.InDelta(t, 120, payload.PausedMinutes, 1e-9)
}

func TestHandleStatusChangeComplete(t *testing.T) {
	fix := newSLAFixture(t, []domain.SLAPolicy{wallClockPolicy()}, nil)
	ctx := context.Background()

	_, err := fix.svc.AssignToTicketID(ctx, "ticket-1")
	require.NoError(t, err)

	require.NoError(t, fix.svc.HandleStatusChange(ctx, "ticket-1", "In Progress", "Resolved", created.Add(10*time.Hour)))
	tracker, err := fix.trackers.GetByTicketID(ctx, "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracker.ResolutionMet)
	assert.True(t, *tracker.ResolutionMet)
}

func TestHandleStatusChangeWithoutTrackerIsNoOp(t *testing.T) {
	fix := newSLAFixture(t, []domain.SLAPolicy{wallClockPolicy()}, nil)
	err := fix.svc.HandleStatusChange(context.Background(), "ticket-unknown", "Open", "Pending", created)
	require.NoError(t, err)
	assert.Empty(t, fix.dispatcher.events)
}

func TestRecordFirstResponseIdempotent(t *testing.T) {
	fix := newSLAFixture(t, []domain.SLAPolicy{wallClockPolicy()}, nil)
	ctx := context.Background()

	_, err := fix.svc.AssignToTicketID(ctx, "ticket-1")
	require.NoError(t, err)

	require.NoError(t, fix.svc.RecordFirstResponse(ctx, "ticket-1", created.Add(2*time.Hour)))
	require.NoError(t, fix.svc.RecordFirstResponse(ctx, "ticket-1", created.Add(20*time.Hour)))

	tracker, err := fix.trackers.GetByTicketID(ctx, "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracker.FirstResponseMet)
	assert.True(t, *tracker.FirstResponseMet)
	assert.Len(t, fix.dispatcher.byType(events.EventSLAFirstResponse), 1)
}

func TestHandleCustomerReplyResetsWindow(t *testing.T) {
	fix := newSLAFixture(t, []domain.SLAPolicy{wallClockPolicy()}, nil)
	ctx := context.Background()

	_, err := fix.svc.AssignToTicketID(ctx, "ticket-1")
	require.NoError(t, err)

	replyAt := created.Add(6 * time.Hour)
	require.NoError(t, fix.svc.HandleCustomerReply(ctx, "ticket-1", replyAt))

	tracker, err := fix.trackers.GetByTicketID(ctx, "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracker.NextResponseDueAt)
	assert.Equal(t, replyAt.Add(8*time.Hour), *tracker.NextResponseDueAt)
	assert.Nil(t, tracker.NextResponseMet)
}

func TestStatusUnknownTracker(t *testing.T) {
	fix := newSLAFixture(t, nil, nil)
	_, err := fix.svc.Status(context.Background(), "ticket-unknown", created)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
