package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// SLAService resolves policies, assigns trackers, and applies ticket
// lifecycle events to the SLA clock. All time inputs are converted to UTC at
// this boundary; the pure engine below never sees anything else.
type SLAService struct {
	policies   repository.PolicyRepository
	trackers   repository.TrackerRepository
	calendars  repository.CalendarRepository
	tickets    repository.TicketRepository
	priorities repository.PriorityRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	PolicyRepo   repository.PolicyRepository
	TrackerRepo  repository.TrackerRepository
	CalendarRepo repository.CalendarRepository
	TicketRepo   repository.TicketRepository
	PriorityRepo repository.PriorityRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	return &SLAService{
		policies:   deps.PolicyRepo,
		trackers:   deps.TrackerRepo,
		calendars:  deps.CalendarRepo,
		tickets:    deps.TicketRepo,
		priorities: deps.PriorityRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Resolve selects the applicable policy for an (organization, priority) pair.
// Exact match first; otherwise any of the organization's policies whose name
// or description contains the priority's lowercase name. A nil result means
// no SLA applies and is not an error.
func (s *SLAService) Resolve(ctx context.Context, orgID, priorityID string) (*domain.SLAPolicy, error) {
	policy, err := s.policies.GetByOrgAndPriority(ctx, orgID, priorityID)
	if err == nil {
		return policy, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	priority, err := s.priorities.GetByID(ctx, priorityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	needle := strings.ToLower(priority.Name)

	candidates, err := s.policies.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if strings.Contains(strings.ToLower(candidates[i].Name), needle) ||
			strings.Contains(strings.ToLower(candidates[i].Description), needle) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// AssignToTicket resolves and assigns a policy, creating or overwriting the
// ticket's tracker. Due dates are computed from the ticket's creation
// instant, never from "now": on reassignment (e.g. a priority change) this
// keeps already-elapsed SLA time counted instead of granting a fresh budget.
// Closed pauses in an existing ledger are re-applied as due-date extensions.
// Returns nil when no policy applies.
func (s *SLAService) AssignToTicket(ctx context.Context, ticket *domain.Ticket) (*domain.SLATracker, error) {
	policy, err := s.Resolve(ctx, ticket.OrganizationID, ticket.PriorityID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, nil
	}

	cal, err := s.calendarFor(ctx, ticket.OrganizationID, policy.BusinessHoursOnly)
	if err != nil {
		return nil, err
	}

	snap := policy.Snapshot()
	created := ticket.CreatedAt.UTC()
	tracker := &domain.SLATracker{
		TicketID:       ticket.ID,
		OrganizationID: ticket.OrganizationID,
		CreatedAt:      created,
		Policy:         &snap,
	}

	if tracker.FirstResponseDueAt, err = s.addBudget(created, snap.FirstResponseHours, snap.BusinessHoursOnly, cal); err != nil {
		return nil, err
	}
	if tracker.ResolutionDueAt, err = s.addBudget(created, snap.ResolutionHours, snap.BusinessHoursOnly, cal); err != nil {
		return nil, err
	}
	if snap.NextResponseHours != nil {
		due, err := s.addBudget(created, *snap.NextResponseHours, snap.BusinessHoursOnly, cal)
		if err != nil {
			return nil, err
		}
		tracker.NextResponseDueAt = &due
	}

	reassigned := false
	if existing, err := s.trackers.GetByTicketID(ctx, ticket.ID); err == nil {
		// Keep the ledger across reassignment; extend the fresh due dates by
		// the already-paused time so it still does not count against the SLA.
		reassigned = true
		tracker.PausePeriods = existing.PausePeriods
		if err := s.reapplyPauses(tracker, cal); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err := s.trackers.Upsert(ctx, tracker); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventSLAAssigned,
		TicketID: ticket.ID,
		Payload: events.SLAAssignedPayload{
			PolicyID:           snap.PolicyID,
			FirstResponseDueAt: tracker.FirstResponseDueAt,
			NextResponseDueAt:  tracker.NextResponseDueAt,
			ResolutionDueAt:    tracker.ResolutionDueAt,
			Reassigned:         reassigned,
		},
	})
	return tracker, nil
}

// AssignToTicketID loads the ticket and assigns via AssignToTicket.
func (s *SLAService) AssignToTicketID(ctx context.Context, ticketID string) (*domain.SLATracker, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.AssignToTicket(ctx, ticket)
}

// HandleStatusChange classifies the transition and applies the resulting
// pause, resume, or completion to the ticket's tracker. Tickets without a
// tracker or policy are tolerated as no-ops.
func (s *SLAService) HandleStatusChange(ctx context.Context, ticketID, oldStatus, newStatus string, now time.Time) error {
	tracker, ok, err := s.loadTracker(ctx, ticketID)
	if err != nil || !ok {
		return err
	}
	now = now.UTC()

	switch sla.DecideTransition(oldStatus, newStatus) {
	case sla.TransitionPause:
		sla.Pause(tracker, now)
		s.publish(ctx, events.Event{
			Type:     events.EventSLAPaused,
			TicketID: ticketID,
			Payload:  events.SLAPausedPayload{StatusName: newStatus},
		})
	case sla.TransitionResume:
		cal, err := s.calendarFor(ctx, tracker.OrganizationID, tracker.Policy.BusinessHoursOnly)
		if err != nil {
			return err
		}
		if err := sla.Resume(tracker, now, cal); err != nil {
			return err
		}
		var pausedMinutes float64
		if last, ok := sla.LastClosedPause(tracker.PausePeriods); ok {
			pausedMinutes = last.EndedAt.Sub(last.StartedAt).Minutes()
		}
		s.publish(ctx, events.Event{
			Type:     events.EventSLAResumed,
			TicketID: ticketID,
			Payload:  events.SLAResumedPayload{PausedMinutes: pausedMinutes},
		})
	case sla.TransitionComplete:
		sla.ProcessResolution(tracker, now)
		s.publish(ctx, events.Event{
			Type:     events.EventSLAResolution,
			TicketID: ticketID,
			Payload:  events.SLAResponsePayload{Met: *tracker.ResolutionMet, DueAt: tracker.ResolutionDueAt},
		})
	default:
		return nil
	}

	return s.trackers.Upsert(ctx, tracker)
}

// HandlePriorityChange recomputes the tracker against the new priority's
// policy, still anchored at the original creation instant.
func (s *SLAService) HandlePriorityChange(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	_, err = s.AssignToTicket(ctx, ticket)
	return err
}

// RecordFirstResponse marks the first-response outcome, once.
func (s *SLAService) RecordFirstResponse(ctx context.Context, ticketID string, now time.Time) error {
	tracker, ok, err := s.loadTracker(ctx, ticketID)
	if err != nil || !ok {
		return err
	}
	if tracker.FirstResponseMet != nil {
		return nil
	}
	sla.ProcessFirstResponse(tracker, now.UTC())
	sla.ProcessNextResponse(tracker, now.UTC())
	s.publish(ctx, events.Event{
		Type:     events.EventSLAFirstResponse,
		TicketID: ticketID,
		Payload:  events.SLAResponsePayload{Met: *tracker.FirstResponseMet, DueAt: tracker.FirstResponseDueAt},
	})
	return s.trackers.Upsert(ctx, tracker)
}

// RecordResolution marks the resolution outcome, once.
func (s *SLAService) RecordResolution(ctx context.Context, ticketID string, now time.Time) error {
	tracker, ok, err := s.loadTracker(ctx, ticketID)
	if err != nil || !ok {
		return err
	}
	if tracker.ResolutionMet != nil {
		return nil
	}
	sla.ProcessResolution(tracker, now.UTC())
	s.publish(ctx, events.Event{
		Type:     events.EventSLAResolution,
		TicketID: ticketID,
		Payload:  events.SLAResponsePayload{Met: *tracker.ResolutionMet, DueAt: tracker.ResolutionDueAt},
	})
	return s.trackers.Upsert(ctx, tracker)
}

// HandleCustomerReply restarts the next-response window from now.
func (s *SLAService) HandleCustomerReply(ctx context.Context, ticketID string, now time.Time) error {
	tracker, ok, err := s.loadTracker(ctx, ticketID)
	if err != nil || !ok {
		return err
	}
	if tracker.Policy.NextResponseHours == nil {
		return nil
	}
	cal, err := s.calendarFor(ctx, tracker.OrganizationID, tracker.Policy.BusinessHoursOnly)
	if err != nil {
		return err
	}
	if err := sla.ResetNextResponseWindow(tracker, now.UTC(), cal); err != nil {
		return err
	}
	if tracker.NextResponseDueAt != nil {
		s.publish(ctx, events.Event{
			Type:     events.EventSLANextResponseReset,
			TicketID: ticketID,
			Payload:  events.SLANextResponseResetPayload{NextResponseDueAt: *tracker.NextResponseDueAt},
		})
	}
	return s.trackers.Upsert(ctx, tracker)
}

// Status reports a ticket's SLA state as of now.
func (s *SLAService) Status(ctx context.Context, ticketID string, now time.Time) (sla.StatusReport, error) {
	tracker, err := s.trackers.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sla.StatusReport{}, apperrors.NewNotFound("sla tracker", map[string]any{"ticket_id": ticketID})
		}
		return sla.StatusReport{}, err
	}
	return sla.CheckStatus(tracker, now.UTC()), nil
}

func (s *SLAService) loadTracker(ctx context.Context, ticketID string) (*domain.SLATracker, bool, error) {
	tracker, err := s.trackers.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !tracker.HasPolicy() {
		return nil, false, nil
	}
	return tracker, true, nil
}

func (s *SLAService) calendarFor(ctx context.Context, orgID string, businessOnly bool) (domain.BusinessCalendar, error) {
	if !businessOnly {
		return domain.BusinessCalendar{}, nil
	}
	cal, err := s.calendars.GetByOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BusinessCalendar{}, apperrors.NewConfigurationError("no business calendar configured", sla.ErrNoBusinessHours)
		}
		return domain.BusinessCalendar{}, err
	}
	if !cal.HasWindows() {
		return domain.BusinessCalendar{}, apperrors.NewConfigurationError("business calendar has no windows", sla.ErrNoBusinessHours)
	}
	return *cal, nil
}

func (s *SLAService) addBudget(start time.Time, hours float64, businessOnly bool, cal domain.BusinessCalendar) (time.Time, error) {
	if businessOnly {
		due, err := sla.AddBusinessDuration(start, hours, cal)
		if err != nil {
			return time.Time{}, apperrors.NewConfigurationError("cannot compute business-hours deadline", err)
		}
		return due, nil
	}
	return sla.AddWallClockDuration(start, hours), nil
}

func (s *SLAService) reapplyPauses(tracker *domain.SLATracker, cal domain.BusinessCalendar) error {
	for _, p := range tracker.PausePeriods {
		if p.Open() {
			continue
		}
		hours := p.EndedAt.Sub(p.StartedAt).Minutes() / 60
		if tracker.Policy.BusinessHoursOnly {
			hours = sla.BusinessMinutesBetween(p.StartedAt, *p.EndedAt, cal) / 60
		}
		if hours <= 0 {
			continue
		}
		var err error
		if tracker.FirstResponseDueAt, err = s.addBudget(tracker.FirstResponseDueAt, hours, tracker.Policy.BusinessHoursOnly, cal); err != nil {
			return err
		}
		if tracker.NextResponseDueAt != nil {
			due, err := s.addBudget(*tracker.NextResponseDueAt, hours, tracker.Policy.BusinessHoursOnly, cal)
			if err != nil {
				return err
			}
			tracker.NextResponseDueAt = &due
		}
		if tracker.ResolutionDueAt, err = s.addBudget(tracker.ResolutionDueAt, hours, tracker.Policy.BusinessHoursOnly, cal); err != nil {
			return err
		}
	}
	return nil
}

func (s *SLAService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
