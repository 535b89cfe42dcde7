package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
)

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if t, ok := f.tickets[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) UpdateStatus(ctx context.Context, id, statusName string) error {
	if t, ok := f.tickets[id]; ok {
		t.StatusName = statusName
		return nil
	}
	return pgx.ErrNoRows
}

func (f *fakeTicketRepo) UpdatePriority(ctx context.Context, id, priorityID string) error {
	if t, ok := f.tickets[id]; ok {
		t.PriorityID = priorityID
		return nil
	}
	return pgx.ErrNoRows
}

type fakePriorityRepo struct {
	priorities map[string]*domain.TicketPriority
}

func (f *fakePriorityRepo) GetByID(ctx context.Context, id string) (*domain.TicketPriority, error) {
	if p, ok := f.priorities[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

type fakePolicyRepo struct {
	policies []domain.SLAPolicy
}

func (f *fakePolicyRepo) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	f.policies = append(f.policies, *policy)
	return nil
}

func (f *fakePolicyRepo) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	for i := range f.policies {
		if f.policies[i].ID == policy.ID {
			f.policies[i] = *policy
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakePolicyRepo) GetByOrgAndPriority(ctx context.Context, orgID, priorityID string) (*domain.SLAPolicy, error) {
	for i := range f.policies {
		if f.policies[i].OrganizationID == orgID && f.policies[i].PriorityID == priorityID {
			copied := f.policies[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePolicyRepo) ListByOrganization(ctx context.Context, orgID string) ([]domain.SLAPolicy, error) {
	var out []domain.SLAPolicy
	for _, p := range f.policies {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCalendarRepo struct {
	calendars map[string]*domain.BusinessCalendar
}

func (f *fakeCalendarRepo) GetByOrganization(ctx context.Context, orgID string) (*domain.BusinessCalendar, error) {
	if c, ok := f.calendars[orgID]; ok {
		return c, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeTrackerRepo struct {
	mu       sync.Mutex
	trackers map[string]*domain.SLATracker
}

func newFakeTrackerRepo() *fakeTrackerRepo {
	return &fakeTrackerRepo{trackers: make(map[string]*domain.SLATracker)}
}

func (f *fakeTrackerRepo) Upsert(ctx context.Context, tracker *domain.SLATracker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *tracker
	f.trackers[tracker.TicketID] = &copied
	return nil
}

func (f *fakeTrackerRepo) GetByTicketID(ctx context.Context, ticketID string) (*domain.SLATracker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.trackers[ticketID]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTrackerRepo) ListUnresolved(ctx context.Context, limit int) ([]domain.SLATracker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SLATracker
	for _, t := range f.trackers {
		if t.ResolutionMet == nil && len(out) < limit {
			out = append(out, *t)
		}
	}
	return out, nil
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *capturingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
