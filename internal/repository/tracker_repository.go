package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TrackerRepository persists per-ticket SLA trackers. The pause ledger is
// stored as a JSONB array in its canonical serialization and validated on
// every read.
type TrackerRepository interface {
	Upsert(ctx context.Context, tracker *domain.SLATracker) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.SLATracker, error)
	ListUnresolved(ctx context.Context, limit int) ([]domain.SLATracker, error)
}

type trackerRepository struct {
	pool *pgxpool.Pool
}

// NewTrackerRepository instantiates repository.
func NewTrackerRepository(pool *pgxpool.Pool) TrackerRepository {
	return &trackerRepository{pool: pool}
}

func (r *trackerRepository) Upsert(ctx context.Context, tracker *domain.SLATracker) error {
	ledger, err := domain.MarshalPausePeriods(tracker.PausePeriods)
	if err != nil {
		return err
	}
	snap := tracker.Policy
	if snap == nil {
		snap = &domain.PolicySnapshot{}
	}

	const query = `
        INSERT INTO sla_policy_tickets (ticket_id, organization_id, ticket_created_at, policy_id,
            first_response_hours, next_response_hours, resolution_hours, business_hours_only,
            first_response_due_at, next_response_due_at, resolution_due_at,
            first_response_met, next_response_met, resolution_met, pause_periods, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW())
        ON CONFLICT (ticket_id) DO UPDATE SET
            policy_id=EXCLUDED.policy_id,
            first_response_hours=EXCLUDED.first_response_hours,
            next_response_hours=EXCLUDED.next_response_hours,
            resolution_hours=EXCLUDED.resolution_hours,
            business_hours_only=EXCLUDED.business_hours_only,
            first_response_due_at=EXCLUDED.first_response_due_at,
            next_response_due_at=EXCLUDED.next_response_due_at,
            resolution_due_at=EXCLUDED.resolution_due_at,
            first_response_met=EXCLUDED.first_response_met,
            next_response_met=EXCLUDED.next_response_met,
            resolution_met=EXCLUDED.resolution_met,
            pause_periods=EXCLUDED.pause_periods,
            updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		tracker.TicketID,
		tracker.OrganizationID,
		tracker.CreatedAt,
		nullableID(snap.PolicyID),
		snap.FirstResponseHours,
		snap.NextResponseHours,
		snap.ResolutionHours,
		snap.BusinessHoursOnly,
		tracker.FirstResponseDueAt,
		tracker.NextResponseDueAt,
		tracker.ResolutionDueAt,
		tracker.FirstResponseMet,
		tracker.NextResponseMet,
		tracker.ResolutionMet,
		ledger,
	).Scan(&tracker.UpdatedAt)
}

func (r *trackerRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.SLATracker, error) {
	const query = trackerSelect + ` WHERE ticket_id=$1`
	return scanTracker(r.pool.QueryRow(ctx, query, ticketID))
}

func (r *trackerRepository) ListUnresolved(ctx context.Context, limit int) ([]domain.SLATracker, error) {
	const query = trackerSelect + ` WHERE resolution_met IS NULL ORDER BY updated_at LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trackers []domain.SLATracker
	for rows.Next() {
		tracker, err := scanTracker(rows)
		if err != nil {
			return nil, err
		}
		trackers = append(trackers, *tracker)
	}
	return trackers, rows.Err()
}

const trackerSelect = `
        SELECT ticket_id, organization_id, ticket_created_at, policy_id,
               first_response_hours, next_response_hours, resolution_hours, business_hours_only,
               first_response_due_at, next_response_due_at, resolution_due_at,
               first_response_met, next_response_met, resolution_met, pause_periods, updated_at
        FROM sla_policy_tickets`

func scanTracker(row pgx.Row) (*domain.SLATracker, error) {
	var (
		tracker  domain.SLATracker
		policyID *string
		snap     domain.PolicySnapshot
		ledger   []byte
	)
	if err := row.Scan(
		&tracker.TicketID,
		&tracker.OrganizationID,
		&tracker.CreatedAt,
		&policyID,
		&snap.FirstResponseHours,
		&snap.NextResponseHours,
		&snap.ResolutionHours,
		&snap.BusinessHoursOnly,
		&tracker.FirstResponseDueAt,
		&tracker.NextResponseDueAt,
		&tracker.ResolutionDueAt,
		&tracker.FirstResponseMet,
		&tracker.NextResponseMet,
		&tracker.ResolutionMet,
		&ledger,
		&tracker.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if policyID != nil {
		snap.PolicyID = *policyID
		tracker.Policy = &snap
	}
	periods, err := domain.ParsePausePeriods(ledger)
	if err != nil {
		return nil, err
	}
	tracker.PausePeriods = periods
	return &tracker, nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
