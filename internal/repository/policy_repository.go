package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// PolicyRepository encapsulates SLA policy persistence. The create/update
// path enforces the one-policy-per-(organization, priority) invariant.
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.SLAPolicy) error
	Update(ctx context.Context, policy *domain.SLAPolicy) error
	GetByOrgAndPriority(ctx context.Context, orgID, priorityID string) (*domain.SLAPolicy, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.SLAPolicy, error)
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository instantiates repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

func (r *policyRepository) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	existing, err := r.GetByOrgAndPriority(ctx, policy.OrganizationID, policy.PriorityID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if existing != nil {
		return apperrors.NewConflict("policy already exists for priority", map[string]any{
			"organization_id": policy.OrganizationID,
			"priority_id":     policy.PriorityID,
		})
	}

	const query = `
        INSERT INTO sla_policies (organization_id, priority_id, name, description,
            first_response_hours, next_response_hours, resolution_hours, business_hours_only)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		policy.OrganizationID,
		policy.PriorityID,
		policy.Name,
		policy.Description,
		policy.FirstResponseHours,
		policy.NextResponseHours,
		policy.ResolutionHours,
		policy.BusinessHoursOnly,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
}

func (r *policyRepository) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        UPDATE sla_policies SET name=$1, description=$2, first_response_hours=$3,
            next_response_hours=$4, resolution_hours=$5, business_hours_only=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		policy.Name,
		policy.Description,
		policy.FirstResponseHours,
		policy.NextResponseHours,
		policy.ResolutionHours,
		policy.BusinessHoursOnly,
		policy.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *policyRepository) GetByOrgAndPriority(ctx context.Context, orgID, priorityID string) (*domain.SLAPolicy, error) {
	const query = policySelect + ` WHERE organization_id=$1 AND priority_id=$2`
	row := r.pool.QueryRow(ctx, query, orgID, priorityID)
	return scanPolicy(row)
}

func (r *policyRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.SLAPolicy, error) {
	const query = policySelect + ` WHERE organization_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []domain.SLAPolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *policy)
	}
	return policies, rows.Err()
}

const policySelect = `
        SELECT id, organization_id, priority_id, name, description,
               first_response_hours, next_response_hours, resolution_hours,
               business_hours_only, created_at, updated_at
        FROM sla_policies`

func scanPolicy(row pgx.Row) (*domain.SLAPolicy, error) {
	var policy domain.SLAPolicy
	if err := row.Scan(
		&policy.ID,
		&policy.OrganizationID,
		&policy.PriorityID,
		&policy.Name,
		&policy.Description,
		&policy.FirstResponseHours,
		&policy.NextResponseHours,
		&policy.ResolutionHours,
		&policy.BusinessHoursOnly,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &policy, nil
}
