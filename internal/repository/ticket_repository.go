package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TicketRepository encapsulates the ticket fields the SLA engine reads.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id, statusName string) error
	UpdatePriority(ctx context.Context, id, priorityID string) error
}

// PriorityRepository resolves priority records for policy matching.
type PriorityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TicketPriority, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, organization_id, priority_id, status_name, subject, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.OrganizationID,
		&ticket.PriorityID,
		&ticket.StatusName,
		&ticket.Subject,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id, statusName string) error {
	const query = `UPDATE tickets SET status_name=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, statusName, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) UpdatePriority(ctx context.Context, id, priorityID string) error {
	const query = `UPDATE tickets SET priority_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, priorityID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type priorityRepository struct {
	pool *pgxpool.Pool
}

// NewPriorityRepository instantiates repository.
func NewPriorityRepository(pool *pgxpool.Pool) PriorityRepository {
	return &priorityRepository{pool: pool}
}

func (r *priorityRepository) GetByID(ctx context.Context, id string) (*domain.TicketPriority, error) {
	const query = `SELECT id, organization_id, name, rank FROM ticket_priorities WHERE id=$1`
	var p domain.TicketPriority
	if err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Rank); err != nil {
		return nil, err
	}
	return &p, nil
}
