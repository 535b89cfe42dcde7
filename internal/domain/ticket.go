package domain

import "time"

// Ticket is the slice of the ticket record the SLA engine consumes.
// The wider ticket aggregate (messages, assignments, attachments) lives
// with the surrounding application; only these fields drive SLA math.
type Ticket struct {
	ID             string
	OrganizationID string
	PriorityID     string
	StatusName     string
	Subject        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TicketPriority is an organization-scoped priority definition.
// Rank orders priorities from least (1) to most urgent.
type TicketPriority struct {
	ID             string
	OrganizationID string
	Name           string
	Rank           int
}
