// Package repo defines the storage contracts the engine is wired against.
// The engine never touches a concrete backend: the in-memory roster and the
// Postgres store are interchangeable behind these interfaces.
package repo

import (
	"context"
	"errors"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID guards rule-id uniqueness on update.
	ErrDuplicateID = errors.New("duplicate id")
)

// TicketFilter narrows ticket listings. Zero values mean "no filter".
type TicketFilter struct {
	Status   string
	Category string
	Priority string
	Query    string
	Limit    int
	Offset   int
}

type TicketRepository interface {
	// All returns every ticket, for workload derivation.
	All(ctx context.Context) ([]models.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]models.Ticket, error)
	Get(ctx context.Context, id string) (models.Ticket, error)
	// UpdateAssignment commits a technician to a ticket and persists the
	// status transition decided by the caller.
	UpdateAssignment(ctx context.Context, ticketID, technicianID string, status models.TicketStatus) (models.Ticket, error)
	// Replace swaps the full ticket set, used by CSV import.
	Replace(ctx context.Context, tickets []models.Ticket) (int64, error)
}

type TechnicianRepository interface {
	List(ctx context.Context) ([]models.Technician, error)
	Get(ctx context.Context, id string) (models.Technician, error)
	Replace(ctx context.Context, technicians []models.Technician) (int64, error)
}

type RuleRepository interface {
	// List returns rules in precedence order. The order is caller-visible
	// and survives edits.
	List(ctx context.Context) ([]models.AssignmentRule, error)
	Get(ctx context.Context, id string) (models.AssignmentRule, error)
	// Update replaces the rule currently stored under id, keeping its
	// position. Renaming onto an existing id fails.
	Update(ctx context.Context, id string, rule models.AssignmentRule) (models.AssignmentRule, error)
	Toggle(ctx context.Context, id string) (models.AssignmentRule, error)
	// Seed installs the given rules only when the set is empty.
	Seed(ctx context.Context, rules []models.AssignmentRule) error
}

type RunRepository interface {
	Create(ctx context.Context, status string) (string, error)
	Finish(ctx context.Context, id, status string, summary []byte) error
	Latest(ctx context.Context) (models.Run, error)
}
