package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
	"github.com/alirazi1992/helpdesk-backend/internal/repo"
)

// DefaultBatchLimit bounds a simulation batch so the interactive path stays
// synchronous.
const DefaultBatchLimit = 10

// Engine is the assignment recommendation engine. It reads technicians,
// tickets and rules through injected repositories, derives workload on every
// call and never caches a recommendation.
type Engine struct {
	Tickets     repo.TicketRepository
	Technicians repo.TechnicianRepository
	Rules       repo.RuleRepository
	Logger      zerolog.Logger
	BatchLimit  int
}

func (e *Engine) batchLimit() int {
	if e.BatchLimit > 0 {
		return e.BatchLimit
	}
	return DefaultBatchLimit
}

// snapshot loads technicians with freshly derived workload plus the current
// rule set.
func (e *Engine) snapshot(ctx context.Context) ([]models.Technician, []models.AssignmentRule, error) {
	technicians, err := e.Technicians.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	tickets, err := e.Tickets.All(ctx)
	if err != nil {
		return nil, nil, err
	}
	rules, err := e.Rules.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return DeriveWorkload(technicians, tickets), rules, nil
}

// Recommend ranks every eligible technician for the ticket. The full list is
// returned; display truncation is the caller's concern.
func (e *Engine) Recommend(ctx context.Context, ticketID string) ([]models.Recommendation, error) {
	ticket, err := e.Tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	technicians, rules, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := Rank(ticket, technicians, rules)
	if err != nil {
		e.Logger.Debug().Str("ticket_id", ticketID).Str("reason", ReasonCode(err)).Msg("no recommendation")
		return nil, err
	}
	return recs, nil
}

// Assign commits a technician to a ticket. It is the terminal step: it does
// not consult the ranker, so a manual pick that scoring would reject still
// goes through. Re-assigning overwrites the previous technician.
func (e *Engine) Assign(ctx context.Context, ticketID, technicianID string) (models.Ticket, error) {
	if _, err := e.Technicians.Get(ctx, technicianID); err != nil {
		return models.Ticket{}, err
	}
	ticket, err := e.Tickets.Get(ctx, ticketID)
	if err != nil {
		return models.Ticket{}, err
	}

	status := ticket.Status
	if status == models.TicketOpen {
		status = models.TicketInProgress
	}

	updated, err := e.Tickets.UpdateAssignment(ctx, ticketID, technicianID, status)
	if err != nil {
		return models.Ticket{}, err
	}
	e.Logger.Info().Str("ticket_id", ticketID).Str("technician_id", technicianID).Msg("ticket assigned")
	return updated, nil
}

// Simulate previews assignments for a batch of tickets without committing
// anything. Input beyond the batch limit is ignored. Failures are reported
// per ticket so the batch never aborts part-way.
func (e *Engine) Simulate(ctx context.Context, ticketIDs []string) ([]models.SimulationResult, error) {
	if len(ticketIDs) > e.batchLimit() {
		ticketIDs = ticketIDs[:e.batchLimit()]
	}
	technicians, rules, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.SimulationResult, 0, len(ticketIDs))
	for _, id := range ticketIDs {
		ticket, err := e.Tickets.Get(ctx, id)
		if err != nil {
			out = append(out, models.SimulationResult{
				Ticket:     models.Ticket{ID: id},
				ReasonCode: "NOT_FOUND",
			})
			continue
		}

		recs, err := Rank(ticket, technicians, rules)
		if err != nil {
			out = append(out, models.SimulationResult{
				Ticket:     ticket,
				ReasonCode: ReasonCode(err),
			})
			continue
		}

		top := recs[0]
		out = append(out, models.SimulationResult{
			Ticket:         ticket,
			Recommendation: &top,
			Confidence:     min(100, top.Breakdown.Total),
		})
	}
	return out, nil
}

// AssignmentPick is one accepted simulation entry.
type AssignmentPick struct {
	TicketID     string `json:"ticket_id"`
	TechnicianID string `json:"technician_id"`
}

// ConfirmSummary aggregates a batch of committed picks.
type ConfirmSummary struct {
	Assigned int              `json:"assigned"`
	Failed   int              `json:"failed"`
	Failures []ConfirmFailure `json:"failures,omitempty"`
	Tickets  []models.Ticket  `json:"tickets"`
}

type ConfirmFailure struct {
	TicketID string `json:"ticket_id"`
	Reason   string `json:"reason"`
}

// ConfirmSimulation commits accepted picks one by one, reporting partial
// success instead of aborting on the first failure.
func (e *Engine) ConfirmSimulation(ctx context.Context, picks []AssignmentPick) ConfirmSummary {
	summary := ConfirmSummary{}
	for _, pick := range picks {
		ticket, err := e.Assign(ctx, pick.TicketID, pick.TechnicianID)
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, ConfirmFailure{
				TicketID: pick.TicketID,
				Reason:   err.Error(),
			})
			continue
		}
		summary.Assigned++
		summary.Tickets = append(summary.Tickets, ticket)
	}
	return summary
}
