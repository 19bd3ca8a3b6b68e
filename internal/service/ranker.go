package service

import (
	"sort"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

// Rank builds the candidate pool for a ticket, scores every candidate under
// the first applicable rule, and returns the full ranked list. Technicians
// must already carry derived workload and status (see DeriveWorkload); an
// offline technician never enters the pool, primary or fallback.
// Callers that only display the top few truncate themselves.
func Rank(ticket models.Ticket, technicians []models.Technician, rules []models.AssignmentRule) ([]models.Recommendation, error) {
	rule, err := SelectRule(ticket, rules)
	if err != nil {
		return nil, err
	}

	pool := candidatePool(technicians)
	if len(pool) == 0 {
		return nil, ErrNoEligibleTechnician
	}

	recs := make([]models.Recommendation, 0, len(pool))
	for _, tech := range pool {
		recs = append(recs, models.Recommendation{
			Technician: tech,
			Breakdown:  Score(tech, ticket, rule),
			RuleID:     rule.ID,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Breakdown.Total != b.Breakdown.Total {
			return a.Breakdown.Total > b.Breakdown.Total
		}
		if a.Technician.Rating != b.Technician.Rating {
			return a.Technician.Rating > b.Technician.Rating
		}
		if a.Technician.ActiveTickets != b.Technician.ActiveTickets {
			return a.Technician.ActiveTickets < b.Technician.ActiveTickets
		}
		if a.Technician.CompletedTickets != b.Technician.CompletedTickets {
			return a.Technician.CompletedTickets > b.Technician.CompletedTickets
		}
		return false
	})
	return recs, nil
}

// candidatePool prefers available technicians. When none are available it
// falls back to anybody under the workload cap, least busy first. Offline
// technicians never qualify for the fallback.
func candidatePool(technicians []models.Technician) []models.Technician {
	var available []models.Technician
	for _, tech := range technicians {
		if tech.Status == models.TechnicianAvailable {
			available = append(available, tech)
		}
	}
	if len(available) > 0 {
		return available
	}

	var fallback []models.Technician
	for _, tech := range technicians {
		if tech.Status != models.TechnicianOffline && tech.ActiveTickets < WorkloadCap {
			fallback = append(fallback, tech)
		}
	}
	sort.SliceStable(fallback, func(i, j int) bool {
		return fallback[i].ActiveTickets < fallback[j].ActiveTickets
	})
	return fallback
}
