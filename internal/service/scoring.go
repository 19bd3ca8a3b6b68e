package service

import (
	"fmt"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

const (
	// MaxResponseTimeHours is the response time at which the responseTime
	// sub-score reaches zero.
	MaxResponseTimeHours = 4.0

	// ExperienceCap is the completed-ticket count that maxes out the
	// experience sub-score.
	ExperienceCap = 150
)

// priorityRequirement is the minimum rating and completed-ticket count a
// priority level expects from a technician.
type priorityRequirement struct {
	MinRating float64
	MinExp    int
}

var priorityRequirements = map[models.Priority]priorityRequirement{
	models.PriorityUrgent: {MinRating: 4.5, MinExp: 50},
	models.PriorityHigh:   {MinRating: 4.0, MinExp: 30},
	models.PriorityMedium: {MinRating: 3.5, MinExp: 20},
	models.PriorityLow:    {MinRating: 3.0, MinExp: 10},
}

// Score computes the per-criterion breakdown and weighted total for one
// (technician, ticket, rule) triple. Deterministic: identical inputs always
// produce an identical breakdown.
func Score(tech models.Technician, ticket models.Ticket, rule models.AssignmentRule) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		Expertise:      expertiseScore(tech, ticket.Category),
		Availability:   availabilityScore(tech.Status),
		Workload:       workloadScore(tech.ActiveTickets),
		Performance:    tech.PerformanceScore,
		ResponseTime:   responseTimeScore(tech.AvgResponseTime),
		PriorityFit:    priorityFitScore(tech, ticket.Priority),
		Experience:     experienceScore(tech.CompletedTickets),
		CustomerRating: tech.CustomerSat / 5 * 100,
	}
	b.Bonus = bonus(tech, ticket.Category)

	weighted := []struct {
		score  float64
		weight float64
	}{
		{b.Expertise, rule.Criteria.Expertise},
		{b.Availability, rule.Criteria.Availability},
		{b.Workload, rule.Criteria.Workload},
		{b.Performance, rule.Criteria.Performance},
		{b.ResponseTime, rule.Criteria.ResponseTime},
		{b.PriorityFit, rule.Criteria.PriorityFit},
		{b.Experience, rule.Criteria.Experience},
		{b.CustomerRating, rule.Criteria.CustomerRating},
	}

	var sum, mass float64
	for _, w := range weighted {
		if w.weight <= 0 {
			continue
		}
		sum += w.score * w.weight
		mass += w.weight
	}
	// Normalizing by active weight mass keeps partial weight vectors on a
	// 0-100 base. The bonus is added after and the total is not clamped.
	if mass > 0 {
		b.Total = sum / mass
	}
	b.Total += b.Bonus

	b.Reasons = reasons(b, ticket.Category)
	return b
}

func expertiseScore(tech models.Technician, category models.Category) float64 {
	score := 0.0
	if tech.PrimarySpecialty == category {
		score += 50
	}
	if tech.HasSpecialty(category) {
		score += 30
	}
	for _, s := range tech.Specialties {
		if category.IsRelated(s) {
			score += 5
		}
	}
	score += 2 * float64(tech.Certifications)
	return min(score, 100)
}

func availabilityScore(status models.TechnicianStatus) float64 {
	switch status {
	case models.TechnicianAvailable:
		return 100
	case models.TechnicianBusy:
		return 30
	default:
		return 0
	}
}

func workloadScore(activeTickets int) float64 {
	return max(0, (1-float64(activeTickets)/WorkloadCap)*100)
}

func responseTimeScore(avgResponseTime float64) float64 {
	score := (MaxResponseTimeHours - avgResponseTime) / MaxResponseTimeHours * 100
	return min(max(score, 0), 100)
}

func priorityFitScore(tech models.Technician, priority models.Priority) float64 {
	req, ok := priorityRequirements[priority]
	if !ok {
		req = priorityRequirements[models.PriorityLow]
	}
	score := 60*min(1, tech.Rating/req.MinRating) +
		40*min(1, float64(tech.CompletedTickets)/float64(req.MinExp))
	return min(score, 100)
}

func experienceScore(completedTickets int) float64 {
	return min(100, float64(completedTickets)/ExperienceCap*100)
}

func bonus(tech models.Technician, category models.Category) float64 {
	b := 0.0
	if tech.AvgResponseTime < 2 {
		b += 5
	}
	if tech.Rating >= 4.8 && tech.CompletedTickets >= 50 {
		b += 8
	}
	relatedOverlap := 0
	for _, s := range tech.Specialties {
		if category.IsRelated(s) {
			relatedOverlap++
		}
	}
	if relatedOverlap > 1 {
		b += 3
	}
	if tech.ActiveTickets <= 1 {
		b += 5
	}
	return b
}

func reasons(b models.ScoreBreakdown, category models.Category) []string {
	var out []string
	if b.Expertise > 80 {
		out = append(out, fmt.Sprintf("specialist in %s", category.Label()))
	}
	if b.Availability == 100 {
		out = append(out, "available now")
	}
	if b.Workload > 70 {
		out = append(out, "workload headroom")
	}
	if b.Performance > 85 {
		out = append(out, "excellent performance")
	}
	if b.ResponseTime > 80 {
		out = append(out, "fast responder")
	}
	if b.CustomerRating > 90 {
		out = append(out, "high customer satisfaction")
	}
	return out
}
