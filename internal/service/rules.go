package service

import (
	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

// SelectRule walks the rule set in order and returns the first enabled rule
// whose conditions admit the ticket. Later rules are never considered once an
// earlier one matches, even if they would score better.
func SelectRule(ticket models.Ticket, rules []models.AssignmentRule) (models.AssignmentRule, error) {
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.Conditions.MatchesPriority(ticket.Priority) && rule.Conditions.MatchesCategory(ticket.Category) {
			return rule, nil
		}
	}
	return models.AssignmentRule{}, ErrNoApplicableRule
}

// ValidateRule rejects criteria weights outside [0,100]. It runs before any
// rule-set mutation so a bad save never partially applies.
func ValidateRule(rule models.AssignmentRule) error {
	fields := []struct {
		name   string
		weight float64
	}{
		{"expertise", rule.Criteria.Expertise},
		{"availability", rule.Criteria.Availability},
		{"workload", rule.Criteria.Workload},
		{"performance", rule.Criteria.Performance},
		{"response_time", rule.Criteria.ResponseTime},
		{"priority_fit", rule.Criteria.PriorityFit},
		{"experience", rule.Criteria.Experience},
		{"customer_rating", rule.Criteria.CustomerRating},
	}

	var bad []string
	for _, f := range fields {
		if f.weight < 0 || f.weight > 100 {
			bad = append(bad, f.name)
		}
	}
	if len(bad) > 0 {
		return &InvalidRuleError{RuleID: rule.ID, Fields: bad}
	}
	return nil
}

// DefaultRules is the admin-owned rule set seeded on first start. Order is
// precedence.
func DefaultRules() []models.AssignmentRule {
	return []models.AssignmentRule{
		{
			ID:      "urgent-escalation",
			Name:    "Urgent escalation",
			Enabled: true,
			Criteria: models.AssignmentCriteria{
				Expertise:    35,
				Availability: 25,
				PriorityFit:  20,
				ResponseTime: 15,
				Performance:  5,
			},
			Conditions: models.RuleConditions{
				Priorities: []models.Priority{models.PriorityUrgent},
			},
			Description: "Urgent tickets go to proven fast responders regardless of load balance.",
		},
		{
			ID:      "security-specialist",
			Name:    "Security specialist",
			Enabled: true,
			Criteria: models.AssignmentCriteria{
				Expertise:    50,
				Availability: 20,
				Performance:  15,
				Experience:   15,
			},
			Conditions: models.RuleConditions{
				Categories: []models.Category{models.CategorySecurity, models.CategoryAccess},
			},
			Description: "Security and access tickets require domain expertise first.",
		},
		{
			ID:      "balanced-default",
			Name:    "Balanced default",
			Enabled: true,
			Criteria: models.AssignmentCriteria{
				Expertise:      25,
				Availability:   20,
				Workload:       20,
				Performance:    10,
				ResponseTime:   10,
				Experience:     10,
				CustomerRating: 5,
			},
			Description: "Catch-all rule balancing skill fit against current load.",
		},
	}
}
