package models

import "time"

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in-progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// Active reports whether the ticket counts toward a technician's workload.
func (s TicketStatus) Active() bool {
	return s == TicketOpen || s == TicketInProgress
}

type TechnicianStatus string

const (
	TechnicianAvailable TechnicianStatus = "available"
	TechnicianBusy      TechnicianStatus = "busy"
	TechnicianOffline   TechnicianStatus = "offline"
)

type Ticket struct {
	ID         string       `json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	Subject    string       `json:"subject"`
	Category   Category     `json:"category"`
	Priority   Priority     `json:"priority"`
	Status     TicketStatus `json:"status"`
	AssignedTo *string      `json:"assigned_to"`
}

type Technician struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Specialties      []Category `json:"specialties"`
	PrimarySpecialty Category   `json:"primary_specialty"`
	Rating           float64    `json:"rating"`
	CompletedTickets int        `json:"completed_tickets"`
	AvgResponseTime  float64    `json:"avg_response_time_hours"`
	CustomerSat      float64    `json:"customer_satisfaction"`
	PerformanceScore float64    `json:"performance_score"`
	Certifications   int        `json:"certifications"`
	Offline          bool       `json:"offline"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// ActiveTickets and Status are derived from the current ticket set,
	// never stored. Offline technicians stay offline regardless of load.
	ActiveTickets int              `json:"active_tickets"`
	Status        TechnicianStatus `json:"status"`
}

// HasSpecialty reports whether the technician lists the given category.
func (t Technician) HasSpecialty(c Category) bool {
	for _, s := range t.Specialties {
		if s == c {
			return true
		}
	}
	return false
}

// AssignmentCriteria holds independent importance weights in [0,100]. They
// are knobs, not a distribution: scoring normalizes by the sum of nonzero
// weights, so they need not add up to anything.
type AssignmentCriteria struct {
	Expertise      float64 `json:"expertise"`
	Availability   float64 `json:"availability"`
	Workload       float64 `json:"workload"`
	Performance    float64 `json:"performance"`
	ResponseTime   float64 `json:"response_time"`
	PriorityFit    float64 `json:"priority_fit"`
	Experience     float64 `json:"experience"`
	CustomerRating float64 `json:"customer_rating"`
}

// RuleConditions gate a rule's applicability. An empty slice means "all".
type RuleConditions struct {
	Priorities []Priority `json:"priorities"`
	Categories []Category `json:"categories"`
}

func (c RuleConditions) MatchesPriority(p Priority) bool {
	if len(c.Priorities) == 0 {
		return true
	}
	for _, cand := range c.Priorities {
		if cand == p {
			return true
		}
	}
	return false
}

func (c RuleConditions) MatchesCategory(cat Category) bool {
	if len(c.Categories) == 0 {
		return true
	}
	for _, cand := range c.Categories {
		if cand == cat {
			return true
		}
	}
	return false
}

// AssignmentRule is an admin-owned weighting profile. Position in the rule
// set is precedence: the first enabled rule whose conditions match a ticket
// wins, regardless of what later rules would score.
type AssignmentRule struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Enabled     bool               `json:"enabled"`
	Criteria    AssignmentCriteria `json:"criteria"`
	Conditions  RuleConditions     `json:"conditions"`
	Description string             `json:"description"`
}

// ScoreBreakdown is the per-criterion result of scoring one technician
// against one ticket under one rule. Sub-scores are pre-weighting, 0-100.
// Total is the weight-normalized base plus Bonus and is deliberately not
// clamped, so strong candidates can exceed 100.
type ScoreBreakdown struct {
	Expertise      float64  `json:"expertise"`
	Availability   float64  `json:"availability"`
	Workload       float64  `json:"workload"`
	Performance    float64  `json:"performance"`
	ResponseTime   float64  `json:"response_time"`
	PriorityFit    float64  `json:"priority_fit"`
	Experience     float64  `json:"experience"`
	CustomerRating float64  `json:"customer_rating"`
	Bonus          float64  `json:"bonus"`
	Total          float64  `json:"total"`
	Reasons        []string `json:"reasons"`
}

// Recommendation is a scored candidate for one ticket. Ephemeral: recomputed
// on every call, never persisted.
type Recommendation struct {
	Technician Technician     `json:"technician"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	RuleID     string         `json:"rule_id"`
}

// SimulationResult is one row of a non-committing batch preview. When no
// recommendation could be produced, Recommendation is nil, Confidence is 0
// and ReasonCode carries the failure.
type SimulationResult struct {
	Ticket         Ticket          `json:"ticket"`
	Recommendation *Recommendation `json:"recommendation"`
	Confidence     float64         `json:"confidence"`
	ReasonCode     string          `json:"reason_code,omitempty"`
}

type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"`
	Summary    []byte     `json:"summary"`
}
