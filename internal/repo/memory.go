package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

// Memory is the in-process backend used when no database is configured and
// in tests. The engine itself is single-writer by assumption; the mutex only
// protects against concurrent HTTP readers.
type Memory struct {
	mu          sync.RWMutex
	tickets     []models.Ticket
	technicians []models.Technician
	rules       []models.AssignmentRule
	runs        []models.Run
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) All(ctx context.Context) ([]models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneTickets(m.tickets), nil
}

func (m *Memory) List(ctx context.Context, filter TicketFilter) ([]models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Ticket
	for _, t := range m.tickets {
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.Category != "" && string(t.Category) != filter.Category {
			continue
		}
		if filter.Priority != "" && string(t.Priority) != filter.Priority {
			continue
		}
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			if !strings.Contains(strings.ToLower(t.Subject), q) && !strings.Contains(strings.ToLower(t.ID), q) {
				continue
			}
		}
		out = append(out, t)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return cloneTickets(out[offset:end]), nil
}

func (m *Memory) Get(ctx context.Context, id string) (models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Ticket{}, ErrNotFound
}

func (m *Memory) UpdateAssignment(ctx context.Context, ticketID, technicianID string, status models.TicketStatus) (models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tickets {
		if m.tickets[i].ID != ticketID {
			continue
		}
		assignee := technicianID
		m.tickets[i].AssignedTo = &assignee
		m.tickets[i].Status = status
		return m.tickets[i], nil
	}
	return models.Ticket{}, ErrNotFound
}

func (m *Memory) Replace(ctx context.Context, tickets []models.Ticket) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets = cloneTickets(tickets)
	return int64(len(tickets)), nil
}

// SeedTickets installs tickets without going through the import path.
func (m *Memory) SeedTickets(tickets []models.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets = cloneTickets(tickets)
}

func (m *Memory) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Technician, len(m.technicians))
	copy(out, m.technicians)
	return out, nil
}

func (m *Memory) GetTechnician(ctx context.Context, id string) (models.Technician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tech := range m.technicians {
		if tech.ID == id {
			return tech, nil
		}
	}
	return models.Technician{}, ErrNotFound
}

func (m *Memory) ReplaceTechnicians(ctx context.Context, technicians []models.Technician) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.technicians = make([]models.Technician, len(technicians))
	copy(m.technicians, technicians)
	return int64(len(technicians)), nil
}

func (m *Memory) ListRules(ctx context.Context) ([]models.AssignmentRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.AssignmentRule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

func (m *Memory) GetRule(ctx context.Context, id string) (models.AssignmentRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return models.AssignmentRule{}, ErrNotFound
}

func (m *Memory) UpdateRule(ctx context.Context, id string, rule models.AssignmentRule) (models.AssignmentRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, r := range m.rules {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.AssignmentRule{}, ErrNotFound
	}
	if rule.ID != id {
		for _, r := range m.rules {
			if r.ID == rule.ID {
				return models.AssignmentRule{}, ErrDuplicateID
			}
		}
	}
	// Position is precedence and must survive the edit.
	m.rules[idx] = rule
	return rule, nil
}

func (m *Memory) ToggleRule(ctx context.Context, id string) (models.AssignmentRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules[i].Enabled = !m.rules[i].Enabled
			return m.rules[i], nil
		}
	}
	return models.AssignmentRule{}, ErrNotFound
}

func (m *Memory) SeedRules(ctx context.Context, rules []models.AssignmentRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rules) > 0 {
		return nil
	}
	m.rules = make([]models.AssignmentRule, len(rules))
	copy(m.rules, rules)
	return nil
}

func (m *Memory) CreateRun(ctx context.Context, status string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := models.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    status,
	}
	m.runs = append(m.runs, run)
	return run.ID, nil
}

func (m *Memory) FinishRun(ctx context.Context, id, status string, summary []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			now := time.Now().UTC()
			m.runs[i].FinishedAt = &now
			m.runs[i].Status = status
			m.runs[i].Summary = summary
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) LatestRun(ctx context.Context) (models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return models.Run{}, ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

// Technicians, Rules and Runs expose the interface views of the shared
// in-memory state. Memory itself is the TicketRepository.
func (m *Memory) Technicians() TechnicianRepository { return memoryTechnicians{m} }
func (m *Memory) Rules() RuleRepository             { return memoryRules{m} }
func (m *Memory) Runs() RunRepository               { return memoryRuns{m} }

type memoryTechnicians struct{ m *Memory }

func (v memoryTechnicians) List(ctx context.Context) ([]models.Technician, error) {
	return v.m.ListTechnicians(ctx)
}

func (v memoryTechnicians) Get(ctx context.Context, id string) (models.Technician, error) {
	return v.m.GetTechnician(ctx, id)
}

func (v memoryTechnicians) Replace(ctx context.Context, technicians []models.Technician) (int64, error) {
	return v.m.ReplaceTechnicians(ctx, technicians)
}

type memoryRules struct{ m *Memory }

func (v memoryRules) List(ctx context.Context) ([]models.AssignmentRule, error) {
	return v.m.ListRules(ctx)
}

func (v memoryRules) Get(ctx context.Context, id string) (models.AssignmentRule, error) {
	return v.m.GetRule(ctx, id)
}

func (v memoryRules) Update(ctx context.Context, id string, rule models.AssignmentRule) (models.AssignmentRule, error) {
	return v.m.UpdateRule(ctx, id, rule)
}

func (v memoryRules) Toggle(ctx context.Context, id string) (models.AssignmentRule, error) {
	return v.m.ToggleRule(ctx, id)
}

func (v memoryRules) Seed(ctx context.Context, rules []models.AssignmentRule) error {
	return v.m.SeedRules(ctx, rules)
}

type memoryRuns struct{ m *Memory }

func (v memoryRuns) Create(ctx context.Context, status string) (string, error) {
	return v.m.CreateRun(ctx, status)
}

func (v memoryRuns) Finish(ctx context.Context, id, status string, summary []byte) error {
	return v.m.FinishRun(ctx, id, status, summary)
}

func (v memoryRuns) Latest(ctx context.Context) (models.Run, error) {
	return v.m.LatestRun(ctx)
}

func cloneTickets(tickets []models.Ticket) []models.Ticket {
	out := make([]models.Ticket, len(tickets))
	for i, t := range tickets {
		if t.AssignedTo != nil {
			assignee := *t.AssignedTo
			t.AssignedTo = &assignee
		}
		out[i] = t
	}
	return out
}
