package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
	"github.com/alirazi1992/helpdesk-backend/internal/repo"
)

// Store is the Postgres backend. It implements the repo interfaces through
// the Tickets/Technicians/Rules/Runs views.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Tickets() repo.TicketRepository         { return ticketStore{s} }
func (s *Store) Technicians() repo.TechnicianRepository { return technicianStore{s} }
func (s *Store) Rules() repo.RuleRepository             { return ruleStore{s} }
func (s *Store) Runs() repo.RunRepository               { return runStore{s} }

type ticketStore struct{ s *Store }

const ticketColumns = `id, created_at, subject, category, priority, status, assigned_to`

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(&t.ID, &t.CreatedAt, &t.Subject, &t.Category, &t.Priority, &t.Status, &t.AssignedTo)
	return t, err
}

func (ts ticketStore) All(ctx context.Context) ([]models.Ticket, error) {
	rows, err := ts.s.Pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (ts ticketStore) List(ctx context.Context, filter repo.TicketFilter) ([]models.Ticket, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var args []any
	var wheres []string
	if filter.Status != "" {
		args = append(args, filter.Status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		wheres = append(wheres, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		wheres = append(wheres, fmt.Sprintf("(subject ILIKE $%d OR id ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := ts.s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (ts ticketStore) Get(ctx context.Context, id string) (models.Ticket, error) {
	t, err := scanTicket(ts.s.Pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Ticket{}, repo.ErrNotFound
	}
	return t, err
}

func (ts ticketStore) UpdateAssignment(ctx context.Context, ticketID, technicianID string, status models.TicketStatus) (models.Ticket, error) {
	t, err := scanTicket(ts.s.Pool.QueryRow(ctx, `
		UPDATE tickets SET assigned_to = $1, status = $2
		WHERE id = $3
		RETURNING `+ticketColumns, technicianID, status, ticketID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Ticket{}, repo.ErrNotFound
	}
	return t, err
}

func (ts ticketStore) Replace(ctx context.Context, tickets []models.Ticket) (int64, error) {
	var count int64
	err := ts.s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE tickets`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(tickets))
		for _, t := range tickets {
			rows = append(rows, []any{t.ID, t.CreatedAt, t.Subject, t.Category, t.Priority, t.Status, t.AssignedTo})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"tickets"},
			[]string{"id", "created_at", "subject", "category", "priority", "status", "assigned_to"},
			pgx.CopyFromRows(rows))
		count = n
		return err
	})
	return count, err
}

func collectTickets(rows pgx.Rows) ([]models.Ticket, error) {
	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type technicianStore struct{ s *Store }

const technicianColumns = `id, name, specialties, primary_specialty, rating, completed_tickets,
	avg_response_time, customer_satisfaction, performance_score, certifications, offline, updated_at`

func scanTechnician(row pgx.Row) (models.Technician, error) {
	var t models.Technician
	var specialties []string
	err := row.Scan(&t.ID, &t.Name, &specialties, &t.PrimarySpecialty, &t.Rating, &t.CompletedTickets,
		&t.AvgResponseTime, &t.CustomerSat, &t.PerformanceScore, &t.Certifications, &t.Offline, &t.UpdatedAt)
	if err != nil {
		return models.Technician{}, err
	}
	for _, s := range specialties {
		t.Specialties = append(t.Specialties, models.Category(s))
	}
	return t, nil
}

func (ts technicianStore) List(ctx context.Context) ([]models.Technician, error) {
	rows, err := ts.s.Pool.Query(ctx, `SELECT `+technicianColumns+` FROM technicians ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (ts technicianStore) Get(ctx context.Context, id string) (models.Technician, error) {
	t, err := scanTechnician(ts.s.Pool.QueryRow(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Technician{}, repo.ErrNotFound
	}
	return t, err
}

func (ts technicianStore) Replace(ctx context.Context, technicians []models.Technician) (int64, error) {
	var count int64
	err := ts.s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE technicians`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(technicians))
		for _, t := range technicians {
			specialties := make([]string, 0, len(t.Specialties))
			for _, s := range t.Specialties {
				specialties = append(specialties, string(s))
			}
			rows = append(rows, []any{t.ID, t.Name, specialties, t.PrimarySpecialty, t.Rating, t.CompletedTickets,
				t.AvgResponseTime, t.CustomerSat, t.PerformanceScore, t.Certifications, t.Offline, t.UpdatedAt})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"technicians"},
			[]string{"id", "name", "specialties", "primary_specialty", "rating", "completed_tickets",
				"avg_response_time", "customer_satisfaction", "performance_score", "certifications", "offline", "updated_at"},
			pgx.CopyFromRows(rows))
		count = n
		return err
	})
	return count, err
}

type ruleStore struct{ s *Store }

func (rs ruleStore) List(ctx context.Context) ([]models.AssignmentRule, error) {
	rows, err := rs.s.Pool.Query(ctx, `
		SELECT id, name, enabled, description, criteria, priorities, categories
		FROM assignment_rules ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssignmentRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRule(row pgx.Row) (models.AssignmentRule, error) {
	var r models.AssignmentRule
	var criteria []byte
	var priorities, categories []string
	if err := row.Scan(&r.ID, &r.Name, &r.Enabled, &r.Description, &criteria, &priorities, &categories); err != nil {
		return models.AssignmentRule{}, err
	}
	if err := json.Unmarshal(criteria, &r.Criteria); err != nil {
		return models.AssignmentRule{}, err
	}
	for _, p := range priorities {
		r.Conditions.Priorities = append(r.Conditions.Priorities, models.Priority(p))
	}
	for _, c := range categories {
		r.Conditions.Categories = append(r.Conditions.Categories, models.Category(c))
	}
	return r, nil
}

func (rs ruleStore) Get(ctx context.Context, id string) (models.AssignmentRule, error) {
	r, err := scanRule(rs.s.Pool.QueryRow(ctx, `
		SELECT id, name, enabled, description, criteria, priorities, categories
		FROM assignment_rules WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AssignmentRule{}, repo.ErrNotFound
	}
	return r, err
}

func (rs ruleStore) Update(ctx context.Context, id string, rule models.AssignmentRule) (models.AssignmentRule, error) {
	criteria, err := json.Marshal(rule.Criteria)
	if err != nil {
		return models.AssignmentRule{}, err
	}
	priorities := make([]string, 0, len(rule.Conditions.Priorities))
	for _, p := range rule.Conditions.Priorities {
		priorities = append(priorities, string(p))
	}
	categories := make([]string, 0, len(rule.Conditions.Categories))
	for _, c := range rule.Conditions.Categories {
		categories = append(categories, string(c))
	}

	err = rs.s.WithTx(ctx, func(tx pgx.Tx) error {
		if rule.ID != id {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM assignment_rules WHERE id = $1)`, rule.ID).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return repo.ErrDuplicateID
			}
		}
		// Position stays: precedence survives edits.
		tag, err := tx.Exec(ctx, `
			UPDATE assignment_rules
			SET id = $1, name = $2, enabled = $3, description = $4, criteria = $5, priorities = $6, categories = $7
			WHERE id = $8
		`, rule.ID, rule.Name, rule.Enabled, rule.Description, criteria, priorities, categories, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return models.AssignmentRule{}, err
	}
	return rule, nil
}

func (rs ruleStore) Toggle(ctx context.Context, id string) (models.AssignmentRule, error) {
	r, err := scanRule(rs.s.Pool.QueryRow(ctx, `
		UPDATE assignment_rules SET enabled = NOT enabled
		WHERE id = $1
		RETURNING id, name, enabled, description, criteria, priorities, categories`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AssignmentRule{}, repo.ErrNotFound
	}
	return r, err
}

func (rs ruleStore) Seed(ctx context.Context, rules []models.AssignmentRule) error {
	return rs.s.WithTx(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM assignment_rules`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for i, rule := range rules {
			criteria, err := json.Marshal(rule.Criteria)
			if err != nil {
				return err
			}
			priorities := make([]string, 0, len(rule.Conditions.Priorities))
			for _, p := range rule.Conditions.Priorities {
				priorities = append(priorities, string(p))
			}
			categories := make([]string, 0, len(rule.Conditions.Categories))
			for _, c := range rule.Conditions.Categories {
				categories = append(categories, string(c))
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO assignment_rules (id, name, enabled, description, position, criteria, priorities, categories)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			`, rule.ID, rule.Name, rule.Enabled, rule.Description, i, criteria, priorities, categories); err != nil {
				return err
			}
		}
		return nil
	})
}

type runStore struct{ s *Store }

func (rs runStore) Create(ctx context.Context, status string) (string, error) {
	var id string
	err := rs.s.Pool.QueryRow(ctx, `INSERT INTO runs (status, started_at) VALUES ($1, NOW()) RETURNING id`, status).Scan(&id)
	return id, err
}

func (rs runStore) Finish(ctx context.Context, id, status string, summary []byte) error {
	_, err := rs.s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, id)
	return err
}

func (rs runStore) Latest(ctx context.Context) (models.Run, error) {
	var run models.Run
	var finished *time.Time
	err := rs.s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&run.ID, &run.StartedAt, &finished, &run.Status, &run.Summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Run{}, repo.ErrNotFound
	}
	run.FinishedAt = finished
	return run, err
}
