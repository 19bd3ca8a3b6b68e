package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
	"github.com/alirazi1992/helpdesk-backend/internal/repo"
	"github.com/alirazi1992/helpdesk-backend/internal/service"
)

// Pinger reports backend liveness. The Postgres store implements it; the
// in-memory backend runs without one.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Engine      *service.Engine
	Tickets     repo.TicketRepository
	Technicians repo.TechnicianRepository
	Rules       repo.RuleRepository
	Runs        repo.RunRepository
	Pinger      Pinger
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.Pinger.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) TicketsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	filter := repo.TicketFilter{
		Status:   strings.TrimSpace(c.Query("status")),
		Category: strings.ToLower(strings.TrimSpace(c.Query("category"))),
		Priority: strings.ToLower(strings.TrimSpace(c.Query("priority"))),
		Query:    c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	}

	items, err := h.Tickets.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) TicketDetails(c *gin.Context) {
	ticket, err := h.Tickets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get ticket", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// TechniciansList returns the roster with workload and status freshly
// derived from the ticket set. Status filtering happens after derivation
// since status is never stored.
func (h *Handler) TechniciansList(c *gin.Context) {
	technicians, err := h.Technicians.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list technicians", err.Error())
		return
	}
	tickets, err := h.Tickets.All(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}
	derived := service.DeriveWorkload(technicians, tickets)

	specialty := strings.ToLower(strings.TrimSpace(c.Query("specialty")))
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	var items []models.Technician
	for _, tech := range derived {
		if specialty != "" && !tech.HasSpecialty(models.Category(specialty)) {
			continue
		}
		if status != "" && string(tech.Status) != status {
			continue
		}
		items = append(items, tech)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) RulesList(c *gin.Context) {
	rules, err := h.Rules.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list rules", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rules})
}

type RuleUpdateRequest struct {
	ID          string                    `json:"id" validate:"required"`
	Name        string                    `json:"name" validate:"required"`
	Enabled     bool                      `json:"enabled"`
	Criteria    models.AssignmentCriteria `json:"criteria"`
	Conditions  models.RuleConditions     `json:"conditions"`
	Description string                    `json:"description"`
}

// @Summary Update an assignment rule
// @Tags rules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/rules/{id} [put]
func (h *Handler) RuleUpdate(c *gin.Context) {
	id := c.Param("id")
	var req RuleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	for _, p := range req.Conditions.Priorities {
		if !p.Valid() {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown priority in conditions", string(p))
			return
		}
	}
	for _, cat := range req.Conditions.Categories {
		if !cat.Valid() {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown category in conditions", string(cat))
			return
		}
	}

	rule := models.AssignmentRule{
		ID:          req.ID,
		Name:        req.Name,
		Enabled:     req.Enabled,
		Criteria:    req.Criteria,
		Conditions:  req.Conditions,
		Description: req.Description,
	}
	// Weight validation runs before any mutation touches the rule set.
	if err := service.ValidateRule(rule); err != nil {
		writeError(c, http.StatusBadRequest, service.ReasonCode(err), "Rule rejected", err.Error())
		return
	}

	updated, err := h.Rules.Update(c.Request.Context(), id, rule)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Rule not found", nil)
		case errors.Is(err, repo.ErrDuplicateID):
			writeError(c, http.StatusConflict, "DUPLICATE_RULE_ID", "Rule id already exists", rule.ID)
		default:
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update rule", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": updated})
}

func (h *Handler) RuleToggle(c *gin.Context) {
	rule, err := h.Rules.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Rule not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to toggle rule", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// @Summary Ranked assignment candidates for a ticket
// @Tags recommendations
// @Produce json
// @Param id path string true "Ticket ID"
// @Param top query int false "Truncate to the best N candidates"
// @Success 200 {object} map[string]any
// @Router /api/tickets/{id}/recommendations [get]
func (h *Handler) Recommendations(c *gin.Context) {
	recs, err := h.Engine.Recommend(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	// Truncation is presentation, not an engine contract.
	if topStr := c.Query("top"); topStr != "" {
		if top, err := strconv.Atoi(topStr); err == nil && top > 0 && top < len(recs) {
			recs = recs[:top]
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": recs})
}

type AssignRequest struct {
	TechnicianID string `json:"technician_id" validate:"required"`
}

// @Summary Assign a technician to a ticket
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Router /api/tickets/{id}/assign [post]
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	ticket, err := h.Engine.Assign(c.Request.Context(), c.Param("id"), req.TechnicianID)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

type SimulateRequest struct {
	TicketIDs []string `json:"ticket_ids" validate:"required,min=1"`
}

// @Summary Preview assignments for a batch of tickets
// @Description Non-committing: runs the ranker per ticket, reports the top candidate and a confidence value.
// @Tags simulation
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/simulate [post]
func (h *Handler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	results, err := h.Engine.Simulate(c.Request.Context(), req.TicketIDs)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Simulation failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": results, "requested": len(req.TicketIDs), "processed": len(results)})
}

type ConfirmRequest struct {
	Assignments []service.AssignmentPick `json:"assignments" validate:"required,min=1"`
}

// @Summary Commit accepted simulation entries
// @Tags simulation
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/simulate/confirm [post]
func (h *Handler) SimulateConfirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	runID, err := h.Runs.Create(c.Request.Context(), "RUNNING")
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	summary := h.Engine.ConfirmSimulation(c.Request.Context(), req.Assignments)
	status := "SUCCESS"
	if summary.Failed > 0 {
		status = "PARTIAL"
	}
	b, _ := json.Marshal(summary)
	if finishErr := h.Runs.Finish(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	c.JSON(http.StatusOK, gin.H{"run_id": runID, "status": status, "summary": summary})
}

func (h *Handler) RunsLatest(c *gin.Context) {
	run, err := h.Runs.Latest(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	var summary any
	if len(run.Summary) > 0 {
		_ = json.Unmarshal(run.Summary, &summary)
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          run.ID,
		"started_at":  run.StartedAt,
		"finished_at": run.FinishedAt,
		"status":      run.Status,
		"summary":     summary,
	})
}

// @Summary Debug score breakdown
// @Description Scores every technician against one ticket under the selected rule, including those outside the candidate pool.
// @Tags debug
// @Produce json
// @Param ticket_id query string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Router /api/debug/score [get]
func (h *Handler) DebugScore(c *gin.Context) {
	ticketID := strings.TrimSpace(c.Query("ticket_id"))
	if ticketID == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "ticket_id is required", nil)
		return
	}

	ticket, err := h.Tickets.Get(c.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load ticket", err.Error())
		return
	}

	technicians, err := h.Technicians.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list technicians", err.Error())
		return
	}
	tickets, err := h.Tickets.All(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}
	rules, err := h.Rules.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list rules", err.Error())
		return
	}

	rule, err := service.SelectRule(ticket, rules)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	derived := service.DeriveWorkload(technicians, tickets)
	breakdowns := make([]gin.H, 0, len(derived))
	for _, tech := range derived {
		breakdowns = append(breakdowns, gin.H{
			"technician_id": tech.ID,
			"status":        tech.Status,
			"breakdown":     service.Score(tech, ticket, rule),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"ticket_id":  ticket.ID,
		"rule_id":    rule.ID,
		"breakdowns": breakdowns,
	})
}

func (h *Handler) writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, service.ErrNoApplicableRule):
		writeError(c, http.StatusUnprocessableEntity, "NO_APPLICABLE_RULE", "No enabled rule matches this ticket", nil)
	case errors.Is(err, service.ErrNoEligibleTechnician):
		writeError(c, http.StatusUnprocessableEntity, "NO_ELIGIBLE_TECHNICIAN", "No suitable technician for this ticket", nil)
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Operation failed", err.Error())
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
