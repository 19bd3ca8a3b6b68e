package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
	"github.com/alirazi1992/helpdesk-backend/internal/repo"
	"github.com/alirazi1992/helpdesk-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T) (*Handler, *repo.Memory) {
	t.Helper()
	ctx := context.Background()

	mem := repo.NewMemory()
	mem.SeedTickets([]models.Ticket{
		{ID: "TICK-1", Subject: "VPN drops every hour", Category: models.CategoryNetwork, Priority: models.PriorityHigh, Status: models.TicketOpen},
		{ID: "TICK-2", Subject: "Cannot install compiler", Category: models.CategorySoftware, Priority: models.PriorityLow, Status: models.TicketOpen},
	})
	if _, err := mem.ReplaceTechnicians(ctx, []models.Technician{
		{
			ID:               "tech-1",
			Name:             "Net Specialist",
			Specialties:      []models.Category{models.CategoryNetwork, models.CategoryHardware},
			PrimarySpecialty: models.CategoryNetwork,
			Rating:           4.8,
			CompletedTickets: 60,
			AvgResponseTime:  1.5,
			CustomerSat:      4.7,
			PerformanceScore: 90,
		},
		{
			ID:               "tech-2",
			Name:             "Soft Generalist",
			Specialties:      []models.Category{models.CategorySoftware},
			PrimarySpecialty: models.CategorySoftware,
			Rating:           4.0,
			CompletedTickets: 25,
			AvgResponseTime:  3,
			CustomerSat:      4.0,
			PerformanceScore: 70,
		},
	}); err != nil {
		t.Fatalf("seed technicians: %v", err)
	}
	if err := mem.SeedRules(ctx, service.DefaultRules()); err != nil {
		t.Fatalf("seed rules: %v", err)
	}

	eng := &service.Engine{
		Tickets:     mem,
		Technicians: mem.Technicians(),
		Rules:       mem.Rules(),
		Logger:      zerolog.Nop(),
	}
	h := &Handler{
		Engine:      eng,
		Tickets:     mem,
		Technicians: mem.Technicians(),
		Rules:       mem.Rules(),
		Runs:        mem.Runs(),
		Validator:   validator.New(),
		Logger:      zerolog.Nop(),
	}
	return h, mem
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, w.Body.String())
	}
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestHealthzWithoutPinger(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/healthz", h.Healthz)

	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestTicketsList(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/api/tickets", h.TicketsList)

	w := doJSON(t, r, http.MethodGet, "/api/tickets?category=network", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	items, _ := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 network ticket, got %d", len(items))
	}
}

func TestTicketDetailsNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/api/tickets/:id", h.TicketDetails)

	w := doJSON(t, r, http.MethodGet, "/api/tickets/TICK-404", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
}

func TestTechniciansListDerivesStatus(t *testing.T) {
	h, mem := newTestHandler(t)
	r := gin.New()
	r.GET("/api/technicians", h.TechniciansList)

	if _, err := mem.UpdateAssignment(context.Background(), "TICK-1", "tech-1", models.TicketInProgress); err != nil {
		t.Fatalf("assign: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/technicians", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Items []models.Technician `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 technicians, got %d", len(body.Items))
	}
	for _, tech := range body.Items {
		if tech.ID == "tech-1" && tech.ActiveTickets != 1 {
			t.Fatalf("expected tech-1 to carry 1 active ticket, got %d", tech.ActiveTickets)
		}
	}

	w = doJSON(t, r, http.MethodGet, "/api/technicians?specialty=software", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].ID != "tech-2" {
		t.Fatalf("expected tech-2 only, got %+v", body.Items)
	}
}

func TestRecommendations(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/api/tickets/:id/recommendations", h.Recommendations)

	w := doJSON(t, r, http.MethodGet, "/api/tickets/TICK-1/recommendations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Items []models.Recommendation `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(body.Items))
	}
	if body.Items[0].Technician.ID != "tech-1" {
		t.Fatalf("expected the network specialist first, got %s", body.Items[0].Technician.ID)
	}

	w = doJSON(t, r, http.MethodGet, "/api/tickets/TICK-1/recommendations?top=1", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 {
		t.Fatalf("expected truncation to 1, got %d", len(body.Items))
	}
}

func TestRecommendationsNoApplicableRule(t *testing.T) {
	h, mem := newTestHandler(t)
	r := gin.New()
	r.GET("/api/tickets/:id/recommendations", h.Recommendations)

	for _, id := range []string{"urgent-escalation", "security-specialist", "balanced-default"} {
		if _, err := mem.ToggleRule(context.Background(), id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/tickets/TICK-1/recommendations", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "NO_APPLICABLE_RULE" {
		t.Fatalf("expected NO_APPLICABLE_RULE, got %s", code)
	}
}

func TestAssign(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/api/tickets/:id/assign", h.Assign)

	w := doJSON(t, r, http.MethodPost, "/api/tickets/TICK-1/assign", AssignRequest{TechnicianID: "tech-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Ticket models.Ticket `json:"ticket"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Ticket.AssignedTo == nil || *body.Ticket.AssignedTo != "tech-1" {
		t.Fatalf("expected assignee tech-1, got %+v", body.Ticket.AssignedTo)
	}
	if body.Ticket.Status != models.TicketInProgress {
		t.Fatalf("expected in-progress, got %s", body.Ticket.Status)
	}

	w = doJSON(t, r, http.MethodPost, "/api/tickets/TICK-1/assign", AssignRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing technician_id, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/tickets/TICK-1/assign", AssignRequest{TechnicianID: "tech-404"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown technician, got %d", w.Code)
	}
}

func TestRuleUpdate(t *testing.T) {
	h, mem := newTestHandler(t)
	r := gin.New()
	r.PUT("/api/rules/:id", h.RuleUpdate)

	req := RuleUpdateRequest{
		ID:      "balanced-default",
		Name:    "Balanced default v2",
		Enabled: true,
		Criteria: models.AssignmentCriteria{
			Expertise:    40,
			Availability: 30,
			Workload:     30,
		},
	}
	w := doJSON(t, r, http.MethodPut, "/api/rules/balanced-default", req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	rules, _ := mem.ListRules(context.Background())
	if rules[2].Name != "Balanced default v2" {
		t.Fatalf("expected updated rule to keep last position, got %+v", rules[2])
	}

	t.Run("out of range weight rejected", func(t *testing.T) {
		bad := req
		bad.Criteria.Expertise = 150
		w := doJSON(t, r, http.MethodPut, "/api/rules/balanced-default", bad)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if code := errorCode(t, w); code != "INVALID_RULE" {
			t.Fatalf("expected INVALID_RULE, got %s", code)
		}
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		dup := req
		dup.ID = "urgent-escalation"
		w := doJSON(t, r, http.MethodPut, "/api/rules/balanced-default", dup)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		if code := errorCode(t, w); code != "DUPLICATE_RULE_ID" {
			t.Fatalf("expected DUPLICATE_RULE_ID, got %s", code)
		}
	})

	t.Run("unknown condition value rejected", func(t *testing.T) {
		bad := req
		bad.Conditions = models.RuleConditions{Priorities: []models.Priority{"critical"}}
		w := doJSON(t, r, http.MethodPut, "/api/rules/balanced-default", bad)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown rule", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/rules/no-such-rule", req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestRuleToggle(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/api/rules/:id/toggle", h.RuleToggle)

	w := doJSON(t, r, http.MethodPost, "/api/rules/urgent-escalation/toggle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Rule models.AssignmentRule `json:"rule"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Rule.Enabled {
		t.Fatalf("expected rule disabled after toggle")
	}

	w = doJSON(t, r, http.MethodPost, "/api/rules/no-such-rule/toggle", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSimulate(t *testing.T) {
	h, mem := newTestHandler(t)
	r := gin.New()
	r.POST("/api/simulate", h.Simulate)

	w := doJSON(t, r, http.MethodPost, "/api/simulate", SimulateRequest{TicketIDs: []string{"TICK-1", "TICK-2", "TICK-404"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Items     []models.SimulationResult `json:"items"`
		Requested int                       `json:"requested"`
		Processed int                       `json:"processed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Requested != 3 || body.Processed != 3 {
		t.Fatalf("unexpected counts: %+v", body)
	}
	if body.Items[2].ReasonCode != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for the unknown ticket, got %q", body.Items[2].ReasonCode)
	}

	// Simulation never commits.
	stored, _ := mem.Get(context.Background(), "TICK-1")
	if stored.AssignedTo != nil {
		t.Fatalf("simulation mutated the ticket set")
	}

	w = doJSON(t, r, http.MethodPost, "/api/simulate", SimulateRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", w.Code)
	}
}

func TestSimulateConfirmRecordsRun(t *testing.T) {
	h, mem := newTestHandler(t)
	r := gin.New()
	r.POST("/api/simulate/confirm", h.SimulateConfirm)
	r.GET("/api/runs/latest", h.RunsLatest)

	w := doJSON(t, r, http.MethodPost, "/api/simulate/confirm", ConfirmRequest{
		Assignments: []service.AssignmentPick{
			{TicketID: "TICK-1", TechnicianID: "tech-1"},
			{TicketID: "TICK-404", TechnicianID: "tech-1"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "PARTIAL" {
		t.Fatalf("expected PARTIAL status, got %v", body["status"])
	}

	stored, _ := mem.Get(context.Background(), "TICK-1")
	if stored.AssignedTo == nil || *stored.AssignedTo != "tech-1" {
		t.Fatalf("confirm did not commit the pick: %+v", stored)
	}

	w = doJSON(t, r, http.MethodGet, "/api/runs/latest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from runs/latest, got %d", w.Code)
	}
	run := decodeBody(t, w)
	if run["status"] != "PARTIAL" {
		t.Fatalf("expected recorded run status PARTIAL, got %v", run["status"])
	}
}

func TestDebugScoreIncludesOfflineTechnicians(t *testing.T) {
	h, mem := newTestHandler(t)
	r := gin.New()
	r.GET("/api/debug/score", h.DebugScore)

	technicians, _ := mem.ListTechnicians(context.Background())
	technicians[1].Offline = true
	if _, err := mem.ReplaceTechnicians(context.Background(), technicians); err != nil {
		t.Fatalf("replace technicians: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/debug/score?ticket_id=TICK-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	breakdowns, _ := body["breakdowns"].([]any)
	if len(breakdowns) != 2 {
		t.Fatalf("expected all technicians scored, got %d", len(breakdowns))
	}

	w = doJSON(t, r, http.MethodGet, "/api/debug/score", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without ticket_id, got %d", w.Code)
	}
}
