package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

type ImportSummary struct {
	Technicians struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"technicians"`
	Tickets struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"tickets"`
	Errors []string `json:"errors"`
}

// @Summary Import CSV data
// @Description Upload technicians and tickets CSV files, replacing the current data set
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param technicians formData file true "technicians.csv"
// @Param tickets formData file true "tickets.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	techniciansFile, err := c.FormFile("technicians")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "technicians file required", nil)
		return
	}
	ticketsFile, err := c.FormFile("tickets")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "tickets file required", nil)
		return
	}
	if !validateExt(techniciansFile.Filename) || !validateExt(ticketsFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}

	technicians, errs := parseTechniciansCSV(techniciansFile)
	summary.Technicians.Parsed = len(technicians)
	summary.Technicians.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	tickets, errs := parseTicketsCSV(ticketsFile)
	summary.Tickets.Parsed = len(tickets)
	summary.Tickets.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	ctx := c.Request.Context()
	inserted, err := h.Technicians.Replace(ctx, technicians)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert technicians", err.Error())
		return
	}
	summary.Technicians.Inserted = int(inserted)

	inserted, err = h.Tickets.Replace(ctx, tickets)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert tickets", err.Error())
		return
	}
	summary.Tickets.Inserted = int(inserted)

	c.JSON(http.StatusOK, summary)
}

func parseTechniciansCSV(file *multipart.FileHeader) ([]models.Technician, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Technician

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := getFieldAny(rec, index, "id", "technician_id", "tech_id")
		name := getFieldAny(rec, index, "name", "full_name")
		specialtiesRaw := getFieldAny(rec, index, "specialties", "skills")
		primaryRaw := getFieldAny(rec, index, "primary_specialty", "primary")
		rating, _ := strconv.ParseFloat(getFieldAny(rec, index, "rating"), 64)
		completed, _ := strconv.Atoi(getFieldAny(rec, index, "completed_tickets", "completed"))
		avgRT, _ := strconv.ParseFloat(getFieldAny(rec, index, "avg_response_time", "avg_response_time_hours"), 64)
		satisfaction, _ := strconv.ParseFloat(getFieldAny(rec, index, "customer_satisfaction", "csat"), 64)
		performance, _ := strconv.ParseFloat(getFieldAny(rec, index, "performance_score", "performance"), 64)
		certifications, _ := strconv.Atoi(getFieldAny(rec, index, "certifications", "certs"))
		offline := strings.EqualFold(getFieldAny(rec, index, "offline"), "true")

		if id == "" {
			id = fmt.Sprintf("tech-%03d", len(out)+1)
		}
		if name == "" {
			errs = append(errs, fmt.Sprintf("technician %s: name required", id))
			continue
		}

		specialties, specErrs := parseSpecialties(id, specialtiesRaw)
		errs = append(errs, specErrs...)
		primary, err := models.ParseCategory(primaryRaw)
		if err != nil {
			if len(specialties) == 0 {
				errs = append(errs, fmt.Sprintf("technician %s: primary specialty required", id))
				continue
			}
			primary = specialties[0]
		}

		out = append(out, models.Technician{
			ID:               id,
			Name:             name,
			Specialties:      specialties,
			PrimarySpecialty: primary,
			Rating:           rating,
			CompletedTickets: completed,
			AvgResponseTime:  avgRT,
			CustomerSat:      satisfaction,
			PerformanceScore: performance,
			Certifications:   certifications,
			Offline:          offline,
			UpdatedAt:        time.Now().UTC(),
		})
	}
	return out, errs
}

func parseTicketsCSV(file *multipart.FileHeader) ([]models.Ticket, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Ticket

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := getFieldAny(rec, index, "id", "ticket_id")
		subject := getFieldAny(rec, index, "subject", "title", "summary")
		categoryRaw := getFieldAny(rec, index, "category")
		priorityRaw := getFieldAny(rec, index, "priority")
		statusRaw := getFieldAny(rec, index, "status")
		assignedTo := getFieldAny(rec, index, "assigned_to", "assignee")
		createdAtStr := getFieldAny(rec, index, "created_at", "created")

		if id == "" {
			id = fmt.Sprintf("TICK-%04d", len(out)+1)
		}

		category, err := models.ParseCategory(categoryRaw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("ticket %s: %v", id, err))
			continue
		}
		priority, err := models.ParsePriority(priorityRaw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("ticket %s: %v", id, err))
			continue
		}

		status := models.TicketStatus(strings.ToLower(strings.TrimSpace(statusRaw)))
		if status == "" {
			status = models.TicketOpen
		}
		createdAt, err := time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			createdAt = time.Now().UTC()
		}

		t := models.Ticket{
			ID:        id,
			CreatedAt: createdAt,
			Subject:   subject,
			Category:  category,
			Priority:  priority,
			Status:    status,
		}
		if assignedTo != "" {
			t.AssignedTo = &assignedTo
		}
		out = append(out, t)
	}
	return out, errs
}

func parseSpecialties(id, raw string) ([]models.Category, []string) {
	raw = strings.ReplaceAll(raw, ";", ",")
	seen := map[models.Category]struct{}{}
	var out []models.Category
	var errs []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := models.ParseCategory(part)
		if err != nil {
			errs = append(errs, fmt.Sprintf("technician %s: %v", id, err))
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, errs
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func validateExt(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".csv"
}
