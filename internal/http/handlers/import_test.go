package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

func TestParseTechniciansCSV(t *testing.T) {
	content := "technician_id,name,specialties,primary_specialty,rating,completed_tickets,avg_response_time,customer_satisfaction,performance_score,certifications,offline\n" +
		"t1,Sara Ahmadi,network;hardware,network,4.8,120,1.2,4.7,92,3,false\n" +
		"t2,Omid Karimi,software,,4.5,80,2.0,4.4,85,1,true\n"
	fh := makeMultipartFile(t, "technicians", "technicians.csv", content)

	technicians, errs := parseTechniciansCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(technicians) != 2 {
		t.Fatalf("expected 2 technicians, got %d", len(technicians))
	}
	if len(technicians[0].Specialties) != 2 || technicians[0].Specialties[0] != models.CategoryNetwork {
		t.Fatalf("unexpected specialties: %v", technicians[0].Specialties)
	}
	if technicians[1].PrimarySpecialty != models.CategorySoftware {
		t.Fatalf("expected primary to default to first specialty, got %s", technicians[1].PrimarySpecialty)
	}
	if !technicians[1].Offline {
		t.Fatalf("expected t2 offline")
	}
}

func TestParseTechniciansCSV_BOMHeader(t *testing.T) {
	content := "\ufeffid,name,specialties,primary_specialty\nt1,Sara Ahmadi,network,network\n"
	fh := makeMultipartFile(t, "technicians", "technicians.csv", content)

	technicians, errs := parseTechniciansCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(technicians) != 1 || technicians[0].ID != "t1" {
		t.Fatalf("expected BOM-prefixed header column recognized, got %+v", technicians)
	}
}

func TestParseTechniciansCSV_MissingName(t *testing.T) {
	content := "id,name,specialties,primary_specialty\nt1,,network,network\n"
	fh := makeMultipartFile(t, "technicians", "technicians.csv", content)

	technicians, errs := parseTechniciansCSV(fh)
	if len(technicians) != 0 {
		t.Fatalf("expected row rejected, got %d technicians", len(technicians))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestParseTechniciansCSV_UnknownSpecialty(t *testing.T) {
	content := "id,name,specialties,primary_specialty\nt1,Sara,network;plumbing,network\n"
	fh := makeMultipartFile(t, "technicians", "technicians.csv", content)

	technicians, errs := parseTechniciansCSV(fh)
	if len(technicians) != 1 {
		t.Fatalf("expected valid specialties kept, got %d technicians", len(technicians))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error for the unknown specialty, got %v", errs)
	}
}

func TestParseTicketsCSV(t *testing.T) {
	content := "ticket_id,subject,category,priority,status,assigned_to,created_at\n" +
		"TICK-1,VPN drops,network,high,open,,2026-08-01T09:00:00Z\n" +
		"TICK-2,Monitor flicker,hardware,low,in-progress,t1,\n"
	fh := makeMultipartFile(t, "tickets", "tickets.csv", content)

	tickets, errs := parseTicketsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}
	if tickets[0].AssignedTo != nil {
		t.Fatalf("expected TICK-1 unassigned")
	}
	if tickets[1].AssignedTo == nil || *tickets[1].AssignedTo != "t1" {
		t.Fatalf("expected TICK-2 assigned to t1")
	}
	if tickets[1].Status != models.TicketInProgress {
		t.Fatalf("expected in-progress, got %s", tickets[1].Status)
	}
}

func TestParseTicketsCSV_BadCategory(t *testing.T) {
	content := "id,subject,category,priority\nTICK-1,Broken thing,gardening,high\n"
	fh := makeMultipartFile(t, "tickets", "tickets.csv", content)

	tickets, errs := parseTicketsCSV(fh)
	if len(tickets) != 0 {
		t.Fatalf("expected row rejected, got %d tickets", len(tickets))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestImportEndToEnd(t *testing.T) {
	h, mem := newTestHandler(t)
	r := gin.New()
	r.POST("/api/import", h.Import)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	techPart, err := writer.CreateFormFile("technicians", "technicians.csv")
	if err != nil {
		t.Fatalf("create technicians part: %v", err)
	}
	techPart.Write([]byte("id,name,specialties,primary_specialty,rating\nt9,Leila Moradi,security;access,security,4.9\n"))
	tickPart, err := writer.CreateFormFile("tickets", "tickets.csv")
	if err != nil {
		t.Fatalf("create tickets part: %v", err)
	}
	tickPart.Write([]byte("id,subject,category,priority\nTICK-9,Locked out,access,urgent\n"))
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	ctx := req.Context()
	technicians, _ := mem.ListTechnicians(ctx)
	if len(technicians) != 1 || technicians[0].ID != "t9" {
		t.Fatalf("expected roster replaced by import, got %+v", technicians)
	}
	tickets, _ := mem.All(ctx)
	if len(tickets) != 1 || tickets[0].ID != "TICK-9" {
		t.Fatalf("expected tickets replaced by import, got %+v", tickets)
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
