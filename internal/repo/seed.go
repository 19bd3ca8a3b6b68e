package repo

import (
	"time"

	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

// DefaultRoster is the static technician roster used in in-memory mode. A
// real deployment sources this from an HR/identity system.
func DefaultRoster() []models.Technician {
	now := time.Now().UTC()
	return []models.Technician{
		{
			ID:               "tech-001",
			Name:             "Sara Ahmadi",
			Specialties:      []models.Category{models.CategoryNetwork, models.CategoryHardware},
			PrimarySpecialty: models.CategoryNetwork,
			Rating:           4.8,
			CompletedTickets: 182,
			AvgResponseTime:  1.2,
			CustomerSat:      4.7,
			PerformanceScore: 92,
			Certifications:   4,
			UpdatedAt:        now,
		},
		{
			ID:               "tech-002",
			Name:             "Omid Karimi",
			Specialties:      []models.Category{models.CategorySoftware, models.CategoryAccess},
			PrimarySpecialty: models.CategorySoftware,
			Rating:           4.5,
			CompletedTickets: 97,
			AvgResponseTime:  2.6,
			CustomerSat:      4.3,
			PerformanceScore: 84,
			Certifications:   2,
			UpdatedAt:        now,
		},
		{
			ID:               "tech-003",
			Name:             "Leila Moradi",
			Specialties:      []models.Category{models.CategorySecurity, models.CategoryNetwork, models.CategoryAccess},
			PrimarySpecialty: models.CategorySecurity,
			Rating:           4.9,
			CompletedTickets: 240,
			AvgResponseTime:  1.8,
			CustomerSat:      4.9,
			PerformanceScore: 96,
			Certifications:   6,
			UpdatedAt:        now,
		},
		{
			ID:               "tech-004",
			Name:             "Reza Shirazi",
			Specialties:      []models.Category{models.CategoryEmail, models.CategorySoftware},
			PrimarySpecialty: models.CategoryEmail,
			Rating:           4.1,
			CompletedTickets: 54,
			AvgResponseTime:  3.4,
			CustomerSat:      3.9,
			PerformanceScore: 76,
			Certifications:   1,
			UpdatedAt:        now,
		},
		{
			ID:               "tech-005",
			Name:             "Mina Taheri",
			Specialties:      []models.Category{models.CategoryHardware},
			PrimarySpecialty: models.CategoryHardware,
			Rating:           3.8,
			CompletedTickets: 31,
			AvgResponseTime:  2.1,
			CustomerSat:      4.0,
			PerformanceScore: 71,
			Certifications:   0,
			UpdatedAt:        now,
		},
	}
}

// SampleTickets gives the in-memory mode something to rank against on a
// fresh start.
func SampleTickets() []models.Ticket {
	base := time.Now().UTC().Add(-6 * time.Hour)
	return []models.Ticket{
		{ID: "TICK-1001", CreatedAt: base, Subject: "VPN drops every hour", Category: models.CategoryNetwork, Priority: models.PriorityHigh, Status: models.TicketOpen},
		{ID: "TICK-1002", CreatedAt: base.Add(30 * time.Minute), Subject: "Suspicious login alerts", Category: models.CategorySecurity, Priority: models.PriorityUrgent, Status: models.TicketOpen},
		{ID: "TICK-1003", CreatedAt: base.Add(time.Hour), Subject: "Outlook rules not syncing", Category: models.CategoryEmail, Priority: models.PriorityMedium, Status: models.TicketOpen},
		{ID: "TICK-1004", CreatedAt: base.Add(2 * time.Hour), Subject: "Laptop battery swelling", Category: models.CategoryHardware, Priority: models.PriorityHigh, Status: models.TicketOpen},
		{ID: "TICK-1005", CreatedAt: base.Add(3 * time.Hour), Subject: "License activation fails", Category: models.CategorySoftware, Priority: models.PriorityLow, Status: models.TicketOpen},
	}
}
