package service

import (
	"github.com/alirazi1992/helpdesk-backend/internal/models"
)

// StatusBusyThreshold is the active-ticket count at which a technician is
// considered busy.
const StatusBusyThreshold = 5

// WorkloadCap is the active-ticket count at which the workload sub-score
// bottoms out and a technician drops out of the fallback candidate pool.
const WorkloadCap = 8

// DeriveWorkload recomputes ActiveTickets and Status for every technician
// from the current ticket set. Pure and idempotent: it is called on every
// ticket-set change and never accumulates.
func DeriveWorkload(technicians []models.Technician, tickets []models.Ticket) []models.Technician {
	active := map[string]int{}
	for _, t := range tickets {
		if t.AssignedTo == nil || !t.Status.Active() {
			continue
		}
		active[*t.AssignedTo]++
	}

	out := make([]models.Technician, 0, len(technicians))
	for _, tech := range technicians {
		tech.ActiveTickets = active[tech.ID]
		switch {
		case tech.Offline:
			tech.Status = models.TechnicianOffline
		case tech.ActiveTickets >= StatusBusyThreshold:
			tech.Status = models.TechnicianBusy
		default:
			tech.Status = models.TechnicianAvailable
		}
		out = append(out, tech)
	}
	return out
}
