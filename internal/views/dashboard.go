// Package views computes read-only projections over the cached collections:
// dashboard statistics and a calendar grouping. The functions are pure; they
// never touch storage.
package views

import (
	"math"
	"sort"
	"time"

	"dentalcore/pkg/domain"
)

// DashboardStats aggregates the figures shown on the landing dashboard.
type DashboardStats struct {
	TotalPatients        int                           `json:"total_patients"`
	UpcomingAppointments int                           `json:"upcoming_appointments"`
	TotalRevenue         float64                       `json:"total_revenue"`
	StatusCounts         map[domain.IncidentStatus]int `json:"status_counts"`
	NextAppointments     []domain.Incident             `json:"next_appointments"`
}

// maxNextAppointments bounds the dashboard preview list.
const maxNextAppointments = 5

// Dashboard computes the stats over the given collections. An appointment
// counts as upcoming only when it lies strictly after now; revenue sums the
// recorded costs of completed incidents and is rounded to cents.
func Dashboard(patients []domain.Patient, incidents []domain.Incident, now time.Time) DashboardStats {
	stats := DashboardStats{
		TotalPatients:    len(patients),
		StatusCounts:     make(map[domain.IncidentStatus]int),
		NextAppointments: []domain.Incident{},
	}

	var revenue float64
	upcoming := make([]domain.Incident, 0, len(incidents))
	for _, incident := range incidents {
		stats.StatusCounts[incident.Status]++
		if incident.Status == domain.IncidentCompleted && incident.Cost != nil {
			revenue += *incident.Cost
		}
		if incident.AppointmentAt.After(now) {
			upcoming = append(upcoming, incident)
		}
	}
	stats.UpcomingAppointments = len(upcoming)
	stats.TotalRevenue = roundCents(revenue)

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].AppointmentAt.Before(upcoming[j].AppointmentAt)
	})
	if len(upcoming) > maxNextAppointments {
		upcoming = upcoming[:maxNextAppointments]
	}
	stats.NextAppointments = append(stats.NextAppointments, upcoming...)
	return stats
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
