package views

import (
	"sort"
	"time"

	"dentalcore/pkg/domain"
)

// dayKeyLayout formats appointment days for calendar bucketing.
const dayKeyLayout = "2006-01-02"

// DayKey returns the calendar bucket key for a timestamp.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// Calendar buckets incidents by appointment day. Days lists the keys in
// ascending order; within a bucket incidents keep their input order.
type Calendar struct {
	Days    []string
	Buckets map[string][]domain.Incident
}

// GroupByDay builds a calendar view over the given incidents.
func GroupByDay(incidents []domain.Incident) Calendar {
	cal := Calendar{Buckets: make(map[string][]domain.Incident)}
	for _, incident := range incidents {
		key := DayKey(incident.AppointmentAt)
		if _, ok := cal.Buckets[key]; !ok {
			cal.Days = append(cal.Days, key)
		}
		cal.Buckets[key] = append(cal.Buckets[key], incident)
	}
	sort.Strings(cal.Days)
	return cal
}

// On returns the incidents scheduled on the given day, nil when the day is
// empty.
func (c Calendar) On(day string) []domain.Incident {
	return c.Buckets[day]
}
