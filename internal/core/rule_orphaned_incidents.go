package core

import (
	"context"
	"fmt"

	"dentalcore/pkg/domain"
)

// NewOrphanedIncidentsRule returns the rule surfacing incidents whose patient
// no longer exists. Deleting a patient deliberately leaves its incidents in
// place, so the rule warns rather than blocks.
func NewOrphanedIncidentsRule() domain.Rule {
	return orphanedIncidentsRule{}
}

type orphanedIncidentsRule struct{}

func (orphanedIncidentsRule) Name() string { return "orphaned_incidents" }

func (orphanedIncidentsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, incident := range view.ListIncidents() {
		if incident.PatientID == "" {
			continue
		}
		if _, ok := view.FindPatient(incident.PatientID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "orphaned_incidents",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("incident %s references missing patient %s", incident.ID, incident.PatientID),
				Entity:   domain.EntityIncident,
				EntityID: incident.ID,
			})
		}
	}
	return res, nil
}
