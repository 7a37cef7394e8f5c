package core

import (
	"context"
	"fmt"

	"dentalcore/pkg/domain"
)

// NewIncidentPatientRefRule returns the default in-transaction rule requiring
// every incident to reference an existing patient at creation or update time.
func NewIncidentPatientRefRule() domain.Rule {
	return incidentPatientRefRule{}
}

type incidentPatientRefRule struct{}

func (incidentPatientRefRule) Name() string { return "incident_patient_ref" }

func (incidentPatientRefRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityIncident || change.Action == domain.ActionDelete {
			continue
		}
		var incident domain.Incident
		if err := change.After.Decode(&incident); err != nil {
			return domain.Result{}, err
		}
		if incident.PatientID == "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "incident_patient_ref",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("incident %s has no patient reference", incident.ID),
				Entity:   domain.EntityIncident,
				EntityID: incident.ID,
			})
			continue
		}
		if _, ok := view.FindPatient(incident.PatientID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "incident_patient_ref",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("incident %s references unknown patient %s", incident.ID, incident.PatientID),
				Entity:   domain.EntityIncident,
				EntityID: incident.ID,
			})
		}
	}
	return res, nil
}
