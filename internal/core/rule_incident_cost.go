package core

import (
	"context"
	"fmt"

	"dentalcore/pkg/domain"
)

// NewIncidentCostRule returns the rule rejecting negative treatment costs.
// Nil cost is valid: it marks an appointment whose outcome is not recorded yet.
func NewIncidentCostRule() domain.Rule {
	return incidentCostRule{}
}

type incidentCostRule struct{}

func (incidentCostRule) Name() string { return "incident_cost" }

func (incidentCostRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityIncident || change.Action == domain.ActionDelete {
			continue
		}
		var incident domain.Incident
		if err := change.After.Decode(&incident); err != nil {
			return domain.Result{}, err
		}
		if incident.Cost != nil && *incident.Cost < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "incident_cost",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("incident %s has negative cost %.2f", incident.ID, *incident.Cost),
				Entity:   domain.EntityIncident,
				EntityID: incident.ID,
			})
		}
	}
	return res, nil
}
