package core

import (
	"context"
	"fmt"

	"dentalcore/pkg/domain"
)

// NewUserPatientRefRule returns the rule requiring patient-role accounts to
// reference an existing patient record at creation or update time. Admin
// accounts carry no reference. Scoping the check to changed users keeps
// patient deletion from being blocked by accounts that already point at the
// removed record; those accounts simply become orphans like their incidents.
func NewUserPatientRefRule() domain.Rule {
	return userPatientRefRule{}
}

type userPatientRefRule struct{}

func (userPatientRefRule) Name() string { return "user_patient_ref" }

func (userPatientRefRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityUser || change.Action == domain.ActionDelete {
			continue
		}
		var user domain.User
		if err := change.After.Decode(&user); err != nil {
			return domain.Result{}, err
		}
		if user.Role != domain.RolePatient {
			continue
		}
		if user.PatientID == nil || *user.PatientID == "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "user_patient_ref",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("patient account %s (%s) has no patient reference", user.Email, user.ID),
				Entity:   domain.EntityUser,
				EntityID: user.ID,
			})
			continue
		}
		if _, ok := view.FindPatient(*user.PatientID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "user_patient_ref",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("patient account %s references unknown patient %s", user.Email, *user.PatientID),
				Entity:   domain.EntityUser,
				EntityID: user.ID,
			})
		}
	}
	return res, nil
}
