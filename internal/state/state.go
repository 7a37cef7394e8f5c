// Package state holds an in-memory projection of the patient and incident
// collections, maintained through a pure reducer so every mutation is an
// explicit, replayable action.
package state

import "dentalcore/pkg/domain"

// State is the cached projection. Loading is true until the first SetData
// action arrives from storage.
type State struct {
	Patients  []domain.Patient
	Incidents []domain.Incident
	Loading   bool
}

// Initial returns the pre-load state.
func Initial() State {
	return State{Loading: true}
}

// Clone returns a deep-enough copy: the slices are fresh so callers can range
// over them while the cache keeps reducing.
func (s State) Clone() State {
	out := State{Loading: s.Loading}
	if s.Patients != nil {
		out.Patients = append([]domain.Patient(nil), s.Patients...)
	}
	if s.Incidents != nil {
		out.Incidents = append([]domain.Incident(nil), s.Incidents...)
	}
	return out
}

// Action is a reducer input. Implementations are the only way to change State.
type Action interface {
	isAction()
}

// SetData replaces both collections wholesale and marks the cache loaded.
type SetData struct {
	Patients  []domain.Patient
	Incidents []domain.Incident
}

// AddPatient appends a patient to the projection.
type AddPatient struct{ Patient domain.Patient }

// UpdatePatient replaces the patient with the matching ID, keeping its
// position. Unknown IDs leave the state unchanged.
type UpdatePatient struct{ Patient domain.Patient }

// DeletePatient removes the patient with the matching ID.
type DeletePatient struct{ ID string }

// AddIncident appends an incident to the projection.
type AddIncident struct{ Incident domain.Incident }

// UpdateIncident replaces the incident with the matching ID, keeping its
// position. Unknown IDs leave the state unchanged.
type UpdateIncident struct{ Incident domain.Incident }

func (SetData) isAction()        {}
func (AddPatient) isAction()     {}
func (UpdatePatient) isAction()  {}
func (DeletePatient) isAction()  {}
func (AddIncident) isAction()    {}
func (UpdateIncident) isAction() {}

// Reduce applies an action to a state and returns the successor. It never
// mutates its input; unrecognized actions return the state unchanged.
func Reduce(s State, action Action) State {
	switch a := action.(type) {
	case SetData:
		next := State{Loading: false}
		next.Patients = append([]domain.Patient{}, a.Patients...)
		next.Incidents = append([]domain.Incident{}, a.Incidents...)
		return next
	case AddPatient:
		next := s.Clone()
		next.Patients = append(next.Patients, a.Patient)
		return next
	case UpdatePatient:
		next := s.Clone()
		for i := range next.Patients {
			if next.Patients[i].ID == a.Patient.ID {
				next.Patients[i] = a.Patient
				break
			}
		}
		return next
	case DeletePatient:
		next := s.Clone()
		kept := next.Patients[:0]
		for _, p := range next.Patients {
			if p.ID != a.ID {
				kept = append(kept, p)
			}
		}
		next.Patients = kept
		return next
	case AddIncident:
		next := s.Clone()
		next.Incidents = append(next.Incidents, a.Incident)
		return next
	case UpdateIncident:
		next := s.Clone()
		for i := range next.Incidents {
			if next.Incidents[i].ID == a.Incident.ID {
				next.Incidents[i] = a.Incident
				break
			}
		}
		return next
	default:
		return s
	}
}
