package state

import (
	"context"
	"testing"

	"dentalcore/pkg/domain"
)

func patient(id, name string) domain.Patient {
	return domain.Patient{Base: domain.Base{ID: id}, Name: name}
}

func incident(id, patientID string) domain.Incident {
	return domain.Incident{Base: domain.Base{ID: id}, PatientID: patientID}
}

func TestReduceSetDataEndsLoading(t *testing.T) {
	s := Initial()
	if !s.Loading {
		t.Fatalf("initial state must be loading")
	}
	next := Reduce(s, SetData{
		Patients:  []domain.Patient{patient("p1", "John Doe")},
		Incidents: []domain.Incident{incident("i1", "p1")},
	})
	if next.Loading {
		t.Fatalf("loading must end after SetData")
	}
	if len(next.Patients) != 1 || len(next.Incidents) != 1 {
		t.Fatalf("collections not replaced: %+v", next)
	}
	if len(s.Patients) != 0 || !s.Loading {
		t.Fatalf("reduce mutated its input: %+v", s)
	}
}

func TestReducePatientActions(t *testing.T) {
	s := Reduce(Initial(), SetData{})
	s = Reduce(s, AddPatient{Patient: patient("p1", "John Doe")})
	s = Reduce(s, AddPatient{Patient: patient("p2", "Jane Smith")})

	s = Reduce(s, UpdatePatient{Patient: patient("p1", "John D. Doe")})
	if s.Patients[0].Name != "John D. Doe" || s.Patients[0].ID != "p1" {
		t.Fatalf("update lost position or content: %+v", s.Patients)
	}

	s = Reduce(s, UpdatePatient{Patient: patient("ghost", "Nobody")})
	if len(s.Patients) != 2 {
		t.Fatalf("unknown update changed collection: %+v", s.Patients)
	}

	s = Reduce(s, DeletePatient{ID: "p1"})
	if len(s.Patients) != 1 || s.Patients[0].ID != "p2" {
		t.Fatalf("delete diverged: %+v", s.Patients)
	}
}

func TestReduceIncidentActions(t *testing.T) {
	s := Reduce(Initial(), SetData{})
	s = Reduce(s, AddIncident{Incident: incident("i1", "p1")})
	s = Reduce(s, AddIncident{Incident: incident("i2", "p2")})

	updated := incident("i1", "p1")
	updated.Title = "Check-up"
	s = Reduce(s, UpdateIncident{Incident: updated})
	if s.Incidents[0].Title != "Check-up" {
		t.Fatalf("incident update lost: %+v", s.Incidents)
	}
	if s.Incidents[1].ID != "i2" {
		t.Fatalf("order disturbed: %+v", s.Incidents)
	}
}

type staticSource struct {
	patients  []domain.Patient
	incidents []domain.Incident
}

func (s staticSource) ListPatients(context.Context) []domain.Patient   { return s.patients }
func (s staticSource) ListIncidents(context.Context) []domain.Incident { return s.incidents }

func TestCacheLoadAndDispatch(t *testing.T) {
	cache := NewCache()
	if !cache.State().Loading {
		t.Fatalf("expected loading before Load")
	}

	loaded := cache.Load(context.Background(), staticSource{
		patients:  []domain.Patient{patient("p1", "John Doe")},
		incidents: []domain.Incident{incident("i1", "p1")},
	})
	if loaded.Loading || len(loaded.Patients) != 1 {
		t.Fatalf("unexpected loaded state: %+v", loaded)
	}

	next := cache.Dispatch(AddPatient{Patient: patient("p2", "Jane Smith")})
	if len(next.Patients) != 2 {
		t.Fatalf("dispatch lost: %+v", next.Patients)
	}

	snapshot := cache.State()
	snapshot.Patients[0].Name = "mutated"
	if cache.State().Patients[0].Name != "John Doe" {
		t.Fatalf("State() exposed internal slice")
	}
}
