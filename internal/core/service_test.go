package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dentalcore/pkg/domain"
)

func newTestService(opts ...ServiceOption) *Service {
	return NewInMemoryService(NewDefaultRulesEngine(), opts...)
}

func mustCreatePatient(t *testing.T, svc *Service, p Patient) Patient {
	t.Helper()
	created, _, err := svc.CreatePatient(context.Background(), p)
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return created
}

func mustCreateIncident(t *testing.T, svc *Service, i Incident) Incident {
	t.Helper()
	created, _, err := svc.CreateIncident(context.Background(), i)
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	return created
}

func TestServicePatientLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created := mustCreatePatient(t, svc, Patient{Name: "John Doe", DateOfBirth: "1990-05-10"})
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	updated, _, err := svc.UpdatePatient(ctx, created.ID, func(p *Patient) error {
		p.HealthInfo = "No allergies"
		return nil
	})
	if err != nil {
		t.Fatalf("update patient: %v", err)
	}
	if updated.HealthInfo != "No allergies" {
		t.Fatalf("mutation not applied: %+v", updated)
	}

	found, ok := svc.FindPatientByID(ctx, created.ID)
	if !ok || found.HealthInfo != "No allergies" {
		t.Fatalf("find after update diverged: %+v", found)
	}

	if _, err := svc.DeletePatient(ctx, created.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	if _, ok := svc.FindPatientByID(ctx, created.ID); ok {
		t.Fatalf("patient still present after delete")
	}
	if _, err := svc.DeletePatient(ctx, created.ID); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}

func TestServiceCreateIncidentEnforcesCreationContract(t *testing.T) {
	svc := newTestService()
	patient := mustCreatePatient(t, svc, Patient{Name: "John Doe"})

	cost := 500.0
	treatment := "premature"
	created := mustCreateIncident(t, svc, Incident{
		PatientID: patient.ID,
		Title:     "Check-up",
		Status:    IncidentCompleted,
		Cost:      &cost,
		Treatment: &treatment,
		Files:     []IncidentFile{{Name: "sneaky.pdf"}},
	})
	if created.Status != IncidentScheduled {
		t.Fatalf("expected scheduled, got %s", created.Status)
	}
	if created.Cost != nil || created.Treatment != nil {
		t.Fatalf("expected nil cost and treatment on creation")
	}
	if len(created.Files) != 0 {
		t.Fatalf("expected empty file list, got %+v", created.Files)
	}
}

func TestServiceCreateIncidentUnknownPatientBlocked(t *testing.T) {
	svc := newTestService()
	_, _, err := svc.CreateIncident(context.Background(), Incident{PatientID: "ghost", Title: "Check-up"})
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if len(svc.ListIncidents(context.Background())) != 0 {
		t.Fatalf("blocked incident committed")
	}
}

func TestServiceNegativeCostBlocked(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	patient := mustCreatePatient(t, svc, Patient{Name: "John Doe"})
	incident := mustCreateIncident(t, svc, Incident{PatientID: patient.ID, Title: "Check-up"})

	bad := -5.0
	_, _, err := svc.UpdateIncident(ctx, incident.ID, func(i *Incident) error {
		i.Cost = &bad
		return nil
	})
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}

	good := 75.0
	treatment := "Filling"
	updated, _, err := svc.UpdateIncident(ctx, incident.ID, func(i *Incident) error {
		i.Cost = &good
		i.Treatment = &treatment
		i.Status = IncidentCompleted
		return nil
	})
	if err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	if updated.Cost == nil || *updated.Cost != 75.0 || updated.Status != IncidentCompleted {
		t.Fatalf("outcome not recorded: %+v", updated)
	}
}

func TestServiceDeletePatientWarnsAboutOrphans(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	patient := mustCreatePatient(t, svc, Patient{Name: "John Doe"})
	incident := mustCreateIncident(t, svc, Incident{PatientID: patient.ID, Title: "Check-up"})

	res, err := svc.DeletePatient(ctx, patient.ID)
	if err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	warnings := res.Warnings()
	found := false
	for _, w := range warnings {
		if w.Rule == "orphaned_incidents" && w.EntityID == incident.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected orphan warning, got %+v", warnings)
	}
	if len(svc.ListIncidents(ctx)) != 1 {
		t.Fatalf("orphaned incident was removed")
	}
}

func TestServiceCreateUserAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, _, err := svc.CreateUser(ctx, User{Role: RoleAdmin, Email: "dr@clinic.test"}, "s3cret")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.PasswordHash != "" {
		t.Fatalf("create user leaked password hash")
	}

	user, err := svc.Authenticate(ctx, "dr@clinic.test", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != created.ID || user.Role != RoleAdmin {
		t.Fatalf("unexpected identity: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatalf("authenticate leaked password hash")
	}

	if _, err := svc.Authenticate(ctx, "dr@clinic.test", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@clinic.test", "s3cret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestServiceCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, _, err := svc.CreateUser(ctx, User{Role: RoleAdmin, Email: "dr@clinic.test"}, "one"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, _, err := svc.CreateUser(ctx, User{Role: RoleAdmin, Email: "dr@clinic.test"}, "two")
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestServicePatientAccountRequiresPatientRef(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.CreateUser(ctx, User{Role: RolePatient, Email: "john@clinic.test"}, "pw")
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation without patient ref, got %v", err)
	}

	patient := mustCreatePatient(t, svc, Patient{Name: "John Doe"})
	created, _, err := svc.CreateUser(ctx, User{Role: RolePatient, Email: "john@clinic.test", PatientID: &patient.ID}, "pw")
	if err != nil {
		t.Fatalf("create linked account: %v", err)
	}
	if created.PatientID == nil || *created.PatientID != patient.ID {
		t.Fatalf("patient link lost: %+v", created)
	}
}

func TestServiceFindIncidentsByPatientID(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	patient := mustCreatePatient(t, svc, Patient{Name: "John Doe"})
	other := mustCreatePatient(t, svc, Patient{Name: "Jane Smith"})
	first := mustCreateIncident(t, svc, Incident{PatientID: patient.ID, Title: "first"})
	mustCreateIncident(t, svc, Incident{PatientID: other.ID, Title: "noise"})
	second := mustCreateIncident(t, svc, Incident{PatientID: patient.ID, Title: "second"})

	got, err := svc.FindIncidentsByPatientID(ctx, patient.ID)
	if err != nil {
		t.Fatalf("find incidents: %v", err)
	}
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("unexpected incidents: %+v", got)
	}

	empty, err := svc.FindIncidentsByPatientID(ctx, "unknown")
	if err != nil {
		t.Fatalf("find incidents for unknown patient: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty slice, got %#v", empty)
	}
}

func TestServiceAttachIncidentFileInline(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	patient := mustCreatePatient(t, svc, Patient{Name: "John Doe"})
	incident := mustCreateIncident(t, svc, Incident{PatientID: patient.ID, Title: "Check-up"})

	payload := "invoice body"
	updated, _, err := svc.AttachIncidentFile(ctx, incident.ID, "invoice.pdf", "application/pdf", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("attach file: %v", err)
	}
	if len(updated.Files) != 1 {
		t.Fatalf("expected one attachment, got %+v", updated.Files)
	}
	file := updated.Files[0]
	if file.Name != "invoice.pdf" || file.Size != int64(len(payload)) {
		t.Fatalf("unexpected file record: %+v", file)
	}
	if !strings.HasPrefix(file.URL, "data:application/pdf;base64,") {
		t.Fatalf("expected inline data url, got %s", file.URL)
	}

	contentType, data, err := svc.OpenIncidentFile(ctx, file)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	if contentType != "application/pdf" || string(data) != payload {
		t.Fatalf("attachment round trip diverged: %s %q", contentType, data)
	}

	if _, _, err := svc.AttachIncidentFile(ctx, "missing", "x.pdf", "", strings.NewReader("x")); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found for missing incident, got %v", err)
	}
}
