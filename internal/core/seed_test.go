package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"dentalcore/pkg/domain"
)

func TestSeedInstallsFixture(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	patients := svc.ListPatients(ctx)
	if len(patients) != 2 || patients[0].ID != "p1" || patients[1].ID != "p2" {
		t.Fatalf("unexpected patients: %+v", patients)
	}
	if patients[0].Name != "John Doe" || patients[0].DateOfBirth != "1990-05-10" {
		t.Fatalf("unexpected p1: %+v", patients[0])
	}

	incidents := svc.ListIncidents(ctx)
	if len(incidents) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(incidents))
	}
	first := incidents[0]
	if first.ID != "i1" || first.Status != IncidentCompleted || first.Cost == nil || *first.Cost != 150 {
		t.Fatalf("unexpected i1: %+v", first)
	}
	want := time.Date(2025, time.July, 10, 10, 0, 0, 0, time.UTC)
	if !first.AppointmentAt.Equal(want) {
		t.Fatalf("unexpected i1 appointment: %v", first.AppointmentAt)
	}

	users := svc.ListUsers(ctx)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[1].PatientID == nil || *users[1].PatientID != "p1" {
		t.Fatalf("patient account not linked: %+v", users[1])
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if got := len(svc.ListPatients(ctx)); got != 2 {
		t.Fatalf("second seed duplicated patients: %d", got)
	}
	if got := len(svc.ListIncidents(ctx)); got != 3 {
		t.Fatalf("second seed duplicated incidents: %d", got)
	}
	if got := len(svc.ListUsers(ctx)); got != 2 {
		t.Fatalf("second seed duplicated users: %d", got)
	}
}

func TestSeedCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	admin, err := svc.Authenticate(ctx, SeedAdminEmail, "admin123")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if admin.ID != "1" || admin.Role != RoleAdmin || admin.PasswordHash != "" {
		t.Fatalf("unexpected admin identity: %+v", admin)
	}

	if _, err := svc.Authenticate(ctx, SeedAdminEmail, "admin124"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	john, err := svc.Authenticate(ctx, "john@entnt.in", "patient123")
	if err != nil {
		t.Fatalf("patient login: %v", err)
	}
	if john.Role != RolePatient || john.PatientID == nil || *john.PatientID != "p1" {
		t.Fatalf("unexpected patient identity: %+v", john)
	}
}
