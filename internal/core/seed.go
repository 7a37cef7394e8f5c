package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dentalcore/pkg/domain"
)

// SeedAdminEmail is the login of the administrator account installed by Seed.
const SeedAdminEmail = "admin@entnt.in"

// Seed installs the demo fixture: one admin account, one patient portal
// account and a small set of patients and incidents. It is idempotent; when
// the admin account already exists the store is left untouched.
func (s *Service) Seed(ctx context.Context) (Result, error) {
	return s.run(ctx, "seed", func(tx Transaction) error {
		if _, exists := tx.Snapshot().FindUserByEmail(SeedAdminEmail); exists {
			return nil
		}

		for _, p := range seedPatients() {
			if _, err := tx.CreatePatient(p); err != nil {
				return fmt.Errorf("seed patient %s: %w", p.ID, err)
			}
		}
		for _, i := range seedIncidents() {
			if _, err := tx.CreateIncident(i); err != nil {
				return fmt.Errorf("seed incident %s: %w", i.ID, err)
			}
		}
		users, err := seedUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			if _, err := tx.CreateUser(u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.ID, err)
			}
		}
		return nil
	}, nil)
}

func seedUsers() ([]User, error) {
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed admin credentials: %w", err)
	}
	patientHash, err := bcrypt.GenerateFromPassword([]byte("patient123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed patient credentials: %w", err)
	}
	patientRef := "p1"
	return []User{
		{
			Base:         Base{ID: "1"},
			Role:         RoleAdmin,
			Email:        SeedAdminEmail,
			PasswordHash: string(adminHash),
		},
		{
			Base:         Base{ID: "2"},
			Role:         RolePatient,
			Email:        "john@entnt.in",
			PasswordHash: string(patientHash),
			PatientID:    &patientRef,
		},
	}, nil
}

func seedPatients() []Patient {
	return []Patient{
		{
			Base:        Base{ID: "p1"},
			Name:        "John Doe",
			DateOfBirth: "1990-05-10",
			Contact:     "1234567890",
			HealthInfo:  "No allergies",
		},
		{
			Base:        Base{ID: "p2"},
			Name:        "Jane Smith",
			DateOfBirth: "1985-08-22",
			Contact:     "0987654321",
			HealthInfo:  "Diabetic",
		},
	}
}

func seedIncidents() []Incident {
	cost := 150.0
	treatment := "Scaling and polishing"
	return []Incident{
		{
			Base:          Base{ID: "i1"},
			PatientID:     "p1",
			Title:         "Annual Check-up & Cleaning",
			Description:   "Routine dental check-up and cleaning",
			Comments:      "No issues found",
			AppointmentAt: time.Date(2025, time.July, 10, 10, 0, 0, 0, time.UTC),
			Cost:          &cost,
			Treatment:     &treatment,
			Status:        domain.IncidentCompleted,
		},
		{
			Base:          Base{ID: "i2"},
			PatientID:     "p2",
			Title:         "Wisdom Tooth Consultation",
			Description:   "Evaluation of impacted wisdom tooth",
			Comments:      "Patient reports intermittent pain",
			AppointmentAt: time.Date(2025, time.July, 15, 14, 30, 0, 0, time.UTC),
			Status:        domain.IncidentScheduled,
		},
		{
			Base:          Base{ID: "i3"},
			PatientID:     "p1",
			Title:         "Filling for Cavity",
			Description:   "Composite filling on lower molar",
			AppointmentAt: time.Date(2025, time.August, 1, 11, 0, 0, 0, time.UTC),
			Status:        domain.IncidentScheduled,
		},
	}
}
