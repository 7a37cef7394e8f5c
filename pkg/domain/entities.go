// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by dentalcore.
package domain

import (
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityUser identifies a login account record.
	EntityUser EntityType = "user"
	// EntityPatient identifies a patient record.
	EntityPatient EntityType = "patient"
	// EntityIncident identifies an appointment/treatment incident record.
	EntityIncident EntityType = "incident"
)

// Role distinguishes administrative staff accounts from patient portal accounts.
type Role string

// Canonical account roles gating which views an authenticated user may reach.
const (
	RoleAdmin   Role = "admin"
	RolePatient Role = "patient"
)

// IncidentStatus enumerates the appointment workflow states.
type IncidentStatus string

// Canonical incident statuses used by dashboard aggregation and status transitions.
const (
	IncidentScheduled IncidentStatus = "scheduled"
	IncidentCompleted IncidentStatus = "completed"
	IncidentCancelled IncidentStatus = "cancelled"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User represents a login account. PasswordHash holds a bcrypt digest and is
// stripped by Sanitize before a user ever leaves the data layer.
type User struct {
	Base
	Role         Role    `json:"role"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"password_hash,omitempty"`
	PatientID    *string `json:"patient_id,omitempty"`
}

// Sanitize returns a copy of the user with credential material removed.
func (u User) Sanitize() User {
	cp := u
	cp.PasswordHash = ""
	if u.PatientID != nil {
		id := *u.PatientID
		cp.PatientID = &id
	}
	return cp
}

// Patient represents a clinic patient record.
type Patient struct {
	Base
	Name        string `json:"name"`
	DateOfBirth string `json:"dob"`
	Contact     string `json:"contact"`
	HealthInfo  string `json:"health_info"`
}

// IncidentFile is a file attached to an incident. URL is self-contained: either
// an inline data URL carrying the bytes, or a blob store URL.
type IncidentFile struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size_bytes,omitempty"`
}

// Incident is a scheduled, completed, or cancelled appointment tied to one patient.
// Cost and Treatment stay nil until an admin records the outcome.
type Incident struct {
	Base
	PatientID     string         `json:"patient_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Comments      string         `json:"comments"`
	AppointmentAt time.Time      `json:"appointment_at"`
	Cost          *float64       `json:"cost"`
	Treatment     *string        `json:"treatment"`
	Status        IncidentStatus `json:"status"`
	Files         []IncidentFile `json:"files"`
}

// Document is the single persisted aggregate: every mutation snapshots the
// whole document back to the backing store.
type Document struct {
	Users     []User     `json:"users"`
	Patients  []Patient  `json:"patients"`
	Incidents []Incident `json:"incidents"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before ChangePayload
	After  ChangePayload
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
