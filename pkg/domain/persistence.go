package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateUser(User) (User, error)
	UpdateUser(id string, mutator func(*User) error) (User, error)
	DeleteUser(id string) error
	CreatePatient(Patient) (Patient, error)
	UpdatePatient(id string, mutator func(*Patient) error) (Patient, error)
	DeletePatient(id string) error
	CreateIncident(Incident) (Incident, error)
	UpdateIncident(id string, mutator func(*Incident) error) (Incident, error)
	FindPatient(id string) (Patient, bool)
	FindIncident(id string) (Incident, bool)
}

// TransactionView provides read-only access to snapshot data for rules and queries.
type TransactionView interface {
	ListUsers() []User
	ListPatients() []Patient
	ListIncidents() []Incident
	FindUser(id string) (User, bool)
	FindUserByEmail(email string) (User, bool)
	FindPatient(id string) (Patient, bool)
	FindIncident(id string) (Incident, bool)
	FindIncidentsByPatient(patientID string) []Incident
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetUser(id string) (User, bool)
	ListUsers() []User
	GetPatient(id string) (Patient, bool)
	ListPatients() []Patient
	GetIncident(id string) (Incident, bool)
	ListIncidents() []Incident
}
