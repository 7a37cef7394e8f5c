package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dentalcore/internal/attachments"
	"dentalcore/pkg/domain"
)

// Service exposes transactional CRUD, authentication and attachment handling
// on top of a persistent store. Every operation is traced, measured and
// audited through the configured observability hooks.
type Service struct {
	store       PersistentStore
	attachments *attachments.Store
	logger      Logger
	clock       Clock
	audit       AuditRecorder
	metrics     MetricsRecorder
	tracer      Tracer
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger installs a structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for durations and audit timestamps.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAuditRecorder installs an audit sink.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAttachments overrides the attachment store. The default inlines
// attachment bytes as data URLs inside the incident record.
func WithAttachments(store *attachments.Store) ServiceOption {
	return func(s *Service) {
		if store != nil {
			s.attachments = store
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:       store,
		attachments: attachments.NewInline(),
		logger:      noopLogger{},
		clock:       systemClock{},
		audit:       noopAuditRecorder{},
		metrics:     noopMetricsRecorder{},
		tracer:      noopTracer{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// CreatePatient persists a new patient record.
func (s *Service) CreatePatient(ctx context.Context, patient Patient) (Patient, Result, error) {
	var created Patient
	res, err := s.run(ctx, "create_patient", func(tx Transaction) error {
		var err error
		created, err = tx.CreatePatient(patient)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdatePatient mutates a patient record using the provided mutator.
func (s *Service) UpdatePatient(ctx context.Context, id string, mutator func(*Patient) error) (Patient, Result, error) {
	var updated Patient
	res, err := s.run(ctx, "update_patient", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdatePatient(id, mutator)
		return err
	}, func() string { return id })
	return updated, res, err
}

// DeletePatient removes a patient record. Incidents referencing the patient
// remain and are surfaced as warnings in the result.
func (s *Service) DeletePatient(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_patient", func(tx Transaction) error {
		return tx.DeletePatient(id)
	}, func() string { return id })
}

// CreateIncident persists a new incident. New incidents always start in the
// scheduled state with no recorded cost or treatment and an empty file list;
// outcomes are recorded later through UpdateIncident.
func (s *Service) CreateIncident(ctx context.Context, incident Incident) (Incident, Result, error) {
	incident.Status = IncidentScheduled
	incident.Cost = nil
	incident.Treatment = nil
	incident.Files = []IncidentFile{}
	var created Incident
	res, err := s.run(ctx, "create_incident", func(tx Transaction) error {
		var err error
		created, err = tx.CreateIncident(incident)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateIncident mutates an incident record using the provided mutator.
func (s *Service) UpdateIncident(ctx context.Context, id string, mutator func(*Incident) error) (Incident, Result, error) {
	var updated Incident
	res, err := s.run(ctx, "update_incident", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateIncident(id, mutator)
		return err
	}, func() string { return id })
	return updated, res, err
}

// CreateUser registers a login account. The clear-text password is hashed
// with bcrypt before it reaches storage and never appears in audit payloads.
func (s *Service) CreateUser(ctx context.Context, user User, password string) (User, Result, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, Result{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	var created User
	res, err := s.run(ctx, "create_user", func(tx Transaction) error {
		if _, exists := tx.Snapshot().FindUserByEmail(user.Email); exists {
			return fmt.Errorf("email %s already registered", user.Email)
		}
		var err error
		created, err = tx.CreateUser(user)
		return err
	}, func() string { return created.ID })
	return created.Sanitize(), res, err
}

// Authenticate verifies an email/password pair against stored credentials.
// It returns the matching user with credential material stripped, or
// ErrInvalidCredentials without revealing which part failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, "authenticate")

	var user User
	err := s.store.View(ctx, func(view TransactionView) error {
		found, ok := view.FindUserByEmail(strings.TrimSpace(email))
		if !ok {
			return domain.ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)) != nil {
			return domain.ErrInvalidCredentials
		}
		user = found.Sanitize()
		return nil
	})

	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, "authenticate", err == nil, duration)
	if err != nil {
		s.logger.Warn("authentication rejected", "email", email)
		return User{}, err
	}
	s.logger.Info("authentication accepted", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// FindPatientByID retrieves a patient from committed state.
func (s *Service) FindPatientByID(_ context.Context, id string) (Patient, bool) {
	return s.store.GetPatient(id)
}

// ListPatients returns all patients in insertion order.
func (s *Service) ListPatients(_ context.Context) []Patient {
	return s.store.ListPatients()
}

// ListIncidents returns all incidents in insertion order.
func (s *Service) ListIncidents(_ context.Context) []Incident {
	return s.store.ListIncidents()
}

// FindIncidentsByPatientID returns the patient's incidents in insertion order.
// An unknown patient yields an empty slice, not an error.
func (s *Service) FindIncidentsByPatientID(ctx context.Context, patientID string) ([]Incident, error) {
	var out []Incident
	err := s.store.View(ctx, func(view TransactionView) error {
		out = view.FindIncidentsByPatient(patientID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Incident{}
	}
	return out, nil
}

// ListUsers returns all login accounts with credential material stripped.
func (s *Service) ListUsers(_ context.Context) []User {
	users := s.store.ListUsers()
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitize())
	}
	return out
}

// AttachIncidentFile stores the attachment payload and appends the resulting
// file record to the incident within a single transaction.
func (s *Service) AttachIncidentFile(ctx context.Context, incidentID, name, contentType string, r io.Reader) (Incident, Result, error) {
	if _, ok := s.store.GetIncident(incidentID); !ok {
		err := domain.ErrNotFound{Entity: EntityIncident, ID: incidentID}
		s.observeOp(ctx, "attach_incident_file", incidentID, err)
		return Incident{}, Result{}, err
	}
	file, err := s.attachments.Save(ctx, incidentID, name, contentType, r)
	if err != nil {
		s.observeOp(ctx, "attach_incident_file", incidentID, err)
		return Incident{}, Result{}, err
	}
	var updated Incident
	res, err := s.run(ctx, "attach_incident_file", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateIncident(incidentID, func(i *Incident) error {
			i.Files = append(i.Files, file)
			return nil
		})
		return err
	}, func() string { return incidentID })
	return updated, res, err
}

// OpenIncidentFile resolves an attachment's bytes through the attachment store.
func (s *Service) OpenIncidentFile(ctx context.Context, file IncidentFile) (string, []byte, error) {
	return s.attachments.Open(ctx, file)
}

// run executes fn in a store transaction with tracing, metrics, audit and
// warning logs wrapped around it.
func (s *Service) run(ctx context.Context, op string, fn func(Transaction) error, entityID func() string) (Result, error) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)

	id := ""
	if entityID != nil {
		id = entityID()
	}
	if err != nil {
		s.recordAuditError(ctx, op, id, duration, err)
		s.logger.Error(op+" failed", "entity_id", id, "error", err)
		return res, err
	}
	s.recordAuditSuccess(ctx, op, id, duration)
	for _, warning := range res.Warnings() {
		s.logger.Warn(op+" warning", "rule", warning.Rule, "entity_id", warning.EntityID, "message", warning.Message)
	}
	return res, nil
}

// observeOp reports non-transactional failures through the same hooks as run.
func (s *Service) observeOp(ctx context.Context, op, entityID string, err error) {
	_, span := s.tracer.Start(ctx, op)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, 0)
	if err != nil {
		s.recordAuditError(ctx, op, entityID, 0, err)
		s.logger.Error(op+" failed", "entity_id", entityID, "error", err)
	}
}

// operationAudit maps service operation names to the audit entity and action
// they represent. Operations absent from the map produce no audit entries.
var operationAudit = map[string]struct {
	Entity EntityType
	Action Action
}{
	"create_patient":       {Entity: EntityPatient, Action: ActionCreate},
	"update_patient":       {Entity: EntityPatient, Action: ActionUpdate},
	"delete_patient":       {Entity: EntityPatient, Action: ActionDelete},
	"create_incident":      {Entity: EntityIncident, Action: ActionCreate},
	"update_incident":      {Entity: EntityIncident, Action: ActionUpdate},
	"attach_incident_file": {Entity: EntityIncident, Action: ActionUpdate},
	"create_user":          {Entity: EntityUser, Action: ActionCreate},
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	meta, ok := operationAudit[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.Entity,
		Action:    meta.Action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	meta, ok := operationAudit[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.Entity,
		Action:    meta.Action,
		EntityID:  entityID,
		Status:    AuditStatusError,
		Error:     err.Error(),
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}
