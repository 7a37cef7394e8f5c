// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"dentalcore/pkg/domain"
)

func errAlreadyExists(entity domain.EntityType, id string) error {
	return fmt.Errorf("%s %q already exists", entity, id)
}

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// User aliases domain.User for in-memory persistence operations.
	User = domain.User
	// Patient aliases domain.Patient.
	Patient = domain.Patient
	// Incident aliases domain.Incident.
	Incident = domain.Incident
	// Document aliases domain.Document, the unit of persistence.
	Document = domain.Document
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

// documentState keeps collections keyed by ID plus insertion order, so the
// exported Document lists entities in the order they were created.
type documentState struct {
	users     map[string]User
	patients  map[string]Patient
	incidents map[string]Incident

	userOrder     []string
	patientOrder  []string
	incidentOrder []string
}

func newDocumentState() documentState {
	return documentState{
		users:     make(map[string]User),
		patients:  make(map[string]Patient),
		incidents: make(map[string]Incident),
	}
}

func (s documentState) clone() documentState {
	cloned := newDocumentState()
	for k, v := range s.users {
		cloned.users[k] = cloneUser(v)
	}
	for k, v := range s.patients {
		cloned.patients[k] = clonePatient(v)
	}
	for k, v := range s.incidents {
		cloned.incidents[k] = cloneIncident(v)
	}
	cloned.userOrder = append([]string(nil), s.userOrder...)
	cloned.patientOrder = append([]string(nil), s.patientOrder...)
	cloned.incidentOrder = append([]string(nil), s.incidentOrder...)
	return cloned
}

func cloneUser(u User) User {
	cp := u
	if u.PatientID != nil {
		id := *u.PatientID
		cp.PatientID = &id
	}
	return cp
}

func clonePatient(p Patient) Patient { return p }

func cloneIncident(i Incident) Incident {
	cp := i
	if i.Cost != nil {
		c := *i.Cost
		cp.Cost = &c
	}
	if i.Treatment != nil {
		t := *i.Treatment
		cp.Treatment = &t
	}
	cp.Files = append([]domain.IncidentFile(nil), i.Files...)
	if cp.Files == nil {
		cp.Files = []domain.IncidentFile{}
	}
	return cp
}

func documentFromState(state documentState) Document {
	doc := Document{
		Users:     make([]User, 0, len(state.userOrder)),
		Patients:  make([]Patient, 0, len(state.patientOrder)),
		Incidents: make([]Incident, 0, len(state.incidentOrder)),
	}
	for _, id := range state.userOrder {
		doc.Users = append(doc.Users, cloneUser(state.users[id]))
	}
	for _, id := range state.patientOrder {
		doc.Patients = append(doc.Patients, clonePatient(state.patients[id]))
	}
	for _, id := range state.incidentOrder {
		doc.Incidents = append(doc.Incidents, cloneIncident(state.incidents[id]))
	}
	return doc
}

func stateFromDocument(doc Document) documentState {
	doc = normalizeDocument(doc)
	state := newDocumentState()
	for _, u := range doc.Users {
		if _, ok := state.users[u.ID]; !ok {
			state.userOrder = append(state.userOrder, u.ID)
		}
		state.users[u.ID] = cloneUser(u)
	}
	for _, p := range doc.Patients {
		if _, ok := state.patients[p.ID]; !ok {
			state.patientOrder = append(state.patientOrder, p.ID)
		}
		state.patients[p.ID] = clonePatient(p)
	}
	for _, i := range doc.Incidents {
		if _, ok := state.incidents[i.ID]; !ok {
			state.incidentOrder = append(state.incidentOrder, i.ID)
		}
		state.incidents[i.ID] = cloneIncident(i)
	}
	return state
}

// normalizeDocument repairs documents loaded from older or hand-edited
// snapshots: nil collections become empty, missing incident statuses default
// to scheduled, and nil file lists become empty lists. Orphaned incidents are
// deliberately kept; the rules engine reports them instead.
func normalizeDocument(doc Document) Document {
	if doc.Users == nil {
		doc.Users = []User{}
	}
	if doc.Patients == nil {
		doc.Patients = []Patient{}
	}
	if doc.Incidents == nil {
		doc.Incidents = []Incident{}
	}
	doc.Incidents = append([]Incident(nil), doc.Incidents...)
	for idx, incident := range doc.Incidents {
		if incident.Status == "" {
			incident.Status = domain.IncidentScheduled
		}
		if incident.Files == nil {
			incident.Files = []domain.IncidentFile{}
		}
		doc.Incidents[idx] = incident
	}
	return doc
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  documentState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newDocumentState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportDocument clones the current store state for external persistence.
func (s *Store) ExportDocument() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return documentFromState(s.state)
}

// ImportDocument replaces the store state with the provided document.
func (s *Store) ImportDocument(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromDocument(doc)
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the time provider; used by tests to freeze timestamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   documentState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *documentState
}

func newTransactionView(state *documentState) transactionView {
	return transactionView{state: state}
}

// ListUsers returns all users within the snapshot in insertion order.
func (v transactionView) ListUsers() []User {
	out := make([]User, 0, len(v.state.userOrder))
	for _, id := range v.state.userOrder {
		out = append(out, cloneUser(v.state.users[id]))
	}
	return out
}

// ListPatients returns all patients within the snapshot in insertion order.
func (v transactionView) ListPatients() []Patient {
	out := make([]Patient, 0, len(v.state.patientOrder))
	for _, id := range v.state.patientOrder {
		out = append(out, clonePatient(v.state.patients[id]))
	}
	return out
}

// ListIncidents returns all incidents within the snapshot in insertion order.
func (v transactionView) ListIncidents() []Incident {
	out := make([]Incident, 0, len(v.state.incidentOrder))
	for _, id := range v.state.incidentOrder {
		out = append(out, cloneIncident(v.state.incidents[id]))
	}
	return out
}

// FindUser retrieves a user by ID from the snapshot.
func (v transactionView) FindUser(id string) (User, bool) {
	u, ok := v.state.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

// FindUserByEmail scans users for an exact email match.
func (v transactionView) FindUserByEmail(email string) (User, bool) {
	for _, id := range v.state.userOrder {
		if u := v.state.users[id]; u.Email == email {
			return cloneUser(u), true
		}
	}
	return User{}, false
}

// FindPatient retrieves a patient by ID from the snapshot.
func (v transactionView) FindPatient(id string) (Patient, bool) {
	p, ok := v.state.patients[id]
	if !ok {
		return Patient{}, false
	}
	return clonePatient(p), true
}

// FindIncident retrieves an incident by ID from the snapshot.
func (v transactionView) FindIncident(id string) (Incident, bool) {
	i, ok := v.state.incidents[id]
	if !ok {
		return Incident{}, false
	}
	return cloneIncident(i), true
}

// FindIncidentsByPatient returns the patient's incidents in insertion order.
func (v transactionView) FindIncidentsByPatient(patientID string) []Incident {
	var out []Incident
	for _, id := range v.state.incidentOrder {
		if i := v.state.incidents[id]; i.PatientID == patientID {
			out = append(out, cloneIncident(i))
		}
	}
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindPatient exposes patient lookup within the transaction scope.
func (tx *transaction) FindPatient(id string) (Patient, bool) {
	p, ok := tx.state.patients[id]
	if !ok {
		return Patient{}, false
	}
	return clonePatient(p), true
}

// FindIncident exposes incident lookup within the transaction scope.
func (tx *transaction) FindIncident(id string) (Incident, bool) {
	i, ok := tx.state.incidents[id]
	if !ok {
		return Incident{}, false
	}
	return cloneIncident(i), true
}

// CreateUser stores a new login account within the transaction.
func (tx *transaction) CreateUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = tx.store.newID()
	}
	if _, exists := tx.state.users[u.ID]; exists {
		return User{}, domain.StorageError{Op: "create user", Err: errAlreadyExists(domain.EntityUser, u.ID)}
	}
	u.CreatedAt = tx.now
	u.UpdatedAt = tx.now
	tx.state.users[u.ID] = cloneUser(u)
	tx.state.userOrder = append(tx.state.userOrder, u.ID)
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionCreate, After: domain.MustChangePayload(u.Sanitize())})
	return cloneUser(u), nil
}

// UpdateUser mutates a user using the provided mutator.
func (tx *transaction) UpdateUser(id string, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[id]
	if !ok {
		return User{}, domain.ErrNotFound{Entity: domain.EntityUser, ID: id}
	}
	before := cloneUser(current)
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.users[id] = cloneUser(current)
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionUpdate, Before: domain.MustChangePayload(before.Sanitize()), After: domain.MustChangePayload(current.Sanitize())})
	return cloneUser(current), nil
}

// DeleteUser removes a login account.
func (tx *transaction) DeleteUser(id string) error {
	current, ok := tx.state.users[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityUser, ID: id}
	}
	delete(tx.state.users, id)
	tx.state.userOrder = removeID(tx.state.userOrder, id)
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionDelete, Before: domain.MustChangePayload(current.Sanitize())})
	return nil
}

// CreatePatient stores a new patient record.
func (tx *transaction) CreatePatient(p Patient) (Patient, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.patients[p.ID]; exists {
		return Patient{}, domain.StorageError{Op: "create patient", Err: errAlreadyExists(domain.EntityPatient, p.ID)}
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.patients[p.ID] = clonePatient(p)
	tx.state.patientOrder = append(tx.state.patientOrder, p.ID)
	tx.recordChange(Change{Entity: domain.EntityPatient, Action: domain.ActionCreate, After: domain.MustChangePayload(p)})
	return clonePatient(p), nil
}

// UpdatePatient mutates an existing patient record.
func (tx *transaction) UpdatePatient(id string, mutator func(*Patient) error) (Patient, error) {
	current, ok := tx.state.patients[id]
	if !ok {
		return Patient{}, domain.ErrNotFound{Entity: domain.EntityPatient, ID: id}
	}
	before := clonePatient(current)
	if err := mutator(&current); err != nil {
		return Patient{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.patients[id] = clonePatient(current)
	tx.recordChange(Change{Entity: domain.EntityPatient, Action: domain.ActionUpdate, Before: domain.MustChangePayload(before), After: domain.MustChangePayload(current)})
	return clonePatient(current), nil
}

// DeletePatient removes a patient record. Incidents referencing the patient are
// left in place; the orphan rule reports them as warnings.
func (tx *transaction) DeletePatient(id string) error {
	current, ok := tx.state.patients[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityPatient, ID: id}
	}
	delete(tx.state.patients, id)
	tx.state.patientOrder = removeID(tx.state.patientOrder, id)
	tx.recordChange(Change{Entity: domain.EntityPatient, Action: domain.ActionDelete, Before: domain.MustChangePayload(current)})
	return nil
}

// CreateIncident stores a new incident. A missing status defaults to scheduled
// and a nil file list becomes empty; the service layer forces the full
// creation contract on top of this.
func (tx *transaction) CreateIncident(i Incident) (Incident, error) {
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.incidents[i.ID]; exists {
		return Incident{}, domain.StorageError{Op: "create incident", Err: errAlreadyExists(domain.EntityIncident, i.ID)}
	}
	if i.Status == "" {
		i.Status = domain.IncidentScheduled
	}
	if i.Files == nil {
		i.Files = []domain.IncidentFile{}
	}
	i.CreatedAt = tx.now
	i.UpdatedAt = tx.now
	tx.state.incidents[i.ID] = cloneIncident(i)
	tx.state.incidentOrder = append(tx.state.incidentOrder, i.ID)
	tx.recordChange(Change{Entity: domain.EntityIncident, Action: domain.ActionCreate, After: domain.MustChangePayload(i)})
	return cloneIncident(i), nil
}

// UpdateIncident mutates an existing incident record.
func (tx *transaction) UpdateIncident(id string, mutator func(*Incident) error) (Incident, error) {
	current, ok := tx.state.incidents[id]
	if !ok {
		return Incident{}, domain.ErrNotFound{Entity: domain.EntityIncident, ID: id}
	}
	before := cloneIncident(current)
	if err := mutator(&current); err != nil {
		return Incident{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	if current.Files == nil {
		current.Files = []domain.IncidentFile{}
	}
	tx.state.incidents[id] = cloneIncident(current)
	tx.recordChange(Change{Entity: domain.EntityIncident, Action: domain.ActionUpdate, Before: domain.MustChangePayload(before), After: domain.MustChangePayload(current)})
	return cloneIncident(current), nil
}

// Read helpers ---------------------------------------------------------------

// GetUser retrieves a user by ID from committed state.
func (s *Store) GetUser(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.state.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

// ListUsers returns all users from committed state in insertion order.
func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.state.userOrder))
	for _, id := range s.state.userOrder {
		out = append(out, cloneUser(s.state.users[id]))
	}
	return out
}

// GetPatient retrieves a patient by ID from committed state.
func (s *Store) GetPatient(id string) (Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.patients[id]
	if !ok {
		return Patient{}, false
	}
	return clonePatient(p), true
}

// ListPatients returns all patients from committed state in insertion order.
func (s *Store) ListPatients() []Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Patient, 0, len(s.state.patientOrder))
	for _, id := range s.state.patientOrder {
		out = append(out, clonePatient(s.state.patients[id]))
	}
	return out
}

// GetIncident retrieves an incident by ID from committed state.
func (s *Store) GetIncident(id string) (Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.state.incidents[id]
	if !ok {
		return Incident{}, false
	}
	return cloneIncident(i), true
}

// ListIncidents returns all incidents from committed state in insertion order.
func (s *Store) ListIncidents() []Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Incident, 0, len(s.state.incidentOrder))
	for _, id := range s.state.incidentOrder {
		out = append(out, cloneIncident(s.state.incidents[id]))
	}
	return out
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
