package state

import (
	"context"
	"sync"

	"dentalcore/pkg/domain"
)

// Source supplies the collections for the initial load. *core.Service
// satisfies it.
type Source interface {
	ListPatients(ctx context.Context) []domain.Patient
	ListIncidents(ctx context.Context) []domain.Incident
}

// Cache wraps the reducer with a concurrency-safe current state.
type Cache struct {
	mu    sync.RWMutex
	state State
}

// NewCache returns a cache in the loading state.
func NewCache() *Cache {
	return &Cache{state: Initial()}
}

// Load reads both collections from the source and dispatches SetData.
func (c *Cache) Load(ctx context.Context, source Source) State {
	return c.Dispatch(SetData{
		Patients:  source.ListPatients(ctx),
		Incidents: source.ListIncidents(ctx),
	})
}

// Dispatch reduces the action into the cache and returns the new state.
func (c *Cache) Dispatch(action Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, action)
	return c.state.Clone()
}

// State returns a copy of the current state.
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}
