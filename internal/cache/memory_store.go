package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/epeers/debtimport/internal/models"
	"github.com/epeers/debtimport/internal/repository"
)

// MemoryStore keeps debtor and entity aggregates in process memory. It
// applies the same merge policy as the database repositories and is used
// for dry runs and tests.
type MemoryStore struct {
	debtors  map[string]models.Debtor
	entities map[string]models.Entity
	debtorMu sync.RWMutex
	entityMu sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		debtors:  make(map[string]models.Debtor),
		entities: make(map[string]models.Entity),
	}
}

// Debtors returns the debtor side of the store
func (c *MemoryStore) Debtors() *MemoryDebtorStore {
	return &MemoryDebtorStore{c: c}
}

// Entities returns the entity side of the store
func (c *MemoryStore) Entities() *MemoryEntityStore {
	return &MemoryEntityStore{c: c}
}

// Clear removes all stored data
func (c *MemoryStore) Clear() {
	c.debtorMu.Lock()
	c.debtors = make(map[string]models.Debtor)
	c.debtorMu.Unlock()

	c.entityMu.Lock()
	c.entities = make(map[string]models.Entity)
	c.entityMu.Unlock()
}

// MemoryDebtorStore is the debtor view of a MemoryStore
type MemoryDebtorStore struct {
	c *MemoryStore
}

// GetByID returns a copy of the stored debtor
func (s *MemoryDebtorStore) GetByID(_ context.Context, id string) (*models.Debtor, error) {
	s.c.debtorMu.RLock()
	defer s.c.debtorMu.RUnlock()

	d, exists := s.c.debtors[id]
	if !exists {
		return nil, repository.ErrDebtorNotFound
	}
	return &d, nil
}

// SaveOrUpdate merges the candidate into the stored debtor
func (s *MemoryDebtorStore) SaveOrUpdate(_ context.Context, candidate *models.Debtor) (*models.Debtor, error) {
	s.c.debtorMu.Lock()
	defer s.c.debtorMu.Unlock()

	var existing *models.Debtor
	if d, exists := s.c.debtors[candidate.ID]; exists {
		existing = &d
	}
	merged := models.MergeDebtor(existing, candidate)
	s.c.debtors[merged.ID] = *merged

	out := *merged
	return &out, nil
}

// List returns all stored debtors ordered by id
func (s *MemoryDebtorStore) List() []models.Debtor {
	s.c.debtorMu.RLock()
	defer s.c.debtorMu.RUnlock()

	out := make([]models.Debtor, 0, len(s.c.debtors))
	for _, d := range s.c.debtors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MemoryEntityStore is the entity view of a MemoryStore
type MemoryEntityStore struct {
	c *MemoryStore
}

// GetByID returns a copy of the stored entity
func (s *MemoryEntityStore) GetByID(_ context.Context, code string) (*models.Entity, error) {
	s.c.entityMu.RLock()
	defer s.c.entityMu.RUnlock()

	e, exists := s.c.entities[code]
	if !exists {
		return nil, repository.ErrEntityNotFound
	}
	return &e, nil
}

// SaveOrUpdate adds the candidate's total to the stored entity
func (s *MemoryEntityStore) SaveOrUpdate(_ context.Context, candidate *models.Entity) (*models.Entity, error) {
	s.c.entityMu.Lock()
	defer s.c.entityMu.Unlock()

	var existing *models.Entity
	if e, exists := s.c.entities[candidate.ID]; exists {
		existing = &e
	}
	merged := models.MergeEntity(existing, candidate)
	s.c.entities[merged.ID] = *merged

	out := *merged
	return &out, nil
}

// List returns all stored entities ordered by code
func (s *MemoryEntityStore) List() []models.Entity {
	s.c.entityMu.RLock()
	defer s.c.entityMu.RUnlock()

	out := make([]models.Entity, 0, len(s.c.entities))
	for _, e := range s.c.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
