package store

import (
	"context"
	"fmt"
	"sync"

	"deedledger/internal/registry/models"
	"deedledger/pkg/domain"
	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
)

// InMemory keeps the registry mapping in a map, with insertion order
// preserved for enumeration. Records are value-copied both ways; the map is
// the single owner of the mapping.
type InMemory struct {
	mu      sync.RWMutex
	records map[domain.PropertyID]models.PropertyRecord
	order   []domain.PropertyID
}

func NewInMemory() *InMemory {
	return &InMemory{
		records: make(map[domain.PropertyID]models.PropertyRecord),
	}
}

func (s *InMemory) Create(ctx context.Context, record *models.PropertyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.PropertyID]; exists {
		return fmt.Errorf("property %s: %w", record.PropertyID, sentinel.ErrAlreadyUsed)
	}
	s.records[record.PropertyID] = *record
	s.order = append(s.order, record.PropertyID)
	txcontext.OnRollback(ctx, func() { s.remove(record.PropertyID) })
	return nil
}

// remove compensates an aborted registration. Only the transaction unwinder
// calls it; the registry itself stays append-only.
func (s *InMemory) remove(propertyID domain.PropertyID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, propertyID)
	for i, id := range s.order {
		if id == propertyID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *InMemory) FindByID(_ context.Context, propertyID domain.PropertyID) (*models.PropertyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[propertyID]
	if !ok {
		return nil, fmt.Errorf("property %s: %w", propertyID, sentinel.ErrNotFound)
	}
	return &record, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.PropertyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PropertyRecord, 0, len(s.order))
	for _, id := range s.order {
		record := s.records[id]
		out = append(out, &record)
	}
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}
