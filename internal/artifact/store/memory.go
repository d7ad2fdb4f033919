package store

import (
	"context"
	"fmt"
	"sync"

	"deedledger/internal/artifact/models"
	"deedledger/pkg/domain"
	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
)

// InMemory keeps artifacts in a map. The store owns the canonical instances;
// everything returned to callers is a deep copy.
type InMemory struct {
	mu        sync.RWMutex
	artifacts map[domain.ArtifactID]*models.Artifact
}

func NewInMemory() *InMemory {
	return &InMemory{
		artifacts: make(map[domain.ArtifactID]*models.Artifact),
	}
}

func (s *InMemory) Create(ctx context.Context, artifact *models.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.artifacts[artifact.ID]; exists {
		return fmt.Errorf("artifact %s: %w", artifact.ID, sentinel.ErrAlreadyUsed)
	}
	s.artifacts[artifact.ID] = artifact.Clone()
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.artifacts, artifact.ID)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ArtifactID) (*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	artifact, ok := s.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", id, sentinel.ErrNotFound)
	}
	return artifact.Clone(), nil
}

// Execute holds the store lock across validate and apply, so concurrent
// mints against the same artifact serialize and capacity checks cannot race.
func (s *InMemory) Execute(ctx context.Context, id domain.ArtifactID, validate func(*models.Artifact) error, apply func(*models.Artifact)) (*models.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artifact, ok := s.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", id, sentinel.ErrNotFound)
	}
	if err := validate(artifact); err != nil {
		return nil, err
	}
	prior := artifact.Clone()
	apply(artifact)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.artifacts[id] = prior
	})
	return artifact.Clone(), nil
}
