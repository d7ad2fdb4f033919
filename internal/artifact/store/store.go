// Package store persists artifacts. Implementations serialize all writes to
// a given artifact behind their own mutual-exclusion boundary (mutex or row
// lock) so the aggregate's atomicity invariants hold under real parallelism.
package store

import (
	"context"

	"deedledger/internal/artifact/models"
	"deedledger/pkg/domain"
)

// Store is the artifact persistence boundary.
//
// Execute runs validate-then-apply atomically under the store's lock for the
// target artifact: validate rejects without mutation, apply mutates the live
// record, and the returned artifact reflects the committed state. This is
// how allocation stays all-or-nothing under concurrent minting.
type Store interface {
	Create(ctx context.Context, artifact *models.Artifact) error
	FindByID(ctx context.Context, id domain.ArtifactID) (*models.Artifact, error)
	Execute(ctx context.Context, id domain.ArtifactID, validate func(*models.Artifact) error, apply func(*models.Artifact)) (*models.Artifact, error)
}
