// Package store persists the property registry mapping. Create is the
// uniqueness commit point: when two creations race for one property id,
// exactly one Create succeeds and the loser sees sentinel.ErrAlreadyUsed.
package store

import (
	"context"

	"deedledger/internal/registry/models"
	"deedledger/pkg/domain"
)

// Store is the registry persistence boundary.
type Store interface {
	// Create inserts the record if the property id is unused; returns
	// sentinel.ErrAlreadyUsed otherwise. The registry is append-only: there
	// is no update and no delete.
	Create(ctx context.Context, record *models.PropertyRecord) error
	FindByID(ctx context.Context, propertyID domain.PropertyID) (*models.PropertyRecord, error)
	// List returns all records in registration order.
	List(ctx context.Context) ([]*models.PropertyRecord, error)
	Count(ctx context.Context) (int64, error)
}
