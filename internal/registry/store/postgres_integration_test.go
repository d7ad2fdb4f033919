//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"deedledger/internal/registry/models"
	"deedledger/internal/registry/store"
	"deedledger/pkg/domain"
	"deedledger/pkg/platform/sentinel"
	"deedledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "property_records", "artifacts"))
}

func newRecord(propertyID string) *models.PropertyRecord {
	return &models.PropertyRecord{
		PropertyID: domain.PropertyID(propertyID),
		ArtifactID: domain.NewArtifactID(),
		Kind:       domain.KindDivisible,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	record := newRecord("P-100")
	s.Require().NoError(s.store.Create(ctx, record))

	got, err := s.store.FindByID(ctx, "P-100")
	s.Require().NoError(err)
	s.Equal(record.PropertyID, got.PropertyID)
	s.Equal(record.ArtifactID, got.ArtifactID)
	s.Equal(record.Kind, got.Kind)

	_, err = s.store.FindByID(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateCreate() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newRecord("P-100")))

	err := s.store.Create(ctx, newRecord("P-100"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

// TestConcurrentDuplicateCreate verifies that racing registrations of the
// same property id produce exactly one record.
func (s *PostgresStoreSuite) TestConcurrentDuplicateCreate() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newRecord("P-RACE"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflictCount.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *PostgresStoreSuite) TestListOrderAndCount() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, id := range []string{"P-1", "P-2", "P-3"} {
		record := newRecord(id)
		record.CreatedAt = base.Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.store.Create(ctx, record))
	}

	records, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal(domain.PropertyID("P-1"), records[0].PropertyID)
	s.Equal(domain.PropertyID("P-3"), records[2].PropertyID)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), count)
}
