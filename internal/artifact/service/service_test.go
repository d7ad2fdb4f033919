package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"deedledger/internal/artifact/models"
	"deedledger/internal/artifact/store"
	"deedledger/internal/events"
	"deedledger/internal/ledger"
	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/requestcontext"
)

const (
	admin  = domain.Address("authority")
	holder = domain.Address("investor-1")
)

type ArtifactServiceSuite struct {
	suite.Suite
	artifacts *store.InMemory
	units     *ledger.InMemoryUnitLedger
	publisher *events.InMemoryPublisher
	service   *Service
	now       time.Time
}

func TestArtifactServiceSuite(t *testing.T) {
	suite.Run(t, new(ArtifactServiceSuite))
}

func (s *ArtifactServiceSuite) SetupTest() {
	s.artifacts = store.NewInMemory()
	s.units = ledger.NewInMemoryUnitLedger()
	s.publisher = events.NewInMemoryPublisher()
	s.service = New(s.artifacts, s.units, s.publisher)
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ArtifactServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ArtifactServiceSuite) seedUnit(maxSupply uint64) domain.ArtifactID {
	artifact, err := models.NewUnit(domain.NewArtifactID(), "prop-1", "Dock Berths", "DB",
		maxSupply, "issuer-1", uint256.NewInt(90_000), "ipfs://details", "https://meta.example/", admin, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.artifacts.Create(context.Background(), artifact))
	return artifact.ID
}

func (s *ArtifactServiceSuite) seedDivisible() domain.ArtifactID {
	artifact, err := models.NewDivisible(domain.NewArtifactID(), "prop-2", "Harbor House", "HH",
		1000, "issuer-1", uint256.NewInt(500_000), "ipfs://details", admin, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.artifacts.Create(context.Background(), artifact))
	return artifact.ID
}

func (s *ArtifactServiceSuite) TestMintOne() {
	s.Run("assigns consecutive identifiers starting at zero", func() {
		id := s.seedUnit(3)

		first, err := s.service.MintOne(s.ctx(), admin, id, holder)
		s.Require().NoError(err)
		s.Equal(uint64(0), first)

		second, err := s.service.MintOne(s.ctx(), admin, id, holder)
		s.Require().NoError(err)
		s.Equal(uint64(1), second)

		owner, err := s.units.OwnerOf(s.ctx(), id, 0)
		s.NoError(err)
		s.Equal(holder, owner)
	})

	s.Run("non-administrator is rejected", func() {
		id := s.seedUnit(3)
		_, err := s.service.MintOne(s.ctx(), holder, id, holder)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		artifact, err := s.service.Get(s.ctx(), id)
		s.Require().NoError(err)
		s.Equal(uint64(0), artifact.Issued())
	})

	s.Run("minting past the cap fails and leaves state unchanged", func() {
		id := s.seedUnit(1)
		_, err := s.service.MintOne(s.ctx(), admin, id, holder)
		s.Require().NoError(err)

		_, err = s.service.MintOne(s.ctx(), admin, id, holder)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))

		artifact, err := s.service.Get(s.ctx(), id)
		s.Require().NoError(err)
		s.Equal(uint64(1), artifact.Issued())
	})

	s.Run("divisible artifacts do not mint", func() {
		id := s.seedDivisible()
		_, err := s.service.MintOne(s.ctx(), admin, id, holder)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("unknown artifact is not found", func() {
		_, err := s.service.MintOne(s.ctx(), admin, domain.NewArtifactID(), holder)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing recipient is a validation error", func() {
		id := s.seedUnit(1)
		_, err := s.service.MintOne(s.ctx(), admin, id, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ArtifactServiceSuite) TestMintBatch() {
	s.Run("allocates a contiguous range and emits one event per unit in order", func() {
		id := s.seedUnit(5)

		unitIDs, err := s.service.MintBatch(s.ctx(), admin, id, holder, 3)
		s.Require().NoError(err)
		s.Equal([]uint64{0, 1, 2}, unitIDs)

		minted := s.publisher.OfType(events.TypeUnitMinted)
		s.Require().Len(minted, 3)
		for i, e := range minted {
			s.Require().NotNil(e.UnitID)
			s.Equal(uint64(i), *e.UnitID)
			s.Equal(holder, e.To)
			s.Equal(id, e.ArtifactID)
		}
	})

	s.Run("batch exactly filling the remainder succeeds", func() {
		id := s.seedUnit(3)
		_, err := s.service.MintBatch(s.ctx(), admin, id, holder, 3)
		s.NoError(err)
	})

	s.Run("oversized batch is all-or-nothing", func() {
		id := s.seedUnit(3)
		_, err := s.service.MintBatch(s.ctx(), admin, id, holder, 2)
		s.Require().NoError(err)

		_, err = s.service.MintBatch(s.ctx(), admin, id, holder, 2)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))

		artifact, err := s.service.Get(s.ctx(), id)
		s.Require().NoError(err)
		s.Equal(uint64(2), artifact.Issued())

		// No identifier from the failed batch exists.
		_, err = s.units.OwnerOf(s.ctx(), id, 2)
		s.Error(err)

		// The next batch resumes where the committed allocation left off.
		unitIDs, err := s.service.MintBatch(s.ctx(), admin, id, holder, 1)
		s.Require().NoError(err)
		s.Equal([]uint64{2}, unitIDs)
	})

	s.Run("zero count is a validation error", func() {
		id := s.seedUnit(3)
		_, err := s.service.MintBatch(s.ctx(), admin, id, holder, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("batch above the per-request limit is rejected before allocating", func() {
		id := s.seedUnit(maxBatchMint * 10)
		_, err := s.service.MintBatch(s.ctx(), admin, id, holder, maxBatchMint+1)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		artifact, err := s.service.Get(s.ctx(), id)
		s.Require().NoError(err)
		s.Equal(uint64(0), artifact.Issued())
	})
}

// brokenPublisher fails every publish.
type brokenPublisher struct{}

func (brokenPublisher) Publish(context.Context, events.Event) error {
	return errors.New("broker unavailable")
}

func (brokenPublisher) Close() error { return nil }

func (s *ArtifactServiceSuite) TestUpdateDetails() {
	s.Run("administrator updates the reference and an event is emitted", func() {
		id := s.seedUnit(3)
		artifact, err := s.service.UpdateDetails(s.ctx(), admin, id, "ipfs://v2")
		s.Require().NoError(err)
		s.Equal("ipfs://v2", artifact.DetailsRef)

		updated := s.publisher.OfType(events.TypeDetailsUpdated)
		s.Require().Len(updated, 1)
		s.Equal("ipfs://v2", updated[0].DetailsRef)
	})

	s.Run("non-administrator is rejected", func() {
		id := s.seedUnit(3)
		_, err := s.service.UpdateDetails(s.ctx(), holder, id, "ipfs://v2")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("publish failure reverts the stored reference", func() {
		id := s.seedUnit(3)
		svc := New(s.artifacts, s.units, brokenPublisher{})

		_, err := svc.UpdateDetails(s.ctx(), admin, id, "ipfs://v2")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		artifact, err := s.service.Get(s.ctx(), id)
		s.Require().NoError(err)
		s.Equal("ipfs://details", artifact.DetailsRef)
	})
}

func (s *ArtifactServiceSuite) TestTransferAdministration() {
	s.Run("hands control and emits the transfer event", func() {
		id := s.seedUnit(3)
		artifact, err := s.service.TransferAdministration(s.ctx(), admin, id, "successor")
		s.Require().NoError(err)
		s.Equal(domain.Address("successor"), artifact.Administrator)

		transferred := s.publisher.OfType(events.TypeAdministrationTransferred)
		s.Require().Len(transferred, 1)
		s.Equal(admin, transferred[0].From)
		s.Equal(domain.Address("successor"), transferred[0].To)

		// Old administrator can no longer mint.
		_, err = s.service.MintOne(s.ctx(), admin, id, holder)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		// The successor can.
		_, err = s.service.MintOne(s.ctx(), "successor", id, holder)
		s.NoError(err)
	})

	s.Run("only the administrator may initiate", func() {
		id := s.seedUnit(3)
		_, err := s.service.TransferAdministration(s.ctx(), holder, id, "successor")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("publish failure leaves the current administrator in place", func() {
		id := s.seedUnit(3)
		svc := New(s.artifacts, s.units, brokenPublisher{})

		_, err := svc.TransferAdministration(s.ctx(), admin, id, "successor")
		s.Require().Error(err)

		// The hand-off never happened: the incumbent still mints.
		_, err = s.service.MintOne(s.ctx(), admin, id, holder)
		s.NoError(err)
		_, err = s.service.MintOne(s.ctx(), "successor", id, holder)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ArtifactServiceSuite) TestUnitMetadataURI() {
	s.Run("resolves base URI plus unit id for assigned units", func() {
		id := s.seedUnit(3)
		unitID, err := s.service.MintOne(s.ctx(), admin, id, holder)
		s.Require().NoError(err)

		uri, err := s.service.UnitMetadataURI(s.ctx(), id, unitID)
		s.NoError(err)
		s.Equal("https://meta.example/0", uri)
	})

	s.Run("unassigned unit is not found", func() {
		id := s.seedUnit(3)
		_, err := s.service.UnitMetadataURI(s.ctx(), id, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
