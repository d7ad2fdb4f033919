package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"deedledger/pkg/domain"
	"deedledger/pkg/platform/sentinel"
	"deedledger/pkg/platform/tx"
)

type FungibleLedgerSuite struct {
	suite.Suite
	ledger   *InMemoryFungibleLedger
	artifact domain.ArtifactID
}

func TestFungibleLedgerSuite(t *testing.T) {
	suite.Run(t, new(FungibleLedgerSuite))
}

func (s *FungibleLedgerSuite) SetupTest() {
	s.ledger = NewInMemoryFungibleLedger()
	s.artifact = domain.NewArtifactID()
}

func (s *FungibleLedgerSuite) TestMintInitial() {
	ctx := context.Background()

	s.Run("credits the full supply to one holder", func() {
		amount := uint256.NewInt(1000)
		s.Require().NoError(s.ledger.MintInitial(ctx, s.artifact, "authority", amount))

		bal, err := s.ledger.BalanceOf(ctx, s.artifact, "authority")
		s.NoError(err)
		s.Equal(amount, bal)

		supply, err := s.ledger.TotalSupply(ctx, s.artifact)
		s.NoError(err)
		s.Equal(amount, supply)
	})

	s.Run("second initial mint for the same artifact is rejected", func() {
		err := s.ledger.MintInitial(ctx, s.artifact, "authority", uint256.NewInt(1))
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("zero amount is rejected", func() {
		err := s.ledger.MintInitial(ctx, domain.NewArtifactID(), "authority", uint256.NewInt(0))
		s.Error(err)
	})

	s.Run("an aborted transaction reverts the mint", func() {
		artifact := domain.NewArtifactID()
		err := tx.NoopRunner{}.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.ledger.MintInitial(ctx, artifact, "authority", uint256.NewInt(500)); err != nil {
				return err
			}
			return errors.New("later step failed")
		})
		s.Require().Error(err)

		supply, err := s.ledger.TotalSupply(ctx, artifact)
		s.NoError(err)
		s.True(supply.IsZero())
		// The artifact can mint again once the failed operation retries.
		s.NoError(s.ledger.MintInitial(ctx, artifact, "authority", uint256.NewInt(500)))
	})
}

func (s *FungibleLedgerSuite) TestTransfer() {
	ctx := context.Background()
	s.Require().NoError(s.ledger.MintInitial(ctx, s.artifact, "authority", uint256.NewInt(100)))

	s.Run("moves balance between holders", func() {
		s.Require().NoError(s.ledger.Transfer(ctx, s.artifact, "authority", "investor", uint256.NewInt(40)))

		from, _ := s.ledger.BalanceOf(ctx, s.artifact, "authority")
		to, _ := s.ledger.BalanceOf(ctx, s.artifact, "investor")
		s.Equal(uint256.NewInt(60), from)
		s.Equal(uint256.NewInt(40), to)

		// Supply is conserved.
		supply, _ := s.ledger.TotalSupply(ctx, s.artifact)
		s.Equal(uint256.NewInt(100), supply)
	})

	s.Run("insufficient balance is rejected", func() {
		err := s.ledger.Transfer(ctx, s.artifact, "investor", "authority", uint256.NewInt(1000))
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown artifact is rejected", func() {
		err := s.ledger.Transfer(ctx, domain.NewArtifactID(), "a", "b", uint256.NewInt(1))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

type UnitLedgerSuite struct {
	suite.Suite
	ledger   *InMemoryUnitLedger
	artifact domain.ArtifactID
}

func TestUnitLedgerSuite(t *testing.T) {
	suite.Run(t, new(UnitLedgerSuite))
}

func (s *UnitLedgerSuite) SetupTest() {
	s.ledger = NewInMemoryUnitLedger()
	s.artifact = domain.NewArtifactID()
}

func (s *UnitLedgerSuite) TestAssign() {
	ctx := context.Background()

	s.Run("records ownership of a fresh unit", func() {
		s.Require().NoError(s.ledger.Assign(ctx, s.artifact, "holder-1", 0))
		owner, err := s.ledger.OwnerOf(ctx, s.artifact, 0)
		s.NoError(err)
		s.Equal(domain.Address("holder-1"), owner)
	})

	s.Run("assigning a taken unit fails", func() {
		err := s.ledger.Assign(ctx, s.artifact, "holder-2", 0)
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("unassigned unit has no owner", func() {
		_, err := s.ledger.OwnerOf(ctx, s.artifact, 42)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *UnitLedgerSuite) TestTransfer() {
	ctx := context.Background()
	s.Require().NoError(s.ledger.Assign(ctx, s.artifact, "holder-1", 0))

	s.Run("owner may transfer", func() {
		s.Require().NoError(s.ledger.Transfer(ctx, s.artifact, "holder-1", "holder-2", 0))
		owner, _ := s.ledger.OwnerOf(ctx, s.artifact, 0)
		s.Equal(domain.Address("holder-2"), owner)
	})

	s.Run("non-owner may not transfer", func() {
		err := s.ledger.Transfer(ctx, s.artifact, "holder-1", "holder-3", 0)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *UnitLedgerSuite) TestHoldingsOf() {
	ctx := context.Background()
	for _, unitID := range []uint64{5, 1, 3} {
		s.Require().NoError(s.ledger.Assign(ctx, s.artifact, "holder-1", unitID))
	}
	s.Require().NoError(s.ledger.Assign(ctx, s.artifact, "holder-2", 2))

	held, err := s.ledger.HoldingsOf(ctx, s.artifact, "holder-1")
	s.NoError(err)
	s.Equal([]uint64{1, 3, 5}, held)
}
