// Package ledger defines the token-interface collaborators the registry core
// composes with. Fungible balance semantics and unit ownership semantics are
// deliberately outside the core: artifacts call through these interfaces and
// never reach into ledger internals.
package ledger

import (
	"context"

	"github.com/holiman/uint256"

	"deedledger/pkg/domain"
)

// Decimals is the fixed precision of every divisible artifact. A nominal
// total supply of N mints N * 10^Decimals base units.
const Decimals = 18

// PrecisionFactor returns 10^Decimals as a 256-bit integer.
func PrecisionFactor() *uint256.Int {
	factor := uint256.NewInt(10)
	return factor.Exp(factor, uint256.NewInt(Decimals))
}

// FungibleLedger tracks divisible balances per artifact. Implementations
// must reject a second initial mint for the same artifact.
type FungibleLedger interface {
	// MintInitial credits the entire initial supply (already scaled by the
	// precision factor) to one holder. Exactly once per artifact.
	MintInitial(ctx context.Context, artifact domain.ArtifactID, to domain.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, artifact domain.ArtifactID, from, to domain.Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, artifact domain.ArtifactID, holder domain.Address) (*uint256.Int, error)
	TotalSupply(ctx context.Context, artifact domain.ArtifactID) (*uint256.Int, error)
}

// UnitLedger tracks discrete unit ownership per artifact. Unit identifiers
// are allocated by the artifact's allocator; the ledger only records the
// resulting assignment.
type UnitLedger interface {
	// Assign records ownership of a freshly allocated unit. Assigning an
	// already-assigned unit is an invariant violation.
	Assign(ctx context.Context, artifact domain.ArtifactID, to domain.Address, unitID uint64) error
	OwnerOf(ctx context.Context, artifact domain.ArtifactID, unitID uint64) (domain.Address, error)
	Transfer(ctx context.Context, artifact domain.ArtifactID, from, to domain.Address, unitID uint64) error
	HoldingsOf(ctx context.Context, artifact domain.ArtifactID, holder domain.Address) ([]uint64, error)
}
