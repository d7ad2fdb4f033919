package models

import (
	"math"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"deedledger/internal/ledger"
	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
)

// Artifact is the aggregate root for one deployed ownership artifact.
//
// Invariants:
//   - PropertyID, Kind, Name, Symbol and the supply bounds are immutable
//     after construction
//   - exactly one administrator at any time; it changes only through an
//     explicit transfer initiated by the current administrator
//   - unit artifacts never issue an identifier >= MaxSupply; identifiers are
//     strictly increasing with no gaps
//   - divisible artifacts fix their supply at construction; nothing mints
//     afterwards
//
// The issuer is informational only: it identifies the real-world rights
// holder and is granted no privilege anywhere in this service.
type Artifact struct {
	ID         domain.ArtifactID
	PropertyID domain.PropertyID
	Kind       domain.ArtifactKind
	Name       string
	Symbol     string

	Issuer     domain.Address
	Valuation  *uint256.Int
	DetailsRef string

	// BaseMetadataURI prefixes unit metadata lookups; unused for divisible.
	BaseMetadataURI string

	Administrator domain.Address

	// TotalSupply is the nominal (unscaled) fixed supply of a divisible
	// artifact; zero for unit artifacts.
	TotalSupply uint64

	alloc *UnitAllocator // unit artifacts only

	CreatedAt time.Time
	UpdatedAt time.Time
}

// maxStorableSupply is the largest supply the BIGINT columns can hold;
// anything above it would flip negative on the way into storage.
const maxStorableSupply = math.MaxInt64

// NewDivisible constructs a divisible artifact. The designated administrator
// receives control immediately; the caller is responsible for minting the
// scaled supply to it in the same operation.
func NewDivisible(id domain.ArtifactID, propertyID domain.PropertyID, name, symbol string, totalSupply uint64, issuer domain.Address, valuation *uint256.Int, detailsRef string, administrator domain.Address, now time.Time) (*Artifact, error) {
	if err := validateCommon(propertyID, name, symbol, issuer, valuation); err != nil {
		return nil, err
	}
	if totalSupply == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "total supply must be positive")
	}
	if totalSupply > maxStorableSupply {
		return nil, dErrors.New(dErrors.CodeValidation, "total supply exceeds the storable maximum")
	}
	if administrator.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "administrator is required")
	}
	return &Artifact{
		ID:            id,
		PropertyID:    propertyID,
		Kind:          domain.KindDivisible,
		Name:          name,
		Symbol:        symbol,
		Issuer:        issuer,
		Valuation:     new(uint256.Int).Set(valuation),
		DetailsRef:    detailsRef,
		Administrator: administrator,
		TotalSupply:   totalSupply,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewUnit constructs a unit artifact. The administrator defaults to the
// constructing party; delegation to the intended administrator is a second,
// explicit step (see the registry's creation flow).
func NewUnit(id domain.ArtifactID, propertyID domain.PropertyID, name, symbol string, maxSupply uint64, issuer domain.Address, valuation *uint256.Int, detailsRef, baseMetadataURI string, creator domain.Address, now time.Time) (*Artifact, error) {
	if err := validateCommon(propertyID, name, symbol, issuer, valuation); err != nil {
		return nil, err
	}
	if maxSupply == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "max supply must be positive")
	}
	if maxSupply > maxStorableSupply {
		return nil, dErrors.New(dErrors.CodeValidation, "max supply exceeds the storable maximum")
	}
	if creator.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "creator is required")
	}
	return &Artifact{
		ID:              id,
		PropertyID:      propertyID,
		Kind:            domain.KindUnit,
		Name:            name,
		Symbol:          symbol,
		Issuer:          issuer,
		Valuation:       new(uint256.Int).Set(valuation),
		DetailsRef:      detailsRef,
		BaseMetadataURI: baseMetadataURI,
		Administrator:   creator,
		alloc:           NewUnitAllocator(maxSupply),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Restore rehydrates an artifact from persisted state without validation.
// Store use only.
func Restore(id domain.ArtifactID, propertyID domain.PropertyID, kind domain.ArtifactKind, name, symbol string, issuer domain.Address, valuation *uint256.Int, detailsRef, baseMetadataURI string, administrator domain.Address, totalSupply, maxSupply, issued uint64, createdAt, updatedAt time.Time) *Artifact {
	a := &Artifact{
		ID:              id,
		PropertyID:      propertyID,
		Kind:            kind,
		Name:            name,
		Symbol:          symbol,
		Issuer:          issuer,
		Valuation:       valuation,
		DetailsRef:      detailsRef,
		BaseMetadataURI: baseMetadataURI,
		Administrator:   administrator,
		TotalSupply:     totalSupply,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
	if kind == domain.KindUnit {
		a.alloc = RestoreUnitAllocator(issued, maxSupply)
	}
	return a
}

func validateCommon(propertyID domain.PropertyID, name, symbol string, issuer domain.Address, valuation *uint256.Int) error {
	if propertyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "property id is required")
	}
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(symbol) == "" {
		return dErrors.New(dErrors.CodeValidation, "symbol is required")
	}
	if issuer.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "issuer is required")
	}
	if valuation == nil {
		return dErrors.New(dErrors.CodeValidation, "valuation is required")
	}
	return nil
}

// RequireAdministrator is the capability check guarding every privileged
// operation on the artifact.
func (a *Artifact) RequireAdministrator(caller domain.Address) error {
	if caller.IsNil() || caller != a.Administrator {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the artifact administrator")
	}
	return nil
}

// CanTransferAdministration checks the hand-off target.
func (a *Artifact) CanTransferAdministration(to domain.Address) error {
	if to.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "transfer target is required")
	}
	if to == a.Administrator {
		return dErrors.New(dErrors.CodeInvariantViolation, "target already administers this artifact")
	}
	return nil
}

// ApplyTransferAdministration hands control to a new administrator.
// Call CanTransferAdministration first.
func (a *Artifact) ApplyTransferAdministration(to domain.Address, now time.Time) {
	a.Administrator = to
	a.UpdatedAt = now
}

// ApplyDetailsUpdate replaces the off-chain details reference.
func (a *Artifact) ApplyDetailsUpdate(ref string, now time.Time) {
	a.DetailsRef = ref
	a.UpdatedAt = now
}

// CanSetBaseMetadataURI rejects the operation on divisible artifacts, which
// have no unit metadata to resolve.
func (a *Artifact) CanSetBaseMetadataURI() error {
	if a.Kind != domain.KindUnit {
		return dErrors.New(dErrors.CodeInvariantViolation, "only unit artifacts carry a metadata URI")
	}
	return nil
}

// ApplyBaseMetadataURI replaces the metadata URI prefix.
func (a *Artifact) ApplyBaseMetadataURI(uri string, now time.Time) {
	a.BaseMetadataURI = uri
	a.UpdatedAt = now
}

// CanAllocate checks unit capacity for n identifiers.
func (a *Artifact) CanAllocate(n uint64) error {
	if a.Kind != domain.KindUnit {
		return dErrors.New(dErrors.CodeInvariantViolation, "divisible artifacts mint only at construction")
	}
	return a.alloc.CanAllocate(n)
}

// ApplyAllocate advances the allocator by n and returns the first identifier
// of the range. Call CanAllocate first under the same lock.
func (a *Artifact) ApplyAllocate(n uint64, now time.Time) uint64 {
	start, _ := a.alloc.Allocate(n)
	a.UpdatedAt = now
	return start
}

// Issued returns how many unit identifiers have been allocated.
func (a *Artifact) Issued() uint64 {
	if a.alloc == nil {
		return 0
	}
	return a.alloc.Issued()
}

// MaxSupply returns the unit identifier cap; zero for divisible artifacts.
func (a *Artifact) MaxSupply() uint64 {
	if a.alloc == nil {
		return 0
	}
	return a.alloc.Max()
}

// PrimarySize is the headline size of the artifact: total supply for
// divisible, max supply for unit.
func (a *Artifact) PrimarySize() uint64 {
	if a.Kind == domain.KindDivisible {
		return a.TotalSupply
	}
	return a.MaxSupply()
}

// ScaledInitialSupply returns TotalSupply * 10^18, the amount minted to the
// administrator when a divisible artifact is constructed.
func (a *Artifact) ScaledInitialSupply() *uint256.Int {
	supply := uint256.NewInt(a.TotalSupply)
	return supply.Mul(supply, ledger.PrecisionFactor())
}

// Clone returns a deep copy so store callers never alias live state.
func (a *Artifact) Clone() *Artifact {
	c := *a
	if a.Valuation != nil {
		c.Valuation = new(uint256.Int).Set(a.Valuation)
	}
	c.alloc = a.alloc.clone()
	return &c
}
