package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"deedledger/pkg/domain"
	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
)

// InMemoryFungibleLedger is the reference fungible collaborator. Balances are
// 256-bit unsigned integers; arithmetic never wraps silently.
type InMemoryFungibleLedger struct {
	mu       sync.RWMutex
	balances map[domain.ArtifactID]map[domain.Address]*uint256.Int
	supplies map[domain.ArtifactID]*uint256.Int
}

func NewInMemoryFungibleLedger() *InMemoryFungibleLedger {
	return &InMemoryFungibleLedger{
		balances: make(map[domain.ArtifactID]map[domain.Address]*uint256.Int),
		supplies: make(map[domain.ArtifactID]*uint256.Int),
	}
}

func (l *InMemoryFungibleLedger) MintInitial(ctx context.Context, artifact domain.ArtifactID, to domain.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("initial mint amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.supplies[artifact]; exists {
		return fmt.Errorf("artifact %s: %w", artifact, sentinel.ErrInvalidState)
	}
	l.supplies[artifact] = new(uint256.Int).Set(amount)
	l.balances[artifact] = map[domain.Address]*uint256.Int{
		to: new(uint256.Int).Set(amount),
	}
	txcontext.OnRollback(ctx, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.supplies, artifact)
		delete(l.balances, artifact)
	})
	return nil
}

func (l *InMemoryFungibleLedger) Transfer(_ context.Context, artifact domain.ArtifactID, from, to domain.Address, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("transfer amount is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	holders, ok := l.balances[artifact]
	if !ok {
		return fmt.Errorf("artifact %s: %w", artifact, sentinel.ErrNotFound)
	}
	fromBal := holders[from]
	if fromBal == nil || fromBal.Lt(amount) {
		return fmt.Errorf("insufficient balance: %w", sentinel.ErrInvalidState)
	}
	fromBal.Sub(fromBal, amount)
	if toBal := holders[to]; toBal != nil {
		toBal.Add(toBal, amount)
	} else {
		holders[to] = new(uint256.Int).Set(amount)
	}
	return nil
}

func (l *InMemoryFungibleLedger) BalanceOf(_ context.Context, artifact domain.ArtifactID, holder domain.Address) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if holders, ok := l.balances[artifact]; ok {
		if bal := holders[holder]; bal != nil {
			return new(uint256.Int).Set(bal), nil
		}
	}
	return uint256.NewInt(0), nil
}

func (l *InMemoryFungibleLedger) TotalSupply(_ context.Context, artifact domain.ArtifactID) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if supply, ok := l.supplies[artifact]; ok {
		return new(uint256.Int).Set(supply), nil
	}
	return uint256.NewInt(0), nil
}

// InMemoryUnitLedger is the reference unit-ownership collaborator.
type InMemoryUnitLedger struct {
	mu     sync.RWMutex
	owners map[domain.ArtifactID]map[uint64]domain.Address
}

func NewInMemoryUnitLedger() *InMemoryUnitLedger {
	return &InMemoryUnitLedger{
		owners: make(map[domain.ArtifactID]map[uint64]domain.Address),
	}
}

func (l *InMemoryUnitLedger) Assign(_ context.Context, artifact domain.ArtifactID, to domain.Address, unitID uint64) error {
	if to.IsNil() {
		return fmt.Errorf("assignment target is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	units := l.owners[artifact]
	if units == nil {
		units = make(map[uint64]domain.Address)
		l.owners[artifact] = units
	}
	if _, taken := units[unitID]; taken {
		return fmt.Errorf("unit %d: %w", unitID, sentinel.ErrAlreadyUsed)
	}
	units[unitID] = to
	return nil
}

func (l *InMemoryUnitLedger) OwnerOf(_ context.Context, artifact domain.ArtifactID, unitID uint64) (domain.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if units, ok := l.owners[artifact]; ok {
		if owner, assigned := units[unitID]; assigned {
			return owner, nil
		}
	}
	return "", fmt.Errorf("unit %d: %w", unitID, sentinel.ErrNotFound)
}

func (l *InMemoryUnitLedger) Transfer(_ context.Context, artifact domain.ArtifactID, from, to domain.Address, unitID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	units, ok := l.owners[artifact]
	if !ok {
		return fmt.Errorf("artifact %s: %w", artifact, sentinel.ErrNotFound)
	}
	owner, assigned := units[unitID]
	if !assigned {
		return fmt.Errorf("unit %d: %w", unitID, sentinel.ErrNotFound)
	}
	if owner != from {
		return fmt.Errorf("unit %d not held by %s: %w", unitID, from, sentinel.ErrInvalidState)
	}
	units[unitID] = to
	return nil
}

func (l *InMemoryUnitLedger) HoldingsOf(_ context.Context, artifact domain.ArtifactID, holder domain.Address) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var held []uint64
	for unitID, owner := range l.owners[artifact] {
		if owner == holder {
			held = append(held, unitID)
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i] < held[j] })
	return held, nil
}
