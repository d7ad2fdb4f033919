package models

import (
	"fmt"

	dErrors "deedledger/pkg/domain-errors"
)

// UnitAllocator hands out unit identifiers from a bounded monotonic sequence
// starting at 0. Identifiers are never reused and never allocated past the
// cap; a batch either fits entirely or nothing is allocated.
//
// The allocator is not self-synchronizing: callers serialize access (the
// artifact stores do this under their own locks, matching the rest of the
// aggregate's mutation rules).
type UnitAllocator struct {
	issued uint64
	max    uint64
}

// NewUnitAllocator creates an allocator for identifiers [0, max).
func NewUnitAllocator(max uint64) *UnitAllocator {
	return &UnitAllocator{max: max}
}

// RestoreUnitAllocator rehydrates an allocator from persisted state.
func RestoreUnitAllocator(issued, max uint64) *UnitAllocator {
	return &UnitAllocator{issued: issued, max: max}
}

// CanAllocate checks whether n identifiers fit under the cap.
// Use with Allocate under the store lock for atomic validate-then-mutate.
func (a *UnitAllocator) CanAllocate(n uint64) error {
	if n == 0 {
		return dErrors.New(dErrors.CodeValidation, "allocation count must be positive")
	}
	if n > a.max-a.issued {
		return dErrors.New(dErrors.CodeCapacityExceeded,
			fmt.Sprintf("%d units requested, %d remaining of %d", n, a.max-a.issued, a.max))
	}
	return nil
}

// Allocate advances the counter by n and returns the first identifier of the
// contiguous range [start, start+n). Call CanAllocate first; Allocate itself
// re-checks and refuses rather than overrunning the cap.
func (a *UnitAllocator) Allocate(n uint64) (uint64, error) {
	if err := a.CanAllocate(n); err != nil {
		return 0, err
	}
	start := a.issued
	a.issued += n
	return start, nil
}

// AllocateOne returns the next identifier.
func (a *UnitAllocator) AllocateOne() (uint64, error) {
	return a.Allocate(1)
}

// Issued returns the next identifier to be allocated, equal to the number of
// identifiers handed out so far.
func (a *UnitAllocator) Issued() uint64 {
	return a.issued
}

// Max returns the immutable cap.
func (a *UnitAllocator) Max() uint64 {
	return a.max
}

// Remaining returns how many identifiers are still allocatable.
func (a *UnitAllocator) Remaining() uint64 {
	return a.max - a.issued
}

func (a *UnitAllocator) clone() *UnitAllocator {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
