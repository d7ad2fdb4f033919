// Package events defines the notifications the registry core emits, exactly
// once per successful triggering operation. Publishing is fail-closed: if an
// event cannot be recorded, the triggering operation fails.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"deedledger/pkg/domain"
)

// Type discriminates event payloads.
type Type string

const (
	TypeRegistryEntryCreated      Type = "registry_entry_created"
	TypeArtifactCreated           Type = "artifact_created"
	TypeUnitMinted                Type = "unit_minted"
	TypeAdministrationTransferred Type = "administration_transferred"
	TypeDetailsUpdated            Type = "details_updated"
)

// Event is the envelope for every notification. Unused fields stay zero for
// types that don't carry them.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       Type              `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	PropertyID domain.PropertyID `json:"property_id,omitempty"`
	ArtifactID domain.ArtifactID `json:"artifact_id,omitempty"`

	// RegistryEntryCreated / ArtifactCreated
	ArtifactKind string         `json:"artifact_kind,omitempty"`
	Issuer       domain.Address `json:"issuer,omitempty"`
	PrimarySize  uint64         `json:"primary_size,omitempty"`
	Valuation    string         `json:"valuation,omitempty"`

	// UnitMinted
	To     domain.Address `json:"to,omitempty"`
	UnitID *uint64        `json:"unit_id,omitempty"`

	// AdministrationTransferred
	From domain.Address `json:"from,omitempty"`

	// DetailsUpdated
	DetailsRef string `json:"details_ref,omitempty"`
}

// Publisher delivers events to whatever sink the deployment wires in.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

func newEvent(t Type, now time.Time) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: now}
}

// NewRegistryEntryCreated records a property id transitioning to Registered.
func NewRegistryEntryCreated(now time.Time, propertyID domain.PropertyID, artifactID domain.ArtifactID, kind string) Event {
	e := newEvent(TypeRegistryEntryCreated, now)
	e.PropertyID = propertyID
	e.ArtifactID = artifactID
	e.ArtifactKind = kind
	return e
}

// NewArtifactCreated records an artifact deployment. primarySize is the total
// supply for divisible artifacts and the max supply for unit artifacts.
func NewArtifactCreated(now time.Time, propertyID domain.PropertyID, artifactID domain.ArtifactID, issuer domain.Address, primarySize uint64, valuation string) Event {
	e := newEvent(TypeArtifactCreated, now)
	e.PropertyID = propertyID
	e.ArtifactID = artifactID
	e.Issuer = issuer
	e.PrimarySize = primarySize
	e.Valuation = valuation
	return e
}

// NewUnitMinted records one unit assignment. Batches emit one event per unit,
// in allocation order.
func NewUnitMinted(now time.Time, artifactID domain.ArtifactID, to domain.Address, unitID uint64) Event {
	e := newEvent(TypeUnitMinted, now)
	e.ArtifactID = artifactID
	e.To = to
	id := unitID
	e.UnitID = &id
	return e
}

// NewAdministrationTransferred records an explicit hand-off of administrative
// control.
func NewAdministrationTransferred(now time.Time, artifactID domain.ArtifactID, from, to domain.Address) Event {
	e := newEvent(TypeAdministrationTransferred, now)
	e.ArtifactID = artifactID
	e.From = from
	e.To = to
	return e
}

// NewDetailsUpdated records a change to an artifact's off-chain details
// reference.
func NewDetailsUpdated(now time.Time, artifactID domain.ArtifactID, detailsRef string) Event {
	e := newEvent(TypeDetailsUpdated, now)
	e.ArtifactID = artifactID
	e.DetailsRef = detailsRef
	return e
}
