package models

import (
	"time"

	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
)

// PropertyRecord maps a property identifier to its deployed artifact.
//
// Invariants:
//   - exactly one record per accepted property id, for the record's lifetime
//   - never mutated, never deleted: the registry is append-only
type PropertyRecord struct {
	PropertyID domain.PropertyID   `json:"property_id"`
	ArtifactID domain.ArtifactID   `json:"artifact_id"`
	Kind       domain.ArtifactKind `json:"artifact_kind"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NewPropertyRecord validates and builds a registry record.
func NewPropertyRecord(propertyID domain.PropertyID, artifactID domain.ArtifactID, kind domain.ArtifactKind, now time.Time) (*PropertyRecord, error) {
	if propertyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "property id is required")
	}
	if artifactID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "artifact id is required")
	}
	if _, err := domain.ParseArtifactKind(kind.String()); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "artifact kind is invalid")
	}
	return &PropertyRecord{
		PropertyID: propertyID,
		ArtifactID: artifactID,
		Kind:       kind,
		CreatedAt:  now,
	}, nil
}
