package handler

import (
	"time"

	"deedledger/internal/artifact/models"
)

// ArtifactResponse is the HTTP representation of one artifact.
type ArtifactResponse struct {
	ID              string    `json:"id"`
	PropertyID      string    `json:"property_id"`
	Kind            string    `json:"kind"`
	Name            string    `json:"name"`
	Symbol          string    `json:"symbol"`
	Issuer          string    `json:"issuer"`
	Valuation       string    `json:"valuation"`
	DetailsRef      string    `json:"details_ref,omitempty"`
	BaseMetadataURI string    `json:"base_metadata_uri,omitempty"`
	Administrator   string    `json:"administrator"`
	TotalSupply     uint64    `json:"total_supply,omitempty"`
	MaxSupply       uint64    `json:"max_supply,omitempty"`
	Issued          uint64    `json:"issued,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MintResponse is the HTTP response for both mint endpoints.
type MintResponse struct {
	ArtifactID string   `json:"artifact_id"`
	To         string   `json:"to"`
	UnitIDs    []uint64 `json:"unit_ids"`
}

// MetadataURIResponse is the HTTP response for unit metadata resolution.
type MetadataURIResponse struct {
	ArtifactID string `json:"artifact_id"`
	UnitID     uint64 `json:"unit_id"`
	URI        string `json:"uri"`
}

// FromArtifact converts an artifact to its HTTP representation.
func FromArtifact(a *models.Artifact) *ArtifactResponse {
	return &ArtifactResponse{
		ID:              a.ID.String(),
		PropertyID:      a.PropertyID.String(),
		Kind:            a.Kind.String(),
		Name:            a.Name,
		Symbol:          a.Symbol,
		Issuer:          a.Issuer.String(),
		Valuation:       a.Valuation.Dec(),
		DetailsRef:      a.DetailsRef,
		BaseMetadataURI: a.BaseMetadataURI,
		Administrator:   a.Administrator.String(),
		TotalSupply:     a.TotalSupply,
		MaxSupply:       a.MaxSupply(),
		Issued:          a.Issued(),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
