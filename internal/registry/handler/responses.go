package handler

import (
	"time"

	"deedledger/internal/artifact/models"
	registrymodels "deedledger/internal/registry/models"
)

// PropertyResponse is the HTTP representation of one registry record.
type PropertyResponse struct {
	PropertyID string    `json:"property_id"`
	ArtifactID string    `json:"artifact_id"`
	Kind       string    `json:"artifact_kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateResponse is the HTTP response for both creation endpoints.
type CreateResponse struct {
	Property PropertyResponse `json:"property"`
	Artifact ArtifactSummary  `json:"artifact"`
}

// ArtifactSummary is the creation-time view of the deployed artifact.
type ArtifactSummary struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Issuer        string `json:"issuer"`
	Valuation     string `json:"valuation"`
	Administrator string `json:"administrator"`
	TotalSupply   uint64 `json:"total_supply,omitempty"`
	MaxSupply     uint64 `json:"max_supply,omitempty"`
}

// ListResponse is the HTTP response for GET /registry/properties.
type ListResponse struct {
	Properties []PropertyResponse `json:"properties"`
	Count      int                `json:"count"`
}

// CountResponse is the HTTP response for GET /registry/count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// FromRecord converts a registry record to its HTTP representation.
func FromRecord(record *registrymodels.PropertyRecord) PropertyResponse {
	return PropertyResponse{
		PropertyID: record.PropertyID.String(),
		ArtifactID: record.ArtifactID.String(),
		Kind:       record.Kind.String(),
		CreatedAt:  record.CreatedAt,
	}
}

// FromCreation converts a record plus its artifact to the creation response.
func FromCreation(record *registrymodels.PropertyRecord, artifact *models.Artifact) *CreateResponse {
	return &CreateResponse{
		Property: FromRecord(record),
		Artifact: ArtifactSummary{
			ID:            artifact.ID.String(),
			Kind:          artifact.Kind.String(),
			Name:          artifact.Name,
			Symbol:        artifact.Symbol,
			Issuer:        artifact.Issuer.String(),
			Valuation:     artifact.Valuation.Dec(),
			Administrator: artifact.Administrator.String(),
			TotalSupply:   artifact.TotalSupply,
			MaxSupply:     artifact.MaxSupply(),
		},
	}
}
