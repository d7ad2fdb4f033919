package handler

import (
	"strings"

	dErrors "deedledger/pkg/domain-errors"
)

// CreateDivisibleRequest is the HTTP request body for
// POST /registry/properties/divisible.
type CreateDivisibleRequest struct {
	PropertyID  string `json:"property_id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	TotalSupply uint64 `json:"total_supply"`
	Issuer      string `json:"issuer"`
	Valuation   string `json:"valuation"`
	DetailsRef  string `json:"details_ref"`
}

// Validate performs transport-level validation. Domain validation (supply
// bounds, id formats) belongs to the service and its models.
func (r *CreateDivisibleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.PropertyID = strings.TrimSpace(r.PropertyID)
	if r.PropertyID == "" {
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Issuer = strings.TrimSpace(r.Issuer)
	r.Valuation = strings.TrimSpace(r.Valuation)
	if r.Valuation == "" {
		return dErrors.New(dErrors.CodeValidation, "valuation is required")
	}
	return nil
}

// CreateUnitRequest is the HTTP request body for
// POST /registry/properties/unit.
type CreateUnitRequest struct {
	PropertyID      string `json:"property_id"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	MaxSupply       uint64 `json:"max_supply"`
	Issuer          string `json:"issuer"`
	Valuation       string `json:"valuation"`
	DetailsRef      string `json:"details_ref"`
	BaseMetadataURI string `json:"base_metadata_uri"`
}

// Validate performs transport-level validation.
func (r *CreateUnitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.PropertyID = strings.TrimSpace(r.PropertyID)
	if r.PropertyID == "" {
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Issuer = strings.TrimSpace(r.Issuer)
	r.Valuation = strings.TrimSpace(r.Valuation)
	if r.Valuation == "" {
		return dErrors.New(dErrors.CodeValidation, "valuation is required")
	}
	return nil
}
