package handler

import (
	"strings"

	dErrors "deedledger/pkg/domain-errors"
)

// MintRequest is the HTTP request body for POST /artifacts/{artifactID}/mint.
type MintRequest struct {
	To string `json:"to"`
}

// Validate performs transport-level validation.
func (r *MintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.To = strings.TrimSpace(r.To)
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	return nil
}

// MintBatchRequest is the HTTP request body for
// POST /artifacts/{artifactID}/mint-batch.
type MintBatchRequest struct {
	To    string `json:"to"`
	Count uint64 `json:"count"`
}

// Validate performs transport-level validation.
func (r *MintBatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.To = strings.TrimSpace(r.To)
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	if r.Count == 0 {
		return dErrors.New(dErrors.CodeValidation, "count must be positive")
	}
	return nil
}

// UpdateDetailsRequest is the HTTP request body for
// PUT /artifacts/{artifactID}/details.
type UpdateDetailsRequest struct {
	DetailsRef string `json:"details_ref"`
}

// Validate performs transport-level validation.
func (r *UpdateDetailsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.DetailsRef = strings.TrimSpace(r.DetailsRef)
	if r.DetailsRef == "" {
		return dErrors.New(dErrors.CodeValidation, "details_ref is required")
	}
	return nil
}

// SetMetadataURIRequest is the HTTP request body for
// PUT /artifacts/{artifactID}/metadata-uri.
type SetMetadataURIRequest struct {
	BaseMetadataURI string `json:"base_metadata_uri"`
}

// Validate performs transport-level validation.
func (r *SetMetadataURIRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.BaseMetadataURI = strings.TrimSpace(r.BaseMetadataURI)
	if r.BaseMetadataURI == "" {
		return dErrors.New(dErrors.CodeValidation, "base_metadata_uri is required")
	}
	return nil
}

// TransferAdministrationRequest is the HTTP request body for
// POST /artifacts/{artifactID}/administrator.
type TransferAdministrationRequest struct {
	To string `json:"to"`
}

// Validate performs transport-level validation.
func (r *TransferAdministrationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.To = strings.TrimSpace(r.To)
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	return nil
}
