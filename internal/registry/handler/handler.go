package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"deedledger/internal/artifact/models"
	registrymodels "deedledger/internal/registry/models"
	"deedledger/internal/registry/service"
	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/httputil"
	"deedledger/pkg/requestcontext"
)

// Service defines the interface for registry operations.
type Service interface {
	CreateDivisible(ctx context.Context, caller domain.Address, params service.CreateDivisibleParams) (*registrymodels.PropertyRecord, *models.Artifact, error)
	CreateUnit(ctx context.Context, caller domain.Address, params service.CreateUnitParams) (*registrymodels.PropertyRecord, *models.Artifact, error)
	Lookup(ctx context.Context, propertyID domain.PropertyID) (*registrymodels.PropertyRecord, error)
	List(ctx context.Context) ([]*registrymodels.PropertyRecord, error)
	Count(ctx context.Context) (int64, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterWrites mounts the creation endpoints. Callers are expected to guard
// these with actor authentication; authority checks stay in the service.
func (h *Handler) RegisterWrites(r chi.Router) {
	r.Post("/registry/properties/divisible", h.HandleCreateDivisible)
	r.Post("/registry/properties/unit", h.HandleCreateUnit)
}

// RegisterReads mounts the lookup endpoints.
func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/registry/properties", h.HandleList)
	r.Get("/registry/properties/{propertyID}", h.HandleLookup)
	r.Get("/registry/count", h.HandleCount)
}

// HandleCreateDivisible handles POST /registry/properties/divisible.
func (h *Handler) HandleCreateDivisible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	caller := requestcontext.Actor(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateDivisibleRequest](w, r, h.logger)
	if !ok {
		return
	}

	record, artifact, err := h.service.CreateDivisible(ctx, caller, service.CreateDivisibleParams{
		PropertyID:  req.PropertyID,
		Name:        req.Name,
		Symbol:      req.Symbol,
		TotalSupply: req.TotalSupply,
		Issuer:      req.Issuer,
		Valuation:   req.Valuation,
		DetailsRef:  req.DetailsRef,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "divisible registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"property_id", req.PropertyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "divisible property registered",
		"request_id", requestcontext.RequestID(ctx),
		"property_id", record.PropertyID.String(),
		"artifact_id", artifact.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromCreation(record, artifact))
}

// HandleCreateUnit handles POST /registry/properties/unit.
func (h *Handler) HandleCreateUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	caller := requestcontext.Actor(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateUnitRequest](w, r, h.logger)
	if !ok {
		return
	}

	record, artifact, err := h.service.CreateUnit(ctx, caller, service.CreateUnitParams{
		PropertyID:      req.PropertyID,
		Name:            req.Name,
		Symbol:          req.Symbol,
		MaxSupply:       req.MaxSupply,
		Issuer:          req.Issuer,
		Valuation:       req.Valuation,
		DetailsRef:      req.DetailsRef,
		BaseMetadataURI: req.BaseMetadataURI,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "unit registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"property_id", req.PropertyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "unit property registered",
		"request_id", requestcontext.RequestID(ctx),
		"property_id", record.PropertyID.String(),
		"artifact_id", artifact.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromCreation(record, artifact))
}

// HandleLookup handles GET /registry/properties/{propertyID}.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	propertyID, err := domain.ParsePropertyID(chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "property id is invalid"))
		return
	}

	record, err := h.service.Lookup(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleList handles GET /registry/properties.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]PropertyResponse, 0, len(records))
	for _, record := range records {
		out = append(out, FromRecord(record))
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Properties: out, Count: len(out)})
}

// HandleCount handles GET /registry/count.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Count(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Count: count})
}
