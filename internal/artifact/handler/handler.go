package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"deedledger/internal/artifact/models"
	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/httputil"
	"deedledger/pkg/requestcontext"
)

// Service defines the interface for artifact operations.
type Service interface {
	Get(ctx context.Context, artifactID domain.ArtifactID) (*models.Artifact, error)
	MintOne(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, to domain.Address) (uint64, error)
	MintBatch(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, to domain.Address, count uint64) ([]uint64, error)
	UpdateDetails(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, detailsRef string) (*models.Artifact, error)
	SetBaseMetadataURI(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, baseURI string) (*models.Artifact, error)
	TransferAdministration(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, to domain.Address) (*models.Artifact, error)
	UnitMetadataURI(ctx context.Context, artifactID domain.ArtifactID, unitID uint64) (string, error)
}

// Handler wires artifact endpoints to the artifact service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an artifact handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterWrites mounts the administrator endpoints. Callers are expected to
// guard these with actor authentication; the administrator check stays in the
// service.
func (h *Handler) RegisterWrites(r chi.Router) {
	r.Post("/artifacts/{artifactID}/mint", h.HandleMintOne)
	r.Post("/artifacts/{artifactID}/mint-batch", h.HandleMintBatch)
	r.Put("/artifacts/{artifactID}/details", h.HandleUpdateDetails)
	r.Put("/artifacts/{artifactID}/metadata-uri", h.HandleSetMetadataURI)
	r.Post("/artifacts/{artifactID}/administrator", h.HandleTransferAdministration)
}

// RegisterReads mounts the read endpoints.
func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/artifacts/{artifactID}", h.HandleGet)
	r.Get("/artifacts/{artifactID}/units/{unitID}/metadata-uri", h.HandleUnitMetadataURI)
}

// HandleGet handles GET /artifacts/{artifactID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	artifactID, ok := h.artifactID(w, r)
	if !ok {
		return
	}
	artifact, err := h.service.Get(r.Context(), artifactID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromArtifact(artifact))
}

// HandleMintOne handles POST /artifacts/{artifactID}/mint.
func (h *Handler) HandleMintOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artifactID, ok := h.artifactID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger)
	if !ok {
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "to"))
		return
	}

	unitID, err := h.service.MintOne(ctx, requestcontext.Actor(ctx), artifactID, to)
	if err != nil {
		h.logMintFailure(ctx, artifactID, req.To, 1, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MintResponse{
		ArtifactID: artifactID.String(),
		To:         to.String(),
		UnitIDs:    []uint64{unitID},
	})
}

// HandleMintBatch handles POST /artifacts/{artifactID}/mint-batch.
func (h *Handler) HandleMintBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	artifactID, ok := h.artifactID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MintBatchRequest](w, r, h.logger)
	if !ok {
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "to"))
		return
	}

	unitIDs, err := h.service.MintBatch(ctx, requestcontext.Actor(ctx), artifactID, to, req.Count)
	if err != nil {
		h.logMintFailure(ctx, artifactID, req.To, req.Count, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch minted",
		"request_id", requestcontext.RequestID(ctx),
		"artifact_id", artifactID.String(),
		"count", req.Count,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, MintResponse{
		ArtifactID: artifactID.String(),
		To:         to.String(),
		UnitIDs:    unitIDs,
	})
}

// HandleUpdateDetails handles PUT /artifacts/{artifactID}/details.
func (h *Handler) HandleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artifactID, ok := h.artifactID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateDetailsRequest](w, r, h.logger)
	if !ok {
		return
	}
	artifact, err := h.service.UpdateDetails(ctx, requestcontext.Actor(ctx), artifactID, req.DetailsRef)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromArtifact(artifact))
}

// HandleSetMetadataURI handles PUT /artifacts/{artifactID}/metadata-uri.
func (h *Handler) HandleSetMetadataURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artifactID, ok := h.artifactID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetMetadataURIRequest](w, r, h.logger)
	if !ok {
		return
	}
	artifact, err := h.service.SetBaseMetadataURI(ctx, requestcontext.Actor(ctx), artifactID, req.BaseMetadataURI)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromArtifact(artifact))
}

// HandleTransferAdministration handles POST /artifacts/{artifactID}/administrator.
func (h *Handler) HandleTransferAdministration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artifactID, ok := h.artifactID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferAdministrationRequest](w, r, h.logger)
	if !ok {
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "to"))
		return
	}
	artifact, err := h.service.TransferAdministration(ctx, requestcontext.Actor(ctx), artifactID, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromArtifact(artifact))
}

// HandleUnitMetadataURI handles GET /artifacts/{artifactID}/units/{unitID}/metadata-uri.
func (h *Handler) HandleUnitMetadataURI(w http.ResponseWriter, r *http.Request) {
	artifactID, ok := h.artifactID(w, r)
	if !ok {
		return
	}
	unitID, err := strconv.ParseUint(chi.URLParam(r, "unitID"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unit id must be a non-negative integer"))
		return
	}
	uri, err := h.service.UnitMetadataURI(r.Context(), artifactID, unitID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MetadataURIResponse{
		ArtifactID: artifactID.String(),
		UnitID:     unitID,
		URI:        uri,
	})
}

func (h *Handler) artifactID(w http.ResponseWriter, r *http.Request) (domain.ArtifactID, bool) {
	artifactID, err := domain.ParseArtifactID(chi.URLParam(r, "artifactID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "artifact id is invalid"))
		return domain.ArtifactID{}, false
	}
	return artifactID, true
}

func (h *Handler) logMintFailure(ctx context.Context, artifactID domain.ArtifactID, to string, count uint64, err error) {
	h.logger.ErrorContext(ctx, "mint failed",
		"request_id", requestcontext.RequestID(ctx),
		"artifact_id", artifactID.String(),
		"to", to,
		"count", count,
		"error", err,
	)
}
