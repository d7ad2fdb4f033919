// Package handler exposes actor token issuance. The endpoint sits behind the
// admin token; it exchanges an address for a short-lived bearer credential
// used on every write route.
package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/httputil"
	"deedledger/pkg/requestcontext"
)

// TokenIssuer signs actor tokens.
type TokenIssuer interface {
	IssueActorToken(actor domain.Address, now time.Time) (string, error)
}

// Handler wires the token endpoint to the token service.
type Handler struct {
	issuer TokenIssuer
	ttl    time.Duration
	logger *slog.Logger
}

// New constructs the auth handler.
func New(issuer TokenIssuer, ttl time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		issuer: issuer,
		ttl:    ttl,
		logger: logger,
	}
}

// Register mounts the token endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/actor-token", h.HandleIssueToken)
}

// TokenRequest is the HTTP request body for POST /auth/actor-token.
type TokenRequest struct {
	Actor string `json:"actor"`
}

// Validate performs transport-level validation.
func (r *TokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Actor = strings.TrimSpace(r.Actor)
	if r.Actor == "" {
		return dErrors.New(dErrors.CodeValidation, "actor is required")
	}
	return nil
}

// TokenResponse is the HTTP response for POST /auth/actor-token.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// HandleIssueToken handles POST /auth/actor-token.
func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger)
	if !ok {
		return
	}
	actor, err := domain.ParseAddress(req.Actor)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "actor"))
		return
	}

	token, err := h.issuer.IssueActorToken(actor, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "actor token issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "actor token issued",
		"request_id", requestcontext.RequestID(ctx),
		"actor", actor.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.ttl.Seconds()),
	})
}
