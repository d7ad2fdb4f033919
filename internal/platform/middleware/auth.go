package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"deedledger/pkg/domain"
	"deedledger/pkg/requestcontext"
)

// ActorVerifier validates a bearer token and returns the caller address it
// was issued to.
type ActorVerifier interface {
	VerifyActorToken(token string) (domain.Address, error)
}

// RequireAdminToken guards registry-authority routes behind a shared secret.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			// Constant-time comparison to prevent timing attacks.
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(r.Context(), "admin token mismatch",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActor authenticates the caller from a bearer token and injects the
// actor address into the request context. Authorization against a specific
// artifact stays in the service layer; this only establishes identity.
func RequireActor(verifier ActorVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
				return
			}
			actor, err := verifier.VerifyActorToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "actor token rejected",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err.Error(),
				)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid bearer token"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(r.Context(), actor)))
		})
	}
}
