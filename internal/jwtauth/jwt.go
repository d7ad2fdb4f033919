// Package jwtauth issues and validates actor tokens. An actor token is a
// short-lived bearer credential whose subject is the caller's address; the
// transport layer uses it to establish identity, and services perform the
// actual capability checks against that address.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
)

const tokenIssuer = "deedledger"

// Service handles actor token creation and validation.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

func New(signingKey string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// IssueActorToken signs a token identifying the given address.
func (s *Service) IssueActorToken(actor domain.Address, now time.Time) (string, error) {
	if actor.IsNil() {
		return "", dErrors.New(dErrors.CodeValidation, "actor address is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   actor.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		ID:        uuid.NewString(),
	})
	return token.SignedString(s.signingKey)
}

// VerifyActorToken validates a token and returns the address it identifies.
func (s *Service) VerifyActorToken(tokenString string) (domain.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	actor, perr := domain.ParseAddress(claims.Subject)
	if perr != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return actor, nil
}
