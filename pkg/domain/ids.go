package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PropertyID is the caller-supplied unique key for a registered property.
// It is opaque to the registry: accepted once, never regenerated, never reused.
type PropertyID string

const maxPropertyIDLength = 256

// ParsePropertyID validates a raw property identifier.
func ParsePropertyID(s string) (PropertyID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("property id cannot be empty")
	}
	if len(s) > maxPropertyIDLength {
		return "", fmt.Errorf("property id must be %d characters or less", maxPropertyIDLength)
	}
	return PropertyID(s), nil
}

func (p PropertyID) String() string {
	return string(p)
}

func (p PropertyID) IsNil() bool {
	return p == ""
}

// Address identifies an accountable party: the registry authority, an
// artifact administrator, an issuer, or a token holder. Addresses are opaque
// strings; the service never derives meaning from their contents.
type Address string

const maxAddressLength = 128

// ParseAddress validates a raw address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("address cannot be empty")
	}
	if len(s) > maxAddressLength {
		return "", fmt.Errorf("address must be %d characters or less", maxAddressLength)
	}
	return Address(s), nil
}

func (a Address) String() string {
	return string(a)
}

func (a Address) IsNil() bool {
	return a == ""
}

// ArtifactID identifies a deployed artifact.
type ArtifactID uuid.UUID

// NewArtifactID mints a fresh artifact identifier.
func NewArtifactID() ArtifactID {
	return ArtifactID(uuid.New())
}

// ParseArtifactID parses an artifact identifier from its string form.
func ParseArtifactID(s string) (ArtifactID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ArtifactID{}, fmt.Errorf("invalid artifact id: %w", err)
	}
	return ArtifactID(u), nil
}

func (a ArtifactID) String() string {
	return uuid.UUID(a).String()
}

func (a ArtifactID) IsNil() bool {
	return uuid.UUID(a) == uuid.Nil
}

// MarshalText renders the canonical UUID form in JSON and cache entries.
func (a ArtifactID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the canonical UUID form.
func (a *ArtifactID) UnmarshalText(text []byte) error {
	parsed, err := ParseArtifactID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
