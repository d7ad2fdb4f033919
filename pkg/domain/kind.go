package domain

import "fmt"

// ArtifactKind tags the two artifact variants the registry can deploy.
type ArtifactKind string

const (
	// KindDivisible is a fungible-style artifact with its whole supply
	// minted at construction.
	KindDivisible ArtifactKind = "divisible"
	// KindUnit is a non-fungible-style artifact whose supply grows one unit
	// at a time up to a fixed cap.
	KindUnit ArtifactKind = "unit"
)

// ParseArtifactKind validates a raw artifact kind.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch ArtifactKind(s) {
	case KindDivisible, KindUnit:
		return ArtifactKind(s), nil
	default:
		return "", fmt.Errorf("unknown artifact kind: %s", s)
	}
}

func (k ArtifactKind) String() string {
	return string(k)
}
