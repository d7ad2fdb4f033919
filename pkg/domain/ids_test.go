package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePropertyID(t *testing.T) {
	t.Run("accepts and trims", func(t *testing.T) {
		id, err := ParsePropertyID("  P-100 ")
		require.NoError(t, err)
		assert.Equal(t, PropertyID("P-100"), id)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParsePropertyID("   ")
		assert.Error(t, err)
	})

	t.Run("rejects oversized", func(t *testing.T) {
		_, err := ParsePropertyID(strings.Repeat("x", 257))
		assert.Error(t, err)
	})
}

func TestParseAddress(t *testing.T) {
	t.Run("accepts opaque strings", func(t *testing.T) {
		addr, err := ParseAddress("authority")
		require.NoError(t, err)
		assert.Equal(t, Address("authority"), addr)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseAddress("")
		assert.Error(t, err)
	})

	t.Run("rejects oversized", func(t *testing.T) {
		_, err := ParseAddress(strings.Repeat("x", 129))
		assert.Error(t, err)
	})
}

func TestArtifactID(t *testing.T) {
	t.Run("round trips through its string form", func(t *testing.T) {
		id := NewArtifactID()
		parsed, err := ParseArtifactID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("rejects non-uuid input", func(t *testing.T) {
		_, err := ParseArtifactID("nope")
		assert.Error(t, err)
	})

	t.Run("marshals as the canonical UUID string", func(t *testing.T) {
		id := NewArtifactID()
		raw, err := json.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, `"`+id.String()+`"`, string(raw))

		var back ArtifactID
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, id, back)
	})

	t.Run("zero value is nil", func(t *testing.T) {
		assert.True(t, ArtifactID{}.IsNil())
		assert.False(t, NewArtifactID().IsNil())
	})
}

func TestParseArtifactKind(t *testing.T) {
	for _, raw := range []string{"divisible", "unit"} {
		kind, err := ParseArtifactKind(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, kind.String())
	}
	_, err := ParseArtifactKind("fractional")
	assert.Error(t, err)
}
