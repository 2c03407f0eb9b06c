package compound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefix_SugarFormula(t *testing.T) {
	tests := []struct {
		prefix     string
		sialic     int
		neutral    int
		additional int
		total      int
	}{
		{"GM1", 1, 4, 0, 5},
		{"GD1+dHex", 2, 4, 1, 7},
		{"GM3", 1, 2, 0, 3},
		{"GA1", 0, 4, 0, 4},
		{"GT1", 3, 4, 0, 7},
		{"GQ1", 4, 4, 0, 8},
		{"GP1", 5, 4, 0, 9},
		{"GM0", 1, 5, 0, 6},
		{"GD1+HexNAc", 2, 4, 1, 7},
		{"GD1+2OAc", 2, 4, 2, 8},
		{"GD1+dHex+OAc", 2, 4, 2, 8},
		{"GT1b", 3, 4, 0, 7},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			profile, _, err := ParsePrefix(tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.sialic, profile.SialicAcids, "sialic")
			assert.Equal(t, tt.neutral, profile.NeutralSugars, "neutral")
			assert.Equal(t, tt.additional, profile.Additional, "additional")
			assert.Equal(t, tt.total, profile.Total(), "total")
		})
	}
}

func TestParsePrefix_ModificationCounts(t *testing.T) {
	_, mods, err := ParsePrefix("GD1+dHex+2OAc+HexNAc")
	require.NoError(t, err)
	assert.Equal(t, 1, mods.DHex)
	assert.Equal(t, 2, mods.OAc)
	assert.Equal(t, 1, mods.HexNAc)
	assert.True(t, mods.HasAny())

	_, mods, err = ParsePrefix("GM1")
	require.NoError(t, err)
	assert.False(t, mods.HasAny())
}

func TestParsePrefix_UnknownModifierIgnored(t *testing.T) {
	// Structural annotations we cannot attribute sugar units to are kept but
	// contribute nothing.
	profile, mods, err := ParsePrefix("GM1+Xyz")
	require.NoError(t, err)
	assert.Equal(t, 5, profile.Total())
	assert.False(t, mods.HasAny())
}

func TestParsePrefix_Invalid(t *testing.T) {
	for _, prefix := range []string{"G", "GZ1", "GM9", "GM1+"} {
		t.Run(prefix, func(t *testing.T) {
			_, _, err := ParsePrefix(prefix)
			assert.Error(t, err)
		})
	}
}
