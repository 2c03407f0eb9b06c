package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCascadeLevel_Next(t *testing.T) {
	next, ok := LevelPrefixStrict.Next()
	assert.True(t, ok)
	assert.Equal(t, LevelPrefixRelaxed, next)

	next, ok = LevelFamily.Next()
	assert.True(t, ok)
	assert.Equal(t, LevelGlobal, next)

	next, ok = LevelGlobal.Next()
	assert.False(t, ok)
	assert.Equal(t, LevelGlobal, next)
}

func TestCascadeLevel_String(t *testing.T) {
	assert.Equal(t, "L1", LevelPrefixStrict.String())
	assert.Equal(t, "L2", LevelPrefixRelaxed.String())
	assert.Equal(t, "L3", LevelFamily.String())
	assert.Equal(t, "L4", LevelGlobal.String())
}

func TestCascadeLevel_IsValid(t *testing.T) {
	for _, l := range AllCascadeLevels() {
		assert.True(t, l.IsValid())
	}
	assert.False(t, CascadeLevel(0).IsValid())
	assert.False(t, CascadeLevel(5).IsValid())
}

func TestReasonKind_IsValid(t *testing.T) {
	assert.True(t, ReasonStdResidual.IsValid())
	assert.True(t, ReasonCascadeExhausted.IsValid())
	assert.False(t, ReasonKind("gut_feeling").IsValid())
}

func TestReason_String(t *testing.T) {
	r := Reason{Kind: ReasonStdResidual, Threshold: 3.0, Observed: 3.42}
	assert.Equal(t, "std_residual: |3.42| >= 3.00", r.String())

	r = Reason{Kind: ReasonCascadeExhausted, Detail: "no model accepted at any level"}
	assert.Equal(t, "cascade_exhausted: no model accepted at any level", r.String())
}

func TestJoinReasons(t *testing.T) {
	reasons := []Reason{
		{Kind: ReasonStdResidual, Threshold: 3.0, Observed: 3.42},
		{Kind: ReasonIQR, Detail: "outside [8.10, 11.90]"},
	}
	assert.Equal(t, "std_residual: |3.42| >= 3.00; iqr: outside [8.10, 11.90]", JoinReasons(reasons))
	assert.Equal(t, "", JoinReasons(nil))
}

func TestWarning_String(t *testing.T) {
	w := Warning{Kind: WarnAutocorrelation, Scope: "GT1/L2", Message: "Durbin-Watson 1.12 outside [1.5, 2.5]"}
	assert.Equal(t, "[GT1/L2] autocorrelation: Durbin-Watson 1.12 outside [1.5, 2.5]", w.String())

	w = Warning{Kind: WarnRowsDropped, Message: "3 rows dropped"}
	assert.Equal(t, "rows_dropped: 3 rows dropped", w.String())
}

func TestDroppedRow_String(t *testing.T) {
	d := DroppedRow{Row: 7, Name: "GM1(36:1O2", Kind: DropMalformedName, Detail: "missing closing parenthesis"}
	assert.Equal(t, "row 7 (GM1(36:1O2): malformed_name: missing closing parenthesis", d.String())
}
