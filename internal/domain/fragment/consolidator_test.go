package fragment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glycotrace/glycotrace/internal/domain/compound"
)

func mustRecord(t *testing.T, name string, rt, volume, logP float64) compound.Record {
	t.Helper()
	r, err := compound.ParseName(name)
	require.NoError(t, err)
	r.RT = rt
	r.Volume = volume
	r.LogP = logP
	return *r
}

func allIndices(records []compound.Record) []int {
	idx := make([]int, len(records))
	for i := range records {
		idx[i] = i
	}
	return idx
}

func TestConsolidateCoElutingFragments(t *testing.T) {
	records := []compound.Record{
		mustRecord(t, "GM1(36:1;O2)", 9.60, 1000, 2.8),  // 5 sugars
		mustRecord(t, "GM3(36:1;O2)", 9.62, 300, 4.1),   // 3 sugars, co-elutes
		mustRecord(t, "GM2(36:1;O2)", 10.40, 250, 3.5),  // same suffix, elutes apart
		mustRecord(t, "GD1(38:2;O3)", 9.61, 800, 1.2),   // different suffix
		mustRecord(t, "GM1(34:1;O2)", 8.90, 1200, 2.45), // lone suffix member
	}

	cons := Consolidate(records, allIndices(records), 0.1)
	require.Len(t, cons, 1)

	c := cons[0]
	assert.Equal(t, "36:1;O2", c.Suffix)
	assert.Equal(t, "GM1(36:1;O2)", c.ParentName)
	assert.Equal(t, 0, c.ParentIndex)
	assert.InDelta(t, 1300, c.TotalVolume, 1e-9)
	require.Len(t, c.Members, 2)

	assert.Equal(t, []int{1}, c.FragmentIndices())
	for _, m := range c.Members {
		if m.IsParent {
			assert.Zero(t, m.SugarDifference)
			assert.Zero(t, m.RTDifference)
			continue
		}
		assert.Equal(t, 2, m.SugarDifference, "GM3 lost two sugars relative to GM1")
		assert.InDelta(t, 0.02, m.RTDifference, 1e-9)
	}
}

func TestConsolidateParentTiebreakByLogP(t *testing.T) {
	// Equal sugar counts: the less hydrophobic compound wins.
	records := []compound.Record{
		mustRecord(t, "GM1(36:1;O2)", 9.60, 500, 3.2),
		mustRecord(t, "GM1a(36:1;O2)", 9.65, 400, 2.9),
	}

	cons := Consolidate(records, allIndices(records), 0.1)
	require.Len(t, cons, 1)
	assert.Equal(t, "GM1a(36:1;O2)", cons[0].ParentName)
	assert.InDelta(t, 900, cons[0].TotalVolume, 1e-9)
}

func TestConsolidateGreedyAnchoring(t *testing.T) {
	// Three members in a chain: the middle one is within tolerance of both
	// ends, but clusters form around the earliest-eluting anchor, so the last
	// member stays out and a second cluster cannot form alone.
	records := []compound.Record{
		mustRecord(t, "GM1(36:1;O2)", 9.60, 100, 2.8),
		mustRecord(t, "GM2(36:1;O2)", 9.68, 100, 3.5),
		mustRecord(t, "GM3(36:1;O2)", 9.75, 100, 4.1),
	}

	cons := Consolidate(records, allIndices(records), 0.1)
	require.Len(t, cons, 1)
	require.Len(t, cons[0].Members, 2)
	assert.Equal(t, "GM1(36:1;O2)", cons[0].ParentName)
	assert.InDelta(t, 200, cons[0].TotalVolume, 1e-9)
}

func TestConsolidateVolumeConservationUnderPermutation(t *testing.T) {
	records := []compound.Record{
		mustRecord(t, "GM1(36:1;O2)", 9.60, 1000, 2.8),
		mustRecord(t, "GM3(36:1;O2)", 9.62, 300, 4.1),
		mustRecord(t, "GM2(36:1;O2)", 9.58, 250, 3.5),
		mustRecord(t, "GD1(38:2;O3)", 9.61, 800, 1.2),
		mustRecord(t, "GT1(38:2;O3)", 9.63, 450, 0.4),
		mustRecord(t, "GM1(34:1;O2)", 8.90, 1200, 2.45),
	}
	var total float64
	for _, r := range records {
		total += r.Volume
	}

	baseline := Consolidate(records, allIndices(records), 0.1)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		idx := rng.Perm(len(records))
		cons := Consolidate(records, idx, 0.1)
		require.Len(t, cons, len(baseline), "cluster count must not depend on input order")

		consolidated := make(map[int]bool)
		var consVolume float64
		for i, c := range cons {
			assert.Equal(t, baseline[i].ParentIndex, c.ParentIndex)
			assert.InDelta(t, baseline[i].TotalVolume, c.TotalVolume, 1e-9)
			consVolume += c.TotalVolume
			for _, m := range c.Members {
				assert.False(t, consolidated[m.Index], "a compound may join at most one cluster")
				consolidated[m.Index] = true
			}
		}

		var looseVolume float64
		for i, r := range records {
			if !consolidated[i] {
				looseVolume += r.Volume
			}
		}
		assert.InDelta(t, total, consVolume+looseVolume, 1e-9, "volume must be conserved")
	}
}

func TestConsolidateNoClusters(t *testing.T) {
	records := []compound.Record{
		mustRecord(t, "GM1(36:1;O2)", 9.60, 1000, 2.8),
		mustRecord(t, "GM2(36:1;O2)", 11.20, 250, 3.5),
		mustRecord(t, "GD1(38:2;O3)", 9.61, 800, 1.2),
	}
	assert.Empty(t, Consolidate(records, allIndices(records), 0.1))
}
