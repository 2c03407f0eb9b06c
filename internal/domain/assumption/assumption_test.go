package assumption

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/glycotrace/glycotrace/pkg/types/common"

	"github.com/glycotrace/glycotrace/internal/domain/regression"
)

func TestShapiroWilk(t *testing.T) {
	t.Run("normal order statistics pass", func(t *testing.T) {
		norm := distuv.Normal{Mu: 0, Sigma: 1}
		x := make([]float64, 20)
		for i := range x {
			x[i] = norm.Quantile((float64(i) + 0.5) / 20)
		}

		w, p, err := ShapiroWilk(x)
		require.NoError(t, err)
		assert.Greater(t, w, 0.95)
		assert.Greater(t, p, 0.2)
	})

	t.Run("exponential growth is rejected", func(t *testing.T) {
		x := make([]float64, 15)
		for i := range x {
			x[i] = math.Pow(2, float64(i+1))
		}

		w, p, err := ShapiroWilk(x)
		require.NoError(t, err)
		assert.Less(t, w, 0.9)
		assert.LessOrEqual(t, p, 0.05)
	})

	t.Run("input validation", func(t *testing.T) {
		_, _, err := ShapiroWilk([]float64{1, 2})
		assert.Error(t, err)

		_, _, err = ShapiroWilk([]float64{3, 3, 3, 3})
		assert.Error(t, err)
	})
}

func TestCheckModelAutocorrelation(t *testing.T) {
	m := &regression.Model{
		Features:     []string{regression.FeatLogP},
		Coefficients: []float64{0.5},
		DurbinWatson: 0.9,
	}

	warnings := CheckModel(m, []float64{0.1, -0.1, 0.1}, []float64{1, 2, 3}, "GT1/L2", Options{OverfitGapWarn: 0.2})
	require.NotEmpty(t, warnings)
	assert.Equal(t, common.WarnAutocorrelation, warnings[0].Kind)
	assert.Equal(t, "GT1/L2", warnings[0].Scope)

	m.DurbinWatson = 2.0
	warnings = CheckModel(m, []float64{0.1, -0.1, 0.1}, []float64{1, 2, 3}, "GT1/L2", Options{OverfitGapWarn: 0.2})
	for _, w := range warnings {
		assert.NotEqual(t, common.WarnAutocorrelation, w.Kind)
	}
}

func TestCheckModelCoefficientSigns(t *testing.T) {
	m := &regression.Model{
		Features:     []string{regression.FeatLogP, regression.FeatTotalSugars},
		Coefficients: []float64{-0.4, 0.3}, // both chemically backwards
		DurbinWatson: 2.0,
	}

	warnings := CheckModel(m, []float64{0.1, -0.1, 0.1}, []float64{1, 2, 3}, "GM1/L1", Options{OverfitGapWarn: 0.2})

	var signWarnings int
	for _, w := range warnings {
		if w.Kind == common.WarnCoefficientSign {
			signWarnings++
		}
	}
	assert.Equal(t, 2, signWarnings)
}

func TestCheckModelOverfitGap(t *testing.T) {
	m := &regression.Model{
		Features:     []string{regression.FeatLogP},
		Coefficients: []float64{0.5},
		DurbinWatson: 2.0,
		TrainR2:      0.95,
		CVR2:         0.60,
	}

	warnings := CheckModel(m, []float64{0.1, -0.1, 0.1}, []float64{1, 2, 3}, "GD1/L2", Options{OverfitGapWarn: 0.2})
	require.Len(t, warnings, 1)
	assert.Equal(t, common.WarnOverfitGap, warnings[0].Kind)
	assert.InDelta(t, 0.35, warnings[0].Observed, 1e-9)
}

func TestCheckModelHeteroscedasticity(t *testing.T) {
	m := &regression.Model{
		Features:     []string{regression.FeatLogP},
		Coefficients: []float64{0.5},
		DurbinWatson: 2.0,
	}

	n := 12
	residuals := make([]float64, n)
	predicted := make([]float64, n)
	for i := 0; i < n; i++ {
		predicted[i] = float64(i + 1)
		// Error magnitude grows with the prediction, alternating sign so the
		// normality check stays quiet.
		residuals[i] = 0.05 * float64(i+1)
		if i%2 == 1 {
			residuals[i] = -residuals[i]
		}
	}

	warnings := CheckModel(m, residuals, predicted, "GQ1/L3", Options{OverfitGapWarn: 0.2})

	var found bool
	for _, w := range warnings {
		if w.Kind == common.WarnHeteroscedastic {
			found = true
			assert.Greater(t, w.Observed, 0.3)
		}
	}
	assert.True(t, found)
}

func TestCheckModelSkipsNormalityOnSmallSamples(t *testing.T) {
	m := &regression.Model{
		Features:     []string{regression.FeatLogP},
		Coefficients: []float64{0.5},
		DurbinWatson: 2.0,
	}

	// Five wildly skewed residuals: too few for the normality test to run.
	warnings := CheckModel(m, []float64{0.01, 0.02, 0.04, 0.08, 5.0}, []float64{1, 2, 3, 4, 5}, "GP1/L4", Options{OverfitGapWarn: 0.2})
	for _, w := range warnings {
		assert.NotEqual(t, common.WarnNonNormalResidual, w.Kind)
	}
}
