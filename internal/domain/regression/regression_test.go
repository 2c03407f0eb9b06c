package regression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glycotrace/glycotrace/internal/domain/compound"
	apperrors "github.com/glycotrace/glycotrace/pkg/errors"
)

func linearData(n int, intercept, slope float64) (rows [][]float64, y []float64) {
	rows = make([][]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i + 1)
		rows[i] = []float64{x}
		y[i] = intercept + slope*x
	}
	return rows, y
}

func TestFitRecoversLinearRelationship(t *testing.T) {
	rows, y := linearData(10, 1.0, 0.5)

	m, err := Fit([]string{FeatLogP}, rows, y, 0.001)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, m.Coefficients[0], 0.01)
	assert.InDelta(t, 1.0, m.Intercept, 0.05)
	assert.InDelta(t, 1.0, m.TrainR2, 0.01)
	assert.Equal(t, 10, m.AnchorCount)
	assert.GreaterOrEqual(t, m.DurbinWatson, 0.0)
	assert.LessOrEqual(t, m.DurbinWatson, 4.0)

	assert.InDelta(t, 1.0+0.5*4.2, m.Predict([]float64{4.2}), 0.05)
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]float64
		y        []float64
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "single sample",
			rows:     [][]float64{{1.0}},
			y:        []float64{8.7},
			wantCode: apperrors.ErrCodeInsufficientSample,
		},
		{
			name:     "no log P variation",
			rows:     [][]float64{{2.5}, {2.5}, {2.5}},
			y:        []float64{8.7, 9.6, 11.1},
			wantCode: apperrors.ErrCodeNoLogPVariation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit([]string{FeatLogP}, tt.rows, tt.y, 1.0)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.wantCode))
			assert.True(t, apperrors.IsInfeasible(err))
		})
	}
}

func TestModelEquation(t *testing.T) {
	m := &Model{
		Intercept:    8.91,
		Coefficients: []float64{0.45, -0.021},
		Features:     []string{FeatLogP, FeatCarbonCount},
	}
	assert.Equal(t, "RT = 8.9100 + 0.4500*log_p - 0.0210*carbon_count", m.Equation())

	c, ok := m.Coefficient(FeatCarbonCount)
	require.True(t, ok)
	assert.InDelta(t, -0.021, c, 1e-12)

	_, ok = m.Coefficient(FeatTotalSugars)
	assert.False(t, ok)
}

func TestSelectFeatures(t *testing.T) {
	records := make([]compound.Record, 12)
	idx := make([]int, 12)
	for i := range records {
		records[i] = compound.Record{
			LogP:         float64(i),
			CarbonCount:  2 * i, // perfectly collinear with log P
			Unsaturation: i % 3,
			OxygenCount:  2,     // zero variance
			Sugars:       compound.SugarProfile{SialicAcids: i % 2, NeutralSugars: 4},
		}
		idx[i] = i
	}

	t.Run("base mode keeps log P only", func(t *testing.T) {
		got := SelectFeatures(records, idx, SelectorOptions{
			Extended:           false,
			MaxFeatureFraction: 0.3,
			CorrelationPrune:   0.95,
		})
		assert.Equal(t, []string{FeatLogP}, got)
	})

	t.Run("extended prunes collinear and constant columns", func(t *testing.T) {
		got := SelectFeatures(records, idx, SelectorOptions{
			Extended:           true,
			MaxFeatureFraction: 0.3,
			CorrelationPrune:   0.95,
		})
		assert.Contains(t, got, FeatLogP)
		assert.NotContains(t, got, FeatCarbonCount, "collinear with log P")
		assert.NotContains(t, got, FeatOxygenCount, "constant column")
		assert.LessOrEqual(t, len(got), 3, "capped at 0.3*n")
		assert.Equal(t, FeatLogP, got[0])
	})

	t.Run("tight fraction truncates to log P", func(t *testing.T) {
		got := SelectFeatures(records, idx, SelectorOptions{
			Extended:           true,
			MaxFeatureFraction: 0.05,
			CorrelationPrune:   0.95,
		})
		assert.Equal(t, []string{FeatLogP}, got)
	})
}

func TestCrossValidateLeaveOneOut(t *testing.T) {
	rows, y := linearData(8, 2.0, 1.0)

	res, err := CrossValidate([]string{FeatLogP}, rows, y, 0.01, 42)
	require.NoError(t, err)

	assert.Equal(t, CVMethodLOO, res.Method)
	assert.Equal(t, 8, res.Folds)
	assert.False(t, res.Degenerate)
	assert.Greater(t, res.R2, 0.95)
}

func TestCrossValidateDegenerateSample(t *testing.T) {
	rows := [][]float64{{-0.94}, {2.8}, {3.88}}
	y := []float64{8.701, 9.599, 11.126}

	res, err := CrossValidate([]string{FeatLogP}, rows, y, 1.0, 42)
	require.NoError(t, err)

	assert.True(t, res.Degenerate)
	assert.Equal(t, CVMethodLOO, res.Method)
}

func TestCrossValidateKFoldReproducible(t *testing.T) {
	rows, y := linearData(20, 5.0, 0.25)

	first, err := CrossValidate([]string{FeatLogP}, rows, y, 0.01, 42)
	require.NoError(t, err)
	second, err := CrossValidate([]string{FeatLogP}, rows, y, 0.01, 42)
	require.NoError(t, err)

	assert.Equal(t, CVMethodKFold5, first.Method)
	assert.Equal(t, 5, first.Folds)
	assert.Equal(t, first.R2, second.R2, "same seed must give the same split")
	assert.Greater(t, first.R2, 0.9)
}

func TestCrossValidateTooFewSamples(t *testing.T) {
	_, err := CrossValidate([]string{FeatLogP}, [][]float64{{1}, {2}}, []float64{1, 2}, 1.0, 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCrossValFailed))
}

func TestHatDiagonalSumsToParameterCount(t *testing.T) {
	rows := [][]float64{{1}, {2}, {3}, {4}, {5}}

	h, err := HatDiagonal(rows, 0)
	require.NoError(t, err)
	require.Len(t, h, 5)

	var sum float64
	for _, v := range h {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
		sum += v
	}
	assert.InDelta(t, 2.0, sum, 1e-9, "trace of the hat matrix equals the parameter count")
}

func TestDistinctLogP(t *testing.T) {
	records := []compound.Record{{LogP: 1.5}, {LogP: 1.5}, {LogP: 2.0}}
	assert.Equal(t, 2, DistinctLogP(records, []int{0, 1, 2}))
	assert.Equal(t, 1, DistinctLogP(records, []int{0, 1}))
}
