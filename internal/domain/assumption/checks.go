// Package assumption validates the statistical assumptions behind an
// accepted regression model and emits advisory warnings when they look
// violated.  Warnings never reject a model; they travel with the result for
// the analyst to weigh.
package assumption

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/glycotrace/glycotrace/pkg/types/common"

	"github.com/glycotrace/glycotrace/internal/domain/regression"
)

const (
	// Durbin-Watson band considered free of serial correlation.
	dwLow  = 1.5
	dwHigh = 2.5

	// Absolute correlation between squared residuals and predictions above
	// which the error variance is treated as non-constant.
	heteroCorrCutoff = 0.3

	// Shapiro-Wilk significance level and the minimum residual count for the
	// test to carry weight.
	normalityAlpha = 0.05
	normalityMinN  = 8
)

// expectedSigns maps features to the coefficient sign chemistry predicts:
// longer chains retain longer, while unsaturation and sugars elute earlier.
var expectedSigns = map[string]float64{
	regression.FeatLogP:         +1,
	regression.FeatCarbonCount:  +1,
	regression.FeatUnsaturation: -1,
	regression.FeatTotalSugars:  -1,
	regression.FeatSialicAcids:  -1,
}

// Options tunes the advisory checks.
type Options struct {
	// OverfitGapWarn is the TrainR2−CVR2 gap above which overfitting is
	// flagged.
	OverfitGapWarn float64
}

// CheckModel runs every assumption check against an accepted model and its
// training residuals.  residuals and predicted are aligned, in sample order.
// scope labels the warnings with the model's group (e.g. "GT1/L2").
func CheckModel(m *regression.Model, residuals, predicted []float64, scope string, opts Options) []common.Warning {
	var warnings []common.Warning
	add := func(w common.Warning) {
		w.Scope = scope
		warnings = append(warnings, w)
	}

	if m.DurbinWatson < dwLow || m.DurbinWatson > dwHigh {
		add(common.Warning{
			Kind:      common.WarnAutocorrelation,
			Message:   fmt.Sprintf("Durbin-Watson %.3f outside [%.1f, %.1f]", m.DurbinWatson, dwLow, dwHigh),
			Observed:  m.DurbinWatson,
			Threshold: dwLow,
		})
	}

	if w, ok := heteroscedasticity(residuals, predicted); ok {
		add(w)
	}

	for i, feat := range m.Features {
		want, known := expectedSigns[feat]
		if !known {
			continue
		}
		c := m.Coefficients[i]
		if c != 0 && math.Signbit(c) != math.Signbit(want) {
			add(common.Warning{
				Kind:     common.WarnCoefficientSign,
				Message:  fmt.Sprintf("%s coefficient %.4f has unexpected sign", feat, c),
				Observed: c,
			})
		}
	}

	if gap := m.OverfitGap(); gap > opts.OverfitGapWarn {
		add(common.Warning{
			Kind:      common.WarnOverfitGap,
			Message:   fmt.Sprintf("train R² exceeds CV R² by %.3f", gap),
			Observed:  gap,
			Threshold: opts.OverfitGapWarn,
		})
	}

	if len(residuals) >= normalityMinN {
		if _, p, err := ShapiroWilk(residuals); err == nil && p <= normalityAlpha {
			add(common.Warning{
				Kind:      common.WarnNonNormalResidual,
				Message:   fmt.Sprintf("Shapiro-Wilk p=%.4f rejects residual normality", p),
				Observed:  p,
				Threshold: normalityAlpha,
			})
		}
	}

	return warnings
}

// heteroscedasticity is a Breusch-Pagan-style proxy: it correlates squared
// residuals with predictions.
func heteroscedasticity(residuals, predicted []float64) (common.Warning, bool) {
	if len(residuals) < 3 || len(residuals) != len(predicted) {
		return common.Warning{}, false
	}
	sq := make([]float64, len(residuals))
	for i, r := range residuals {
		sq[i] = r * r
	}
	if constantSlice(sq) || constantSlice(predicted) {
		return common.Warning{}, false
	}
	r := stat.Correlation(sq, predicted, nil)
	if math.IsNaN(r) || math.Abs(r) <= heteroCorrCutoff {
		return common.Warning{}, false
	}
	return common.Warning{
		Kind:      common.WarnHeteroscedastic,
		Message:   fmt.Sprintf("squared residuals correlate with predictions (r=%.3f)", r),
		Observed:  math.Abs(r),
		Threshold: heteroCorrCutoff,
	}, true
}

func constantSlice(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
