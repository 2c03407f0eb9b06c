// Package regression implements the regularized linear modeling used by the
// classification cascade: feature selection, ridge fitting on anchor
// compounds, and cross-validated goodness-of-fit estimation.
package regression

import (
	"fmt"
	"strings"
)

// Model is a fitted regularized linear regression of retention time on
// structural features.  Coefficients are expressed in raw feature units, so
// Predict is a plain dot product; the standardization used during fitting is
// already folded in.
//
// A Model is immutable after Fit returns.
type Model struct {
	// ID identifies the model in results and logs, e.g. "GT1/L2" or
	// "GD_family/L3".  Set by the cascade, not by Fit.
	ID string `json:"id"`

	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"` // aligned with Features
	Features     []string  `json:"features"`

	// TrainR2 is the in-sample coefficient of determination.
	TrainR2 float64 `json:"train_r2"`

	// CVR2 is the cross-validated R² over aggregated held-out predictions.
	// This, not TrainR2, gates cascade acceptance.
	CVR2 float64 `json:"cv_r2"`

	// CVMethod records how CVR2 was obtained ("loo", "kfold3", "kfold5").
	CVMethod string `json:"cv_method"`

	// SmallSampleGate is true when the anchor count was too small for the
	// held-out estimate to be meaningful and acceptance was gated on TrainR2
	// instead.  CVR2 is still reported for audit.
	SmallSampleGate bool `json:"small_sample_gate,omitempty"`

	// ResidualStd is the standard deviation of training residuals.
	ResidualStd float64 `json:"residual_std"`

	// AnchorCount is the number of anchors the model was fitted on.
	AnchorCount int `json:"anchor_count"`

	// Lambda is the regularization strength actually used; it may exceed the
	// configured base value when escalation recovered an ill-conditioned fit.
	Lambda float64 `json:"lambda"`

	// DurbinWatson is the Durbin-Watson statistic of the training residuals
	// in sample order.
	DurbinWatson float64 `json:"durbin_watson"`
}

// Predict returns the predicted retention time for a feature vector aligned
// with m.Features.
func (m *Model) Predict(x []float64) float64 {
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * x[i]
	}
	return y
}

// OverfitGap returns TrainR2 − CVR2, the overfitting indicator.
func (m *Model) OverfitGap() float64 {
	return m.TrainR2 - m.CVR2
}

// Equation renders the fitted model as a human-readable formula, e.g.
// "RT = 8.910 + 0.450*log_p - 0.021*carbon_count".
func (m *Model) Equation() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "RT = %.4f", m.Intercept)
	for i, name := range m.Features {
		c := m.Coefficients[i]
		if c < 0 {
			fmt.Fprintf(&sb, " - %.4f*%s", -c, name)
		} else {
			fmt.Fprintf(&sb, " + %.4f*%s", c, name)
		}
	}
	return sb.String()
}

// Coefficient returns the coefficient for the named feature and whether the
// feature is part of the model.
func (m *Model) Coefficient(name string) (float64, bool) {
	for i, f := range m.Features {
		if f == name {
			return m.Coefficients[i], true
		}
	}
	return 0, false
}
