// Package outlier partitions a model's scope into valid and outlier
// compounds.  The standardized-residual rule decides the verdict; the
// remaining detection methods are advisory and attach audit reasons without
// changing the partition.
package outlier

import (
	"math"

	apperrors "github.com/glycotrace/glycotrace/pkg/errors"
	"github.com/glycotrace/glycotrace/pkg/types/common"

	"github.com/glycotrace/glycotrace/internal/domain/compound"
	"github.com/glycotrace/glycotrace/internal/domain/regression"
)

// Verdict is the binary classification of a compound under its model.
type Verdict string

const (
	VerdictValid   Verdict = "valid"
	VerdictOutlier Verdict = "outlier"
)

// Classification is the per-compound result of Classify.
type Classification struct {
	// Index is the compound's position in the run's record arena.
	Index       int     `json:"index"`
	Predicted   float64 `json:"predicted_rt"`
	Residual    float64 `json:"residual"`
	StdResidual float64 `json:"std_residual"`
	Verdict     Verdict `json:"verdict"`
	// Reasons carries the verdict-deciding evidence; empty for valid
	// compounds.
	Reasons []common.Reason `json:"reasons,omitempty"`
	// Advisory carries findings from the enabled audit diagnostics.  They
	// never flip a verdict.
	Advisory []common.Reason `json:"advisory,omitempty"`
}

// Options selects the threshold of the deciding rule and which advisory
// diagnostics run.
type Options struct {
	// Sigma is the standardized-residual magnitude at or above which a
	// compound is an outlier.
	Sigma float64
	// Lambda is the regularization strength used for leverage computation;
	// it should match the fitted model's.
	Lambda float64

	Leverage bool
	Cooks    bool
	DFFITS   bool
	IQR      bool
	MADZ     bool
}

// Classify evaluates every indexed record under the model and returns one
// Classification per record, in idx order.
//
// The standardized residual divides each raw residual by the population
// standard deviation of residuals over the whole scope.  A degenerate scope
// whose residuals have zero spread classifies everything as valid.
func Classify(records []compound.Record, idx []int, m *regression.Model, opts Options) ([]Classification, error) {
	if m == nil {
		return nil, apperrors.InvalidParam("classification requires a fitted model")
	}
	if len(idx) == 0 {
		return nil, apperrors.NewCode(apperrors.ErrCodeEmptyScope)
	}

	rows := regression.FeatureRows(records, idx, m.Features)
	n := len(idx)
	out := make([]Classification, n)

	var ss float64
	for i, ri := range idx {
		pred := m.Predict(rows[i])
		res := records[ri].RT - pred
		out[i] = Classification{
			Index:     ri,
			Predicted: pred,
			Residual:  res,
			Verdict:   VerdictValid,
		}
		ss += res * res
	}
	popStd := math.Sqrt(ss / float64(n))
	if popStd == 0 {
		return out, nil
	}

	for i := range out {
		z := out[i].Residual / popStd
		out[i].StdResidual = z
		if math.Abs(z) >= opts.Sigma {
			out[i].Verdict = VerdictOutlier
			out[i].Reasons = append(out[i].Reasons, common.Reason{
				Kind:      common.ReasonStdResidual,
				Threshold: opts.Sigma,
				Observed:  math.Abs(z),
			})
		}
	}

	attachAdvisory(out, rows, m, opts)
	return out, nil
}

// Residuals extracts the raw residual of each classification, in order.
func Residuals(cs []Classification) []float64 {
	res := make([]float64, len(cs))
	for i, c := range cs {
		res[i] = c.Residual
	}
	return res
}

// Split partitions classifications into valid and outlier groups, preserving
// order.
func Split(cs []Classification) (valid, outliers []Classification) {
	for _, c := range cs {
		if c.Verdict == VerdictOutlier {
			outliers = append(outliers, c)
		} else {
			valid = append(valid, c)
		}
	}
	return valid, outliers
}
