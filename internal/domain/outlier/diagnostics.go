package outlier

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/glycotrace/glycotrace/pkg/types/common"

	"github.com/glycotrace/glycotrace/internal/domain/regression"
)

// Advisory thresholds.  Leverage, Cook's distance and DFFITS use the usual
// sample-size-dependent cutoffs; the robust methods use fixed ones.
const (
	iqrFenceFactor = 1.5
	madZCutoff     = 3.5
	madScale       = 0.6745
)

func attachAdvisory(cs []Classification, rows [][]float64, m *regression.Model, opts Options) {
	if opts.IQR {
		iqrReasons(cs)
	}
	if opts.MADZ {
		madReasons(cs)
	}
	if !opts.Leverage && !opts.Cooks && !opts.DFFITS {
		return
	}

	h, err := regression.HatDiagonal(rows, opts.Lambda)
	if err != nil {
		// Leverage-based diagnostics are advisory; an ill-conditioned hat
		// matrix is not worth failing the classification over.
		return
	}
	n := len(cs)
	p := len(m.Features) + 1

	var s2 float64
	if n > p {
		var ss float64
		for _, c := range cs {
			ss += c.Residual * c.Residual
		}
		s2 = ss / float64(n-p)
	}

	leverageCut := 2 * float64(p) / float64(n)
	cooksCut := 0.0
	if n > p {
		cooksCut = 4 / float64(n-p)
	}
	dffitsCut := 2 * math.Sqrt(float64(p)/float64(n))

	for i := range cs {
		hi := h[i]
		if opts.Leverage && hi >= leverageCut {
			cs[i].Advisory = append(cs[i].Advisory, common.Reason{
				Kind:      common.ReasonLeverage,
				Threshold: leverageCut,
				Observed:  hi,
			})
		}
		if hi >= 1 || s2 == 0 {
			continue
		}
		e := cs[i].Residual
		if opts.Cooks && cooksCut > 0 {
			d := (e * e / (float64(p) * s2)) * (hi / ((1 - hi) * (1 - hi)))
			if d >= cooksCut {
				cs[i].Advisory = append(cs[i].Advisory, common.Reason{
					Kind:      common.ReasonCooksDistance,
					Threshold: cooksCut,
					Observed:  d,
				})
			}
		}
		if opts.DFFITS {
			t := e / math.Sqrt(s2*(1-hi))
			df := math.Abs(t) * math.Sqrt(hi/(1-hi))
			if df >= dffitsCut {
				cs[i].Advisory = append(cs[i].Advisory, common.Reason{
					Kind:      common.ReasonDFFITS,
					Threshold: dffitsCut,
					Observed:  df,
				})
			}
		}
	}
}

// iqrReasons flags residuals outside the Tukey fences.
func iqrReasons(cs []Classification) {
	res := Residuals(cs)
	sorted := append([]float64(nil), res...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	if iqr == 0 {
		return
	}
	lo := q1 - iqrFenceFactor*iqr
	hi := q3 + iqrFenceFactor*iqr

	for i, r := range res {
		if r < lo || r > hi {
			cs[i].Advisory = append(cs[i].Advisory, common.Reason{
				Kind:     common.ReasonIQR,
				Observed: r,
				Detail:   fmt.Sprintf("outside fences [%.4f, %.4f]", lo, hi),
			})
		}
	}
}

// madReasons flags residuals by robust z-score around the median.
func madReasons(cs []Classification) {
	res := Residuals(cs)
	sorted := append([]float64(nil), res...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	dev := make([]float64, len(res))
	for i, r := range res {
		dev[i] = math.Abs(r - median)
	}
	sort.Float64s(dev)
	mad := stat.Quantile(0.5, stat.Empirical, dev, nil)
	if mad == 0 {
		return
	}

	for i, r := range res {
		z := madScale * math.Abs(r-median) / mad
		if z >= madZCutoff {
			cs[i].Advisory = append(cs[i].Advisory, common.Reason{
				Kind:      common.ReasonMADZScore,
				Threshold: madZCutoff,
				Observed:  z,
			})
		}
	}
}
