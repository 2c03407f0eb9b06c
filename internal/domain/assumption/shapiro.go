package assumption

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	apperrors "github.com/glycotrace/glycotrace/pkg/errors"
)

// ShapiroWilk computes the Shapiro-Wilk W statistic and its approximate
// p-value for the null hypothesis that x is normally distributed, using
// Royston's AS R94 approximation.  Valid for 3 <= n <= 5000.
func ShapiroWilk(x []float64) (w, p float64, err error) {
	n := len(x)
	if n < 3 {
		return 0, 0, apperrors.InvalidParam("Shapiro-Wilk requires at least 3 samples")
	}
	if n > 5000 {
		return 0, 0, apperrors.InvalidParam("Shapiro-Wilk approximation is unreliable beyond 5000 samples")
	}

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	if sorted[0] == sorted[n-1] {
		return 0, 0, apperrors.InvalidParam("Shapiro-Wilk requires non-constant data")
	}

	norm := distuv.Normal{Mu: 0, Sigma: 1}

	// Expected normal order statistics (Blom scores).
	m := make([]float64, n)
	var ssm float64
	for i := 0; i < n; i++ {
		m[i] = norm.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		ssm += m[i] * m[i]
	}

	a := make([]float64, n)
	u := 1 / math.Sqrt(float64(n))
	rsqrt := 1 / math.Sqrt(ssm)
	if n <= 5 {
		an := -2.706056*pow5(u) + 4.434685*pow4(u) - 2.071190*pow3(u) -
			0.147981*u*u + 0.221157*u + m[n-1]*rsqrt
		phi := (ssm - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		a[n-1] = an
		a[0] = -an
		for i := 1; i < n-1; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	} else {
		an := -3.582633*pow5(u) + 5.682633*pow4(u) - 1.752461*pow3(u) -
			0.293762*u*u + 0.042981*u + m[n-1]*rsqrt
		an1 := -2.706056*pow5(u) + 4.434685*pow4(u) - 2.071190*pow3(u) -
			0.147981*u*u + 0.221157*u + m[n-2]*rsqrt
		phi := (ssm - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) /
			(1 - 2*an*an - 2*an1*an1)
		a[n-1], a[n-2] = an, an1
		a[0], a[1] = -an, -an1
		for i := 2; i < n-2; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	}

	var mean float64
	for _, v := range sorted {
		mean += v
	}
	mean /= float64(n)

	var num, den float64
	for i, v := range sorted {
		num += a[i] * v
		d := v - mean
		den += d * d
	}
	w = num * num / den
	if w > 1 {
		w = 1
	}

	return w, shapiroPValue(w, n), nil
}

// shapiroPValue maps W to an upper-tail p-value via Royston's normalizing
// transformations.
func shapiroPValue(w float64, n int) float64 {
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	nf := float64(n)

	switch {
	case n == 3:
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		if p < 0 {
			return 0
		}
		return p
	case n <= 11:
		gamma := -2.273 + 0.459*nf
		wt := -math.Log(gamma - math.Log(1-w))
		mu := 0.5440 - 0.39978*nf + 0.025054*nf*nf - 0.0006714*nf*nf*nf
		sigma := math.Exp(1.3822 - 0.77857*nf + 0.062767*nf*nf - 0.0020322*nf*nf*nf)
		return norm.Survival((wt - mu) / sigma)
	default:
		ln := math.Log(nf)
		wt := math.Log(1 - w)
		mu := -1.5861 - 0.31082*ln - 0.083751*ln*ln + 0.0038915*ln*ln*ln
		sigma := math.Exp(-0.4803 - 0.082676*ln + 0.0030302*ln*ln)
		return norm.Survival((wt - mu) / sigma)
	}
}

func pow3(v float64) float64 { return v * v * v }
func pow4(v float64) float64 { return v * v * v * v }
func pow5(v float64) float64 { return v * v * v * v * v }
