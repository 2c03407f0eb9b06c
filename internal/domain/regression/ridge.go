package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/glycotrace/glycotrace/pkg/errors"
)

// lambdaEscalations is how many ×10 steps are tried before a fit is declared
// numerically singular.
const lambdaEscalations = 2

// Fit solves a ridge regression of y on the given feature rows.  Features are
// standardized and y centered internally; the returned model carries
// coefficients converted back to raw units.  On an ill-conditioned normal
// system the regularization strength is escalated ×10 up to two times before
// giving up with a singular-matrix error.
//
// CVR2 and CVMethod are left zero; CrossValidate fills them.
func Fit(features []string, rows [][]float64, y []float64, lambda float64) (*Model, error) {
	n := len(y)
	p := len(features)
	if n < 2 {
		return nil, apperrors.NewCode(apperrors.ErrCodeInsufficientSample).
			WithDetailf("need at least 2 samples, got %d", n)
	}
	if p == 0 || len(rows) != n {
		return nil, apperrors.InvalidParam("regression fit requires a non-empty aligned design")
	}
	if distinctColumn(rows, 0) < 2 {
		return nil, apperrors.NewCode(apperrors.ErrCodeNoLogPVariation).
			WithDetailf("all %d samples share one log P value", n)
	}

	means, stds := columnStats(rows, p)
	yMean := stat.Mean(y, nil)

	xs := mat.NewDense(n, p, nil)
	for i, row := range rows {
		for j := 0; j < p; j++ {
			xs.Set(i, j, (row[j]-means[j])/stds[j])
		}
	}
	yc := mat.NewVecDense(n, nil)
	for i := range y {
		yc.SetVec(i, y[i]-yMean)
	}

	var xty mat.VecDense
	xty.MulVec(xs.T(), yc)

	betaStd, usedLambda, err := solveRidge(xs, &xty, p, lambda)
	if err != nil {
		return nil, err
	}

	coeffs := make([]float64, p)
	intercept := yMean
	for j := 0; j < p; j++ {
		coeffs[j] = betaStd.AtVec(j) / stds[j]
		intercept -= coeffs[j] * means[j]
	}

	m := &Model{
		Intercept:    intercept,
		Coefficients: coeffs,
		Features:     append([]string(nil), features...),
		AnchorCount:  n,
		Lambda:       usedLambda,
	}

	residuals := make([]float64, n)
	var ssRes, ssTot float64
	for i, row := range rows {
		res := y[i] - m.Predict(row)
		residuals[i] = res
		ssRes += res * res
		d := y[i] - yMean
		ssTot += d * d
	}
	if ssTot > 0 {
		m.TrainR2 = 1 - ssRes/ssTot
	}
	m.ResidualStd = math.Sqrt(ssRes / float64(n))
	m.DurbinWatson = durbinWatson(residuals)
	return m, nil
}

// solveRidge solves (XᵀX + λI)β = Xᵀy by Cholesky, escalating λ when the
// normal matrix is not positive definite.
func solveRidge(xs *mat.Dense, xty *mat.VecDense, p int, lambda float64) (*mat.VecDense, float64, error) {
	var gram mat.Dense
	gram.Mul(xs.T(), xs)

	for attempt := 0; attempt <= lambdaEscalations; attempt++ {
		g := mat.NewSymDense(p, nil)
		for i := 0; i < p; i++ {
			for j := i; j < p; j++ {
				v := gram.At(i, j)
				if i == j {
					v += lambda
				}
				g.SetSym(i, j, v)
			}
		}
		var chol mat.Cholesky
		if chol.Factorize(g) {
			beta := mat.NewVecDense(p, nil)
			if err := chol.SolveVecTo(beta, xty); err == nil {
				return beta, lambda, nil
			}
		}
		lambda *= 10
	}
	return nil, lambda, apperrors.NewCode(apperrors.ErrCodeSingularMatrix).
		WithDetailf("normal system not positive definite after escalating lambda to %g", lambda)
}

// HatDiagonal computes the leverage h_i of each raw feature row under the
// ridge-regularized hat matrix, including an implicit intercept column.
func HatDiagonal(rows [][]float64, lambda float64) ([]float64, error) {
	n := len(rows)
	if n == 0 {
		return nil, apperrors.InvalidParam("hat diagonal requires at least one row")
	}
	p := len(rows[0]) + 1

	a := mat.NewDense(n, p, nil)
	for i, row := range rows {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}

	var gram mat.Dense
	gram.Mul(a.T(), a)
	g := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			v := gram.At(i, j)
			if i == j {
				v += lambda
			}
			g.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(g) {
		return nil, apperrors.NewCode(apperrors.ErrCodeSingularMatrix).
			WithDetail("leverage computation failed to factorize the normal matrix")
	}

	h := make([]float64, n)
	xi := mat.NewVecDense(p, nil)
	sol := mat.NewVecDense(p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xi.SetVec(j, a.At(i, j))
		}
		if err := chol.SolveVecTo(sol, xi); err != nil {
			return nil, apperrors.NewCode(apperrors.ErrCodeSingularMatrix).WithCause(err)
		}
		h[i] = mat.Dot(xi, sol)
	}
	return h, nil
}

func columnStats(rows [][]float64, p int) (means, stds []float64) {
	n := float64(len(rows))
	means = make([]float64, p)
	stds = make([]float64, p)
	for j := 0; j < p; j++ {
		var sum float64
		for _, row := range rows {
			sum += row[j]
		}
		means[j] = sum / n
		var ss float64
		for _, row := range rows {
			d := row[j] - means[j]
			ss += d * d
		}
		stds[j] = math.Sqrt(ss / n)
		if stds[j] == 0 {
			// Zero-variance column inside a CV fold; the centered values are
			// all zero, so the scale only has to be finite.
			stds[j] = 1
		}
	}
	return means, stds
}

func distinctColumn(rows [][]float64, j int) int {
	seen := make(map[float64]struct{}, len(rows))
	for _, row := range rows {
		seen[row[j]] = struct{}{}
	}
	return len(seen)
}

func durbinWatson(residuals []float64) float64 {
	var num, den float64
	for i, r := range residuals {
		den += r * r
		if i > 0 {
			d := r - residuals[i-1]
			num += d * d
		}
	}
	if den == 0 {
		return 2
	}
	return num / den
}
