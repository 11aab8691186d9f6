package performance

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/finmath"
)

// minFactorObservations is the shortest series the regression will fit.
const minFactorObservations = 10

var errRankDeficient = errors.New("factor design matrix has rank zero")

// FactorExposures regresses portfolio returns on the factor series of
// matching length (plus an intercept) by least squares.
// Returns alpha, <factor>_beta per factor, and r_squared. Any failure
// (too few observations, no usable factor, numeric trouble) yields an
// empty result.
func (a *Analyzer) FactorExposures(portfolioReturns []decimal.Decimal, factorReturns map[string][]decimal.Decimal) contracts.Metrics {
	if len(portfolioReturns) < minFactorObservations {
		return contracts.Metrics{}
	}

	names := make([]string, 0, len(factorReturns))
	for name, series := range factorReturns {
		if len(series) == len(portfolioReturns) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return contracts.Metrics{}
	}
	sort.Strings(names)

	coef, rSquared, err := regress(portfolioReturns, factorReturns, names)
	if err != nil {
		a.logger.WithError(err).Warn("Factor exposure regression failed")
		return contracts.Metrics{}
	}

	m := contracts.Metrics{
		"alpha":     decimal.NewFromFloat(coef[0]),
		"r_squared": decimal.NewFromFloat(rSquared),
	}
	for i, name := range names {
		m[name+"_beta"] = decimal.NewFromFloat(coef[i+1])
	}
	return m
}

// regress fits y = Xb with an intercept column using the minimum-norm SVD
// solution, so collinear factors still produce coefficients.
func regress(y []decimal.Decimal, factors map[string][]decimal.Decimal, names []string) (coef []float64, rSquared float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("regression panic: %v", r)
		}
	}()

	n, k := len(y), len(names)+1
	x := mat.NewDense(n, k, nil)
	yv := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, name := range names {
			x.Set(i, j+1, factors[name][i].InexactFloat64())
		}
		yv[i] = y[i].InexactFloat64()
	}
	ym := mat.NewDense(n, 1, yv)

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, 0, errors.New("svd factorization failed")
	}
	rank := svd.Rank(float64(max(n, k)) * 2.220446049250313e-16)
	if rank == 0 {
		return nil, 0, errRankDeficient
	}

	var b mat.Dense
	svd.SolveTo(&b, ym, rank)

	coef = make([]float64, k)
	for j := range coef {
		coef[j] = b.At(j, 0)
		if !isFinite(coef[j]) {
			return nil, 0, finmath.ErrNonFinite
		}
	}

	var fitted mat.Dense
	fitted.Mul(x, &b)
	mean := stat.Mean(yv, nil)
	var ssRes, ssTot float64
	for i, v := range yv {
		res := v - fitted.At(i, 0)
		ssRes += res * res
		dev := v - mean
		ssTot += dev * dev
	}
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}
	if !isFinite(rSquared) {
		return nil, 0, finmath.ErrNonFinite
	}
	return coef, rSquared, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
