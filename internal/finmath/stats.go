package finmath

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrNonFinite is returned when a computation leaves the real numbers
// (e.g. a fractional power of a negative growth factor).
var ErrNonFinite = errors.New("non-finite result")

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// Mean 평균 (arithmetic mean). Zero for an empty series.
func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}

// Variance is the sample variance (n-1 divisor). Zero below two observations.
func Variance(values []decimal.Decimal) decimal.Decimal {
	if len(values) < 2 {
		return decimal.Zero
	}
	mean := Mean(values)
	sumSq := decimal.Zero
	for _, v := range values {
		diff := v.Sub(mean)
		sumSq = sumSq.Add(diff.Mul(diff))
	}
	return sumSq.Div(decimal.NewFromInt(int64(len(values) - 1)))
}

// StdDev 표준편차 (sample standard deviation, Bessel corrected).
func StdDev(values []decimal.Decimal) decimal.Decimal {
	return Sqrt(Variance(values))
}

// Covariance is the sample covariance of two equal-length series.
// Zero when lengths differ or fewer than two observations exist.
func Covariance(x, y []decimal.Decimal) decimal.Decimal {
	if len(x) != len(y) || len(x) < 2 {
		return decimal.Zero
	}
	mx, my := Mean(x), Mean(y)
	sum := decimal.Zero
	for i := range x {
		sum = sum.Add(x[i].Sub(mx).Mul(y[i].Sub(my)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(x) - 1)))
}

// Sqrt returns the square root of d. Non-positive input yields zero.
// A float64 seed is refined with one Newton step in decimal arithmetic.
func Sqrt(d decimal.Decimal) decimal.Decimal {
	if !d.IsPositive() {
		return decimal.Zero
	}
	x := decimal.NewFromFloat(math.Sqrt(d.InexactFloat64()))
	if x.IsZero() {
		return x
	}
	return x.Add(d.Div(x)).Div(two)
}

// Pow raises base to a (possibly fractional) exponent.
func Pow(base, exp decimal.Decimal) (decimal.Decimal, error) {
	v := math.Pow(base.InexactFloat64(), exp.InexactFloat64())
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, fmt.Errorf("%w: %s^%s", ErrNonFinite, base, exp)
	}
	return decimal.NewFromFloat(v), nil
}

// Compound geometrically links period returns: Π(1+r) - 1.
func Compound(returns []decimal.Decimal) decimal.Decimal {
	growth := one
	for _, r := range returns {
		growth = growth.Mul(one.Add(r))
	}
	return growth.Sub(one)
}

// SortedCopy returns returns sorted ascending without touching the input.
func SortedCopy(values []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})
	return sorted
}

// PricePath compounds returns into a price path starting at base.
// The path has len(returns)+1 points.
func PricePath(base decimal.Decimal, returns []decimal.Decimal) []decimal.Decimal {
	path := make([]decimal.Decimal, 0, len(returns)+1)
	path = append(path, base)
	level := base
	for _, r := range returns {
		level = level.Mul(one.Add(r))
		path = append(path, level)
	}
	return path
}
