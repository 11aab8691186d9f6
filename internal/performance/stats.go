package performance

import (
	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/finmath"
)

// =============================================================================
// 통계 유틸리티 (statistical helpers)
// =============================================================================

// volatility is the sample standard deviation (n-1). Zero below two points.
func volatility(returns []decimal.Decimal) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	return finmath.StdDev(returns)
}

// beta is cov(p, b) / var(b). Falls back to market beta 1 when the inputs
// are mismatched, too short, or the benchmark does not move.
func beta(portfolio, benchmark []decimal.Decimal) decimal.Decimal {
	if len(portfolio) != len(benchmark) || len(portfolio) < 2 {
		return one
	}
	variance := finmath.Variance(benchmark)
	if variance.IsZero() {
		return one
	}
	return finmath.Covariance(portfolio, benchmark).Div(variance)
}

// correlation is the Pearson coefficient; zero for invalid input.
func correlation(x, y []decimal.Decimal) decimal.Decimal {
	if len(x) != len(y) || len(x) < 2 {
		return decimal.Zero
	}
	mx, my := finmath.Mean(x), finmath.Mean(y)
	num, sx, sy := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range x {
		dx, dy := x[i].Sub(mx), y[i].Sub(my)
		num = num.Add(dx.Mul(dy))
		sx = sx.Add(dx.Mul(dx))
		sy = sy.Add(dy.Mul(dy))
	}
	den := finmath.Sqrt(sx.Mul(sy))
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// rankCorrelation is Spearman's 1 - 6Σd²/(n(n²-1)) over two rank lists.
func rankCorrelation(x, y []int) decimal.Decimal {
	n := len(x)
	if n != len(y) || n < 2 {
		return decimal.Zero
	}
	var sumSq int64
	for i := range x {
		d := int64(x[i] - y[i])
		sumSq += d * d
	}
	nn := int64(n)
	return one.Sub(decimal.NewFromInt(6 * sumSq).Div(decimal.NewFromInt(nn * (nn*nn - 1))))
}

// cvar averages the sorted returns up to floor(n*confidence) and reports
// the magnitude. Always non-negative.
func cvar(returns []decimal.Decimal, confidence decimal.Decimal) decimal.Decimal {
	if len(returns) == 0 {
		return decimal.Zero
	}
	sorted := finmath.SortedCopy(returns)
	idx := int(decimal.NewFromInt(int64(len(sorted))).Mul(confidence).Floor().IntPart())
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return finmath.Mean(sorted[:idx+1]).Abs()
}

// activeReturns is p - b per period. Callers check lengths.
func activeReturns(portfolio, benchmark []decimal.Decimal) []decimal.Decimal {
	active := make([]decimal.Decimal, len(portfolio))
	for i := range portfolio {
		active[i] = portfolio[i].Sub(benchmark[i])
	}
	return active
}

// fraction returns count/total as a decimal. total must be positive.
func fraction(count, total int) decimal.Decimal {
	return decimal.NewFromInt(int64(count)).Div(decimal.NewFromInt(int64(total)))
}

// rankDescending ranks values highest-first (rank 1 = highest) by the
// first position of each value in the descending order, so ties share
// the rank of their first occurrence.
func rankDescending(values []decimal.Decimal) []int {
	sorted := finmath.SortedCopy(values)
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	ranks := make([]int, len(values))
	for i, v := range values {
		for j, s := range sorted {
			if s.Equal(v) {
				ranks[i] = j + 1
				break
			}
		}
	}
	return ranks
}
