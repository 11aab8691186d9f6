package finmath

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
)

// =============================================================================
// Calculator - 순수 계산기
// =============================================================================

// Calculator provides the primitive financial computations
// (IRR, multiples, risk ratios, drawdown, historical VaR).
// ⭐ SSOT: stateless; every method is a pure function of its inputs
type Calculator struct {
	// IRR solver settings
	maxIterations int
	tolerance     float64
}

// NewCalculator creates a calculator with default solver settings.
func NewCalculator() *Calculator {
	return &Calculator{
		maxIterations: 200,
		tolerance:     1e-10,
	}
}

// =============================================================================
// Cash-flow metrics
// =============================================================================

// IRR computes the annualised internal rate of return of dated cash flows
// (actual/365 day count). The second result is false when the flows have
// no sign change, cannot be dated, or the solver does not converge.
func (c *Calculator) IRR(flows []contracts.CashFlow) (decimal.Decimal, bool) {
	if len(flows) < 2 {
		return decimal.Zero, false
	}

	amounts := make([]float64, len(flows))
	dates := make([]time.Time, len(flows))
	hasPositive, hasNegative := false, false
	for i, f := range flows {
		d, err := contracts.TimestampDate(f.Timestamp)
		if err != nil {
			return decimal.Zero, false
		}
		dates[i] = d
		amounts[i] = f.Amount.InexactFloat64()
		if f.Amount.IsPositive() {
			hasPositive = true
		} else if f.Amount.IsNegative() {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return decimal.Zero, false
	}

	start := dates[0]
	for _, d := range dates[1:] {
		if d.Before(start) {
			start = d
		}
	}
	years := make([]float64, len(dates))
	for i, d := range dates {
		years[i] = d.Sub(start).Hours() / 24 / 365
	}

	npv := func(rate float64) float64 {
		var sum float64
		for i, a := range amounts {
			sum += a / math.Pow(1+rate, years[i])
		}
		return sum
	}
	dnpv := func(rate float64) float64 {
		var sum float64
		for i, a := range amounts {
			sum -= years[i] * a / math.Pow(1+rate, years[i]+1)
		}
		return sum
	}

	if rate, ok := c.newton(npv, dnpv, 0.1); ok {
		return decimal.NewFromFloat(rate), true
	}
	if rate, ok := c.bisect(npv, -0.9999, 100); ok {
		return decimal.NewFromFloat(rate), true
	}
	return decimal.Zero, false
}

func (c *Calculator) newton(f, df func(float64) float64, guess float64) (float64, bool) {
	rate := guess
	for i := 0; i < c.maxIterations; i++ {
		fv := f(rate)
		if math.Abs(fv) < c.tolerance {
			return rate, true
		}
		d := df(rate)
		if d == 0 || math.IsNaN(d) {
			return 0, false
		}
		next := rate - fv/d
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= -1 {
			return 0, false
		}
		if math.Abs(next-rate) < c.tolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

func (c *Calculator) bisect(f func(float64) float64, lo, hi float64) (float64, bool) {
	flo, fhi := f(lo), f(hi)
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0 {
		return 0, false
	}
	for i := 0; i < c.maxIterations*2; i++ {
		mid := (lo + hi) / 2
		fm := f(mid)
		if math.Abs(fm) < c.tolerance || (hi-lo)/2 < c.tolerance {
			return mid, true
		}
		if flo*fm < 0 {
			hi = mid
		} else {
			lo, flo = mid, fm
		}
	}
	return 0, false
}

// MOIC is total value returned (every positive flow, terminal value included)
// over capital invested. Zero when nothing was invested.
func (c *Calculator) MOIC(flows []contracts.CashFlow) decimal.Decimal {
	paidIn, returned := splitFlows(flows)
	if paidIn.IsZero() {
		return decimal.Zero
	}
	return returned.Div(paidIn)
}

// DPI is realised distributions over paid-in capital. When the
// chronologically last flow is positive it is the terminal (unrealised)
// value and is left out.
func (c *Calculator) DPI(flows []contracts.CashFlow) decimal.Decimal {
	paidIn, returned := splitFlows(flows)
	if paidIn.IsZero() {
		return decimal.Zero
	}
	if len(flows) >= 2 {
		last := latestFlow(flows)
		if last.Amount.IsPositive() {
			returned = returned.Sub(last.Amount)
		}
	}
	return returned.Div(paidIn)
}

func splitFlows(flows []contracts.CashFlow) (paidIn, returned decimal.Decimal) {
	paidIn, returned = decimal.Zero, decimal.Zero
	for _, f := range flows {
		if f.Amount.IsNegative() {
			paidIn = paidIn.Add(f.Amount.Abs())
		} else {
			returned = returned.Add(f.Amount)
		}
	}
	return paidIn, returned
}

func latestFlow(flows []contracts.CashFlow) contracts.CashFlow {
	sorted := make([]contracts.CashFlow, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted[len(sorted)-1]
}

// =============================================================================
// Risk ratios
// =============================================================================

// SharpeRatio is (mean - riskFree) / sample stdev, per period.
func (c *Calculator) SharpeRatio(returns []decimal.Decimal, riskFree decimal.Decimal) decimal.Decimal {
	vol := StdDev(returns)
	if vol.IsZero() {
		return decimal.Zero
	}
	return Mean(returns).Sub(riskFree).Div(vol)
}

// SortinoRatio is (mean - target) / downside deviation. The downside
// deviation averages squared shortfalls over every period.
func (c *Calculator) SortinoRatio(returns []decimal.Decimal, target decimal.Decimal) decimal.Decimal {
	if len(returns) == 0 {
		return decimal.Zero
	}
	sumSq := decimal.Zero
	for _, r := range returns {
		if d := r.Sub(target); d.IsNegative() {
			sumSq = sumSq.Add(d.Mul(d))
		}
	}
	downside := Sqrt(sumSq.Div(decimal.NewFromInt(int64(len(returns)))))
	if downside.IsZero() {
		return decimal.Zero
	}
	return Mean(returns).Sub(target).Div(downside)
}

// MaximumDrawdown returns the largest peak-to-trough decline of a price
// path as a positive fraction, with the peak and trough indices.
func (c *Calculator) MaximumDrawdown(prices []decimal.Decimal) (decimal.Decimal, int, int) {
	maxDD := decimal.Zero
	start, end := 0, 0
	if len(prices) == 0 {
		return maxDD, start, end
	}

	peakIdx := 0
	for i, p := range prices {
		if p.GreaterThan(prices[peakIdx]) {
			peakIdx = i
		}
		peak := prices[peakIdx]
		if !peak.IsPositive() {
			continue
		}
		dd := peak.Sub(p).Div(peak)
		if dd.GreaterThan(maxDD) {
			maxDD, start, end = dd, peakIdx, i
		}
	}
	return maxDD, start, end
}

// CalmarRatio is annual return over maximum drawdown (zero without drawdown).
func (c *Calculator) CalmarRatio(annualReturn, maxDrawdown decimal.Decimal) decimal.Decimal {
	if maxDrawdown.IsZero() {
		return decimal.Zero
	}
	return annualReturn.Div(maxDrawdown.Abs())
}

// VaRHistorical 과거 수익률 기반 VaR (historical simulation).
// ⭐ SSOT: loss is reported as a positive number; zero when the quantile is a gain
func (c *Calculator) VaRHistorical(returns []decimal.Decimal, confidence decimal.Decimal) decimal.Decimal {
	if len(returns) == 0 {
		return decimal.Zero
	}

	sorted := SortedCopy(returns)
	idx := int(one.Sub(confidence).Mul(decimal.NewFromInt(int64(len(sorted)))).Floor().IntPart())
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}

	if sorted[idx].IsNegative() {
		return sorted[idx].Neg()
	}
	return decimal.Zero
}
