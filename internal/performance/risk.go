package performance

import (
	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/finmath"
)

var (
	confidence95 = decimal.RequireFromString("0.95")
	confidence99 = decimal.RequireFromString("0.99")
)

// RiskAdjustedReturns computes the standard risk/return ratio set for a
// periodic (monthly) return series. Benchmark-relative metrics are added
// only when benchmarkReturns is non-empty and the same length as returns.
func (a *Analyzer) RiskAdjustedReturns(returns, benchmarkReturns []decimal.Decimal) (contracts.Metrics, error) {
	if len(returns) < 2 {
		return nil, contracts.ErrInsufficientReturnData
	}

	rf := a.monthlyRiskFree()
	mean := finmath.Mean(returns)
	annual := mean.Mul(a.monthsInYear())
	maxDD, _, _ := a.fm.MaximumDrawdown(finmath.PricePath(hundred, returns))

	m := contracts.Metrics{
		"mean_return":       mean,
		"volatility":        volatility(returns),
		"sharpe_ratio":      a.fm.SharpeRatio(returns, rf),
		"sortino_ratio":     a.fm.SortinoRatio(returns, decimal.Zero),
		"max_drawdown":      maxDD,
		"annualized_return": annual,
		"calmar_ratio":      a.fm.CalmarRatio(annual, maxDD),
	}

	if len(benchmarkReturns) > 0 && len(benchmarkReturns) == len(returns) {
		active := activeReturns(returns, benchmarkReturns)
		trackingError := volatility(active)
		b := beta(returns, benchmarkReturns)

		m["tracking_error"] = trackingError
		m["information_ratio"] = decimal.Zero
		if !trackingError.IsZero() {
			m["information_ratio"] = finmath.Mean(active).Div(trackingError)
		}
		m["beta"] = b
		m["treynor_ratio"] = decimal.Zero
		if !b.IsZero() {
			m["treynor_ratio"] = mean.Sub(rf).Div(b)
		}
	}

	m["var_95"] = a.fm.VaRHistorical(returns, confidence95)
	m["var_99"] = a.fm.VaRHistorical(returns, confidence99)
	m["cvar_95"] = cvar(returns, confidence95)

	return m, nil
}

// DownsideMetrics measures shortfall below targetReturn. Deviation and
// variance divide by the full sample size.
func (a *Analyzer) DownsideMetrics(returns []decimal.Decimal, targetReturn decimal.Decimal) (contracts.Metrics, error) {
	if len(returns) == 0 {
		return nil, contracts.ErrNoReturns
	}

	sumSq := decimal.Zero
	belowSum := decimal.Zero
	below := 0
	for _, r := range returns {
		diff := r.Sub(targetReturn)
		if diff.IsNegative() {
			sumSq = sumSq.Add(diff.Mul(diff))
			belowSum = belowSum.Add(r)
			below++
		}
	}

	n := decimal.NewFromInt(int64(len(returns)))
	variance := sumSq.Div(n)
	deviation := finmath.Sqrt(variance)

	m := contracts.Metrics{
		"downside_deviation": deviation,
		"downside_variance":  variance,
		"downside_frequency": fraction(below, len(returns)),
	}
	if deviation.IsPositive() {
		m["sortino_ratio"] = finmath.Mean(returns).Sub(targetReturn).Div(deviation)
	}
	if below > 0 {
		m["average_downside_return"] = belowSum.Div(decimal.NewFromInt(int64(below)))
	}
	return m, nil
}
