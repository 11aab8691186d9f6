package performance

import (
	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
)

// RollingPerformance slides a window of windowMonths+1 price points over
// the sorted series and summarises each window. Returns an empty slice
// when there is not enough data. A window with a zero price anywhere but
// its last point has an undefined sub-period return and is left out.
func (a *Analyzer) RollingPerformance(prices []contracts.PricePoint, windowMonths int) []contracts.RollingWindow {
	results := []contracts.RollingWindow{}
	if windowMonths <= 0 || len(prices) < windowMonths {
		return results
	}

	sorted := contracts.SortPrices(prices)
	rf := a.monthlyRiskFree()
	scale := a.monthsInYear().Div(decimal.NewFromInt(int64(windowMonths)))

	for i := windowMonths; i < len(sorted); i++ {
		window := sorted[i-windowMonths : i+1]
		if hasZeroBase(window) {
			continue
		}
		start := window[0].Price
		end := window[len(window)-1]
		periodReturn := end.Price.Sub(start).Div(start)
		returns := contracts.ReturnsFromPrices(window)

		results = append(results, contracts.RollingWindow{
			EndDate:          end.Timestamp,
			PeriodReturn:     periodReturn.InexactFloat64(),
			AnnualizedReturn: periodReturn.Mul(scale).InexactFloat64(),
			Volatility:       volatility(returns).InexactFloat64(),
			SharpeRatio:      a.fm.SharpeRatio(returns, rf).InexactFloat64(),
		})
	}

	a.logger.WithFields(map[string]interface{}{
		"window":  windowMonths,
		"windows": len(results),
	}).Debug("Rolling performance calculated")

	return results
}

// hasZeroBase reports whether any point used as a return base is zero
func hasZeroBase(window []contracts.PricePoint) bool {
	for _, p := range window[:len(window)-1] {
		if p.Price.IsZero() {
			return true
		}
	}
	return false
}
