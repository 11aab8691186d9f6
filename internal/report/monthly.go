package report

import (
	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
)

// monthlyReturn is a simple return keyed by the month (YYYY-MM) it ends in.
type monthlyReturn struct {
	Month  string
	Return decimal.Decimal
}

// monthEnds keeps the last observation of every calendar month.
func monthEnds(prices []contracts.PricePoint) []contracts.PricePoint {
	sorted := contracts.SortPrices(prices)
	out := make([]contracts.PricePoint, 0, len(sorted)/20+1)
	for _, p := range sorted {
		if len(p.Timestamp) < 7 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Timestamp[:7] == p.Timestamp[:7] {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// monthlyReturns converts month-end prices into month-keyed returns.
// Months following a zero price are dropped.
func monthlyReturns(prices []contracts.PricePoint) []monthlyReturn {
	ends := monthEnds(prices)
	if len(ends) < 2 {
		return nil
	}
	out := make([]monthlyReturn, 0, len(ends)-1)
	for i := 1; i < len(ends); i++ {
		prev := ends[i-1].Price
		if prev.IsZero() {
			continue
		}
		out = append(out, monthlyReturn{
			Month:  ends[i].Timestamp[:7],
			Return: ends[i].Price.Sub(prev).Div(prev),
		})
	}
	return out
}

// align returns the two series restricted to the months both contain.
func align(portfolio, benchmark []monthlyReturn) ([]decimal.Decimal, []decimal.Decimal) {
	byMonth := make(map[string]decimal.Decimal, len(benchmark))
	for _, b := range benchmark {
		byMonth[b.Month] = b.Return
	}

	var p, b []decimal.Decimal
	for _, r := range portfolio {
		if br, ok := byMonth[r.Month]; ok {
			p = append(p, r.Return)
			b = append(b, br)
		}
	}
	return p, b
}

func values(returns []monthlyReturn) []decimal.Decimal {
	out := make([]decimal.Decimal, len(returns))
	for i, r := range returns {
		out[i] = r.Return
	}
	return out
}
