package performance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/finmath"
	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func series(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = d(v)
	}
	return out
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(config.DefaultAnalytics(), finmath.NewCalculator(), logger.Nop())
}

// monthlyPrices builds month-start prices beginning 2023-01-01.
func monthlyPrices(values ...string) []contracts.PricePoint {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]contracts.PricePoint, len(values))
	for i, v := range values {
		prices[i] = contracts.PricePoint{
			Timestamp: base.AddDate(0, i, 0).Format("2006-01-02"),
			Price:     d(v),
		}
	}
	return prices
}

func TestTimeWeightedReturn(t *testing.T) {
	a := newTestAnalyzer()

	t.Run("links sub-period returns", func(t *testing.T) {
		prices := []contracts.PricePoint{
			{Timestamp: "2023-01-01", Price: d("100")},
			{Timestamp: "2023-07-01", Price: d("110")},
			{Timestamp: "2024-01-01", Price: d("121")},
		}
		m, err := a.TimeWeightedReturn(prices, nil)
		require.NoError(t, err)

		returns := contracts.ReturnsFromPrices(prices)
		assert.True(t, m["twr"].Equal(finmath.Compound(returns)))
		assert.True(t, m["twr"].Equal(d("0.21")))
		assert.True(t, m["cumulative_return"].Equal(m["twr"]))
		assert.True(t, m["number_of_periods"].Equal(decimal.NewFromInt(2)))
		assert.True(t, m["total_days"].Equal(decimal.NewFromInt(365)))
		// 365 days is slightly under 365.25, so annualised > total
		assert.Greater(t, m.Float("annualized_twr"), 0.21)
		assert.InDelta(t, 0.2101, m.Float("annualized_twr"), 0.001)
	})

	t.Run("input order does not matter", func(t *testing.T) {
		ordered := monthlyPrices("100", "95", "105", "110")
		shuffled := []contracts.PricePoint{ordered[2], ordered[0], ordered[3], ordered[1]}

		m1, err := a.TimeWeightedReturn(ordered, nil)
		require.NoError(t, err)
		m2, err := a.TimeWeightedReturn(shuffled, nil)
		require.NoError(t, err)
		assert.True(t, m1["twr"].Equal(m2["twr"]))
		assert.InDelta(t, 0.1, m1.Float("twr"), 1e-12)
	})

	t.Run("same day prices", func(t *testing.T) {
		prices := []contracts.PricePoint{
			{Timestamp: "2024-03-01T09:30:00Z", Price: d("100")},
			{Timestamp: "2024-03-01T16:00:00Z", Price: d("102")},
		}
		m, err := a.TimeWeightedReturn(prices, nil)
		require.NoError(t, err)
		assert.True(t, m["total_days"].IsZero())
		assert.True(t, m["annualized_twr"].Equal(m["twr"]))
	})

	t.Run("zero prices yield no returns", func(t *testing.T) {
		m, err := a.TimeWeightedReturn(monthlyPrices("0", "0"), nil)
		require.NoError(t, err)
		assert.Equal(t, contracts.Metrics{"twr": decimal.Zero}, m)
	})

	t.Run("insufficient prices", func(t *testing.T) {
		_, err := a.TimeWeightedReturn(monthlyPrices("100"), nil)
		assert.ErrorIs(t, err, contracts.ErrInsufficientPriceData)
		assert.Equal(t, "Insufficient price data", err.Error())
	})

	t.Run("bad timestamp", func(t *testing.T) {
		prices := []contracts.PricePoint{
			{Timestamp: "2023-01-01", Price: d("100")},
			{Timestamp: "someday", Price: d("110")},
		}
		_, err := a.TimeWeightedReturn(prices, nil)
		require.Error(t, err)
		assert.False(t, contracts.IsAnalysisError(err))
	})
}

func TestMoneyWeightedReturn(t *testing.T) {
	a := newTestAnalyzer()

	t.Run("valid flows", func(t *testing.T) {
		flows := []contracts.CashFlow{
			{Timestamp: "2023-01-01", Amount: d("-100")},
			{Timestamp: "2024-01-01", Amount: d("110")},
		}
		m, err := a.MoneyWeightedReturn(flows)
		require.NoError(t, err)
		assert.InDelta(t, 0.10, m.Float("irr"), 1e-6)
		assert.True(t, m["moic"].Equal(d("1.1")))
		assert.True(t, m["dpi"].IsZero(), "terminal value is not a distribution")
		assert.True(t, m["number_of_cash_flows"].Equal(decimal.NewFromInt(2)))
	})

	t.Run("no cash flows", func(t *testing.T) {
		_, err := a.MoneyWeightedReturn(nil)
		assert.ErrorIs(t, err, contracts.ErrNoCashFlows)
		assert.Equal(t, map[string]string{"error": "No cash flows provided"}, contracts.ErrorBody(err))
	})

	t.Run("irr not solvable", func(t *testing.T) {
		flows := []contracts.CashFlow{
			{Timestamp: "2023-01-01", Amount: d("-100")},
			{Timestamp: "2024-01-01", Amount: d("-50")},
		}
		_, err := a.MoneyWeightedReturn(flows)
		assert.ErrorIs(t, err, contracts.ErrIRRFailed)
	})
}

func TestRollingPerformance(t *testing.T) {
	a := newTestAnalyzer()

	prices := monthlyPrices("100", "101", "102", "103", "104", "105", "106",
		"107", "108", "109", "110", "111", "112", "113")

	windows := a.RollingPerformance(prices, 12)
	require.Len(t, windows, 2)

	first := windows[0]
	assert.Equal(t, "2024-01-01", first.EndDate)
	assert.InDelta(t, 0.12, first.PeriodReturn, 1e-12)
	assert.InDelta(t, 0.12, first.AnnualizedReturn, 1e-12)
	assert.Greater(t, first.Volatility, 0.0)
	assert.Equal(t, "2024-02-01", windows[1].EndDate)
	assert.InDelta(t, 0.12/1.01, windows[1].PeriodReturn, 1e-12)

	t.Run("short window annualises", func(t *testing.T) {
		windows := a.RollingPerformance(monthlyPrices("100", "110", "121"), 2)
		require.Len(t, windows, 1)
		assert.InDelta(t, 0.21*6, windows[0].AnnualizedReturn, 1e-12)
	})

	t.Run("not enough data", func(t *testing.T) {
		windows := a.RollingPerformance(monthlyPrices("100", "101"), 12)
		assert.NotNil(t, windows)
		assert.Empty(t, windows)

		assert.Empty(t, a.RollingPerformance(prices, 0))
	})

	t.Run("zero price drops windows that divide by it", func(t *testing.T) {
		gapped := monthlyPrices("100", "101", "0", "103", "104")

		windows := a.RollingPerformance(gapped, 2)
		require.Len(t, windows, 1)
		assert.Equal(t, "2023-03-01", windows[0].EndDate)
		assert.InDelta(t, -1.0, windows[0].PeriodReturn, 1e-12)

		windows = a.RollingPerformance(gapped, 1)
		require.Len(t, windows, 3)
		assert.Equal(t, "2023-02-01", windows[0].EndDate)
		assert.Equal(t, "2023-03-01", windows[1].EndDate)
		assert.Equal(t, "2023-05-01", windows[2].EndDate)
		assert.InDelta(t, 1.0/103, windows[2].PeriodReturn, 1e-12)
	})
}
