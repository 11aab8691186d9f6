package performance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/finmath"
)

// ladder returns (i-10)/100 for i=1..20: -0.09 .. 0.10
func ladder() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, 20)
	for i := 1; i <= 20; i++ {
		out = append(out, decimal.NewFromInt(int64(i-10)).Div(decimal.NewFromInt(100)))
	}
	return out
}

func TestRiskAdjustedReturns(t *testing.T) {
	a := newTestAnalyzer()

	t.Run("core metrics", func(t *testing.T) {
		returns := series("0.1", "-0.5", "0.2")
		m, err := a.RiskAdjustedReturns(returns, nil)
		require.NoError(t, err)

		assert.True(t, m["mean_return"].Equal(finmath.Mean(returns)))
		assert.True(t, m["annualized_return"].Equal(finmath.Mean(returns).Mul(decimal.NewFromInt(12))))
		// price path 100 -> 110 -> 55 -> 66
		assert.True(t, m["max_drawdown"].Equal(d("0.5")), "got %s", m["max_drawdown"])
		assert.InDelta(t, m.Float("annualized_return")/0.5, m.Float("calmar_ratio"), 1e-12)
		assert.Greater(t, m.Float("volatility"), 0.0)
		assert.False(t, m.Has("tracking_error"))
		assert.False(t, m.Has("beta"))
	})

	t.Run("constant series", func(t *testing.T) {
		m, err := a.RiskAdjustedReturns(series("0.01", "0.01", "0.01", "0.01"), nil)
		require.NoError(t, err)
		assert.True(t, m["volatility"].IsZero())
		assert.True(t, m["sharpe_ratio"].IsZero())
		assert.True(t, m["sortino_ratio"].IsZero())
		assert.True(t, m["max_drawdown"].IsZero())
		assert.True(t, m["calmar_ratio"].IsZero())
	})

	t.Run("tail risk", func(t *testing.T) {
		m, err := a.RiskAdjustedReturns(ladder(), nil)
		require.NoError(t, err)
		assert.True(t, m["var_95"].Equal(d("0.08")), "got %s", m["var_95"])
		assert.True(t, m["var_99"].Equal(d("0.09")), "got %s", m["var_99"])
		// floor(20*0.95) = 19 -> mean of the whole sorted series
		assert.True(t, m["cvar_95"].Equal(d("0.005")), "got %s", m["cvar_95"])
	})

	t.Run("benchmark relative", func(t *testing.T) {
		returns := series("0.02", "-0.01", "0.03", "0.01")
		benchmark := series("0.01", "-0.02", "0.02", "0.00")
		m, err := a.RiskAdjustedReturns(returns, benchmark)
		require.NoError(t, err)

		// active returns are a constant 0.01
		assert.True(t, m["tracking_error"].IsZero())
		assert.True(t, m["information_ratio"].IsZero())
		assert.True(t, m["beta"].Equal(decimal.NewFromInt(1)), "got %s", m["beta"])
		expectedTreynor := m["mean_return"].Sub(a.monthlyRiskFree())
		assert.True(t, m["treynor_ratio"].Equal(expectedTreynor))
	})

	t.Run("constant benchmark gives unit beta", func(t *testing.T) {
		m, err := a.RiskAdjustedReturns(series("0.02", "-0.01", "0.03"), series("0.01", "0.01", "0.01"))
		require.NoError(t, err)
		assert.True(t, m["beta"].Equal(decimal.NewFromInt(1)))
		assert.Greater(t, m.Float("tracking_error"), 0.0)
		assert.True(t, m.Has("information_ratio"))
	})

	t.Run("mismatched benchmark ignored", func(t *testing.T) {
		m, err := a.RiskAdjustedReturns(series("0.02", "-0.01", "0.03"), series("0.01"))
		require.NoError(t, err)
		assert.False(t, m.Has("tracking_error"))
		assert.False(t, m.Has("treynor_ratio"))
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, err := a.RiskAdjustedReturns(series("0.01"), nil)
		assert.ErrorIs(t, err, contracts.ErrInsufficientReturnData)
	})
}

func TestCVaRIsNonNegative(t *testing.T) {
	cases := [][]decimal.Decimal{
		ladder(),
		series("0.01", "0.02", "0.03"),
		series("-0.05", "-0.04", "-0.01"),
		series("0.00"),
	}
	for _, returns := range cases {
		assert.False(t, cvar(returns, confidence95).IsNegative())
	}
	assert.True(t, cvar(nil, confidence95).IsZero())
}

func TestDownsideMetrics(t *testing.T) {
	a := newTestAnalyzer()

	t.Run("mixed returns", func(t *testing.T) {
		m, err := a.DownsideMetrics(series("0.02", "-0.01", "0.03", "-0.02"), decimal.Zero)
		require.NoError(t, err)

		assert.True(t, m["downside_variance"].Equal(d("0.000125")), "got %s", m["downside_variance"])
		assert.InDelta(t, 0.011180339887498949, m.Float("downside_deviation"), 1e-12)
		assert.True(t, m["downside_frequency"].Equal(d("0.5")))
		assert.True(t, m["average_downside_return"].Equal(d("-0.015")))
		assert.InDelta(t, 0.005/0.011180339887498949, m.Float("sortino_ratio"), 1e-9)
	})

	t.Run("non-zero target", func(t *testing.T) {
		m, err := a.DownsideMetrics(series("0.01", "0.03"), d("0.02"))
		require.NoError(t, err)
		assert.True(t, m["downside_variance"].Equal(d("0.00005")))
		assert.True(t, m["average_downside_return"].Equal(d("0.01")))
	})

	t.Run("nothing below target", func(t *testing.T) {
		m, err := a.DownsideMetrics(series("0.05", "0.05", "0.05"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, m["downside_deviation"].IsZero())
		assert.True(t, m["downside_frequency"].IsZero())
		assert.False(t, m.Has("sortino_ratio"))
		assert.False(t, m.Has("average_downside_return"))
	})

	t.Run("no returns", func(t *testing.T) {
		_, err := a.DownsideMetrics(nil, decimal.Zero)
		assert.ErrorIs(t, err, contracts.ErrNoReturns)
	})
}
