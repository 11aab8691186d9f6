package contracts

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a dated price observation
// ⭐ SSOT: price input for TWR and rolling analysis
type PricePoint struct {
	Timestamp string          `json:"timestamp"` // ISO-8601, at least YYYY-MM-DD
	Price     decimal.Decimal `json:"price"`
}

// CashFlow is a dated, signed investor cash flow.
// Negative = contribution, positive = distribution or terminal value.
type CashFlow struct {
	Timestamp string          `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
}

// Metrics maps metric names to exact decimal values.
type Metrics map[string]decimal.Decimal

// Float returns the named metric as float64, or 0 when absent.
func (m Metrics) Float(name string) float64 {
	v, ok := m[name]
	if !ok {
		return 0
	}
	return v.InexactFloat64()
}

// Has reports whether a metric was produced.
func (m Metrics) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// RollingWindow is one trailing-window summary. Values are floats for display.
type RollingWindow struct {
	EndDate          string  `json:"end_date"`
	PeriodReturn     float64 `json:"period_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
}

// PersistenceResult holds rank correlations between consecutive periods.
type PersistenceResult struct {
	RankCorrelations       []decimal.Decimal `json:"rank_correlations"`
	AverageRankCorrelation decimal.Decimal   `json:"average_rank_correlation"`
	NumberOfPeriods        int               `json:"number_of_periods"`
}

// Metrics returns the scalar part of the result.
func (r *PersistenceResult) Metrics() Metrics {
	return Metrics{
		"average_rank_correlation": r.AverageRankCorrelation,
		"number_of_periods":        decimal.NewFromInt(int64(r.NumberOfPeriods)),
	}
}

// FeeImpact is the outcome of a fee waterfall simulation.
type FeeImpact struct {
	GrossCumulativeReturn decimal.Decimal   `json:"gross_cumulative_return"`
	NetCumulativeReturn   decimal.Decimal   `json:"net_cumulative_return"`
	TotalFeeDrag          decimal.Decimal   `json:"total_fee_drag"`
	TotalManagementFees   decimal.Decimal   `json:"total_management_fees"`
	TotalPerformanceFees  decimal.Decimal   `json:"total_performance_fees"`
	TotalFees             decimal.Decimal   `json:"total_fees"`
	NetReturns            []decimal.Decimal `json:"net_returns"`
	FeeRatio              decimal.Decimal   `json:"fee_ratio"`
	FinalNAV              decimal.Decimal   `json:"final_nav"`
	NumberOfPeriods       int               `json:"number_of_periods"`
}

// Metrics returns the scalar part of the fee impact.
func (f *FeeImpact) Metrics() Metrics {
	return Metrics{
		"gross_cumulative_return": f.GrossCumulativeReturn,
		"net_cumulative_return":   f.NetCumulativeReturn,
		"total_fee_drag":          f.TotalFeeDrag,
		"total_management_fees":   f.TotalManagementFees,
		"total_performance_fees":  f.TotalPerformanceFees,
		"total_fees":              f.TotalFees,
		"fee_ratio":               f.FeeRatio,
		"final_nav":               f.FinalNAV,
		"number_of_periods":       decimal.NewFromInt(int64(f.NumberOfPeriods)),
	}
}

// TimestampDate parses the date part of an ISO-8601 timestamp.
func TimestampDate(ts string) (time.Time, error) {
	if len(ts) >= 10 {
		if d, err := time.Parse("2006-01-02", ts[:10]); err == nil {
			return d, nil
		}
	}
	d, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	return d, nil
}

// SortPrices returns a copy of prices ordered by timestamp.
func SortPrices(prices []PricePoint) []PricePoint {
	sorted := make([]PricePoint, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}

// ReturnsFromPrices converts prices into simple period returns.
// Pairs whose earlier price is zero are skipped.
func ReturnsFromPrices(prices []PricePoint) []decimal.Decimal {
	sorted := SortPrices(prices)
	if len(sorted) < 2 {
		return nil
	}

	returns := make([]decimal.Decimal, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].Price
		if prev.IsZero() {
			continue
		}
		returns = append(returns, sorted[i].Price.Sub(prev).Div(prev))
	}
	return returns
}
