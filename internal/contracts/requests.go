package contracts

import "github.com/shopspring/decimal"

// Request payloads shared by the HTTP API and the CLI.
// Decimals accept both JSON numbers and quoted strings.

type TWRRequest struct {
	Prices    []PricePoint `json:"prices"`
	CashFlows []CashFlow   `json:"cash_flows,omitempty"`
}

type MWRRequest struct {
	CashFlows []CashFlow `json:"cash_flows"`
}

type RiskRequest struct {
	Returns          []decimal.Decimal `json:"returns"`
	BenchmarkReturns []decimal.Decimal `json:"benchmark_returns,omitempty"`
}

type AttributionRequest struct {
	PortfolioReturns []decimal.Decimal          `json:"portfolio_returns"`
	BenchmarkReturns []decimal.Decimal          `json:"benchmark_returns"`
	SectorWeights    map[string]decimal.Decimal `json:"sector_weights,omitempty"`
}

type DownsideRequest struct {
	Returns      []decimal.Decimal `json:"returns"`
	TargetReturn decimal.Decimal   `json:"target_return"`
}

type RollingRequest struct {
	Prices       []PricePoint `json:"prices"`
	WindowMonths int          `json:"window_months"`
}

type FactorRequest struct {
	PortfolioReturns []decimal.Decimal            `json:"portfolio_returns"`
	FactorReturns    map[string][]decimal.Decimal `json:"factor_returns"`
}

type BenchmarkRequest struct {
	PortfolioReturns []decimal.Decimal `json:"portfolio_returns"`
	BenchmarkReturns []decimal.Decimal `json:"benchmark_returns"`
}

type PersistenceRequest struct {
	ReturnsByPeriod [][]decimal.Decimal `json:"returns_by_period"`
}

// FeeImpactRequest mirrors fees.Schedule plus the gross return series.
// HighWaterMark defaults to true when omitted.
type FeeImpactRequest struct {
	GrossReturns   []decimal.Decimal   `json:"gross_returns"`
	ManagementFee  decimal.Decimal     `json:"management_fee"`
	PerformanceFee decimal.NullDecimal `json:"performance_fee"`
	HurdleRate     decimal.NullDecimal `json:"hurdle_rate"`
	HighWaterMark  *bool               `json:"high_water_mark,omitempty"`
}

// UseHighWaterMark resolves the optional flag.
func (r FeeImpactRequest) UseHighWaterMark() bool {
	if r.HighWaterMark == nil {
		return true
	}
	return *r.HighWaterMark
}
