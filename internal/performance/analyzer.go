package performance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/finmath"
	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/logger"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// FinancialMath is the primitive-computation capability the analyzer
// builds on. finmath.Calculator is the production implementation.
type FinancialMath interface {
	IRR(flows []contracts.CashFlow) (decimal.Decimal, bool)
	MOIC(flows []contracts.CashFlow) decimal.Decimal
	DPI(flows []contracts.CashFlow) decimal.Decimal
	SharpeRatio(returns []decimal.Decimal, riskFree decimal.Decimal) decimal.Decimal
	SortinoRatio(returns []decimal.Decimal, target decimal.Decimal) decimal.Decimal
	MaximumDrawdown(prices []decimal.Decimal) (decimal.Decimal, int, int)
	CalmarRatio(annualReturn, maxDrawdown decimal.Decimal) decimal.Decimal
	VaRHistorical(returns []decimal.Decimal, confidence decimal.Decimal) decimal.Decimal
}

// Analyzer computes return-series analytics
// ⭐ SSOT: performance analytics live here only. Stateless, safe for concurrent use.
type Analyzer struct {
	cfg    config.AnalyticsConfig
	fm     FinancialMath
	logger *logger.Logger
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(cfg config.AnalyticsConfig, fm FinancialMath, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		cfg:    cfg,
		fm:     fm,
		logger: log.Component("performance"),
	}
}

// TimeWeightedReturn geometrically links sub-period price returns and
// annualises over the elapsed calendar days.
// cashFlows is accepted but not used yet.
func (a *Analyzer) TimeWeightedReturn(prices []contracts.PricePoint, cashFlows []contracts.CashFlow) (contracts.Metrics, error) {
	if len(prices) < 2 {
		return nil, contracts.ErrInsufficientPriceData
	}

	sorted := contracts.SortPrices(prices)
	returns := contracts.ReturnsFromPrices(sorted)
	if len(returns) == 0 {
		return contracts.Metrics{"twr": decimal.Zero}, nil
	}

	cumulative := one
	for _, r := range returns {
		cumulative = cumulative.Mul(one.Add(r))
	}
	twr := cumulative.Sub(one)

	start, err := contracts.TimestampDate(sorted[0].Timestamp)
	if err != nil {
		return nil, fmt.Errorf("time weighted return: %w", err)
	}
	end, err := contracts.TimestampDate(sorted[len(sorted)-1].Timestamp)
	if err != nil {
		return nil, fmt.Errorf("time weighted return: %w", err)
	}
	totalDays := int64(end.Sub(start).Hours() / 24)

	annualized := twr
	if totalDays > 0 {
		years := decimal.NewFromInt(totalDays).Div(a.cfg.DaysInYear)
		growth, err := finmath.Pow(cumulative, one.Div(years))
		if err != nil {
			return nil, fmt.Errorf("annualize time weighted return: %w", err)
		}
		annualized = growth.Sub(one)
	}

	a.logger.WithFields(map[string]interface{}{
		"periods": len(returns),
		"days":    totalDays,
	}).Debug("Time weighted return calculated")

	return contracts.Metrics{
		"twr":               twr,
		"annualized_twr":    annualized,
		"cumulative_return": twr,
		"number_of_periods": decimal.NewFromInt(int64(len(returns))),
		"total_days":        decimal.NewFromInt(totalDays),
	}, nil
}

// MoneyWeightedReturn computes IRR, MOIC and DPI over investor cash flows.
func (a *Analyzer) MoneyWeightedReturn(cashFlows []contracts.CashFlow) (contracts.Metrics, error) {
	if len(cashFlows) == 0 {
		return nil, contracts.ErrNoCashFlows
	}

	irr, ok := a.fm.IRR(cashFlows)
	if !ok {
		return nil, contracts.ErrIRRFailed
	}

	return contracts.Metrics{
		"irr":                  irr,
		"moic":                 a.fm.MOIC(cashFlows),
		"dpi":                  a.fm.DPI(cashFlows),
		"number_of_cash_flows": decimal.NewFromInt(int64(len(cashFlows))),
	}, nil
}

func (a *Analyzer) monthlyRiskFree() decimal.Decimal {
	return a.cfg.MonthlyRiskFreeRate()
}

func (a *Analyzer) monthsInYear() decimal.Decimal {
	return decimal.NewFromInt(int64(a.cfg.MonthsInYear))
}
