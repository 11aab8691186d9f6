package fees

import (
	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/finmath"
	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/logger"
)

// InitialNAV is the NAV every simulation starts from.
var InitialNAV = decimal.NewFromInt(100)

var one = decimal.NewFromInt(1)

// Schedule describes the fees charged against a fund.
// Rates are annual fractions (0.02 = 2%).
type Schedule struct {
	ManagementFee  decimal.Decimal
	PerformanceFee decimal.NullDecimal // unset = no performance fee
	HurdleRate     decimal.NullDecimal // unset = no hurdle
	HighWaterMark  bool
}

// ScheduleFromRequest builds a Schedule from the shared request payload.
func ScheduleFromRequest(req contracts.FeeImpactRequest) Schedule {
	return Schedule{
		ManagementFee:  req.ManagementFee,
		PerformanceFee: req.PerformanceFee,
		HurdleRate:     req.HurdleRate,
		HighWaterMark:  req.UseHighWaterMark(),
	}
}

// Analyzer simulates fee waterfalls over gross return series
// ⭐ SSOT: the only place fees are applied to returns
type Analyzer struct {
	cfg    config.AnalyticsConfig
	logger *logger.Logger
}

// NewAnalyzer creates a new fee analyzer
func NewAnalyzer(cfg config.AnalyticsConfig, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{cfg: cfg, logger: log.Component("fees")}
}

// CalculateFeeImpact runs a NAV of 100 through the gross returns, charging
// the management fee every period and the performance fee on excess over
// the hurdle, gated by the high-water mark when enabled.
func (a *Analyzer) CalculateFeeImpact(grossReturns []decimal.Decimal, schedule Schedule) (*contracts.FeeImpact, error) {
	if len(grossReturns) == 0 {
		return nil, contracts.ErrNoReturns
	}

	months := decimal.NewFromInt(int64(a.cfg.MonthsInYear))
	mgmtRate := schedule.ManagementFee.Div(months)
	hurdleRate := decimal.Zero
	if schedule.HurdleRate.Valid {
		hurdleRate = schedule.HurdleRate.Decimal.Div(months)
	}

	nav := InitialNAV
	hwm := InitialNAV
	totalMgmt := decimal.Zero
	totalPerf := decimal.Zero
	netReturns := make([]decimal.Decimal, 0, len(grossReturns))

	for _, r := range grossReturns {
		start := nav
		grossNAV := start.Mul(one.Add(r))
		mgmtFee := mgmtRate.Mul(start)

		perfFee := decimal.Zero
		if schedule.PerformanceFee.Valid {
			hurdle := hurdleRate.Mul(start)
			excess := decimal.Max(decimal.Zero, grossNAV.Sub(start).Sub(hurdle))
			if schedule.HighWaterMark {
				if grossNAV.GreaterThan(hwm) {
					perfFee = excess.Mul(schedule.PerformanceFee.Decimal)
					hwm = grossNAV
				}
			} else {
				perfFee = excess.Mul(schedule.PerformanceFee.Decimal)
			}
		}

		nav = grossNAV.Sub(mgmtFee).Sub(perfFee)
		netReturn := r
		if !start.IsZero() {
			netReturn = nav.Sub(start).Div(start)
		}
		netReturns = append(netReturns, netReturn)

		totalMgmt = totalMgmt.Add(mgmtFee)
		totalPerf = totalPerf.Add(perfFee)
	}

	grossCumulative := finmath.Compound(grossReturns)
	netCumulative := finmath.Compound(netReturns)
	totalFees := totalMgmt.Add(totalPerf)

	drag := decimal.Zero
	if !grossCumulative.IsZero() {
		drag = grossCumulative.Sub(netCumulative).Div(grossCumulative)
	}
	feeRatio := decimal.Zero
	if denom := nav.Mul(decimal.NewFromInt(int64(len(grossReturns)))); !denom.IsZero() {
		feeRatio = totalFees.Div(denom)
	}

	a.logger.WithFields(map[string]interface{}{
		"periods":    len(grossReturns),
		"total_fees": totalFees.StringFixed(4),
		"final_nav":  nav.StringFixed(4),
	}).Debug("Fee impact calculated")

	return &contracts.FeeImpact{
		GrossCumulativeReturn: grossCumulative,
		NetCumulativeReturn:   netCumulative,
		TotalFeeDrag:          drag,
		TotalManagementFees:   totalMgmt,
		TotalPerformanceFees:  totalPerf,
		TotalFees:             totalFees,
		NetReturns:            netReturns,
		FeeRatio:              feeRatio,
		FinalNAV:              nav,
		NumberOfPeriods:       len(grossReturns),
	}, nil
}
