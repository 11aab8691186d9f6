package performance

import (
	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/finmath"
)

// PerformanceAttribution summarises active return against a benchmark.
// sectorWeights is accepted for callers that carry it; attribution is
// total-level only.
func (a *Analyzer) PerformanceAttribution(portfolioReturns, benchmarkReturns []decimal.Decimal, sectorWeights map[string]decimal.Decimal) (contracts.Metrics, error) {
	if len(portfolioReturns) != len(benchmarkReturns) {
		return nil, contracts.ErrLengthMismatch
	}
	if len(portfolioReturns) == 0 {
		return nil, contracts.ErrNoReturns
	}

	active := activeReturns(portfolioReturns, benchmarkReturns)
	hits := 0
	for _, r := range active {
		if r.IsPositive() {
			hits++
		}
	}
	activeVol := volatility(active)
	activeMean := finmath.Mean(active)

	m := contracts.Metrics{
		"portfolio_return":  finmath.Mean(portfolioReturns),
		"benchmark_return":  finmath.Mean(benchmarkReturns),
		"active_return":     activeMean,
		"hit_rate":          fraction(hits, len(active)),
		"active_volatility": activeVol,
	}
	if activeVol.IsPositive() {
		m["information_ratio"] = activeMean.Div(activeVol)
	}
	return m, nil
}

// BenchmarkAnalysis splits periods into up and down markets by the sign
// of the benchmark return and reports capture ratios, batting average,
// beta and correlation. Flat benchmark periods count in neither market.
func (a *Analyzer) BenchmarkAnalysis(portfolioReturns, benchmarkReturns []decimal.Decimal) (contracts.Metrics, error) {
	if len(portfolioReturns) != len(benchmarkReturns) {
		return nil, contracts.ErrLengthMismatch
	}
	if len(portfolioReturns) == 0 {
		return nil, contracts.ErrNoReturns
	}

	var upP, upB, downP, downB []decimal.Decimal
	beats := 0
	for i, b := range benchmarkReturns {
		p := portfolioReturns[i]
		switch {
		case b.IsPositive():
			upP = append(upP, p)
			upB = append(upB, b)
		case b.IsNegative():
			downP = append(downP, p)
			downB = append(downB, b)
		}
		if p.GreaterThan(b) {
			beats++
		}
	}

	m := contracts.Metrics{}
	captureMarket(m, "up", upP, upB)
	captureMarket(m, "down", downP, downB)
	m["batting_average"] = fraction(beats, len(portfolioReturns))
	m["beta"] = beta(portfolioReturns, benchmarkReturns)
	m["correlation"] = correlation(portfolioReturns, benchmarkReturns)
	return m, nil
}

func captureMarket(m contracts.Metrics, market string, portfolio, benchmark []decimal.Decimal) {
	if len(benchmark) == 0 {
		return
	}
	p, b := finmath.Mean(portfolio), finmath.Mean(benchmark)
	m[market+"_market_portfolio_return"] = p
	m[market+"_market_benchmark_return"] = b
	if !b.IsZero() {
		m[market+"_capture_ratio"] = p.Div(b)
	}
}

// PerformancePersistence measures how stable cross-sectional rankings are
// between consecutive periods using Spearman rank correlation.
// Empty periods are skipped.
func (a *Analyzer) PerformancePersistence(returnsByPeriod [][]decimal.Decimal) (*contracts.PersistenceResult, error) {
	periods := make([][]decimal.Decimal, 0, len(returnsByPeriod))
	for _, p := range returnsByPeriod {
		if len(p) > 0 {
			periods = append(periods, p)
		}
	}
	if len(periods) < 2 {
		return nil, contracts.ErrInsufficientPeriods
	}

	ranks := make([][]int, len(periods))
	for i, p := range periods {
		ranks[i] = rankDescending(p)
	}

	correlations := make([]decimal.Decimal, 0, len(periods)-1)
	for i := 1; i < len(ranks); i++ {
		correlations = append(correlations, rankCorrelation(ranks[i-1], ranks[i]))
	}

	a.logger.WithField("periods", len(periods)).Debug("Performance persistence calculated")

	return &contracts.PersistenceResult{
		RankCorrelations:       correlations,
		AverageRankCorrelation: finmath.Mean(correlations),
		NumberOfPeriods:        len(periods),
	}, nil
}
