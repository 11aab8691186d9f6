package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/metrics"
	"github.com/fincept/analytics/internal/performance"
	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/logger"
	"github.com/fincept/analytics/pkg/redis"
)

const dateLayout = "2006-01-02"

// PriceStore is the persistent daily-close store
type PriceStore interface {
	GetRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error)
	SaveBatch(ctx context.Context, symbol string, prices []contracts.PricePoint) error
}

// QuoteSource fetches daily closes from an external provider
type QuoteSource interface {
	Configured() bool
	FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error)
}

// CashFlowStore loads investor cash flows
type CashFlowStore interface {
	GetByPortfolio(ctx context.Context, portfolioID string) ([]contracts.CashFlow, error)
}

// Report is the standard performance report of one symbol over a date range.
// Sections that lack data are omitted and explained in Notes.
type Report struct {
	Symbol      string                    `json:"symbol"`
	Benchmark   string                    `json:"benchmark,omitempty"`
	From        string                    `json:"from"`
	To          string                    `json:"to"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Returns     contracts.Metrics         `json:"returns"`
	Risk        contracts.Metrics         `json:"risk,omitempty"`
	Downside    contracts.Metrics         `json:"downside,omitempty"`
	Relative    contracts.Metrics         `json:"relative,omitempty"`
	Rolling     []contracts.RollingWindow `json:"rolling"`
	Notes       []string                  `json:"notes,omitempty"`
}

// Service builds, caches and refreshes reports
// ⭐ SSOT: prices -> returns -> metrics 파이프라인은 여기서만
type Service struct {
	cfg      config.AnalyticsConfig
	analyzer *performance.Analyzer
	prices   PriceStore
	quotes   QuoteSource
	flows    CashFlowStore
	cache    *redis.Cache
	logger   *logger.Logger
	now      func() time.Time
}

// NewService wires the report pipeline. Any of prices, quotes, flows may
// be nil; cache may be backed by a disabled client.
func NewService(
	cfg config.AnalyticsConfig,
	analyzer *performance.Analyzer,
	prices PriceStore,
	quotes QuoteSource,
	flows CashFlowStore,
	cache *redis.Cache,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if cache == nil {
		cache = redis.NewCache(redis.Disabled(), "fincept")
	}
	return &Service{
		cfg:      cfg,
		analyzer: analyzer,
		prices:   prices,
		quotes:   quotes,
		flows:    flows,
		cache:    cache,
		logger:   log.Component("report"),
		now:      time.Now,
	}
}

// Get returns the cached report or builds and caches a new one.
func (s *Service) Get(ctx context.Context, symbol string, from, to time.Time) (*Report, error) {
	key := redis.ReportKey(symbol, from.Format(dateLayout), to.Format(dateLayout))

	var cached Report
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Report cache read failed")
	}
	if found {
		metrics.RecordPriceLoad(metrics.SourceCache)
		return &cached, nil
	}

	return s.Refresh(ctx, symbol, from, to)
}

// Refresh rebuilds the report ignoring the cache and stores the result.
func (s *Service) Refresh(ctx context.Context, symbol string, from, to time.Time) (*Report, error) {
	rep, err := s.Build(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	key := redis.ReportKey(symbol, from.Format(dateLayout), to.Format(dateLayout))
	if err := s.cache.Set(ctx, key, rep, s.cfg.ReportCacheTTL); err != nil {
		s.logger.WithError(err).Warn("Report cache write failed")
	}
	return rep, nil
}

// Build computes a report without touching the cache.
func (s *Service) Build(ctx context.Context, symbol string, from, to time.Time) (*Report, error) {
	start := time.Now()

	prices, err := s.LoadPrices(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	twr, err := s.analyzer.TimeWeightedReturn(prices, nil)
	metrics.ObserveAnalysis("twr", start, err)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Symbol:      symbol,
		From:        from.Format(dateLayout),
		To:          to.Format(dateLayout),
		GeneratedAt: s.now().UTC(),
		Returns:     twr,
	}

	monthly := monthlyReturns(prices)
	rep.Rolling = s.analyzer.RollingPerformance(monthEnds(prices), s.cfg.RollingWindowMonths)

	var benchmark []monthlyReturn
	if bench := s.cfg.BenchmarkSymbol; bench != "" && bench != symbol {
		benchPrices, err := s.LoadPrices(ctx, bench, from, to)
		switch {
		case err != nil:
			rep.note("benchmark %s unavailable: %v", bench, err)
		case len(monthlyReturns(benchPrices)) == 0:
			rep.note("benchmark %s has no price history", bench)
		default:
			rep.Benchmark = bench
			benchmark = monthlyReturns(benchPrices)
		}
	}

	returns := values(monthly)
	var benchReturns []decimal.Decimal
	if len(benchmark) > 0 {
		returns, benchReturns = align(monthly, benchmark)
	}

	if risk, err := s.analyzer.RiskAdjustedReturns(returns, benchReturns); err != nil {
		rep.note("risk: %v", err)
	} else {
		rep.Risk = risk
	}

	if downside, err := s.analyzer.DownsideMetrics(returns, decimal.Zero); err != nil {
		rep.note("downside: %v", err)
	} else {
		rep.Downside = downside
	}

	if len(benchReturns) > 0 {
		if rel, err := s.analyzer.BenchmarkAnalysis(returns, benchReturns); err != nil {
			rep.note("relative: %v", err)
		} else {
			rep.Relative = rel
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"prices":   len(prices),
		"months":   len(monthly),
		"duration": time.Since(start),
	}).Info("Report built")

	return rep, nil
}

func (r *Report) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// LoadPrices reads closes from the store and falls back to the quote API
// when the store has fewer than two. Fetched closes are written back.
// A store error is returned only when there is no quote API to fall back to.
func (s *Service) LoadPrices(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	var storeErr error
	if s.prices != nil {
		prices, err := s.prices.GetRange(ctx, symbol, from, to)
		if err != nil {
			storeErr = err
			s.logger.WithField("symbol", symbol).WithError(err).Warn("Price store read failed, trying quotes")
		} else if len(prices) >= 2 {
			metrics.RecordPriceLoad(metrics.SourceDatabase)
			return prices, nil
		}
	}

	if s.quotes == nil || !s.quotes.Configured() {
		// 대체 소스가 없으면 DB 장애를 데이터 부족으로 숨기지 않는다
		if storeErr != nil {
			return nil, fmt.Errorf("load prices for %s: %w", symbol, storeErr)
		}
		return nil, nil
	}

	prices, err := s.quotes.FetchDailyCloses(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("load prices for %s: %w", symbol, err)
	}
	metrics.RecordPriceLoad(metrics.SourceAPI)

	if s.prices != nil && len(prices) > 0 {
		if err := s.prices.SaveBatch(ctx, symbol, prices); err != nil {
			s.logger.WithField("symbol", symbol).WithError(err).Warn("Price store write-back failed")
		}
	}
	return prices, nil
}

// PortfolioMWR computes money-weighted return metrics from stored cash flows.
func (s *Service) PortfolioMWR(ctx context.Context, portfolioID string) (contracts.Metrics, error) {
	if s.flows == nil {
		return nil, contracts.ErrNoCashFlows
	}

	start := time.Now()
	flows, err := s.flows.GetByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load cash flows for %s: %w", portfolioID, err)
	}

	m, err := s.analyzer.MoneyWeightedReturn(flows)
	metrics.ObserveAnalysis("mwr", start, err)
	return m, err
}
