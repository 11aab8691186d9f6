package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/fincept/analytics/internal/external/quotes"
	"github.com/fincept/analytics/internal/fees"
	"github.com/fincept/analytics/internal/finmath"
	"github.com/fincept/analytics/internal/marketdata"
	"github.com/fincept/analytics/internal/performance"
	"github.com/fincept/analytics/internal/report"
	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/database"
	"github.com/fincept/analytics/pkg/logger"
	"github.com/fincept/analytics/pkg/redis"
)

const keyPrefix = "fincept"

// services holds the wired dependencies shared by api, report and scheduler
type services struct {
	cfg    *config.Config
	logger *logger.Logger

	db     *database.DB // nil without DATABASE_URL
	redis  *redis.Client
	quotes *quotes.Client

	prices *marketdata.PriceRepository // nil without db

	analyzer    *performance.Analyzer
	feeAnalyzer *fees.Analyzer
	schedules   *fees.ScheduleFile // nil without FEE_SCHEDULE_FILE
	reports     *report.Service
}

// newServices connects optional backends and wires the analytics stack.
// Postgres and Redis are optional; the quote API is the price fallback.
func newServices(ctx context.Context, cfg *config.Config, log *logger.Logger) (*services, error) {
	s := &services{cfg: cfg, logger: log}

	db, err := database.New(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Warn("DATABASE_URL not set, running without price store")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		s.db = db
		log.Info("Connected to database")
	}

	s.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	s.quotes = quotes.NewClient(cfg.Quotes, log)
	if !s.quotes.Configured() {
		log.Warn("QUOTES_BASE_URL not set, quote fallback disabled")
	}

	s.schedules, err = loadSchedules(cfg.FeeScheduleFile)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load fee schedules: %w", err)
	}

	s.analyzer = performance.NewAnalyzer(cfg.Analytics, finmath.NewCalculator(), log)
	s.feeAnalyzer = fees.NewAnalyzer(cfg.Analytics, log)

	// nil 인터페이스 유지: typed nil을 넘기지 않도록 분기
	var priceStore report.PriceStore
	var flowStore report.CashFlowStore
	if s.db != nil {
		s.prices = marketdata.NewPriceRepository(s.db.Pool)
		priceStore = s.prices
		flowStore = marketdata.NewCashFlowRepository(s.db.Pool)
	}

	s.reports = report.NewService(
		cfg.Analytics,
		s.analyzer,
		priceStore,
		s.quotes,
		flowStore,
		redis.NewCache(s.redis, keyPrefix),
		log,
	)

	return s, nil
}

// Close releases connections. Safe to call more than once.
func (s *services) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close redis")
		}
		s.redis = nil
	}
	s.db.Close()
	s.db = nil
}
