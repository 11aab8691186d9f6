package jobs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/logger"
)

// QuoteFetcher pulls daily closes from the quote API
type QuoteFetcher interface {
	Configured() bool
	FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error)
}

// PriceWriter persists daily closes
type PriceWriter interface {
	SaveBatch(ctx context.Context, symbol string, prices []contracts.PricePoint) error
}

// PriceSyncJob copies recent closes for the watchlist and benchmark into
// the price store ahead of the report refresh
type PriceSyncJob struct {
	quotes  QuoteFetcher
	store   PriceWriter
	symbols []string
	days    int
	logger  *logger.Logger
	now     func() time.Time
}

// NewPriceSyncJob creates a new price sync job
func NewPriceSyncJob(quotes QuoteFetcher, store PriceWriter, cfg config.AnalyticsConfig, log *logger.Logger) *PriceSyncJob {
	symbols := append([]string(nil), cfg.Watchlist...)
	if cfg.BenchmarkSymbol != "" && !slices.Contains(symbols, cfg.BenchmarkSymbol) {
		symbols = append(symbols, cfg.BenchmarkSymbol)
	}
	return &PriceSyncJob{
		quotes:  quotes,
		store:   store,
		symbols: symbols,
		days:    5,
		logger:  log.Component("price_sync"),
		now:     time.Now,
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Schedule returns the cron schedule (weekdays 18:00, before the refresh)
func (j *PriceSyncJob) Schedule() string {
	return "0 0 18 * * 1-5"
}

// Symbols returns the symbols the job syncs
func (j *PriceSyncJob) Symbols() []string {
	return j.symbols
}

// Run fetches the last few days for each symbol and upserts them
func (j *PriceSyncJob) Run(ctx context.Context) error {
	if !j.quotes.Configured() {
		j.logger.Debug("Quote API not configured, skipping price sync")
		return nil
	}

	to := j.now().UTC()
	from := to.AddDate(0, 0, -j.days)

	var errs []error
	saved := 0
	for _, symbol := range j.symbols {
		prices, err := j.quotes.FetchDailyCloses(ctx, symbol, from, to)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", symbol, err))
			continue
		}
		if err := j.store.SaveBatch(ctx, symbol, prices); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", symbol, err))
			continue
		}
		saved += len(prices)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.symbols),
		"saved":   saved,
		"failed":  len(errs),
	}).Info("Price sync completed")

	return errors.Join(errs...)
}
