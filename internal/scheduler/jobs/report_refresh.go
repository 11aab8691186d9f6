package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/metrics"
	"github.com/fincept/analytics/internal/report"
	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/logger"
)

const defaultWorkers = 4

// ReportRefreshJobName is the scheduler name of ReportRefreshJob
const ReportRefreshJobName = "report_refresh"

// Refresher rebuilds and re-caches one report
type Refresher interface {
	Refresh(ctx context.Context, symbol string, from, to time.Time) (*report.Report, error)
}

// RefreshResult is the outcome for one watchlist symbol
type RefreshResult struct {
	Symbol  string
	Skipped bool // not enough data, no retry
	Error   error
}

// ReportRefreshJob rebuilds the cached report of every watchlist symbol
// ⭐ SSOT: 리포트 갱신 스케줄은 이 Job에서만
type ReportRefreshJob struct {
	refresher Refresher
	watchlist []string
	schedule  string
	lookback  time.Duration
	workers   int
	logger    *logger.Logger
	now       func() time.Time
}

// NewReportRefreshJob creates a new report refresh job over cfg.Watchlist
func NewReportRefreshJob(refresher Refresher, cfg config.AnalyticsConfig, log *logger.Logger) *ReportRefreshJob {
	return &ReportRefreshJob{
		refresher: refresher,
		watchlist: cfg.Watchlist,
		schedule:  cfg.ReportSchedule,
		lookback:  365 * 24 * time.Hour,
		workers:   defaultWorkers,
		logger:    log.Component(ReportRefreshJobName),
		now:       time.Now,
	}
}

// Name returns the job name
func (j *ReportRefreshJob) Name() string {
	return ReportRefreshJobName
}

// Schedule returns the configured cron spec (weekdays 18:30 by default)
func (j *ReportRefreshJob) Schedule() string {
	return j.schedule
}

// Window returns the report range the job refreshes, in whole days
func (j *ReportRefreshJob) Window() (from, to time.Time) {
	to = j.now().UTC().Truncate(24 * time.Hour)
	return to.Add(-j.lookback), to
}

// Run refreshes every symbol. Symbols that lack data are skipped; any
// other failure makes the run fail so the scheduler retries it.
func (j *ReportRefreshJob) Run(ctx context.Context) error {
	results := j.RefreshAll(ctx)

	var failed []string
	skipped := 0
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Error != nil:
			failed = append(failed, r.Symbol)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"total":   len(results),
		"failed":  len(failed),
		"skipped": skipped,
	}).Info("Report refresh completed")

	if len(failed) > 0 {
		return fmt.Errorf("report refresh failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

// RefreshAll refreshes the watchlist with a small worker pool
func (j *ReportRefreshJob) RefreshAll(ctx context.Context) []RefreshResult {
	from, to := j.Window()

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.watchlist),
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"workers": j.workers,
	}).Info("Starting report refresh")

	symbolCh := make(chan string, len(j.watchlist))
	resultCh := make(chan RefreshResult, len(j.watchlist))

	var wg sync.WaitGroup
	for i := 0; i < j.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolCh {
				resultCh <- j.refresh(ctx, symbol, from, to)
			}
		}()
	}

	for _, symbol := range j.watchlist {
		symbolCh <- symbol
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]RefreshResult, 0, len(j.watchlist))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

func (j *ReportRefreshJob) refresh(ctx context.Context, symbol string, from, to time.Time) RefreshResult {
	if err := ctx.Err(); err != nil {
		return RefreshResult{Symbol: symbol, Error: err}
	}

	_, err := j.refresher.Refresh(ctx, symbol, from, to)
	metrics.RecordReportRefresh(err)

	switch {
	case err == nil:
		return RefreshResult{Symbol: symbol}
	case contracts.IsAnalysisError(err):
		j.logger.WithField("symbol", symbol).WithError(err).Warn("Report skipped")
		return RefreshResult{Symbol: symbol, Skipped: true, Error: err}
	default:
		j.logger.WithField("symbol", symbol).WithError(err).Error("Report refresh failed")
		return RefreshResult{Symbol: symbol, Error: err}
	}
}
