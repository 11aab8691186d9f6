package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fincept/analytics/internal/api"
	"github.com/fincept/analytics/internal/api/handlers"
	"github.com/fincept/analytics/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                            - Health check
  GET  /metrics                           - Prometheus metrics
  POST /api/analytics/{twr,mwr,risk,...}  - 단일 분석
  POST /api/fees/impact                   - 수수료 영향
  GET  /api/fees/profiles                 - 수수료 프로파일
  GET  /api/reports/{symbol}              - 종목 성과 리포트
  GET  /api/portfolios/{id}/mwr           - 포트폴리오 MWR

Example:
  go run ./cmd/fincept api
  go run ./cmd/fincept api --port 8080`,
	Args: cobra.NoArgs,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	var dbChecker handlers.DatabaseChecker
	if svc.db != nil {
		dbChecker = svc.db
	}

	h := api.Handlers{
		Health:    handlers.NewHealthHandler("fincept-analytics", dbChecker, svc.redis),
		Analytics: handlers.NewAnalyticsHandler(svc.analyzer, cfg.Analytics.RollingWindowMonths, log),
		Fees:      handlers.NewFeeHandler(svc.feeAnalyzer, svc.schedules, log),
	}
	if svc.db != nil || svc.quotes.Configured() {
		h.Reports = handlers.NewReportHandler(svc.reports, log)
	} else {
		log.Warn("No price source configured, report endpoints disabled")
	}

	opts := api.Options{
		RateLimit:      cfg.APIRateLimit,
		MetricsEnabled: cfg.MetricsEnabled,
	}
	if svc.redis.Enabled() {
		opts.Limiter = redis.NewRateLimiter(svc.redis, keyPrefix)
	}

	server := api.New(cfg, log, api.NewRouter(h, opts, log))

	fmt.Fprintf(cmd.ErrOrStderr(), "API server listening on :%s (Ctrl+C to stop)\n", cfg.Port)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	log.Info("API server stopped")
	return nil
}
