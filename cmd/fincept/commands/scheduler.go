package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fincept/analytics/internal/scheduler"
	"github.com/fincept/analytics/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/fincept scheduler start
  go run ./cmd/fincept scheduler list
  go run ./cmd/fincept scheduler run report_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- price_sync: 평일 오후 6시 (watchlist + benchmark 종가 저장, DB 필요)
- report_refresh: REPORT_SCHEDULE (기본 평일 오후 6시 30분, 리포트 캐시 갱신)

--warm 을 주면 시작 직후 report_refresh 를 한 번 실행해 캐시를 채웁니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		Args: cobra.NoArgs,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		Args:  cobra.NoArgs,
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

var schedulerWarm bool

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerStartCmd.Flags().BoolVar(&schedulerWarm, "warm", false, "run report_refresh once at startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, svc, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer svc.Close()

	sched.Start()
	if schedulerWarm {
		if err := sched.RunJob(jobs.ReportRefreshJobName); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Scheduler started")
	printJobStats(out, sched)
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	<-ctx.Done()

	fmt.Fprintln(out, "Shutting down scheduler...")
	sched.Stop()
	fmt.Fprintln(out, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, svc, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer svc.Close()

	printJobStats(cmd.OutOrStdout(), sched)
	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, svc, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer svc.Close()

	result, err := sched.RunNow(ctx, args[0])
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
	}
	return nil
}

func printJobStats(w io.Writer, sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	widths := []int{16, 18, 20}
	PrintTableHeader(w, []string{"JOB", "SCHEDULE", "NEXT RUN"}, widths)
	for _, name := range sched.GetAllJobs() {
		stat := stats[name]
		next := "-"
		if stat.NextRun != nil {
			next = stat.NextRun.Format("2006-01-02 15:04:05")
		}
		PrintTableRow(w, []string{name, stat.Schedule, next}, widths)
	}
}

func initScheduler(ctx context.Context) (*scheduler.Scheduler, *services, error) {
	cfg, log, err := loadRuntime()
	if err != nil {
		return nil, nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := newServices(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(log, scheduler.WithRetry(2, 30*time.Second))

	if svc.prices != nil {
		if err := sched.AddJob(jobs.NewPriceSyncJob(svc.quotes, svc.prices, cfg.Analytics, log)); err != nil {
			svc.Close()
			return nil, nil, err
		}
	} else {
		log.Warn("No database, price_sync not registered")
	}

	if err := sched.AddJob(jobs.NewReportRefreshJob(svc.reports, cfg.Analytics, log)); err != nil {
		svc.Close()
		return nil, nil, err
	}

	return sched, svc, nil
}
