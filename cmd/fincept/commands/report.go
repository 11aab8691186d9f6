package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fincept/analytics/internal/report"
)

const dateLayout = "2006-01-02"

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <symbol>",
	Short: "종목 성과 리포트",
	Long: `Builds the performance report for one symbol: TWR, rolling windows,
and risk and relative metrics against the configured benchmark.

Prices come from the database when it has them and from the quote API
otherwise. Reports are cached in Redis when it is enabled; --refresh
rebuilds and re-caches.

Example:
  go run ./cmd/fincept report SPY
  go run ./cmd/fincept report QQQ --from 2023-01-01 --to 2024-01-01 --format table`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

var (
	reportFrom    string
	reportTo      string
	reportRefresh bool
	reportFormat  string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFrom, "from", "", "start date YYYY-MM-DD (default: to - 1 year)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "end date YYYY-MM-DD (default: today)")
	reportCmd.Flags().BoolVar(&reportRefresh, "refresh", false, "ignore the cached report")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", formatJSON, "output format (json|table)")
}

// reportRange resolves the --from/--to flags against today
func reportRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	to := now.UTC().Truncate(24 * time.Hour)
	if toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: want YYYY-MM-DD", toStr)
		}
		to = t
	}

	from := to.AddDate(-1, 0, 0)
	if fromStr != "" {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: want YYYY-MM-DD", fromStr)
		}
		from = t
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must be before --to")
	}
	return from, to, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := validateFormat(reportFormat); err != nil {
		return err
	}

	symbol := strings.ToUpper(args[0])
	from, to, err := reportRange(reportFrom, reportTo, time.Now())
	if err != nil {
		return err
	}

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc, err := newServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	var rep *report.Report
	if reportRefresh {
		rep, err = svc.reports.Refresh(ctx, symbol, from, to)
	} else {
		rep, err = svc.reports.Get(ctx, symbol, from, to)
	}
	if err != nil {
		writeFailure(cmd.OutOrStdout(), err)
		return fmt.Errorf("report %s: %w", symbol, err)
	}

	if reportFormat == formatJSON {
		return writeJSON(cmd.OutOrStdout(), rep)
	}
	printReport(cmd.OutOrStdout(), rep)
	return nil
}

func printReport(w io.Writer, rep *report.Report) {
	title := fmt.Sprintf("%s  %s ~ %s", rep.Symbol, rep.From, rep.To)
	if rep.Benchmark != "" {
		title += "  vs " + rep.Benchmark
	}

	printMetrics(w, title+"  RETURNS", rep.Returns)
	if len(rep.Risk) > 0 {
		printMetrics(w, "RISK", rep.Risk)
	}
	if len(rep.Downside) > 0 {
		printMetrics(w, "DOWNSIDE", rep.Downside)
	}
	if len(rep.Relative) > 0 {
		printMetrics(w, "RELATIVE", rep.Relative)
	}
	if len(rep.Rolling) > 0 {
		printRolling(w, "ROLLING", rep.Rolling)
	}
	for _, note := range rep.Notes {
		fmt.Fprintf(w, "note: %s\n", note)
	}
}
