package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/finmath"
	"github.com/fincept/analytics/internal/performance"
	"github.com/fincept/analytics/pkg/config"
)

// operation decodes its request from raw JSON and runs one analysis
type operation func(a *performance.Analyzer, cfg config.AnalyticsConfig, raw []byte) (interface{}, error)

// ⭐ SSOT: CLI 분석 연산 목록은 여기서만
var operations = map[string]operation{
	"twr": func(a *performance.Analyzer, _ config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.TWRRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		return a.TimeWeightedReturn(req.Prices, req.CashFlows)
	},
	"mwr": func(a *performance.Analyzer, _ config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.MWRRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		return a.MoneyWeightedReturn(req.CashFlows)
	},
	"risk": func(a *performance.Analyzer, _ config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.RiskRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		return a.RiskAdjustedReturns(req.Returns, req.BenchmarkReturns)
	},
	"attribution": func(a *performance.Analyzer, _ config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.AttributionRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		return a.PerformanceAttribution(req.PortfolioReturns, req.BenchmarkReturns, req.SectorWeights)
	},
	"downside": func(a *performance.Analyzer, _ config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.DownsideRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		return a.DownsideMetrics(req.Returns, req.TargetReturn)
	},
	"rolling": func(a *performance.Analyzer, cfg config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.RollingRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		if req.WindowMonths == 0 {
			req.WindowMonths = cfg.RollingWindowMonths
		}
		return a.RollingPerformance(req.Prices, req.WindowMonths), nil
	},
	"factors": func(a *performance.Analyzer, _ config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.FactorRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		return a.FactorExposures(req.PortfolioReturns, req.FactorReturns), nil
	},
	"benchmark": func(a *performance.Analyzer, _ config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.BenchmarkRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		return a.BenchmarkAnalysis(req.PortfolioReturns, req.BenchmarkReturns)
	},
	"persistence": func(a *performance.Analyzer, _ config.AnalyticsConfig, raw []byte) (interface{}, error) {
		var req contracts.PersistenceRequest
		if err := decodeInput(raw, &req); err != nil {
			return nil, err
		}
		return a.PerformancePersistence(req.ReturnsByPeriod)
	},
}

func operationNames() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <operation>",
	Short: "단일 분석 실행 (JSON 입력)",
	Long: `Runs one performance analysis over a JSON request.

Operations:
  twr, mwr, risk, attribution, downside, rolling, factors, benchmark, persistence

The input has the same shape as the matching POST /api/analytics/<op>
body. Use --input - to read from stdin.

Example:
  go run ./cmd/fincept analyze twr --input prices.json
  go run ./cmd/fincept analyze rolling --input prices.json --format table`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: operationNames(),
	RunE:      runAnalyze,
}

var (
	analyzeInput  string
	analyzeFormat string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "-", "request JSON file (- for stdin)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", formatJSON, "output format (json|table)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(args[0])
	op, ok := operations[name]
	if !ok {
		return fmt.Errorf("unknown operation %q (valid: %s)", name, strings.Join(operationNames(), ", "))
	}
	if err := validateFormat(analyzeFormat); err != nil {
		return err
	}

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	raw, err := readInput(cmd, analyzeInput)
	if err != nil {
		return err
	}

	analyzer := performance.NewAnalyzer(cfg.Analytics, finmath.NewCalculator(), log)

	result, err := op(analyzer, cfg.Analytics, raw)
	if err != nil {
		writeFailure(cmd.OutOrStdout(), err)
		return fmt.Errorf("%s: %w", name, err)
	}

	return writeResult(cmd.OutOrStdout(), analyzeFormat, strings.ToUpper(name), result)
}

// readInput reads a file, or stdin for "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func decodeInput(raw []byte, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid input JSON: %w", err)
	}
	return nil
}
