package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fincept/analytics/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	formatJSON  = "json"
	formatTable = "table"
)

func validateFormat(format string) error {
	if format != formatJSON && format != formatTable {
		return fmt.Errorf("unknown format %q (valid: json, table)", format)
	}
	return nil
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResult prints v in the requested format. Values without a table
// rendering fall back to JSON.
func writeResult(w io.Writer, format, title string, v interface{}) error {
	if format != formatTable {
		return writeJSON(w, v)
	}

	switch r := v.(type) {
	case contracts.Metrics:
		printMetrics(w, title, r)
	case *contracts.PersistenceResult:
		printMetrics(w, title, r.Metrics())
	case *contracts.FeeImpact:
		printMetrics(w, title, r.Metrics())
	case []contracts.RollingWindow:
		printRolling(w, title, r)
	default:
		return writeJSON(w, v)
	}
	return nil
}

// writeFailure prints the {"error": msg} body for analysis errors so the
// CLI shares the API's error contract
func writeFailure(w io.Writer, err error) {
	if contracts.IsAnalysisError(err) {
		_ = writeJSON(w, contracts.ErrorBody(err))
	}
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

func printMetrics(w io.Writer, title string, m contracts.Metrics) {
	keys := make([]string, 0, len(m))
	width := 0
	for k := range m {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s\n", title)
	PrintSeparator(w)
	if len(keys) == 0 {
		fmt.Fprintln(w, "   (no metrics)")
	}
	for _, k := range keys {
		PrintKeyValue(w, k, m[k].Round(6).String(), width)
	}
	PrintDoubleSeparator(w)
}

func printRolling(w io.Writer, title string, windows []contracts.RollingWindow) {
	fmt.Fprintf(w, "%s (%d windows)\n", title, len(windows))

	widths := []int{12, 12, 12, 12, 12}
	PrintTableHeader(w, []string{"END", "RETURN", "ANNUALIZED", "VOLATILITY", "SHARPE"}, widths)
	for _, rw := range windows {
		PrintTableRow(w, []string{
			rw.EndDate,
			fmt.Sprintf("%.4f", rw.PeriodReturn),
			fmt.Sprintf("%.4f", rw.AnnualizedReturn),
			fmt.Sprintf("%.4f", rw.Volatility),
			fmt.Sprintf("%.4f", rw.SharpeRatio),
		}, widths)
	}
}
