package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/fees"
)

// feesCmd represents the fees command
var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "수수료 영향 시뮬레이션",
	Long: `Simulates management and performance fees over a gross return
series and reports the net returns and fee drag.

The input is a fee impact request:
  {"gross_returns": [...], "management_fee": 0.02, "performance_fee": 0.2,
   "hurdle_rate": 0.08, "high_water_mark": true}

With --schedule and --profile, the named YAML profile replaces the fee
terms from the input.

Example:
  go run ./cmd/fincept fees --input returns.json
  go run ./cmd/fincept fees --input returns.json --schedule fees.yaml --profile hedge_2_20`,
	Args: cobra.NoArgs,
	RunE: runFees,
}

var feesProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "수수료 프로파일 목록 (hash 포함)",
	Args:  cobra.NoArgs,
	RunE:  runFeeProfiles,
}

var (
	feesInput    string
	feesSchedule string
	feesProfile  string
	feesFormat   string
)

func init() {
	rootCmd.AddCommand(feesCmd)
	feesCmd.AddCommand(feesProfilesCmd)

	feesCmd.Flags().StringVarP(&feesInput, "input", "i", "-", "fee impact request JSON (- for stdin)")
	feesCmd.Flags().StringVarP(&feesFormat, "format", "f", formatJSON, "output format (json|table)")
	feesCmd.PersistentFlags().StringVar(&feesSchedule, "schedule", "", "fee profile YAML (default FEE_SCHEDULE_FILE)")
	feesCmd.Flags().StringVar(&feesProfile, "profile", "", "profile id from --schedule")
}

// loadSchedules reads the profile file from the flag or FEE_SCHEDULE_FILE
func loadSchedules(defaultPath string) (*fees.ScheduleFile, error) {
	path := feesSchedule
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return nil, nil
	}

	file, _, err := fees.LoadSchedules(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func runFees(cmd *cobra.Command, args []string) error {
	if err := validateFormat(feesFormat); err != nil {
		return err
	}

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	raw, err := readInput(cmd, feesInput)
	if err != nil {
		return err
	}

	var req contracts.FeeImpactRequest
	if err := decodeInput(raw, &req); err != nil {
		return err
	}

	schedule := fees.ScheduleFromRequest(req)
	if feesProfile != "" {
		file, err := loadSchedules(cfg.FeeScheduleFile)
		if err != nil {
			return err
		}
		if file == nil {
			return fmt.Errorf("--profile needs --schedule or FEE_SCHEDULE_FILE")
		}
		profile, err := file.Profile(feesProfile)
		if err != nil {
			return err
		}
		schedule = profile.Schedule()
		log.WithField("profile", profile.ID).Debug("Using fee profile")
	}

	impact, err := fees.NewAnalyzer(cfg.Analytics, log).CalculateFeeImpact(req.GrossReturns, schedule)
	if err != nil {
		writeFailure(cmd.OutOrStdout(), err)
		return fmt.Errorf("fees: %w", err)
	}

	return writeResult(cmd.OutOrStdout(), feesFormat, "FEE IMPACT", impact)
}

func runFeeProfiles(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntime()
	if err != nil {
		return err
	}

	file, err := loadSchedules(cfg.FeeScheduleFile)
	if err != nil {
		return err
	}
	if file == nil {
		return fmt.Errorf("no fee schedule: pass --schedule or set FEE_SCHEDULE_FILE")
	}

	out := cmd.OutOrStdout()
	widths := []int{16, 8, 8, 8, 5, 16}
	PrintTableHeader(out, []string{"ID", "MGMT", "PERF", "HURDLE", "HWM", "HASH"}, widths)
	for _, p := range file.Profiles {
		hash, err := fees.Hash(p)
		if err != nil {
			return err
		}
		s := p.Schedule()
		PrintTableRow(out, []string{
			p.ID,
			s.ManagementFee.String(),
			nullable(s.PerformanceFee.Valid, s.PerformanceFee.Decimal.String()),
			nullable(s.HurdleRate.Valid, s.HurdleRate.Decimal.String()),
			fmt.Sprintf("%t", s.HighWaterMark),
			hash[:16],
		}, widths)
	}
	return nil
}

func nullable(valid bool, v string) string {
	if !valid {
		return "-"
	}
	return v
}
