package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/internal/engine"
	"github.com/nmillrr/sec-clearance-algo/internal/export"
	"github.com/nmillrr/sec-clearance-algo/pkg/config"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the clearance event study",
	Long: `Backtests the investigation-clearance strategy.

For every clearance filing in the window the engine:
- pairs it with the nearest preceding investigation filing
- scores news sentiment around the clearance date
- enters at the first close after the clearance and exits after the
  holding window

Example:
  go run ./cmd/clearance backtest run --from 2020-01-01 --to 2021-12-31
  go run ./cmd/clearance backtest run --from 2020-01-01 --to 2021-12-31 --out ./results`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over a filing window",
		Long: `Runs a backtest over the given filing window.

Flags:
  --from     window start (YYYY-MM-DD, required)
  --to       window end (YYYY-MM-DD, default: today)
  --holding  holding window in days (default: from config)
  --out      directory for CSV exports (pairs, trades, warnings)
  --save     persist the run to the database

Example:
  go run ./cmd/clearance backtest run --from 2020-01-01 --to 2021-12-31
  go run ./cmd/clearance backtest run --from 2020-01-01 --holding 60 --out ./results`,
		RunE: runBacktest,
	}

	// Flags
	backtestFrom    string
	backtestTo      string
	backtestHolding int
	backtestOut     string
	backtestSave    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "window start (YYYY-MM-DD, required)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "window end (YYYY-MM-DD, default: today)")
	backtestRunCmd.Flags().IntVar(&backtestHolding, "holding", 0, "holding window in days")
	backtestRunCmd.Flags().StringVar(&backtestOut, "out", "", "directory for CSV exports")
	backtestRunCmd.Flags().BoolVar(&backtestSave, "save", false, "persist the run to the database")

	backtestRunCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Clearance Backtest ===")

	// Parse dates
	from, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if backtestTo != "" {
		to, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}
	if to.Before(from) {
		return fmt.Errorf("end date %s precedes start date %s", backtestTo, backtestFrom)
	}

	d, err := initDeps(func(cfg *config.Config) {
		if backtestHolding > 0 {
			cfg.Backtest.HoldingDays = backtestHolding
		}
	})
	if err != nil {
		return err
	}
	defer d.close()

	if backtestSave && d.repo == nil {
		return fmt.Errorf("--save requires DATABASE_ENABLED=true")
	}

	fmt.Printf("Window:  %s .. %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("Holding: %d days\n\n", d.cfg.Backtest.HoldingDays)

	result, err := d.service.Run(context.Background(), from, to, func(ev engine.ProgressEvent) {
		fmt.Printf("\r  [%d/%d] %s", ev.Completed, ev.Total, ev.Ticker)
	})
	if err != nil {
		fmt.Println()
		return fmt.Errorf("backtest: %w", err)
	}
	fmt.Println()

	printMetrics(result)

	if backtestSave {
		runID, err := d.repo.SaveRun(context.Background(), result)
		if err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		fmt.Printf("\n✅ Run persisted (id=%d)\n", runID)
	}

	if backtestOut != "" {
		if err := exportResult(backtestOut, result); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("\n✅ CSV exports written to %s\n", backtestOut)
	}

	return nil
}

func printMetrics(result *engine.Result) {
	fmt.Println("\nResults:")
	fmt.Printf("  Pairs:    %d\n", len(result.Pairs))
	fmt.Printf("  Trades:   %d\n", result.Metrics.TradeCount)

	if result.Metrics.Empty {
		fmt.Println("  No completed trades; metrics are empty")
	} else {
		fmt.Printf("  Avg ROI:  %.2f%%\n", result.Metrics.AverageReturnPct)
		fmt.Printf("  Win rate: %.2f%%\n", result.Metrics.WinRatePct)
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for kind, count := range contracts.CountByKind(result.Warnings) {
			fmt.Printf("  %-24s %d\n", kind, count)
		}
	}

	fmt.Printf("\nCompleted in %s\n", result.Duration.Round(time.Millisecond))
}

func exportResult(dir string, result *engine.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	files := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"pairs.csv", func(f *os.File) error { return export.WritePairs(f, result.Pairs) }},
		{"trades.csv", func(f *os.File) error { return export.WriteOutcomes(f, result.Outcomes) }},
		{"warnings.csv", func(f *os.File) error { return export.WriteWarnings(f, result.Warnings) }},
	}

	for _, file := range files {
		f, err := os.Create(filepath.Join(dir, file.name))
		if err != nil {
			return err
		}
		if err := file.write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	return nil
}
