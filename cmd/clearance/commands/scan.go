package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List clearance filings in a window",
	Long: `Searches EDGAR full-text search for clearance filings without
running a backtest. Useful for checking coverage before a run.

Example:
  go run ./cmd/clearance scan --from 2021-01-01 --to 2021-03-31
  go run ./cmd/clearance scan --from 2021-01-01 --to 2021-03-31 --opens`,
	RunE: runScan,
}

var (
	scanFrom  string
	scanTo    string
	scanOpens bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	// Flags
	scanCmd.Flags().StringVar(&scanFrom, "from", "", "window start (YYYY-MM-DD, required)")
	scanCmd.Flags().StringVar(&scanTo, "to", "", "window end (YYYY-MM-DD, default: today)")
	scanCmd.Flags().BoolVar(&scanOpens, "opens", false, "search investigation filings instead of clearances")

	scanCmd.MarkFlagRequired("from")
}

func runScan(cmd *cobra.Command, args []string) error {
	from, err := time.Parse("2006-01-02", scanFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if scanTo != "" {
		to, err = time.Parse("2006-01-02", scanTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	d, err := initDeps(nil)
	if err != nil {
		return err
	}
	defer d.close()

	ctx := context.Background()

	var (
		events   []contracts.DisclosureEvent
		warnings []contracts.Warning
	)
	label := "clearance"
	if scanOpens {
		label = "investigation"
		events, warnings, err = d.filings.SearchInvestigations(ctx, from, to, "")
	} else {
		events, warnings, err = d.filings.SearchClearances(ctx, from, to)
	}
	if err != nil {
		return fmt.Errorf("search filings: %w", err)
	}

	fmt.Printf("Found %d %s filings (%d skipped as malformed)\n\n", len(events), label, len(warnings))
	for _, ev := range events {
		ticker := ev.Ticker
		if !ev.HasTicker() {
			ticker = "-"
		}
		fmt.Printf("  %s  %-8s  %-6s  CIK %s\n",
			ev.FiledAt.Format("2006-01-02"), ticker, ev.FormType, ev.EntityID)
	}

	return nil
}
