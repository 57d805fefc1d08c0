package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
)

// Rounding to presentation precision happens here and only here; the
// engine keeps exact values.

const dateLayout = "2006-01-02"

// WritePairs writes the enriched event dataset as CSV.
func WritePairs(w io.Writer, pairs []contracts.EventPair) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"entity_id", "ticker", "t1", "t2", "sentiment_avg", "article_count"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, pair := range pairs {
		t1 := ""
		if pair.T1 != nil {
			t1 = pair.T1.Format(dateLayout)
		}

		avg := ""
		articles := ""
		if pair.Sentiment != nil {
			avg = strconv.FormatFloat(pair.Sentiment.AverageScore, 'f', 4, 64)
			articles = strconv.Itoa(len(pair.Sentiment.Articles))
		}

		record := []string{
			pair.EntityID,
			pair.Ticker,
			t1,
			pair.T2.Format(dateLayout),
			avg,
			articles,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write pair %s: %w", pair.EntityID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteOutcomes writes simulated trades as CSV.
func WriteOutcomes(w io.Writer, outcomes []contracts.TradeOutcome) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"entity_id", "ticker", "entry_date", "exit_date", "entry_price", "exit_price", "return_pct"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, o := range outcomes {
		record := []string{
			o.EntityID,
			o.Ticker,
			o.EntryDate.Format(dateLayout),
			o.ExitDate.Format(dateLayout),
			strconv.FormatFloat(o.EntryPrice, 'f', 4, 64),
			strconv.FormatFloat(o.ExitPrice, 'f', 4, 64),
			strconv.FormatFloat(o.ReturnPct, 'f', 4, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write outcome %s: %w", o.Ticker, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteWarnings writes per-item warnings as CSV for run audits.
func WriteWarnings(w io.Writer, warnings []contracts.Warning) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"kind", "entity_id", "ticker", "detail"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, warn := range warnings {
		record := []string{
			string(warn.Kind),
			warn.EntityID,
			warn.Ticker,
			warn.Detail,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write warning: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
