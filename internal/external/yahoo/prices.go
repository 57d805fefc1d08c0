package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
)

// History fetches daily OHLC bars for a ticker within the date range.
// An unresolved ticker yields an empty series, not an error, so a missing
// symbol never fails a backtest run.
func (c *Client) History(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error) {
	fullURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		c.baseURL, ticker, from.Unix(), to.Unix(),
	)

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	// The chart API answers 404 for symbols it cannot resolve.
	if resp.StatusCode == http.StatusNotFound {
		c.logger.WithField("ticker", ticker).Debug("Ticker not resolvable, returning empty series")
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if result.Chart.Error != nil {
		// "Not Found" style errors mean unresolved ticker; anything else
		// is a real failure.
		if result.Chart.Error.Code == "Not Found" {
			return nil, nil
		}
		return nil, fmt.Errorf("chart API error: %s - %s", result.Chart.Error.Code, result.Chart.Error.Description)
	}

	bars := mapChart(&result)

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   len(bars),
	}).Debug("Fetched price history")

	return bars, nil
}

// mapChart flattens the column-oriented chart payload into ordered bars.
// Rows with a missing close (halted days) are skipped.
func mapChart(result *chartResponse) []contracts.PriceBar {
	if len(result.Chart.Result) == 0 {
		return nil
	}

	series := result.Chart.Result[0]
	if len(series.Indicators.Quote) == 0 {
		return nil
	}

	quote := series.Indicators.Quote[0]
	bars := make([]contracts.PriceBar, 0, len(series.Timestamp))

	for i, ts := range series.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}

		bar := contracts.PriceBar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: quote.Close[i],
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}

		bars = append(bars, bar)
	}

	return bars
}
