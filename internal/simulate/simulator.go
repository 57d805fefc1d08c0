package simulate

import (
	"fmt"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// Simulator computes a single fixed-horizon trade anchored to a clearance
// date: buy at the first close on or after T2+1 day, sell at the first
// close on or after T2+holding days.
type Simulator struct {
	logger      *logger.Logger
	holdingDays int
}

// NewSimulator creates a new Simulator.
func NewSimulator(log *logger.Logger, holdingDays int) *Simulator {
	return &Simulator{
		logger:      log,
		holdingDays: holdingDays,
	}
}

// Simulate computes the trade outcome for a pair against an ordered daily
// price series. A nil outcome with a non-empty reason is the expected
// result whenever the trade cannot be priced: unresolved ticker, no bars,
// the horizon running past the series, or a zero entry price. None of these
// are errors.
//
// Returns are computed exactly; rounding is a presentation concern.
func (s *Simulator) Simulate(pair contracts.EventPair, bars []contracts.PriceBar) (*contracts.TradeOutcome, string) {
	if pair.Ticker == "" || pair.Ticker == contracts.TickerUnknown {
		return nil, "ticker unresolved"
	}

	if len(bars) == 0 {
		return nil, "no price data"
	}

	entryTarget := pair.T2.AddDate(0, 0, 1)
	exitTarget := pair.T2.AddDate(0, 0, s.holdingDays)

	entryBar, ok := firstOnOrAfter(bars, entryTarget)
	if !ok {
		return nil, fmt.Sprintf("no trading day on or after %s", entryTarget.Format("2006-01-02"))
	}

	exitBar, ok := firstOnOrAfter(bars, exitTarget)
	if !ok {
		return nil, fmt.Sprintf("price series ends before %s", exitTarget.Format("2006-01-02"))
	}

	if entryBar.Close == 0 {
		return nil, fmt.Sprintf("zero entry price on %s", entryBar.Date.Format("2006-01-02"))
	}

	outcome := &contracts.TradeOutcome{
		EntityID:   pair.EntityID,
		Ticker:     pair.Ticker,
		EntryDate:  entryBar.Date,
		ExitDate:   exitBar.Date,
		EntryPrice: entryBar.Close,
		ExitPrice:  exitBar.Close,
		ReturnPct:  (exitBar.Close - entryBar.Close) / entryBar.Close * 100,
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":     outcome.Ticker,
		"entry":      outcome.EntryDate.Format("2006-01-02"),
		"exit":       outcome.ExitDate.Format("2006-01-02"),
		"return_pct": outcome.ReturnPct,
	}).Debug("Simulated trade")

	return outcome, ""
}

// firstOnOrAfter finds the first bar whose date is on or after target.
// Bars are ordered by date ascending.
func firstOnOrAfter(bars []contracts.PriceBar, target time.Time) (contracts.PriceBar, bool) {
	for _, bar := range bars {
		if !bar.Date.Before(target) {
			return bar, true
		}
	}
	return contracts.PriceBar{}, false
}
