package aggregate

import (
	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
)

// Aggregate reduces per-event trade outcomes to summary metrics. The
// reduction is commutative: count, mean and win rate do not depend on
// outcome order, so callers may gather outcomes in completion order.
//
// Zero outcomes return an explicitly empty metrics record; "no trades" is
// never coerced into zero-valued statistics. Zero-return trades count in
// the denominator of the win rate but not the numerator.
func Aggregate(outcomes []contracts.TradeOutcome) contracts.BacktestMetrics {
	if len(outcomes) == 0 {
		return contracts.BacktestMetrics{Empty: true}
	}

	sum := 0.0
	wins := 0
	for _, o := range outcomes {
		sum += o.ReturnPct
		if o.Win() {
			wins++
		}
	}

	n := len(outcomes)
	return contracts.BacktestMetrics{
		TradeCount:       n,
		AverageReturnPct: sum / float64(n),
		WinRatePct:       float64(wins) / float64(n) * 100,
	}
}
