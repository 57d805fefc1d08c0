package aggregate

import (
	"math"
	"testing"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
)

func outcomes(returns ...float64) []contracts.TradeOutcome {
	out := make([]contracts.TradeOutcome, 0, len(returns))
	for _, r := range returns {
		out = append(out, contracts.TradeOutcome{Ticker: "T", ReturnPct: r})
	}
	return out
}

func TestAggregate_EmptyIsMarkedEmpty(t *testing.T) {
	m := Aggregate(nil)

	if !m.Empty {
		t.Error("zero outcomes must be marked empty")
	}
	if m.TradeCount != 0 {
		t.Errorf("trade count = %d, want 0", m.TradeCount)
	}
}

func TestAggregate_ZeroReturnsAreNotEmpty(t *testing.T) {
	m := Aggregate(outcomes(0, 0))

	if m.Empty {
		t.Error("two zero-return trades are real trades, not an empty dataset")
	}
	if m.TradeCount != 2 {
		t.Errorf("trade count = %d, want 2", m.TradeCount)
	}
	if m.AverageReturnPct != 0 {
		t.Errorf("average = %v, want 0", m.AverageReturnPct)
	}
	if m.WinRatePct != 0 {
		t.Errorf("win rate = %v, want 0", m.WinRatePct)
	}
}

func TestAggregate_MeanAndWinRate(t *testing.T) {
	m := Aggregate(outcomes(10, -5, 0))

	if m.TradeCount != 3 {
		t.Fatalf("trade count = %d, want 3", m.TradeCount)
	}
	if math.Abs(m.AverageReturnPct-5.0/3.0) > 1e-9 {
		t.Errorf("average = %v, want %v", m.AverageReturnPct, 5.0/3.0)
	}
	// One win out of three: the zero-return trade counts in the
	// denominator, not the numerator.
	if math.Abs(m.WinRatePct-100.0/3.0) > 1e-9 {
		t.Errorf("win rate = %v, want %v", m.WinRatePct, 100.0/3.0)
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := Aggregate(outcomes(10, -5, 0, 3.5))
	b := Aggregate(outcomes(3.5, 0, 10, -5))

	if a != b {
		t.Errorf("metrics differ by input order: %+v vs %+v", a, b)
	}
}
