package contracts

import "time"

// PriceBar is one daily OHLC bar.
type PriceBar struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	Close float64   `json:"close"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
}

// TradeOutcome is one simulated trade tied to an EventPair. It is only
// constructed when both entry and exit prices resolved.
type TradeOutcome struct {
	EntityID   string    `json:"entity_id"`
	Ticker     string    `json:"ticker"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	ReturnPct  float64   `json:"return_pct"`
}

// Win reports whether the trade had a strictly positive return.
// Zero-return trades are neither wins nor losses.
func (t TradeOutcome) Win() bool {
	return t.ReturnPct > 0
}

// BacktestMetrics is the final reduction over all trade outcomes.
// Empty distinguishes "no trades" from trades that averaged exactly 0%;
// when Empty is true the averages carry no meaning.
type BacktestMetrics struct {
	TradeCount       int     `json:"trade_count"`
	AverageReturnPct float64 `json:"average_return_pct"`
	WinRatePct       float64 `json:"win_rate_pct"`
	Empty            bool    `json:"empty"`
}
