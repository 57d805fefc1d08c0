package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/pkg/config"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

type stubFilings struct {
	clears        []contracts.DisclosureEvent
	opens         []contracts.DisclosureEvent
	clearWarnings []contracts.Warning
	openWarnings  []contracts.Warning
	clearErr      error

	openFrom time.Time
	openTo   time.Time
}

func (s *stubFilings) SearchClearances(_ context.Context, from, to time.Time) ([]contracts.DisclosureEvent, []contracts.Warning, error) {
	if s.clearErr != nil {
		return nil, nil, s.clearErr
	}
	return s.clears, s.clearWarnings, nil
}

func (s *stubFilings) SearchInvestigations(_ context.Context, from, to time.Time, _ string) ([]contracts.DisclosureEvent, []contracts.Warning, error) {
	s.openFrom, s.openTo = from, to
	return s.opens, s.openWarnings, nil
}

type flatPrices struct {
	close float64
}

func (p *flatPrices) History(_ context.Context, _ string, from, to time.Time) ([]contracts.PriceBar, error) {
	var bars []contracts.PriceBar
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		bars = append(bars, contracts.PriceBar{Date: d, Open: p.close, Close: p.close, High: p.close, Low: p.close})
	}
	return bars, nil
}

type noNews struct{}

func (noNews) Query(context.Context, string, time.Time, time.Time) ([]contracts.SentimentArticle, error) {
	return nil, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() config.BacktestConfig {
	return config.BacktestConfig{
		SentimentWindowBeforeDays: 7,
		SentimentWindowAfterDays:  7,
		HoldingDays:               30,
		ConcurrencyLimit:          2,
		PerCallTimeout:            5 * time.Second,
	}
}

func TestServiceRun_MergesFilingsIntoOneRun(t *testing.T) {
	filings := &stubFilings{
		opens: []contracts.DisclosureEvent{
			{EntityID: "0001", Ticker: "ACME", Kind: contracts.EventInvestigationOpen, FiledAt: day(2021, 1, 5)},
		},
		clears: []contracts.DisclosureEvent{
			{EntityID: "0001", Ticker: "ACME", Kind: contracts.EventInvestigationClear, FiledAt: day(2021, 3, 1)},
		},
	}

	svc := NewService(filings, &flatPrices{close: 100}, noNews{}, logger.NewNop(), testConfig())

	result, err := svc.Run(context.Background(), day(2021, 1, 1), day(2021, 12, 31), nil)
	require.NoError(t, err)

	require.Len(t, result.Pairs, 1)
	require.NotNil(t, result.Pairs[0].T1)
	assert.Equal(t, day(2021, 1, 5), *result.Pairs[0].T1)
	assert.Equal(t, 1, result.Metrics.TradeCount)
}

func TestServiceRun_OpenSearchSpansLookback(t *testing.T) {
	filings := &stubFilings{}

	svc := NewService(filings, &flatPrices{close: 100}, noNews{}, logger.NewNop(), testConfig())

	_, err := svc.Run(context.Background(), day(2021, 1, 1), day(2021, 6, 30), nil)
	require.Error(t, err) // no events at all

	// Investigations are searched two years before the window by default.
	assert.Equal(t, day(2019, 1, 1), filings.openFrom)
	assert.Equal(t, day(2021, 6, 30), filings.openTo)
}

func TestServiceRun_ConfiguredLookbackWins(t *testing.T) {
	filings := &stubFilings{}

	cfg := testConfig()
	cfg.MatchLookbackStart = day(2020, 6, 1)
	svc := NewService(filings, &flatPrices{close: 100}, noNews{}, logger.NewNop(), cfg)

	_, _ = svc.Run(context.Background(), day(2021, 1, 1), day(2021, 6, 30), nil)

	assert.Equal(t, day(2020, 6, 1), filings.openFrom)
}

func TestServiceRun_FilingWarningsRideAlong(t *testing.T) {
	filings := &stubFilings{
		clears: []contracts.DisclosureEvent{
			{EntityID: "0001", Ticker: "ACME", Kind: contracts.EventInvestigationClear, FiledAt: day(2021, 3, 1)},
		},
		clearWarnings: []contracts.Warning{
			{Kind: contracts.WarnMalformedRecord, Detail: "filing without CIK"},
		},
	}

	svc := NewService(filings, &flatPrices{close: 100}, noNews{}, logger.NewNop(), testConfig())

	result, err := svc.Run(context.Background(), day(2021, 1, 1), day(2021, 12, 31), nil)
	require.NoError(t, err)

	counts := contracts.CountByKind(result.Warnings)
	assert.Equal(t, 1, counts[contracts.WarnMalformedRecord])
	// The unmatched clearance still adds its own warning.
	assert.Equal(t, 1, counts[contracts.WarnNoQualifyingMatch])
}

func TestServiceRun_SearchFailureIsFatal(t *testing.T) {
	filings := &stubFilings{clearErr: errors.New("edgar down")}

	svc := NewService(filings, &flatPrices{close: 100}, noNews{}, logger.NewNop(), testConfig())

	_, err := svc.Run(context.Background(), day(2021, 1, 1), day(2021, 12, 31), nil)
	assert.Error(t, err)
}
