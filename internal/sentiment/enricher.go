package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// Source is the sentiment collaborator contract. Implementations query a
// news provider for articles mentioning the subject within the date range
// and return them scored. The source is stateless from the enricher's
// perspective.
type Source interface {
	Query(ctx context.Context, subject string, from, to time.Time) ([]contracts.SentimentArticle, error)
}

// Enricher attaches a sentiment summary to matched event pairs. Windows are
// calendar days around the clearance date T2.
type Enricher struct {
	source     Source
	logger     *logger.Logger
	beforeDays int
	afterDays  int
}

// NewEnricher creates a new Enricher.
func NewEnricher(source Source, log *logger.Logger, beforeDays, afterDays int) *Enricher {
	return &Enricher{
		source:     source,
		logger:     log,
		beforeDays: beforeDays,
		afterDays:  afterDays,
	}
}

// Enrich returns a copy of the pair with Sentiment populated from articles
// published in [T2-before, T2+after]. An empty article set yields an average
// of exactly 0. A source failure degrades to the same zero summary and is
// reported as a warning; it never fails the call.
func (e *Enricher) Enrich(ctx context.Context, pair contracts.EventPair) (contracts.EventPair, *contracts.Warning) {
	from := pair.T2.AddDate(0, 0, -e.beforeDays)
	to := pair.T2.AddDate(0, 0, e.afterDays)

	articles, err := e.source.Query(ctx, subject(pair), from, to)
	if err != nil {
		e.logger.WithError(err).WithFields(map[string]interface{}{
			"entity": pair.EntityID,
			"ticker": pair.Ticker,
		}).Warn("Sentiment query failed, degrading to neutral")

		zero := contracts.Summarize(nil)
		pair.Sentiment = &zero

		return pair, &contracts.Warning{
			Kind:     contracts.WarnCollaboratorUnavailable,
			EntityID: pair.EntityID,
			Ticker:   pair.Ticker,
			Detail:   fmt.Sprintf("sentiment source: %v", err),
			At:       time.Now(),
		}
	}

	summary := contracts.Summarize(articles)
	pair.Sentiment = &summary

	e.logger.WithFields(map[string]interface{}{
		"entity":   pair.EntityID,
		"ticker":   pair.Ticker,
		"articles": len(articles),
		"average":  summary.AverageScore,
	}).Debug("Enriched pair with sentiment")

	return pair, nil
}

// subject builds the news query subject. The ticker is preferred; filings
// without a resolved symbol fall back to the registrant key.
func subject(pair contracts.EventPair) string {
	if pair.Ticker != "" && pair.Ticker != contracts.TickerUnknown {
		return pair.Ticker
	}
	return "CIK:" + pair.EntityID
}
