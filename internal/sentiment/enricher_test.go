package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

type stubSource struct {
	articles []contracts.SentimentArticle
	err      error

	gotSubject string
	gotFrom    time.Time
	gotTo      time.Time
}

func (s *stubSource) Query(_ context.Context, subject string, from, to time.Time) ([]contracts.SentimentArticle, error) {
	s.gotSubject = subject
	s.gotFrom = from
	s.gotTo = to
	return s.articles, s.err
}

func pairAt(t2 time.Time) contracts.EventPair {
	return contracts.EventPair{
		EntityID: "0001234567",
		Ticker:   "ACME",
		T2:       t2,
	}
}

func TestEnrich_AverageOfArticleScores(t *testing.T) {
	src := &stubSource{
		articles: []contracts.SentimentArticle{
			{Title: "a", Polarity: contracts.PolarityPositive, Score: 1},
			{Title: "b", Polarity: contracts.PolarityNegative, Score: -1},
			{Title: "c", Polarity: contracts.PolarityPositive, Score: 1},
		},
	}
	e := NewEnricher(src, logger.NewNop(), 7, 7)

	t2 := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	enriched, warn := e.Enrich(context.Background(), pairAt(t2))

	if warn != nil {
		t.Fatalf("unexpected warning: %+v", warn)
	}
	if enriched.Sentiment == nil {
		t.Fatal("sentiment not attached")
	}

	want := (1.0 - 1.0 + 1.0) / 3.0
	if enriched.Sentiment.AverageScore != want {
		t.Errorf("average = %v, want %v", enriched.Sentiment.AverageScore, want)
	}
	if len(enriched.Sentiment.Articles) != 3 {
		t.Errorf("articles = %d, want 3", len(enriched.Sentiment.Articles))
	}
}

func TestEnrich_WindowAroundT2(t *testing.T) {
	src := &stubSource{}
	e := NewEnricher(src, logger.NewNop(), 7, 7)

	t2 := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	e.Enrich(context.Background(), pairAt(t2))

	if !src.gotFrom.Equal(t2.AddDate(0, 0, -7)) {
		t.Errorf("from = %s, want %s", src.gotFrom, t2.AddDate(0, 0, -7))
	}
	if !src.gotTo.Equal(t2.AddDate(0, 0, 7)) {
		t.Errorf("to = %s, want %s", src.gotTo, t2.AddDate(0, 0, 7))
	}
	if src.gotSubject != "ACME" {
		t.Errorf("subject = %q, want ticker", src.gotSubject)
	}
}

func TestEnrich_EmptyArticleSetIsZeroNotError(t *testing.T) {
	src := &stubSource{articles: nil}
	e := NewEnricher(src, logger.NewNop(), 7, 7)

	enriched, warn := e.Enrich(context.Background(), pairAt(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)))

	if warn != nil {
		t.Fatalf("unexpected warning: %+v", warn)
	}
	if enriched.Sentiment == nil {
		t.Fatal("sentiment not attached")
	}
	if enriched.Sentiment.AverageScore != 0 {
		t.Errorf("average = %v, want exactly 0", enriched.Sentiment.AverageScore)
	}
	if enriched.Sentiment.Articles == nil {
		t.Error("articles should be an empty slice, not nil")
	}
}

func TestEnrich_SourceFailureDegradesToNeutral(t *testing.T) {
	src := &stubSource{err: errors.New("upstream 503")}
	e := NewEnricher(src, logger.NewNop(), 7, 7)

	enriched, warn := e.Enrich(context.Background(), pairAt(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)))

	if warn == nil {
		t.Fatal("expected a collaborator warning")
	}
	if warn.Kind != contracts.WarnCollaboratorUnavailable {
		t.Errorf("warning kind = %s, want collaborator_unavailable", warn.Kind)
	}
	if enriched.Sentiment == nil || enriched.Sentiment.AverageScore != 0 {
		t.Error("failed enrichment must still attach a zero summary")
	}
}

func TestEnrich_UnresolvedTickerFallsBackToEntity(t *testing.T) {
	src := &stubSource{}
	e := NewEnricher(src, logger.NewNop(), 7, 7)

	pair := contracts.EventPair{
		EntityID: "0009999999",
		Ticker:   contracts.TickerUnknown,
		T2:       time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	e.Enrich(context.Background(), pair)

	if src.gotSubject != "CIK:0009999999" {
		t.Errorf("subject = %q, want CIK fallback", src.gotSubject)
	}
}
