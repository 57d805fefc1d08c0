package contracts

import "time"

// EventKind classifies a disclosure event.
type EventKind string

const (
	// EventInvestigationOpen marks a filing disclosing the start of a
	// regulatory investigation.
	EventInvestigationOpen EventKind = "investigation_open"

	// EventInvestigationClear marks a filing disclosing that an
	// investigation was closed with no adverse finding.
	EventInvestigationClear EventKind = "investigation_clear"
)

// TickerUnknown is the placeholder for filings whose registrant could not
// be resolved to a traded symbol. Such events still flow through matching
// and enrichment; only simulation skips them.
const TickerUnknown = "unknown"

// DisclosureEvent is one textual filing event for one entity.
type DisclosureEvent struct {
	EntityID string    `json:"entity_id"` // registrant key (CIK), required
	Ticker   string    `json:"ticker"`    // may be TickerUnknown
	Kind     EventKind `json:"kind"`
	FiledAt  time.Time `json:"filed_at"`
	FormType string    `json:"form_type,omitempty"` // 8-K, 10-K, 10-Q
	Snippet  string    `json:"snippet,omitempty"`   // informational only
}

// HasTicker reports whether the event resolved to a traded symbol.
func (e DisclosureEvent) HasTicker() bool {
	return e.Ticker != "" && e.Ticker != TickerUnknown
}

// EventPair is one matched (open, clear) pair for an entity. T1 is nil when
// no qualifying open filing precedes the clearance; the pair is still valid
// and tradeable.
type EventPair struct {
	EntityID  string            `json:"entity_id"`
	Ticker    string            `json:"ticker"`
	T1        *time.Time        `json:"t1,omitempty"` // open date, may be unresolved
	T2        time.Time         `json:"t2"`           // clear date, required
	Snippet   string            `json:"snippet,omitempty"`
	Sentiment *SentimentSummary `json:"sentiment,omitempty"`
}

// HasTicker reports whether the pair resolved to a traded symbol.
func (p EventPair) HasTicker() bool {
	return p.Ticker != "" && p.Ticker != TickerUnknown
}

// HasOrigin reports whether the clearance was matched to a prior open filing.
func (p EventPair) HasOrigin() bool {
	return p.T1 != nil
}

// Polarity is the tone label a sentiment source assigns to one article.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// Score maps polarity to a numeric score.
func (p Polarity) Score() float64 {
	switch p {
	case PolarityPositive:
		return 1
	case PolarityNegative:
		return -1
	default:
		return 0
	}
}

// SentimentArticle is one scored news article.
type SentimentArticle struct {
	Title       string    `json:"title"`
	Polarity    Polarity  `json:"polarity"`
	Score       float64   `json:"score"`
	PublishedAt time.Time `json:"published_at"`
}

// SentimentSummary aggregates news tone around a date window.
// AverageScore is the arithmetic mean of per-article scores and is exactly 0
// when no articles were found.
type SentimentSummary struct {
	AverageScore float64            `json:"average_score"`
	Articles     []SentimentArticle `json:"articles"`
}

// Summarize builds a SentimentSummary from scored articles.
func Summarize(articles []SentimentArticle) SentimentSummary {
	if len(articles) == 0 {
		return SentimentSummary{Articles: []SentimentArticle{}}
	}

	sum := 0.0
	for _, a := range articles {
		sum += a.Score
	}

	return SentimentSummary{
		AverageScore: sum / float64(len(articles)),
		Articles:     articles,
	}
}
