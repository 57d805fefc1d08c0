package newswire

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/pkg/httputil"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// Scraper is a headline-based fallback sentiment source for when the
// sentiment API is unavailable or unconfigured. It scrapes a news search
// results page and classifies headlines with a small tone lexicon. It
// implements sentiment.Source.
type Scraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewScraper creates a new headline scraper.
func NewScraper(httpClient *httputil.Client, log *logger.Logger) *Scraper {
	return &Scraper{
		httpClient: httpClient,
		logger:     log,
		baseURL:    "https://news.google.com/rss/search",
	}
}

// Query fetches headlines mentioning the subject and classifies each one.
// The RSS search endpoint has no reliable date filter, so results are
// filtered client-side by publication date.
func (s *Scraper) Query(ctx context.Context, subject string, from, to time.Time) ([]contracts.SentimentArticle, error) {
	params := url.Values{}
	params.Set("q", subject)
	params.Set("hl", "en-US")

	fullURL := fmt.Sprintf("%s?%s", s.baseURL, params.Encode())

	resp, err := s.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := s.parseItems(doc, from, to)

	s.logger.WithFields(map[string]interface{}{
		"subject":  subject,
		"articles": len(articles),
	}).Debug("Scraped headlines")

	return articles, nil
}

// parseItems extracts and classifies feed items within the window.
func (s *Scraper) parseItems(doc *goquery.Document, from, to time.Time) []contracts.SentimentArticle {
	articles := make([]contracts.SentimentArticle, 0)

	doc.Find("item").Each(func(i int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find("title").First().Text())
		if title == "" {
			return
		}

		pubDate, err := time.Parse(time.RFC1123, strings.TrimSpace(item.Find("pubDate").First().Text()))
		if err != nil {
			return
		}

		if pubDate.Before(from) || pubDate.After(to) {
			return
		}

		polarity := ClassifyHeadline(title)
		articles = append(articles, contracts.SentimentArticle{
			Title:       title,
			Polarity:    polarity,
			Score:       polarity.Score(),
			PublishedAt: pubDate,
		})
	})

	return articles
}

// Tone lexicons for the headline classifier. Deliberately small: the
// fallback only needs directional signal, not NLP-grade accuracy.
var (
	positiveWords = []string{
		"cleared", "clears", "surge", "surges", "gains", "beats", "record",
		"upgrade", "upgraded", "rally", "rallies", "soars", "jumps", "wins",
		"approved", "dismissed", "exonerated", "settles",
	}
	negativeWords = []string{
		"probe", "investigation", "subpoena", "fraud", "lawsuit", "plunge",
		"plunges", "drops", "falls", "downgrade", "downgraded", "misses",
		"charged", "fined", "penalty", "scandal", "recall",
	}
)

// ClassifyHeadline assigns a polarity by counting tone words. A tie or no
// hits reads as neutral.
func ClassifyHeadline(title string) contracts.Polarity {
	lower := strings.ToLower(title)

	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return contracts.PolarityPositive
	case neg > pos:
		return contracts.PolarityNegative
	default:
		return contracts.PolarityNeutral
	}
}
