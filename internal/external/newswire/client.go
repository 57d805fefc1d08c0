package newswire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/pkg/config"
	"github.com/nmillrr/sec-clearance-algo/pkg/httputil"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// Client queries a news sentiment API for polarity-labelled stories. It
// implements sentiment.Source.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	appID      string
	apiKey     string
	baseURL    string
}

// NewClient creates a new sentiment API client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		appID:      cfg.Newswire.AppID,
		apiKey:     cfg.Newswire.APIKey,
		baseURL:    cfg.Newswire.BaseURL,
	}
}

// storiesResponse is the stories endpoint response body.
type storiesResponse struct {
	Stories []story `json:"stories"`
}

// story is one raw article hit.
type story struct {
	Title     string `json:"title"`
	Sentiment struct {
		Body struct {
			Polarity string `json:"polarity"`
		} `json:"body"`
	} `json:"sentiment"`
	PublishedAt string `json:"published_at"`
}

// Query fetches stories mentioning the subject within the date range and
// maps their polarity labels to scores. An empty story set is a valid
// result, not an error.
func (c *Client) Query(ctx context.Context, subject string, from, to time.Time) ([]contracts.SentimentArticle, error) {
	params := url.Values{}
	params.Set("text", subject)
	params.Set("published_at.start", from.Format("2006-01-02T15:04:05Z"))
	params.Set("published_at.end", to.Format("2006-01-02T15:04:05Z"))
	params.Set("language", "en")

	fullURL := fmt.Sprintf("%s/stories?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"X-AYLIEN-NewsAPI-Application-ID":  c.appID,
		"X-AYLIEN-NewsAPI-Application-Key": c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result storiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	articles := mapStories(result.Stories)

	c.logger.WithFields(map[string]interface{}{
		"subject":  subject,
		"articles": len(articles),
	}).Debug("Fetched sentiment stories")

	return articles, nil
}

// mapStories converts raw stories to scored articles. Stories without a
// parsable publication date are kept with a zero timestamp; the score is
// what matters downstream.
func mapStories(stories []story) []contracts.SentimentArticle {
	articles := make([]contracts.SentimentArticle, 0, len(stories))
	for _, s := range stories {
		polarity := parsePolarity(s.Sentiment.Body.Polarity)

		var publishedAt time.Time
		if ts, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			publishedAt = ts
		}

		articles = append(articles, contracts.SentimentArticle{
			Title:       s.Title,
			Polarity:    polarity,
			Score:       polarity.Score(),
			PublishedAt: publishedAt,
		})
	}
	return articles
}

// parsePolarity maps the provider's label to ours; anything unrecognized
// reads as neutral.
func parsePolarity(raw string) contracts.Polarity {
	switch raw {
	case "positive":
		return contracts.PolarityPositive
	case "negative":
		return contracts.PolarityNegative
	default:
		return contracts.PolarityNeutral
	}
}
