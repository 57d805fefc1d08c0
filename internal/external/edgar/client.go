package edgar

import (
	"time"

	"github.com/nmillrr/sec-clearance-algo/pkg/config"
	"github.com/nmillrr/sec-clearance-algo/pkg/httputil"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// Client handles communication with the SEC EDGAR full-text search API.
// All filing-search calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a new EDGAR full-text search client. The API allows
// roughly 10 requests per second; the shared limiter keeps us under that.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		apiKey:     cfg.Edgar.APIKey,
		baseURL:    cfg.Edgar.BaseURL,
	}
}

// FormTypes are the filing forms searched for investigation disclosures.
var FormTypes = []string{"8-K", "10-K", "10-Q"}

// ClearanceKeywords are phrases signalling a no-action closure of an
// investigation.
var ClearanceKeywords = []string{
	"SEC investigation closed",
	"no further action",
	"cleared by SEC",
	"SEC concluded no violation",
}

// InvestigationKeywords are phrases signalling the start of an
// investigation.
var InvestigationKeywords = []string{
	"SEC investigation",
	"under investigation by SEC",
	"received a subpoena from SEC",
}

// searchRequest is the full-text search request body.
type searchRequest struct {
	Query     string   `json:"query"`
	FormTypes []string `json:"formTypes"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	CIK       string   `json:"cik,omitempty"`
	From      int      `json:"from,omitempty"`
	Size      int      `json:"size,omitempty"`
}

// searchResponse is the full-text search response body.
type searchResponse struct {
	Total struct {
		Value int `json:"value"`
	} `json:"total"`
	Filings []filing `json:"filings"`
}

// filing is one raw search hit. Fields may be missing or malformed; the
// mapping layer decides what is tolerable.
type filing struct {
	CIK         string `json:"cik"`
	Ticker      string `json:"ticker"`
	FormType    string `json:"formType"`
	FiledAt     string `json:"filedAt"`
	Description string `json:"description"`
}

// parseFiledAt accepts the date formats the API has been observed to
// return.
func parseFiledAt(raw string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}
