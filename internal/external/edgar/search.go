package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
)

const pageSize = 50

// SearchClearances searches filings that disclose a no-action closure.
func (c *Client) SearchClearances(ctx context.Context, from, to time.Time) ([]contracts.DisclosureEvent, []contracts.Warning, error) {
	return c.search(ctx, ClearanceKeywords, contracts.EventInvestigationClear, from, to, "")
}

// SearchInvestigations searches filings that disclose the start of an
// investigation, optionally restricted to one registrant.
func (c *Client) SearchInvestigations(ctx context.Context, from, to time.Time, cik string) ([]contracts.DisclosureEvent, []contracts.Warning, error) {
	return c.search(ctx, InvestigationKeywords, contracts.EventInvestigationOpen, from, to, cik)
}

// search runs a paged full-text query and maps hits to disclosure events.
// Partial and malformed hits degrade per record: a missing ticker becomes
// TickerUnknown, a missing CIK or unparsable date drops the record with a
// warning. An empty result set is not an error.
func (c *Client) search(ctx context.Context, keywords []string, kind contracts.EventKind, from, to time.Time, cik string) ([]contracts.DisclosureEvent, []contracts.Warning, error) {
	query := buildQuery(keywords)

	var events []contracts.DisclosureEvent
	var warnings []contracts.Warning

	for offset := 0; ; offset += pageSize {
		req := searchRequest{
			Query:     query,
			FormTypes: FormTypes,
			StartDate: from.Format("2006-01-02"),
			EndDate:   to.Format("2006-01-02"),
			CIK:       cik,
			From:      offset,
			Size:      pageSize,
		}

		page, err := c.fetchPage(ctx, req)
		if err != nil {
			return nil, warnings, fmt.Errorf("full-text search: %w", err)
		}

		for _, hit := range page.Filings {
			event, warn, ok := c.mapFiling(hit, kind)
			if !ok {
				warnings = append(warnings, warn)
				continue
			}
			events = append(events, event)
		}

		if len(page.Filings) < pageSize || offset+pageSize >= page.Total.Value {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"kind":     string(kind),
		"events":   len(events),
		"warnings": len(warnings),
	}).Debug("Filing search completed")

	return events, warnings, nil
}

// fetchPage posts one search request and decodes the response.
func (c *Client) fetchPage(ctx context.Context, req searchRequest) (*searchResponse, error) {
	url := c.baseURL + "/full-text-search?token=" + c.apiKey

	resp, err := c.httpClient.PostJSON(ctx, url, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

// mapFiling converts one raw hit into a DisclosureEvent.
func (c *Client) mapFiling(hit filing, kind contracts.EventKind) (contracts.DisclosureEvent, contracts.Warning, bool) {
	if hit.CIK == "" {
		return contracts.DisclosureEvent{}, contracts.Warning{
			Kind:   contracts.WarnMalformedRecord,
			Ticker: hit.Ticker,
			Detail: "filing hit without cik",
			At:     time.Now(),
		}, false
	}

	filedAt, ok := parseFiledAt(hit.FiledAt)
	if !ok {
		return contracts.DisclosureEvent{}, contracts.Warning{
			Kind:     contracts.WarnMalformedRecord,
			EntityID: hit.CIK,
			Ticker:   hit.Ticker,
			Detail:   fmt.Sprintf("unparsable filedAt %q", hit.FiledAt),
			At:       time.Now(),
		}, false
	}

	ticker := hit.Ticker
	if ticker == "" {
		ticker = contracts.TickerUnknown
	}

	return contracts.DisclosureEvent{
		EntityID: hit.CIK,
		Ticker:   ticker,
		Kind:     kind,
		FiledAt:  filedAt,
		FormType: hit.FormType,
		Snippet:  hit.Description,
	}, contracts.Warning{}, true
}

// buildQuery joins quoted keyword phrases with OR.
func buildQuery(keywords []string) string {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		quoted = append(quoted, fmt.Sprintf("%q", k))
	}
	return strings.Join(quoted, " OR ")
}
