package yahoo

import (
	"encoding/json"
	"testing"
	"time"
)

func decodeChart(t *testing.T, payload string) *chartResponse {
	t.Helper()
	var resp chartResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &resp
}

func TestMapChart(t *testing.T) {
	t.Run("flattens columns into ordered bars", func(t *testing.T) {
		resp := decodeChart(t, `{
			"chart": {
				"result": [{
					"timestamp": [1614609000, 1614695400, 1614781800],
					"indicators": {
						"quote": [{
							"open":  [99.5, 100.2, 101.8],
							"close": [100, 101, 102],
							"high":  [101, 102, 103],
							"low":   [99, 100, 101]
						}]
					}
				}]
			}
		}`)

		bars := mapChart(resp)
		if len(bars) != 3 {
			t.Fatalf("got %d bars, want 3", len(bars))
		}
		// 1614609000 is 2021-03-01 14:30 UTC; dates truncate to midnight.
		if !bars[0].Date.Equal(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("bar date = %s, want 2021-03-01", bars[0].Date)
		}
		if bars[2].Close != 102 {
			t.Errorf("close = %v, want 102", bars[2].Close)
		}
		if bars[0].Open != 99.5 || bars[0].High != 101 || bars[0].Low != 99 {
			t.Errorf("OHL mismatch on first bar: %+v", bars[0])
		}
	})

	t.Run("skips rows with missing close", func(t *testing.T) {
		resp := decodeChart(t, `{
			"chart": {
				"result": [{
					"timestamp": [1614609000, 1614695400, 1614781800],
					"indicators": {
						"quote": [{
							"open":  [100, 0, 102],
							"close": [100, 0, 102],
							"high":  [100, 0, 102],
							"low":   [100, 0, 102]
						}]
					}
				}]
			}
		}`)

		bars := mapChart(resp)
		if len(bars) != 2 {
			t.Fatalf("got %d bars, want 2 (halted day skipped)", len(bars))
		}
	})

	t.Run("empty result yields empty series", func(t *testing.T) {
		resp := decodeChart(t, `{"chart": {"result": []}}`)
		if bars := mapChart(resp); len(bars) != 0 {
			t.Errorf("got %d bars, want 0", len(bars))
		}
	})

	t.Run("unresolved ticker error shape decodes", func(t *testing.T) {
		resp := decodeChart(t, `{
			"chart": {
				"result": [],
				"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
			}
		}`)
		if resp.Chart.Error == nil || resp.Chart.Error.Code != "Not Found" {
			t.Errorf("error = %+v, want Not Found", resp.Chart.Error)
		}
	})
}
