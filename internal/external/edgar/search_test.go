package edgar

import (
	"testing"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

func TestBuildQuery(t *testing.T) {
	got := buildQuery([]string{"SEC investigation closed", "no further action"})
	want := `"SEC investigation closed" OR "no further action"`
	if got != want {
		t.Errorf("buildQuery() = %s, want %s", got, want)
	}
}

func TestParseFiledAt(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
		want   time.Time
	}{
		{
			name:   "plain date",
			raw:    "2021-03-01",
			wantOK: true,
			want:   time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "rfc3339 timestamp truncates to date",
			raw:    "2021-03-01T16:30:12Z",
			wantOK: true,
			want:   time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "garbage",
			raw:    "03/01/2021",
			wantOK: false,
		},
		{
			name:   "empty",
			raw:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseFiledAt(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("parseFiledAt(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseFiledAt(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMapFiling(t *testing.T) {
	c := &Client{logger: logger.NewNop()}

	tests := []struct {
		name       string
		hit        filing
		wantOK     bool
		wantTicker string
	}{
		{
			name:       "complete hit",
			hit:        filing{CIK: "0001234567", Ticker: "ACME", FormType: "8-K", FiledAt: "2021-03-01"},
			wantOK:     true,
			wantTicker: "ACME",
		},
		{
			name:       "missing ticker defaults to unknown",
			hit:        filing{CIK: "0001234567", FormType: "10-Q", FiledAt: "2021-03-01"},
			wantOK:     true,
			wantTicker: contracts.TickerUnknown,
		},
		{
			name:   "missing cik dropped",
			hit:    filing{Ticker: "ACME", FiledAt: "2021-03-01"},
			wantOK: false,
		},
		{
			name:   "bad date dropped",
			hit:    filing{CIK: "0001234567", Ticker: "ACME", FiledAt: "yesterday"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, warn, ok := c.mapFiling(tt.hit, contracts.EventInvestigationClear)
			if ok != tt.wantOK {
				t.Fatalf("mapFiling() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if warn.Kind != contracts.WarnMalformedRecord {
					t.Errorf("warning kind = %s, want malformed_record", warn.Kind)
				}
				return
			}
			if event.Ticker != tt.wantTicker {
				t.Errorf("ticker = %q, want %q", event.Ticker, tt.wantTicker)
			}
			if event.Kind != contracts.EventInvestigationClear {
				t.Errorf("kind = %s, want investigation_clear", event.Kind)
			}
		})
	}
}
