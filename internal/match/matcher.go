package match

import (
	"fmt"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// Matcher pairs clearance filings with the investigation filings that
// preceded them. Matching is a single synchronous pass over in-memory
// events and is deterministic given input order.
type Matcher struct {
	logger *logger.Logger

	// lookbackStart excludes open filings older than this date from
	// matching. The zero value means no lower bound.
	lookbackStart time.Time
}

// NewMatcher creates a new Matcher.
func NewMatcher(log *logger.Logger, lookbackStart time.Time) *Matcher {
	return &Matcher{
		logger:        log,
		lookbackStart: lookbackStart,
	}
}

// indexedEvent keeps the input position of a validated event so that ties
// on filed_at resolve to the first-seen filing.
type indexedEvent struct {
	pos   int
	event contracts.DisclosureEvent
}

// Match groups events by entity and pairs every InvestigationClear event
// with the open filing whose filed_at is the latest strictly before the
// clearance date. A clearance with no qualifying open filing still yields a
// pair, with T1 unset. Malformed events are dropped individually and
// reported as warnings; they never abort the pass.
func (m *Matcher) Match(events []contracts.DisclosureEvent) ([]contracts.EventPair, []contracts.Warning) {
	var warnings []contracts.Warning

	opensByEntity := make(map[string][]indexedEvent)
	var clears []indexedEvent

	for i, ev := range events {
		if w, ok := m.reject(ev); ok {
			warnings = append(warnings, w)
			continue
		}

		switch ev.Kind {
		case contracts.EventInvestigationOpen:
			if !m.lookbackStart.IsZero() && ev.FiledAt.Before(m.lookbackStart) {
				continue
			}
			opensByEntity[ev.EntityID] = append(opensByEntity[ev.EntityID], indexedEvent{pos: i, event: ev})
		case contracts.EventInvestigationClear:
			clears = append(clears, indexedEvent{pos: i, event: ev})
		default:
			warnings = append(warnings, contracts.Warning{
				Kind:     contracts.WarnMalformedRecord,
				EntityID: ev.EntityID,
				Ticker:   ev.Ticker,
				Detail:   fmt.Sprintf("unknown event kind %q", ev.Kind),
				At:       time.Now(),
			})
		}
	}

	pairs := make([]contracts.EventPair, 0, len(clears))

	for _, clear := range clears {
		pair := contracts.EventPair{
			EntityID: clear.event.EntityID,
			Ticker:   clear.event.Ticker,
			T2:       clear.event.FiledAt,
			Snippet:  clear.event.Snippet,
		}

		if open, ok := nearestPreceding(opensByEntity[clear.event.EntityID], clear.event.FiledAt); ok {
			t1 := open.event.FiledAt
			pair.T1 = &t1

			// The clearance filing sometimes lacks a resolved symbol the
			// open filing carried.
			if !clear.event.HasTicker() && open.event.HasTicker() {
				pair.Ticker = open.event.Ticker
			}
		} else {
			warnings = append(warnings, contracts.Warning{
				Kind:     contracts.WarnNoQualifyingMatch,
				EntityID: clear.event.EntityID,
				Ticker:   clear.event.Ticker,
				Detail:   fmt.Sprintf("no open filing precedes clearance on %s", clear.event.FiledAt.Format("2006-01-02")),
				At:       time.Now(),
			})
		}

		pairs = append(pairs, pair)
	}

	m.logger.WithFields(map[string]interface{}{
		"events":   len(events),
		"pairs":    len(pairs),
		"warnings": len(warnings),
	}).Info("Matched clearance events")

	return pairs, warnings
}

// reject validates a single event. Returns the warning and true when the
// event must be excluded from matching.
func (m *Matcher) reject(ev contracts.DisclosureEvent) (contracts.Warning, bool) {
	if ev.EntityID == "" {
		return contracts.Warning{
			Kind:   contracts.WarnMalformedRecord,
			Ticker: ev.Ticker,
			Detail: "missing entity_id",
			At:     time.Now(),
		}, true
	}

	if ev.FiledAt.IsZero() {
		return contracts.Warning{
			Kind:     contracts.WarnMalformedRecord,
			EntityID: ev.EntityID,
			Ticker:   ev.Ticker,
			Detail:   "missing filed_at",
			At:       time.Now(),
		}, true
	}

	return contracts.Warning{}, false
}

// nearestPreceding selects the open filing with the maximum filed_at
// strictly earlier than t2. Equal filed_at dates resolve to the filing seen
// first in the input. An open filing may serve as T1 for multiple later
// clearances; each clearance searches independently.
func nearestPreceding(opens []indexedEvent, t2 time.Time) (indexedEvent, bool) {
	var best indexedEvent
	found := false

	for _, open := range opens {
		if !open.event.FiledAt.Before(t2) {
			continue
		}

		if !found ||
			open.event.FiledAt.After(best.event.FiledAt) ||
			(open.event.FiledAt.Equal(best.event.FiledAt) && open.pos < best.pos) {
			best = open
			found = true
		}
	}

	return best, found
}
