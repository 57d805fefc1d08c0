package contracts

import "time"

// WarningKind classifies a per-item, non-fatal condition observed during a
// run. MalformedRecord and CollaboratorUnavailable are real degradations;
// NoQualifyingMatch and NoTradableWindow are expected states surfaced for
// auditability.
type WarningKind string

const (
	WarnMalformedRecord         WarningKind = "malformed_record"
	WarnCollaboratorUnavailable WarningKind = "collaborator_unavailable"
	WarnNoQualifyingMatch       WarningKind = "no_qualifying_match"
	WarnNoTradableWindow        WarningKind = "no_tradable_window"
)

// Warning records one per-item condition. A run collects warnings instead of
// failing: no single entity's problem may abort its siblings.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	EntityID string      `json:"entity_id,omitempty"`
	Ticker   string      `json:"ticker,omitempty"`
	Detail   string      `json:"detail"`
	At       time.Time   `json:"at"`
}

// CountByKind tallies warnings per kind, for reporting and test assertions.
func CountByKind(warnings []Warning) map[WarningKind]int {
	counts := make(map[WarningKind]int)
	for _, w := range warnings {
		counts[w.Kind]++
	}
	return counts
}
