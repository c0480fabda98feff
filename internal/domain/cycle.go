package domain

import "time"

// CycleSummary is the one-row record persisted per scan cycle.
type CycleSummary struct {
	CycleID       string
	ScannedAt     time.Time
	Opportunities int
	Entered       int
	Settled       int
}

// CycleReport bundles everything a reporting collaborator needs to render
// one completed scan cycle.
type CycleReport struct {
	CycleID       string
	Opportunities []Opportunity
	Entered       []Position
	Settlements   []SettlementResult
	OpenPositions []Position
	Stats         Stats
}
