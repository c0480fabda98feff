package domain

import "time"

// PositionStatus is the lifecycle state of a position. The transition is
// one-way: OPEN -> CLOSED, no reopening.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

// Outcome is the terminal result of a settled position.
type Outcome string

const (
	OutcomeWon  Outcome = "WON"
	OutcomeLost Outcome = "LOST"
)

// Position is a simulated stake taken against an opportunity, tracked from
// entry to settlement. (venue, market id) is the natural key: at most one
// OPEN position may exist per pair.
type Position struct {
	ID       int64
	Venue    Venue
	MarketID string
	Question string
	Side     Side

	EntryPrice float64 // immutable, > 0
	Notional   float64 // immutable stake in USD, > 0
	EntryTime  time.Time

	CurrentPrice *float64 // last observed price; nil until first refresh

	Status PositionStatus

	// Settlement fields, populated all-or-nothing when Status is CLOSED.
	ExitPrice  *float64
	Outcome    *Outcome
	ProfitLoss *float64
	FeePaid    *float64
	ExitTime   *time.Time
	Notes      string
}

// Shares is the number of contracts the notional bought at entry.
func (p Position) Shares() float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return p.Notional / p.EntryPrice
}

// UnrealizedPnL is the mark-to-market profit against the last observed price.
// Zero while no refresh has happened yet.
func (p Position) UnrealizedPnL() float64 {
	if p.CurrentPrice == nil {
		return 0
	}
	return p.Shares() * (*p.CurrentPrice - p.EntryPrice)
}

// SettlementResult is what the ledger produces when a threshold crossing
// closes a position.
type SettlementResult struct {
	PositionID int64
	Venue      Venue
	Question   string
	Outcome    Outcome
	ExitPrice  float64
	ProfitLoss float64
	FeePaid    float64
	Notes      string
}

// MarketSnapshot is one observed price point for a tracked market, recorded
// during position refresh.
type MarketSnapshot struct {
	MarketID  string
	Venue     Venue
	Price     float64
	Timestamp time.Time
}
