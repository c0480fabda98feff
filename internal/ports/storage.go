package ports

import (
	"context"

	"github.com/alejandrodnm/surebet/internal/domain"
)

// PositionStore persists positions and per-cycle records.
type PositionStore interface {
	// InsertPosition creates a new OPEN position and returns its id.
	// The duplicate check is atomic with the insert: if an OPEN position
	// already exists for (venue, market id), it returns
	// domain.ErrDuplicateMarket and writes nothing.
	InsertPosition(ctx context.Context, p domain.Position) (int64, error)

	// GetPosition returns the position with the given id, or
	// domain.ErrUnknownPosition.
	GetPosition(ctx context.Context, id int64) (domain.Position, error)

	// UpdatePrice sets the last-observed price on an OPEN position.
	// Returns false when the position is CLOSED or the id is unknown.
	UpdatePrice(ctx context.Context, id int64, price float64) (bool, error)

	// ClosePosition transitions an OPEN position to CLOSED and writes all
	// settlement fields in one statement. Returns false when the position
	// was not OPEN (already settled or unknown); settlement fields are never
	// rewritten.
	ClosePosition(ctx context.Context, id int64, exitPrice float64, outcome domain.Outcome, profitLoss, feePaid float64, notes string) (bool, error)

	// OpenPositions returns all OPEN positions, newest first.
	OpenPositions(ctx context.Context) ([]domain.Position, error)

	// ClosedPositions returns all CLOSED positions, most recently settled first.
	ClosedPositions(ctx context.Context) ([]domain.Position, error)

	// Stats aggregates over all CLOSED positions.
	Stats(ctx context.Context) (domain.Stats, error)

	// SaveSnapshot records one observed price point for a tracked market.
	SaveSnapshot(ctx context.Context, snap domain.MarketSnapshot) error

	// SaveCycle records the per-cycle summary row.
	SaveCycle(ctx context.Context, c domain.CycleSummary) error

	// Close shuts the store down cleanly.
	Close() error
}
