package ports

import (
	"context"

	"github.com/alejandrodnm/surebet/internal/domain"
)

// VenueAdapter normalizes one prediction-market venue into common opportunity
// records. Implementations exist for Polymarket, Kalshi, and the simulated
// demo sources.
type VenueAdapter interface {
	// Venue identifies the source behind this adapter.
	Venue() domain.Venue

	// ListOpportunities returns quotes whose price lies within [low, high].
	// Malformed venue records are skipped, not returned as errors; a returned
	// error means the whole fetch failed and the venue contributes nothing
	// this cycle.
	ListOpportunities(ctx context.Context, low, high float64) ([]domain.Opportunity, error)

	// CurrentPrice returns the latest price in [0, 1] for the given market
	// and side. ok is false when the market cannot be resolved to a price.
	CurrentPrice(ctx context.Context, marketID string, side domain.Side) (price float64, ok bool, err error)
}
