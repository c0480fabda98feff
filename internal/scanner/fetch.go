package scanner

// fetch.go — concurrent venue fetch with a barrier join.
//
// Venue fetches are independent I/O calls with no shared mutable state, so
// they run in parallel, but all of them must finish (or fail) before
// filtering starts. A venue that fails contributes an empty set for the
// cycle; the scan continues with whatever the other venues returned.

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/surebet/internal/domain"
	"github.com/alejandrodnm/surebet/internal/ports"
)

// fetchAll collects opportunities from every enabled venue adapter. Each
// adapter writes into its own slot, so no locking is needed; the errgroup
// Wait is the barrier.
func fetchAll(ctx context.Context, venues []ports.VenueAdapter, low, high float64) []domain.Opportunity {
	results := make([][]domain.Opportunity, len(venues))

	var g errgroup.Group
	for i, v := range venues {
		g.Go(func() error {
			opps, err := v.ListOpportunities(ctx, low, high)
			if err != nil {
				slog.Warn("venue fetch failed, skipping for this cycle",
					"venue", v.Venue(),
					"err", err,
				)
				return nil
			}
			results[i] = opps
			return nil
		})
	}
	g.Wait() // goroutines never return errors; failures degrade to empty sets

	var merged []domain.Opportunity
	for i, opps := range results {
		slog.Debug("venue fetch complete", "venue", venues[i].Venue(), "opportunities", len(opps))
		merged = append(merged, opps...)
	}
	return merged
}
