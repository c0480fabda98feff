package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/surebet/internal/domain"
	"github.com/alejandrodnm/surebet/internal/ledger"
	"github.com/alejandrodnm/surebet/internal/ports"
)

// Config holds the scanner configuration.
type Config struct {
	ScanInterval time.Duration
	PriceLow     float64 // scan band, inclusive
	PriceHigh    float64
	PositionSize float64 // notional per opened position
	Filter       FilterConfig
}

// DefaultConfig returns the production defaults: scan the 97-98c band every
// minute with $100 stakes.
func DefaultConfig() Config {
	return Config{
		ScanInterval: 60 * time.Second,
		PriceLow:     0.97,
		PriceHigh:    0.98,
		PositionSize: 100,
		Filter:       DefaultFilterConfig(),
	}
}

// Scanner is the scan orchestrator. One cycle runs fetch -> filter -> open ->
// refresh -> auto-settle -> report, and the scanner is stateless between
// cycles except through the ledger.
type Scanner struct {
	cfg      Config
	venues   []ports.VenueAdapter
	ledger   *ledger.Ledger
	store    ports.PositionStore
	reporter ports.Reporter
	filter   *Filter
}

// New creates a Scanner with all dependencies injected. store may be the
// same instance backing the ledger; it is used here only for the per-cycle
// summary row. reporter may be nil to suppress output.
func New(
	cfg Config,
	venues []ports.VenueAdapter,
	lg *ledger.Ledger,
	store ports.PositionStore,
	reporter ports.Reporter,
) *Scanner {
	return &Scanner{
		cfg:      cfg,
		venues:   venues,
		ledger:   lg,
		store:    store,
		reporter: reporter,
		filter:   NewFilter(cfg.Filter),
	}
}

// CycleResult is everything produced by one scan cycle.
type CycleResult struct {
	CycleID       string
	Opportunities []domain.Opportunity
	Entered       []domain.Position
	Settlements   []domain.SettlementResult
}

// Run executes scan cycles until the context is cancelled, sleeping the
// configured interval between cycles. Cycles never overlap.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.ScanInterval,
		"venues", len(s.venues),
		"price_band", fmt.Sprintf("%.2f-%.2f", s.cfg.PriceLow, s.cfg.PriceHigh),
	)

	if err := s.runCycle(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
	}

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce executes exactly one scan cycle, reports it, and returns the result.
func (s *Scanner) RunOnce(ctx context.Context) (*CycleResult, error) {
	return s.cycle(ctx)
}

func (s *Scanner) runCycle(ctx context.Context) error {
	start := time.Now()

	result, err := s.cycle(ctx)
	if err != nil {
		return err
	}

	slog.Info("scan cycle complete",
		"cycle_id", result.CycleID,
		"opportunities", len(result.Opportunities),
		"entered", len(result.Entered),
		"settled", len(result.Settlements),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle runs the single-cycle state machine. Every error inside it is
// recovered locally; the cycle always completes and produces a report,
// degraded if necessary.
func (s *Scanner) cycle(ctx context.Context) (*CycleResult, error) {
	result := &CycleResult{CycleID: uuid.NewString()}

	// 1-2. Fetch from every venue (barrier join), merge, sort by price
	// descending so the position cap goes to the most extreme prices first.
	opps := fetchAll(ctx, s.venues, s.cfg.PriceLow, s.cfg.PriceHigh)
	sortByPrice(opps)
	result.Opportunities = opps

	// 3. Filter and open. The open-position snapshot is re-read after every
	// acceptance: each open changes both the cap usage and the duplicate set.
	result.Entered = s.enterPositions(ctx, opps)

	// 4. Refresh every open position and settle threshold crossings.
	result.Settlements = s.refreshPositions(ctx)

	// 5. Report.
	if err := s.report(ctx, result); err != nil {
		slog.Warn("cycle report failed", "err", err)
	}
	s.saveCycle(ctx, result)

	return result, nil
}

// enterPositions walks the sorted opportunities and opens a position for each
// one the filter accepts. The ledger re-checks the duplicate atomically with
// the insert, so a second opportunity for the same market is dropped even if
// it passed the filter before the first one committed.
func (s *Scanner) enterPositions(ctx context.Context, opps []domain.Opportunity) []domain.Position {
	open, err := s.ledger.OpenPositions(ctx)
	if err != nil {
		slog.Warn("could not load open positions, skipping entries", "err", err)
		return nil
	}

	var entered []domain.Position
	for _, opp := range opps {
		if !s.filter.Accepts(opp, open) {
			continue
		}

		pos, err := s.ledger.Open(ctx, opp, s.cfg.PositionSize)
		if err != nil {
			if ledger.IsDuplicate(err) {
				slog.Debug("duplicate market, first writer wins",
					"venue", opp.Venue, "market_id", opp.MarketID)
				continue
			}
			slog.Warn("open position failed",
				"venue", opp.Venue, "market_id", opp.MarketID, "err", err)
			continue
		}

		slog.Info("entered position",
			"position_id", pos.ID,
			"venue", pos.Venue,
			"market_id", pos.MarketID,
			"side", pos.Side,
			"entry_price", pos.EntryPrice,
			"notional", pos.Notional,
		)
		entered = append(entered, pos)

		open, err = s.ledger.OpenPositions(ctx)
		if err != nil {
			slog.Warn("could not reload open positions, stopping entries", "err", err)
			break
		}
	}
	return entered
}

// refreshPositions fetches the latest price for every OPEN position from its
// venue and runs refresh + maybe-settle. One position's failure never blocks
// the others.
func (s *Scanner) refreshPositions(ctx context.Context) []domain.SettlementResult {
	open, err := s.ledger.OpenPositions(ctx)
	if err != nil {
		slog.Warn("could not load open positions for refresh", "err", err)
		return nil
	}

	var settlements []domain.SettlementResult
	for _, pos := range open {
		adapter := s.adapterFor(pos.Venue)
		if adapter == nil {
			slog.Debug("no adapter for venue, position not refreshed",
				"venue", pos.Venue, "position_id", pos.ID)
			continue
		}

		price, ok, err := adapter.CurrentPrice(ctx, pos.MarketID, pos.Side)
		if err != nil {
			slog.Warn("price refresh failed",
				"position_id", pos.ID, "market_id", pos.MarketID, "err", err)
			continue
		}
		if !ok {
			slog.Debug("price unavailable", "position_id", pos.ID, "market_id", pos.MarketID)
			continue
		}

		if err := s.ledger.Refresh(ctx, pos.ID, price); err != nil {
			slog.Warn("refresh failed", "position_id", pos.ID, "err", err)
			continue
		}

		settled, err := s.ledger.MaybeSettle(ctx, pos.ID, price)
		if err != nil {
			slog.Warn("settle check failed", "position_id", pos.ID, "err", err)
			continue
		}
		if settled != nil {
			slog.Info("position settled",
				"position_id", settled.PositionID,
				"venue", settled.Venue,
				"outcome", settled.Outcome,
				"exit_price", settled.ExitPrice,
				"profit_loss", settled.ProfitLoss,
				"fee_paid", settled.FeePaid,
			)
			settlements = append(settlements, *settled)
		}
	}
	return settlements
}

// report assembles and emits the reporting snapshot for the cycle.
func (s *Scanner) report(ctx context.Context, result *CycleResult) error {
	if s.reporter == nil {
		return nil
	}

	open, err := s.ledger.OpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("scanner.report: open positions: %w", err)
	}
	stats, err := s.ledger.Stats(ctx)
	if err != nil {
		return fmt.Errorf("scanner.report: stats: %w", err)
	}

	return s.reporter.ReportCycle(ctx, domain.CycleReport{
		CycleID:       result.CycleID,
		Opportunities: result.Opportunities,
		Entered:       result.Entered,
		Settlements:   result.Settlements,
		OpenPositions: open,
		Stats:         stats,
	})
}

// saveCycle persists the one-row cycle summary. Best effort.
func (s *Scanner) saveCycle(ctx context.Context, result *CycleResult) {
	if s.store == nil {
		return
	}
	err := s.store.SaveCycle(ctx, domain.CycleSummary{
		CycleID:       result.CycleID,
		ScannedAt:     time.Now().UTC(),
		Opportunities: len(result.Opportunities),
		Entered:       len(result.Entered),
		Settled:       len(result.Settlements),
	})
	if err != nil {
		slog.Warn("cycle summary write failed", "err", err)
	}
}

// adapterFor returns the adapter serving a venue, or nil if that venue is
// not enabled this run.
func (s *Scanner) adapterFor(venue domain.Venue) ports.VenueAdapter {
	for _, v := range s.venues {
		if v.Venue() == venue {
			return v
		}
	}
	return nil
}

// sortByPrice orders opportunities by quoted price descending, so the
// highest-probability contracts consume the position cap first.
func sortByPrice(opps []domain.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Price > opps[j].Price
	})
}
