package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/surebet/internal/domain"
	"github.com/alejandrodnm/surebet/internal/ports"
)

const (
	// WinThreshold settles a position as WON when the observed price reaches
	// it (inclusive). Exit is forced to full redemption at 1.0.
	WinThreshold = 0.99

	// LossThreshold settles a position as LOST when the observed price falls
	// strictly below it. Exactly 0.80 does NOT settle.
	//
	// The band between the two thresholds is deliberately wide and asymmetric:
	// a position can sit there indefinitely and resolve naturally. Threshold
	// crossing is a proxy for venue resolution, not authoritative settlement.
	LossThreshold = 0.80

	noteWon  = "resolved favorably"
	noteLost = "price broke down"
)

// Ledger owns position records and their state transitions. All mutation of
// positions goes through it: Open at entry, Refresh while open, MaybeSettle
// at threshold crossings.
type Ledger struct {
	store   ports.PositionStore
	feeRate float64
}

// New creates a Ledger backed by the given store. feeRate is the fraction of
// winning profit taken as fees (0.02 = 2%).
func New(store ports.PositionStore, feeRate float64) *Ledger {
	return &Ledger{store: store, feeRate: feeRate}
}

// Open creates a new OPEN position against the opportunity with the given
// notional stake. The duplicate-market check is atomic with the insert, so
// two opportunities for the same market in one cycle cannot both commit;
// the loser gets domain.ErrDuplicateMarket.
func (l *Ledger) Open(ctx context.Context, opp domain.Opportunity, notional float64) (domain.Position, error) {
	if err := opp.Validate(); err != nil {
		return domain.Position{}, fmt.Errorf("ledger.Open: %w", err)
	}
	if notional <= 0 {
		return domain.Position{}, fmt.Errorf("ledger.Open: notional must be positive, got %v", notional)
	}

	pos := domain.Position{
		Venue:      opp.Venue,
		MarketID:   opp.MarketID,
		Question:   opp.Question,
		Side:       opp.Side,
		EntryPrice: opp.Price,
		Notional:   notional,
		EntryTime:  time.Now().UTC(),
		Status:     domain.StatusOpen,
	}

	id, err := l.store.InsertPosition(ctx, pos)
	if err != nil {
		return domain.Position{}, fmt.Errorf("ledger.Open: %s/%s: %w", opp.Venue, opp.MarketID, err)
	}
	pos.ID = id
	pos.CurrentPrice = &pos.EntryPrice
	return pos, nil
}

// Refresh updates the last-observed price on an OPEN position and records a
// market snapshot. Refreshing a CLOSED position is a silent no-op; an unknown
// id returns domain.ErrUnknownPosition. Neither is fatal to the caller's cycle.
func (l *Ledger) Refresh(ctx context.Context, id int64, price float64) error {
	pos, err := l.store.GetPosition(ctx, id)
	if err != nil {
		return fmt.Errorf("ledger.Refresh: position %d: %w", id, err)
	}
	if pos.Status == domain.StatusClosed {
		slog.Debug("refresh on closed position ignored", "position_id", id)
		return nil
	}

	if _, err := l.store.UpdatePrice(ctx, id, price); err != nil {
		return fmt.Errorf("ledger.Refresh: position %d: %w", id, err)
	}

	snap := domain.MarketSnapshot{
		MarketID:  pos.MarketID,
		Venue:     pos.Venue,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}
	if err := l.store.SaveSnapshot(ctx, snap); err != nil {
		slog.Warn("snapshot write failed", "market_id", pos.MarketID, "err", err)
	}
	return nil
}

// MaybeSettle evaluates the settlement thresholds against the new price and
// closes the position if one is crossed. Returns nil (no result, no error)
// when the price sits in the hold band or the position is already CLOSED —
// settling twice never rewrites settlement fields.
func (l *Ledger) MaybeSettle(ctx context.Context, id int64, price float64) (*domain.SettlementResult, error) {
	pos, err := l.store.GetPosition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger.MaybeSettle: position %d: %w", id, err)
	}
	if pos.Status == domain.StatusClosed {
		return nil, nil
	}

	var (
		outcome   domain.Outcome
		exitPrice float64
		notes     string
	)
	switch {
	case price >= WinThreshold:
		outcome, exitPrice, notes = domain.OutcomeWon, 1.0, noteWon
	case price < LossThreshold:
		outcome, exitPrice, notes = domain.OutcomeLost, price, noteLost
	default:
		return nil, nil
	}

	profitLoss, feePaid := settle(pos, outcome, exitPrice, l.feeRate)

	closed, err := l.store.ClosePosition(ctx, id, exitPrice, outcome, profitLoss, feePaid, notes)
	if err != nil {
		return nil, fmt.Errorf("ledger.MaybeSettle: close position %d: %w", id, err)
	}
	if !closed {
		// Lost the race against another settle of the same position.
		slog.Debug("position already settled", "position_id", id)
		return nil, nil
	}

	return &domain.SettlementResult{
		PositionID: id,
		Venue:      pos.Venue,
		Question:   pos.Question,
		Outcome:    outcome,
		ExitPrice:  exitPrice,
		ProfitLoss: profitLoss,
		FeePaid:    feePaid,
		Notes:      notes,
	}, nil
}

// settle computes realized P&L and fees for a terminal transition.
//
// WON:  shares = notional / entry, gross = shares * (exit - entry),
//       fee = feeRate * gross (never negative), P&L = gross - fee.
// LOST: the full stake is forfeited regardless of exit price; no fee.
func settle(pos domain.Position, outcome domain.Outcome, exitPrice, feeRate float64) (profitLoss, feePaid float64) {
	if outcome == domain.OutcomeWon {
		gross := pos.Shares() * (exitPrice - pos.EntryPrice)
		fee := gross * feeRate
		if fee < 0 {
			fee = 0
		}
		return gross - fee, fee
	}
	return -pos.Notional, 0
}

// Stats aggregates performance over all CLOSED positions.
func (l *Ledger) Stats(ctx context.Context) (domain.Stats, error) {
	stats, err := l.store.Stats(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("ledger.Stats: %w", err)
	}
	stats.FeeRate = l.feeRate * 100
	return stats, nil
}

// OpenPositions returns all currently OPEN positions.
func (l *Ledger) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	return l.store.OpenPositions(ctx)
}

// ClosedPositions returns all settled positions.
func (l *Ledger) ClosedPositions(ctx context.Context) ([]domain.Position, error) {
	return l.store.ClosedPositions(ctx)
}

// IsDuplicate reports whether err is the duplicate-market sentinel, the one
// Open failure the orchestrator drops silently (first writer wins).
func IsDuplicate(err error) bool {
	return errors.Is(err, domain.ErrDuplicateMarket)
}
