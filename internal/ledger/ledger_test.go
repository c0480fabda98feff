package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/surebet/internal/adapters/storage"
	"github.com/alejandrodnm/surebet/internal/domain"
	"github.com/alejandrodnm/surebet/internal/ledger"
)

func newTestLedger(t *testing.T, feeRate float64) *ledger.Ledger {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return ledger.New(store, feeRate)
}

func makeOpportunity(venue domain.Venue, marketID string, price float64) domain.Opportunity {
	return domain.Opportunity{
		Venue:     venue,
		MarketID:  marketID,
		Question:  "Will X happen?",
		Side:      domain.SideYes,
		Price:     price,
		Volume24h: 10_000,
		Liquidity: 50_000,
		Category:  "Test",
		URL:       "https://example.com/will-x-happen",
	}
}

func TestLedger_Open(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	pos, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
	require.NoError(t, err)

	assert.NotZero(t, pos.ID)
	assert.Equal(t, domain.StatusOpen, pos.Status)
	assert.Equal(t, domain.VenuePolymarket, pos.Venue)
	assert.Equal(t, "0xaaa", pos.MarketID)
	assert.InDelta(t, 0.97, pos.EntryPrice, 1e-9)
	assert.InDelta(t, 100, pos.Notional, 1e-9)
	assert.InDelta(t, 103.0928, pos.Shares(), 0.001)
}

func TestLedger_Open_DuplicateMarket(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	_, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
	require.NoError(t, err)

	_, err = lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.975), 100)
	assert.ErrorIs(t, err, domain.ErrDuplicateMarket)
	assert.True(t, ledger.IsDuplicate(err))

	// Same market id on a different venue is a different market.
	_, err = lg.Open(ctx, makeOpportunity(domain.VenueKalshi, "0xaaa", 0.97), 100)
	assert.NoError(t, err)
}

func TestLedger_Open_Validation(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	_, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 0)
	assert.Error(t, err)

	malformed := makeOpportunity(domain.VenuePolymarket, "", 0.97)
	_, err = lg.Open(ctx, malformed, 100)
	assert.ErrorIs(t, err, domain.ErrMalformedOpportunity)

	badPrice := makeOpportunity(domain.VenuePolymarket, "0xbbb", 1.2)
	_, err = lg.Open(ctx, badPrice, 100)
	assert.ErrorIs(t, err, domain.ErrMalformedOpportunity)
}

func TestLedger_Refresh(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	pos, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
	require.NoError(t, err)

	require.NoError(t, lg.Refresh(ctx, pos.ID, 0.985))

	open, err := lg.OpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.NotNil(t, open[0].CurrentPrice)
	assert.InDelta(t, 0.985, *open[0].CurrentPrice, 1e-9)
	assert.InDelta(t, 103.0928*(0.985-0.97), open[0].UnrealizedPnL(), 0.001)
}

func TestLedger_Refresh_UnknownPosition(t *testing.T) {
	lg := newTestLedger(t, 0.02)

	err := lg.Refresh(context.Background(), 404, 0.95)
	assert.ErrorIs(t, err, domain.ErrUnknownPosition)
}

func TestLedger_Refresh_ClosedIsNoOp(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	pos, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
	require.NoError(t, err)

	settled, err := lg.MaybeSettle(ctx, pos.ID, 0.75)
	require.NoError(t, err)
	require.NotNil(t, settled)

	// Refresh after close: no error, no change.
	assert.NoError(t, lg.Refresh(ctx, pos.ID, 0.50))

	closed, err := lg.ClosedPositions(ctx)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.InDelta(t, 0.75, *closed[0].ExitPrice, 1e-9)
}

func TestLedger_MaybeSettle_Won(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	pos, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
	require.NoError(t, err)

	settled, err := lg.MaybeSettle(ctx, pos.ID, 0.995)
	require.NoError(t, err)
	require.NotNil(t, settled)

	// shares = 100/0.97 = 103.0928, gross = 3.0928, fee = 0.0619
	assert.Equal(t, domain.OutcomeWon, settled.Outcome)
	assert.InDelta(t, 1.0, settled.ExitPrice, 1e-9) // forced to full redemption
	assert.InDelta(t, 0.0619, settled.FeePaid, 0.0001)
	assert.InDelta(t, 3.0309, settled.ProfitLoss, 0.001)
	assert.Equal(t, "resolved favorably", settled.Notes)
}

func TestLedger_MaybeSettle_Lost(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	pos, err := lg.Open(ctx, makeOpportunity(domain.VenueKalshi, "KXTEST-01", 0.97), 100)
	require.NoError(t, err)

	settled, err := lg.MaybeSettle(ctx, pos.ID, 0.75)
	require.NoError(t, err)
	require.NotNil(t, settled)

	// Full stake forfeited regardless of how far the price fell.
	assert.Equal(t, domain.OutcomeLost, settled.Outcome)
	assert.InDelta(t, 0.75, settled.ExitPrice, 1e-9)
	assert.InDelta(t, -100, settled.ProfitLoss, 1e-9)
	assert.Zero(t, settled.FeePaid)
	assert.Equal(t, "price broke down", settled.Notes)
}

func TestLedger_MaybeSettle_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		price   float64
		outcome *domain.Outcome
	}{
		{"win threshold inclusive", 0.99, outcomePtr(domain.OutcomeWon)},
		{"just below win threshold", 0.989, nil},
		{"loss threshold exclusive", 0.80, nil},
		{"just below loss threshold", 0.799, outcomePtr(domain.OutcomeLost)},
		{"hold band", 0.90, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lg := newTestLedger(t, 0.02)
			ctx := context.Background()

			pos, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
			require.NoError(t, err)

			settled, err := lg.MaybeSettle(ctx, pos.ID, tc.price)
			require.NoError(t, err)

			if tc.outcome == nil {
				assert.Nil(t, settled)
				return
			}
			require.NotNil(t, settled)
			assert.Equal(t, *tc.outcome, settled.Outcome)
		})
	}
}

func TestLedger_MaybeSettle_Idempotent(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	pos, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
	require.NoError(t, err)

	first, err := lg.MaybeSettle(ctx, pos.ID, 0.995)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Settling again, even across the other threshold, changes nothing.
	second, err := lg.MaybeSettle(ctx, pos.ID, 0.10)
	require.NoError(t, err)
	assert.Nil(t, second)

	closed, err := lg.ClosedPositions(ctx)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, domain.OutcomeWon, *closed[0].Outcome)
	assert.InDelta(t, first.ProfitLoss, *closed[0].ProfitLoss, 1e-9)
	assert.InDelta(t, first.FeePaid, *closed[0].FeePaid, 1e-9)
}

func TestLedger_MaybeSettle_UnknownPosition(t *testing.T) {
	lg := newTestLedger(t, 0.02)

	_, err := lg.MaybeSettle(context.Background(), 404, 0.995)
	assert.ErrorIs(t, err, domain.ErrUnknownPosition)
}

func TestLedger_FeeInvariant(t *testing.T) {
	// Zero fee rate: winner pays nothing. The fee never goes negative.
	lg := newTestLedger(t, 0)
	ctx := context.Background()

	pos, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
	require.NoError(t, err)

	settled, err := lg.MaybeSettle(ctx, pos.ID, 1.0)
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.Zero(t, settled.FeePaid)
	assert.InDelta(t, 3.0928, settled.ProfitLoss, 0.001)
}

func TestLedger_Stats_Empty(t *testing.T) {
	lg := newTestLedger(t, 0.02)

	stats, err := lg.Stats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.TotalPnL)
	assert.Zero(t, stats.AvgProfit)
	assert.Zero(t, stats.ROI)
	assert.InDelta(t, 2.0, stats.FeeRate, 1e-9)
}

func TestLedger_Stats(t *testing.T) {
	lg := newTestLedger(t, 0.02)
	ctx := context.Background()

	winner, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xaaa", 0.97), 100)
	require.NoError(t, err)
	loser, err := lg.Open(ctx, makeOpportunity(domain.VenueKalshi, "KXTEST-01", 0.98), 100)
	require.NoError(t, err)
	stillOpen, err := lg.Open(ctx, makeOpportunity(domain.VenuePolymarket, "0xbbb", 0.975), 100)
	require.NoError(t, err)

	won, err := lg.MaybeSettle(ctx, winner.ID, 1.0)
	require.NoError(t, err)
	require.NotNil(t, won)
	lost, err := lg.MaybeSettle(ctx, loser.ID, 0.70)
	require.NoError(t, err)
	require.NotNil(t, lost)

	stats, err := lg.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)
	assert.InDelta(t, won.ProfitLoss-100, stats.TotalPnL, 0.001)
	assert.InDelta(t, won.FeePaid, stats.TotalFees, 0.001)
	assert.InDelta(t, stats.TotalPnL/2, stats.AvgProfit, 0.001)
	// ROI over the 200 staked in closed positions only.
	assert.InDelta(t, stats.TotalPnL/200*100, stats.ROI, 0.001)

	open, err := lg.OpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, stillOpen.ID, open[0].ID)
}

func outcomePtr(o domain.Outcome) *domain.Outcome { return &o }
