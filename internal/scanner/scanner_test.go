package scanner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/surebet/internal/adapters/storage"
	"github.com/alejandrodnm/surebet/internal/domain"
	"github.com/alejandrodnm/surebet/internal/ledger"
	"github.com/alejandrodnm/surebet/internal/ports"
	"github.com/alejandrodnm/surebet/internal/scanner"
)

// --- mocks ---

type mockVenue struct {
	venue     domain.Venue
	opps      []domain.Opportunity
	listErr   error
	prices    map[string]float64
	priceErrs map[string]error
}

func (m *mockVenue) Venue() domain.Venue { return m.venue }

func (m *mockVenue) ListOpportunities(_ context.Context, _, _ float64) ([]domain.Opportunity, error) {
	return m.opps, m.listErr
}

func (m *mockVenue) CurrentPrice(_ context.Context, marketID string, _ domain.Side) (float64, bool, error) {
	if err := m.priceErrs[marketID]; err != nil {
		return 0, false, err
	}
	price, ok := m.prices[marketID]
	return price, ok, nil
}

type captureReporter struct {
	reports []domain.CycleReport
}

func (r *captureReporter) ReportCycle(_ context.Context, report domain.CycleReport) error {
	r.reports = append(r.reports, report)
	return nil
}

// --- helpers ---

func newTestScanner(t *testing.T, maxPositions int, venues ...ports.VenueAdapter) (*scanner.Scanner, *ledger.Ledger, *captureReporter) {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	lg := ledger.New(store, 0.02)
	reporter := &captureReporter{}

	cfg := scanner.DefaultConfig()
	cfg.PositionSize = 100
	cfg.Filter = scanner.FilterConfig{
		MaxPositions: maxPositions,
		MinLiquidity: 1000,
		MinVolume24h: 500,
	}
	return scanner.New(cfg, venues, lg, store, reporter), lg, reporter
}

// --- tests ---

func TestScanner_EntersQualifyingOpportunities(t *testing.T) {
	poly := &mockVenue{
		venue: domain.VenuePolymarket,
		opps: []domain.Opportunity{
			makeOpp(domain.VenuePolymarket, "0xaaa", 0.972),
			makeOpp(domain.VenuePolymarket, "0xbbb", 0.978),
		},
		prices: map[string]float64{"0xaaa": 0.972, "0xbbb": 0.978},
	}
	kalshi := &mockVenue{
		venue:  domain.VenueKalshi,
		opps:   []domain.Opportunity{makeOpp(domain.VenueKalshi, "KXTEST-01", 0.975)},
		prices: map[string]float64{"KXTEST-01": 0.975},
	}

	sc, lg, _ := newTestScanner(t, 10, poly, kalshi)

	result, err := sc.RunOnce(context.Background())
	require.NoError(t, err)

	// Merged across venues and sorted by price descending.
	require.Len(t, result.Opportunities, 3)
	assert.Equal(t, "0xbbb", result.Opportunities[0].MarketID)
	assert.Equal(t, "KXTEST-01", result.Opportunities[1].MarketID)
	assert.Equal(t, "0xaaa", result.Opportunities[2].MarketID)

	assert.Len(t, result.Entered, 3)

	open, err := lg.OpenPositions(context.Background())
	require.NoError(t, err)
	assert.Len(t, open, 3)
}

func TestScanner_CapGoesToHighestPrices(t *testing.T) {
	poly := &mockVenue{
		venue: domain.VenuePolymarket,
		opps: []domain.Opportunity{
			makeOpp(domain.VenuePolymarket, "0xlow", 0.971),
			makeOpp(domain.VenuePolymarket, "0xhigh", 0.979),
		},
		prices: map[string]float64{"0xlow": 0.971, "0xhigh": 0.979},
	}

	sc, lg, _ := newTestScanner(t, 1, poly)

	result, err := sc.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Entered, 1)
	assert.Equal(t, "0xhigh", result.Entered[0].MarketID)

	open, err := lg.OpenPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "0xhigh", open[0].MarketID)
}

func TestScanner_DuplicateWithinCycle(t *testing.T) {
	// The same market surfacing twice in one batch opens one position only.
	poly := &mockVenue{
		venue: domain.VenuePolymarket,
		opps: []domain.Opportunity{
			makeOpp(domain.VenuePolymarket, "0xaaa", 0.975),
			makeOpp(domain.VenuePolymarket, "0xaaa", 0.976),
		},
		prices: map[string]float64{"0xaaa": 0.975},
	}

	sc, lg, _ := newTestScanner(t, 10, poly)

	result, err := sc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Entered, 1)

	open, err := lg.OpenPositions(context.Background())
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestScanner_NoDuplicateAcrossCycles(t *testing.T) {
	poly := &mockVenue{
		venue:  domain.VenuePolymarket,
		opps:   []domain.Opportunity{makeOpp(domain.VenuePolymarket, "0xaaa", 0.975)},
		prices: map[string]float64{"0xaaa": 0.975},
	}

	sc, lg, _ := newTestScanner(t, 10, poly)
	ctx := context.Background()

	first, err := sc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Entered, 1)

	second, err := sc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Entered)

	open, err := lg.OpenPositions(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestScanner_VenueFailureDegrades(t *testing.T) {
	poly := &mockVenue{
		venue:   domain.VenuePolymarket,
		listErr: errors.New("gamma api down"),
	}
	kalshi := &mockVenue{
		venue:  domain.VenueKalshi,
		opps:   []domain.Opportunity{makeOpp(domain.VenueKalshi, "KXTEST-01", 0.975)},
		prices: map[string]float64{"KXTEST-01": 0.975},
	}

	sc, _, reporter := newTestScanner(t, 10, poly, kalshi)

	result, err := sc.RunOnce(context.Background())
	require.NoError(t, err)

	// The failed venue contributes nothing; the cycle still completes and reports.
	require.Len(t, result.Opportunities, 1)
	assert.Equal(t, domain.VenueKalshi, result.Opportunities[0].Venue)
	assert.Len(t, result.Entered, 1)
	require.Len(t, reporter.reports, 1)
}

func TestScanner_SettlesOnRefresh(t *testing.T) {
	poly := &mockVenue{
		venue:  domain.VenuePolymarket,
		opps:   []domain.Opportunity{makeOpp(domain.VenuePolymarket, "0xaaa", 0.97)},
		prices: map[string]float64{"0xaaa": 0.97},
	}

	sc, lg, _ := newTestScanner(t, 10, poly)
	ctx := context.Background()

	_, err := sc.RunOnce(ctx)
	require.NoError(t, err)

	// Market resolves: next cycle refreshes at 0.995 and settles WON.
	poly.opps = nil
	poly.prices["0xaaa"] = 0.995

	result, err := sc.RunOnce(ctx)
	require.NoError(t, err)

	require.Len(t, result.Settlements, 1)
	assert.Equal(t, domain.OutcomeWon, result.Settlements[0].Outcome)
	assert.InDelta(t, 1.0, result.Settlements[0].ExitPrice, 1e-9)

	open, err := lg.OpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestScanner_RefreshFailureDoesNotBlockOthers(t *testing.T) {
	poly := &mockVenue{
		venue: domain.VenuePolymarket,
		opps: []domain.Opportunity{
			makeOpp(domain.VenuePolymarket, "0xbroken", 0.978),
			makeOpp(domain.VenuePolymarket, "0xfine", 0.972),
		},
		prices: map[string]float64{"0xbroken": 0.978, "0xfine": 0.972},
	}

	sc, _, _ := newTestScanner(t, 10, poly)
	ctx := context.Background()

	_, err := sc.RunOnce(ctx)
	require.NoError(t, err)

	poly.opps = nil
	poly.priceErrs = map[string]error{"0xbroken": errors.New("timeout")}
	poly.prices["0xfine"] = 0.70

	result, err := sc.RunOnce(ctx)
	require.NoError(t, err)

	// The broken refresh is skipped; the other position still settles.
	require.Len(t, result.Settlements, 1)
	assert.Equal(t, domain.OutcomeLost, result.Settlements[0].Outcome)
}

func TestScanner_ReportsCycle(t *testing.T) {
	poly := &mockVenue{
		venue:  domain.VenuePolymarket,
		opps:   []domain.Opportunity{makeOpp(domain.VenuePolymarket, "0xaaa", 0.975)},
		prices: map[string]float64{"0xaaa": 0.975},
	}

	sc, _, reporter := newTestScanner(t, 10, poly)

	result, err := sc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.CycleID)

	require.Len(t, reporter.reports, 1)
	report := reporter.reports[0]
	assert.Equal(t, result.CycleID, report.CycleID)
	assert.Len(t, report.OpenPositions, 1)
	assert.Zero(t, report.Stats.TotalTrades)
}
