package scanner

import (
	"github.com/alejandrodnm/surebet/internal/domain"
)

// FilterConfig holds the configurable entry eligibility rules.
type FilterConfig struct {
	// MaxPositions is the hard ceiling on concurrent OPEN positions,
	// independent of venue.
	MaxPositions int
	// MinLiquidity rejects opportunities with less open liquidity (USD).
	MinLiquidity float64
	// MinVolume24h rejects opportunities with less 24h volume (USD).
	MinVolume24h float64
}

// DefaultFilterConfig returns the conservative production defaults.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MaxPositions: 10,
		MinLiquidity: 1000,
		MinVolume24h: 500,
	}
}

// Filter applies the entry eligibility rules to normalized opportunities.
// It is a pure predicate: no side effects, no state beyond its config.
type Filter struct {
	cfg FilterConfig
}

// NewFilter creates a Filter with the given config.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Accepts reports whether a position should be opened against the
// opportunity, given the current open-position snapshot. Rejections:
// duplicate exposure on the same (venue, market id), position cap reached,
// liquidity or volume below the minimums.
func (f *Filter) Accepts(opp domain.Opportunity, open []domain.Position) bool {
	for _, pos := range open {
		if pos.Venue == opp.Venue && pos.MarketID == opp.MarketID {
			return false
		}
	}
	if len(open) >= f.cfg.MaxPositions {
		return false
	}
	if opp.Liquidity < f.cfg.MinLiquidity {
		return false
	}
	if opp.Volume24h < f.cfg.MinVolume24h {
		return false
	}
	return true
}
