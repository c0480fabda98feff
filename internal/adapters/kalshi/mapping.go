package kalshi

import (
	"github.com/alejandrodnm/surebet/internal/domain"
)

// mapMarket normalizes one Kalshi market into an Opportunity when its YES
// mid-price lies within [low, high]. Kalshi quotes only the YES leg in a
// usable way for this scan, so every Kalshi opportunity is a YES side.
// Open interest stands in for liquidity; Kalshi has no direct equivalent.
func mapMarket(m kalshiMarket, low, high float64) (domain.Opportunity, bool) {
	if m.Status != "open" {
		return domain.Opportunity{}, false
	}

	price, ok := midPrice(m)
	if !ok || price < low || price > high {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Venue:     domain.VenueKalshi,
		MarketID:  m.Ticker,
		Question:  m.Title,
		Side:      domain.SideYes,
		Price:     price,
		Volume24h: m.Volume,
		Liquidity: m.OpenInterest,
		Category:  m.Category,
		URL:       "https://kalshi.com/markets/" + m.Ticker,
	}, true
}

// midPrice converts the cent-denominated YES quotes to a dollar mid-price.
// With no ask, the bid stands alone; with neither, there is no price.
func midPrice(m kalshiMarket) (float64, bool) {
	bid := m.YesBid / 100
	ask := m.YesAsk / 100

	switch {
	case ask > 0:
		return (bid + ask) / 2, true
	case bid > 0:
		return bid, true
	default:
		return 0, false
	}
}
