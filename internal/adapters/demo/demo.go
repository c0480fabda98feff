package demo

// Simulated venue data for running the bot without API access. Each Source
// impersonates one venue with a fixed set of markets whose prices follow a
// random walk with a slight upward drift: quotes near 1.00 occasionally jump
// to full resolution, sliding quotes occasionally collapse toward zero. That
// exercises both settlement paths within a few cycles.

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/alejandrodnm/surebet/internal/domain"
)

type market struct {
	id        string
	question  string
	category  string
	yesPrice  float64
	volume    float64
	liquidity float64
}

// Source implements ports.VenueAdapter with generated markets. It is not
// safe for concurrent use; each scan cycle touches one Source from one
// goroutine at a time.
type Source struct {
	venue   domain.Venue
	markets []market
}

// Polymarket returns a demo source impersonating Polymarket.
func Polymarket() *Source {
	return newSource(domain.VenuePolymarket, "poly-demo-%d", []seed{
		{"Will Bitcoin be above $100k by March 1?", "Crypto", 0.975},
		{"Will it rain in NYC tomorrow?", "Weather", 0.978},
		{"Will the S&P 500 close above 6000 this week?", "Business", 0.972},
		{"Will Lakers win tonight's game?", "Sports", 0.976},
		{"Will Fed cut rates in March?", "Politics", 0.971},
		{"Will ETH reach $4000 by end of month?", "Crypto", 0.979},
		{"Will new iPhone be announced this month?", "Business", 0.973},
		{"Will unemployment stay below 4%?", "Politics", 0.977},
		// Outside the scan band
		{"Will it snow in Miami tomorrow?", "Weather", 0.02},
		{"Will BTC reach $200k by EOY?", "Crypto", 0.45},
		{"Coin flip - heads?", "Entertainment", 0.50},
	})
}

// Kalshi returns a demo source impersonating Kalshi.
func Kalshi() *Source {
	return newSource(domain.VenueKalshi, "KXDEMO-%03d", []seed{
		{"Fed cuts rates in March?", "Politics", 0.975},
		{"S&P 500 above 6000 by end of week?", "Finance", 0.978},
		{"Unemployment below 4% in February?", "Economics", 0.972},
		{"Bitcoin above $100k by March?", "Crypto", 0.976},
		{"Tesla stock above $300 by April?", "Stocks", 0.979},
		{"Gold above $2800 by end of month?", "Commodities", 0.973},
		{"Will it snow in Denver tomorrow?", "Weather", 0.977},
		// Outside the scan band
		{"Market crash tomorrow?", "Finance", 0.05},
		{"Bitcoin to $200k by EOY?", "Crypto", 0.35},
		{"Recession this year?", "Economics", 0.25},
	})
}

type seed struct {
	question string
	category string
	price    float64
}

func newSource(venue domain.Venue, idFormat string, seeds []seed) *Source {
	markets := make([]market, len(seeds))
	for i, sd := range seeds {
		markets[i] = market{
			id:        fmt.Sprintf(idFormat, i),
			question:  sd.question,
			category:  sd.category,
			yesPrice:  clamp(sd.price+rand.Float64()*0.02-0.01, 0.01, 0.99),
			volume:    500 + rand.Float64()*49_500,
			liquidity: 1000 + rand.Float64()*99_000,
		}
	}
	return &Source{venue: venue, markets: markets}
}

// Venue identifies the venue this source impersonates.
func (s *Source) Venue() domain.Venue {
	return s.venue
}

// ListOpportunities returns the demo markets whose YES or NO leg currently
// sits inside [low, high]. YES is checked first, matching the real adapters.
func (s *Source) ListOpportunities(_ context.Context, low, high float64) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	for _, m := range s.markets {
		var (
			side  domain.Side
			price float64
		)
		no := 1 - m.yesPrice
		switch {
		case m.yesPrice >= low && m.yesPrice <= high:
			side, price = domain.SideYes, m.yesPrice
		case no >= low && no <= high:
			side, price = domain.SideNo, no
		default:
			continue
		}

		opps = append(opps, domain.Opportunity{
			Venue:     s.venue,
			MarketID:  m.id,
			Question:  m.question,
			Side:      side,
			Price:     price,
			Volume24h: m.volume,
			Liquidity: m.liquidity,
			Category:  m.category,
			URL:       fmt.Sprintf("https://demo.invalid/%s/%s", s.venue, m.id),
		})
	}
	return opps, nil
}

// CurrentPrice advances the market's random walk one step and returns the
// new price for the requested leg.
func (s *Source) CurrentPrice(_ context.Context, marketID string, side domain.Side) (float64, bool, error) {
	for i := range s.markets {
		if s.markets[i].id != marketID {
			continue
		}
		s.markets[i].yesPrice = step(s.markets[i].yesPrice)
		price := s.markets[i].yesPrice
		if side == domain.SideNo {
			price = 1 - price
		}
		return price, true, nil
	}
	return 0, false, nil
}

// step applies one random-walk move: drift in [-0.02, 0.03), clamp to
// [0.01, 1.00], 10% chance to resolve when above 0.98, 5% chance to collapse
// when below 0.85.
func step(p float64) float64 {
	p = clamp(p+rand.Float64()*0.05-0.02, 0.01, 1.00)
	if p > 0.98 && rand.Float64() < 0.1 {
		return 1.00
	}
	if p < 0.85 && rand.Float64() < 0.05 {
		return 0.01 + rand.Float64()*0.19
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
