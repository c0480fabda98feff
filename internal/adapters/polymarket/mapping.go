package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alejandrodnm/surebet/internal/domain"
)

// mapMarket normalizes one Gamma market into an Opportunity when either leg
// is quoted inside [low, high]. When both legs fall in the band, the YES leg
// wins — that is the adapter's deterministic tie-break, YES is always checked
// first.
func mapMarket(m gammaMarket, low, high float64) (domain.Opportunity, bool) {
	if m.Closed {
		return domain.Opportunity{}, false
	}

	yes, no, err := parseOutcomePrices(m.OutcomePrices)
	if err != nil {
		return domain.Opportunity{}, false
	}

	var (
		side  domain.Side
		price float64
	)
	switch {
	case yes >= low && yes <= high:
		side, price = domain.SideYes, yes
	case no >= low && no <= high:
		side, price = domain.SideNo, no
	default:
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Venue:     domain.VenuePolymarket,
		MarketID:  m.ConditionID,
		Question:  m.Question,
		Side:      side,
		Price:     price,
		Volume24h: m.VolumeNum,
		Liquidity: m.LiquidityNum,
		Category:  m.Category,
		URL:       "https://polymarket.com/event/" + m.Slug,
	}, true
}

// parseOutcomePrices decodes Gamma's outcomePrices field, a JSON-encoded
// string array like `["0.975", "0.025"]` (YES first, NO second). Some
// responses use single quotes; normalize before decoding.
func parseOutcomePrices(raw string) (yes, no float64, err error) {
	if raw == "" || raw == "[]" {
		return 0, 0, fmt.Errorf("empty outcomePrices")
	}

	var prices []string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(raw, "'", `"`)), &prices); err != nil {
		return 0, 0, fmt.Errorf("decode outcomePrices: %w", err)
	}
	if len(prices) < 2 {
		return 0, 0, fmt.Errorf("outcomePrices has %d entries, want 2", len(prices))
	}

	yes, err = strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse yes price %q: %w", prices[0], err)
	}
	no, err = strconv.ParseFloat(prices[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse no price %q: %w", prices[1], err)
	}
	return yes, no, nil
}
