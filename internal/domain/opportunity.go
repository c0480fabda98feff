package domain

// Venue identifies a prediction-market source.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// Side is the contract leg a quote (and later a position) refers to.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Opportunity is a normalized contract quote inside the scan price band.
// Produced fresh each cycle by a venue adapter and consumed immediately by
// the filter; never persisted.
type Opportunity struct {
	Venue     Venue
	MarketID  string
	Question  string
	Side      Side
	Price     float64 // 0 < p <= 1
	Volume24h float64
	Liquidity float64
	Category  string
	URL       string
}

// Validate reports whether the adapter produced a usable record.
// Adapters call this at the normalization boundary; records that fail are
// skipped without aborting the venue's batch.
func (o Opportunity) Validate() error {
	switch {
	case o.Venue == "":
		return ErrMalformedOpportunity
	case o.MarketID == "":
		return ErrMalformedOpportunity
	case o.Question == "":
		return ErrMalformedOpportunity
	case o.Side != SideYes && o.Side != SideNo:
		return ErrMalformedOpportunity
	case o.Price <= 0 || o.Price > 1:
		return ErrMalformedOpportunity
	}
	return nil
}
