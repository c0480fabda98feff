package polymarket

// Raw Gamma API DTOs. Only used inside this package; conversion to domain
// records happens in mapping.go.

// gammaMarket is one market from GET /markets. Gamma returns a bare JSON
// array for list queries.
type gammaMarket struct {
	ConditionID   string  `json:"conditionId"`
	Question      string  `json:"question"`
	Slug          string  `json:"slug"`
	Category      string  `json:"category"`
	OutcomePrices string  `json:"outcomePrices"` // JSON-encoded string array, YES then NO
	VolumeNum     float64 `json:"volumeNum"`
	LiquidityNum  float64 `json:"liquidityNum"`
	Active        bool    `json:"active"`
	Closed        bool    `json:"closed"`
	EndDate       string  `json:"endDate"`
}
