package kalshi

// Raw Kalshi REST DTOs. Prices arrive in cents (1-99); conversion to
// dollar-denominated domain records happens in mapping.go.

type marketsResponse struct {
	Markets []kalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

type marketResponse struct {
	Market kalshiMarket `json:"market"`
}

type kalshiMarket struct {
	Ticker       string  `json:"ticker"`
	Title        string  `json:"title"`
	Subtitle     string  `json:"subtitle"`
	Status       string  `json:"status"` // "open", "closed", "settled"
	Category     string  `json:"category"`
	YesBid       float64 `json:"yes_bid"`
	YesAsk       float64 `json:"yes_ask"`
	NoBid        float64 `json:"no_bid"`
	NoAsk        float64 `json:"no_ask"`
	Volume       float64 `json:"volume"`
	Volume24H    float64 `json:"volume_24h"`
	OpenInterest float64 `json:"open_interest"`
	CloseTime    string  `json:"close_time"`
}
