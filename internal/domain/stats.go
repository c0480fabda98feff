package domain

// Stats aggregates performance over all closed positions. A run with no
// closed positions yields the zero value: every rate and average is 0, never
// a division error.
type Stats struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // wins / total * 100
	TotalPnL    float64
	TotalFees   float64
	AvgProfit   float64 // total P&L / total trades
	ROI         float64 // total P&L / total notional staked * 100
	FeeRate     float64 // configured fee rate, percent, for display
}
