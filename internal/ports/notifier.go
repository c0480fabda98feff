package ports

import (
	"context"

	"github.com/alejandrodnm/surebet/internal/domain"
)

// Reporter presents the outcome of a scan cycle to the user.
type Reporter interface {
	// ReportCycle renders one completed cycle: opportunities found, positions
	// entered and settled, open positions with unrealized P&L, and aggregate
	// stats. In the console implementation this prints formatted tables.
	ReportCycle(ctx context.Context, report domain.CycleReport) error
}
