package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/surebet/internal/domain"
)

const maxOpportunityRows = 20

// Console implements ports.Reporter on stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a reporter writing to stdout. With table enabled it
// prints full tables per cycle instead of the compact one-liner.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a reporter for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// ReportCycle renders one completed scan cycle.
func (c *Console) ReportCycle(_ context.Context, report domain.CycleReport) error {
	if !c.table {
		c.printCompact(report)
		return nil
	}

	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] scan cycle — %d opportunities, %d entered, %d settled\n",
		now, len(report.Opportunities), len(report.Entered), len(report.Settlements))

	c.printOpportunities(report.Opportunities)
	c.printSettlements(report.Settlements)
	c.PrintOpenPositions(report.OpenPositions)
	c.PrintStats(report.Stats)
	return nil
}

// printCompact prints the essentials on one line.
func (c *Console) printCompact(report domain.CycleReport) {
	now := time.Now().Format("15:04:05")

	var unrealized float64
	for _, pos := range report.OpenPositions {
		unrealized += pos.UnrealizedPnL()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d opps | +%d entered | %d settled | %d open unrlzd $%+.2f | pnl $%+.2f",
		now, len(report.Opportunities), len(report.Entered), len(report.Settlements),
		len(report.OpenPositions), unrealized, report.Stats.TotalPnL)

	for _, settled := range report.Settlements {
		fmt.Fprintf(&sb, " | #%d %s $%+.2f", settled.PositionID, settled.Outcome, settled.ProfitLoss)
	}
	fmt.Fprintln(c.out, sb.String())
}

// printOpportunities renders the merged, price-sorted opportunity list.
func (c *Console) printOpportunities(opps []domain.Opportunity) {
	if len(opps) == 0 {
		fmt.Fprintln(c.out, "no opportunities found in price range")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Question", "Side", "Price", "Volume", "Liquidity", "Venue", "Category")

	for i, opp := range opps {
		if i >= maxOpportunityRows {
			break
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(opp.Question, 45),
			string(opp.Side),
			fmt.Sprintf("$%.3f", opp.Price),
			fmt.Sprintf("$%.0f", opp.Volume24h),
			fmt.Sprintf("$%.0f", opp.Liquidity),
			string(opp.Venue),
			opp.Category,
		)
	}
	table.Render()
}

// printSettlements lists the positions closed this cycle.
func (c *Console) printSettlements(settlements []domain.SettlementResult) {
	for _, s := range settlements {
		icon := "WON "
		if s.Outcome == domain.OutcomeLost {
			icon = "LOST"
		}
		fmt.Fprintf(c.out, "%s #%d [%s] %s — exit $%.3f, pnl $%+.2f, fee $%.4f (%s)\n",
			icon, s.PositionID, s.Venue, truncate(s.Question, 50),
			s.ExitPrice, s.ProfitLoss, s.FeePaid, s.Notes)
	}
}

// PrintOpenPositions renders the open positions with unrealized P&L.
func (c *Console) PrintOpenPositions(positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(c.out, "no open positions")
		return
	}

	fmt.Fprintf(c.out, "\nOpen positions (%d):\n", len(positions))

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Venue", "Question", "Side", "Entry", "Current", "Unrealized")

	var total float64
	for _, pos := range positions {
		current := "-"
		if pos.CurrentPrice != nil {
			current = fmt.Sprintf("$%.3f", *pos.CurrentPrice)
		}
		pnl := pos.UnrealizedPnL()
		total += pnl

		table.Append(
			fmt.Sprintf("%d", pos.ID),
			string(pos.Venue),
			truncate(pos.Question, 45),
			string(pos.Side),
			fmt.Sprintf("$%.3f", pos.EntryPrice),
			current,
			fmt.Sprintf("$%+.2f", pnl),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "total unrealized P&L: $%+.2f\n", total)
}

// PrintClosedPositions renders the settled positions, newest first.
func (c *Console) PrintClosedPositions(positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(c.out, "no closed positions")
		return
	}

	fmt.Fprintf(c.out, "\nClosed positions (%d):\n", len(positions))

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Venue", "Question", "Outcome", "Entry", "Exit", "P&L", "Fee")

	for _, pos := range positions {
		outcome, exit, pnl, fee := "-", "-", "-", "-"
		if pos.Outcome != nil {
			outcome = string(*pos.Outcome)
		}
		if pos.ExitPrice != nil {
			exit = fmt.Sprintf("$%.3f", *pos.ExitPrice)
		}
		if pos.ProfitLoss != nil {
			pnl = fmt.Sprintf("$%+.2f", *pos.ProfitLoss)
		}
		if pos.FeePaid != nil {
			fee = fmt.Sprintf("$%.4f", *pos.FeePaid)
		}

		table.Append(
			fmt.Sprintf("%d", pos.ID),
			string(pos.Venue),
			truncate(pos.Question, 45),
			outcome,
			fmt.Sprintf("$%.3f", pos.EntryPrice),
			exit, pnl, fee,
		)
	}
	table.Render()
}

// PrintStats renders the aggregate performance block.
func (c *Console) PrintStats(stats domain.Stats) {
	line := strings.Repeat("=", 50)
	fmt.Fprintf(c.out, "\n%s\n", line)
	fmt.Fprintln(c.out, "  PERFORMANCE")
	fmt.Fprintln(c.out, line)
	fmt.Fprintf(c.out, "  Total trades:     %d\n", stats.TotalTrades)
	fmt.Fprintf(c.out, "  Wins / Losses:    %d / %d\n", stats.Wins, stats.Losses)
	fmt.Fprintf(c.out, "  Win rate:         %.1f%%\n", stats.WinRate)
	fmt.Fprintf(c.out, "  Total P&L:        $%.2f\n", stats.TotalPnL)
	fmt.Fprintf(c.out, "  Total fees paid:  $%.2f (%.1f%% on profits)\n", stats.TotalFees, stats.FeeRate)
	fmt.Fprintf(c.out, "  Avg profit/trade: $%.2f\n", stats.AvgProfit)
	fmt.Fprintf(c.out, "  ROI:              %.2f%%\n", stats.ROI)
	fmt.Fprintf(c.out, "%s\n", line)
}

// PrintBanner prints the startup banner.
func (c *Console) PrintBanner(venues []string, demo bool) {
	line := strings.Repeat("=", 50)
	fmt.Fprintf(c.out, "\n%s\n", line)
	fmt.Fprintln(c.out, "  MULTI-VENUE PAPER TRADING BOT")
	fmt.Fprintln(c.out, "  Target: 97-98c contracts")
	fmt.Fprintf(c.out, "  Venues: %s\n", strings.Join(venues, ", "))
	if demo {
		fmt.Fprintln(c.out, "  MODE: DEMO (simulated data)")
	}
	fmt.Fprintf(c.out, "%s\n\n", line)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
