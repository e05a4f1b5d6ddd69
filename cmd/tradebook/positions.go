package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/aristath/tradebook/internal/di"
	"github.com/aristath/tradebook/internal/modules/pnl"
	"github.com/google/subcommands"
)

type recalcCmd struct {
	ownerFlag
}

func (*recalcCmd) Name() string     { return "recalc" }
func (*recalcCmd) Synopsis() string { return "rebuild positions from the full trade history" }
func (*recalcCmd) Usage() string {
	return `tradebook recalc -owner <id>

  Folds every trade of the owner in chronological order, stores the open
  positions and deletes positions that are closed or no longer traded.
`
}

func (c *recalcCmd) SetFlags(f *flag.FlagSet) { c.setOwnerFlag(f) }

func (c *recalcCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.ownerFlag, func(container *di.Container) error {
		result, err := container.PortfolioService.Recalculate(ctx, c.owner)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d open positions stored, %d removed\n", result.Upserted, result.Deleted)
		return nil
	})
}

type positionsCmd struct {
	ownerFlag
	asJSON  bool
	refresh bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "print the valued positions of an owner" }
func (*positionsCmd) Usage() string {
	return `tradebook positions -owner <id> [-refresh] [-json]

  Values every position at its current quote, falling back to the average
  buy price when no quote is available. -refresh also stores the prices.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a table")
	f.BoolVar(&c.refresh, "refresh", false, "Store the fetched prices on the positions")
}

func (c *positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.ownerFlag, func(container *di.Container) error {
		valuate := container.PortfolioService.Valuation
		if c.refresh {
			valuate = container.PortfolioService.RefreshPrices
		}
		v, err := valuate(ctx, c.owner)
		if err != nil {
			return err
		}

		if c.asJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}

		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "SYMBOL\tQTY\tAVG\tPRICE\tVALUE\tP&L\tP&L %\tWEIGHT\t")
		for _, p := range v.Positions {
			price := fmt.Sprintf("%.2f", p.CurrentPrice)
			if !p.Quoted {
				price += "*"
			}
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\t%.2f\t%.2f\t%.2f\t%.1f%%\t\n",
				p.Instrument(), p.Quantity, p.AverageBuyPrice, price,
				p.CurrentValue, p.UnrealizedPL, p.UnrealizedPLPercent, p.Weight*100)
		}
		fmt.Fprintf(tw, "TOTAL\t\t\t\t%.2f\t%.2f\t%.2f\t\t\n", v.PortfolioValue, v.TotalPL, v.TotalPLPercent)
		return tw.Flush()
	})
}

type pnlCmd struct {
	ownerFlag
	symbol string
	from   string
	to     string
}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "print FIFO realized P&L and total P&L" }
func (*pnlCmd) Usage() string {
	return `tradebook pnl -owner <id> [-symbol <sym>] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
`
}

func (c *pnlCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.symbol, "symbol", "", "Only trades of this symbol")
	f.StringVar(&c.from, "from", "", "First trade date (inclusive)")
	f.StringVar(&c.to, "to", "", "Last trade date (inclusive)")
}

func (c *pnlCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.ownerFlag, func(container *di.Container) error {
		report, err := container.PnLService.Realized(ctx, c.owner, pnl.Query{Symbol: c.symbol, From: c.from, To: c.to})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "SYMBOL\tMATCHED\tUNMATCHED\tREALIZED\t")
		for _, s := range report.BySymbol {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t\n", s.Symbol, s.MatchedQty, s.UnmatchedQty, s.RealizedPL)
		}
		fmt.Fprintf(tw, "REALIZED\t\t\t%.2f\t\n", report.RealizedPL)

		total, err := container.PnLService.Total(ctx, c.owner)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "UNREALIZED\t\t\t%.2f\t\n", total.UnrealizedPL)
		fmt.Fprintf(tw, "TOTAL (all trades)\t\t\t%.2f\t\n", total.TotalPL)
		return tw.Flush()
	})
}
