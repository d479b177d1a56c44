package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/date"
	"github.com/venturetk/VenturePortfolio/renderer"
)

type gainsCmd struct {
	start  string
	end    string
	wallet string
	asset  string
	by     string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "list the realized gains and losses" }
func (*gainsCmd) Usage() string {
	return `vpm gains [-s <start_date>] [-e <end_date>] [-w <wallet>] [-a <asset>] [-by <period>]

  Lists the gains and losses realized by orders, with their total.
  With -by, subtotals per day, week, month, quarter or year are added.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "The start date of the range (YYYY-MM-DD)")
	f.StringVar(&c.end, "e", "", "The end date of the range (YYYY-MM-DD)")
	f.StringVar(&c.wallet, "w", "", "Only gains realized in this wallet")
	f.StringVar(&c.asset, "a", "", "Only gains realized on this asset")
	f.StringVar(&c.by, "by", "", "Subtotal per period (daily, weekly, monthly, quarterly, yearly)")
}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := date.ParseRange(c.start, c.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	var period date.Period
	if c.by != "" {
		if period, err = date.ParsePeriod(c.by); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	keep := func(g portfolio.GainLossEntry) bool {
		return r.Contains(g.At.Date) &&
			(c.wallet == "" || g.Wallet == c.wallet) &&
			(c.asset == "" || g.Asset == c.asset)
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		view := renderer.NewGainList(p, keep)
		if c.by != "" {
			view.GroupBy(period)
		}
		printMarkdown(renderer.RenderGains(view))
		return false, nil
	})
}
