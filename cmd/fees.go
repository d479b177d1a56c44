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

type feesCmd struct {
	start string
	end   string
	asset string
}

func (*feesCmd) Name() string     { return "fees" }
func (*feesCmd) Synopsis() string { return "list the fees paid" }
func (*feesCmd) Usage() string {
	return `vpm fees [-s <start_date>] [-e <end_date>] [-a <asset>]

  Lists the fees of every transaction carrying one, with their total in the quote currency.
`
}

func (c *feesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "The start date of the range (YYYY-MM-DD)")
	f.StringVar(&c.end, "e", "", "The end date of the range (YYYY-MM-DD)")
	f.StringVar(&c.asset, "a", "", "Only fees paid in this asset")
}

func (c *feesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := date.ParseRange(c.start, c.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	keep := func(e portfolio.FeeEntry) bool {
		return r.Contains(e.At.Date) && (c.asset == "" || e.Asset == c.asset)
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		printMarkdown(renderer.RenderFees(renderer.NewFeeList(p, keep)))
		return false, nil
	})
}
