package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/renderer"
)

// --- Wallet Add Command ---

type walletAddCmd struct {
	wallet string
}

func (*walletAddCmd) Name() string     { return "wallet-add" }
func (*walletAddCmd) Synopsis() string { return "create an empty wallet" }
func (*walletAddCmd) Usage() string {
	return `vpm wallet-add -w <wallet>

  Creates an empty wallet. Wallet names are unique.
`
}

func (c *walletAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "Wallet name")
}

func (c *walletAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.wallet == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		return true, p.AddWallet(c.wallet)
	})
}

// --- Wallet Remove Command ---

type walletRmCmd struct {
	wallet string
}

func (*walletRmCmd) Name() string     { return "wallet-rm" }
func (*walletRmCmd) Synopsis() string { return "remove a wallet no transaction refers to" }
func (*walletRmCmd) Usage() string {
	return `vpm wallet-rm -w <wallet>

  Removes a wallet. Wallets used by a transaction cannot be removed.
`
}

func (c *walletRmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "Wallet name")
}

func (c *walletRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.wallet == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		return true, p.RemoveWallet(c.wallet)
	})
}

// --- Wallets Command ---

type walletsCmd struct{}

func (*walletsCmd) Name() string     { return "wallets" }
func (*walletsCmd) Synopsis() string { return "list the wallets" }
func (*walletsCmd) Usage() string {
	return `vpm wallets

  Lists the wallets with the number of positions they hold.
`
}

func (*walletsCmd) SetFlags(*flag.FlagSet) {}

func (*walletsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		printMarkdown(renderer.RenderWallets(renderer.NewWalletList(p)))
		return false, nil
	})
}

// --- Positions Command ---

type positionsCmd struct {
	wallet string
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "list the positions held in wallets" }
func (*positionsCmd) Usage() string {
	return `vpm positions [-w <wallet>]

  Lists the positions of a wallet: quantity, acquisition stamp, cost basis and
  market value at the open price. All wallets are listed by default.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "Wallet name. All wallets by default")
}

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		names := []string{c.wallet}
		if c.wallet == "" {
			names = names[:0]
			for _, w := range p.Wallets() {
				names = append(names, w.Name)
			}
		}
		md := ""
		for _, name := range names {
			v, err := renderer.NewPositionList(p, name)
			if err != nil {
				return false, err
			}
			md += renderer.RenderPositions(v) + "\n"
		}
		printMarkdown(md)
		return false, nil
	})
}
