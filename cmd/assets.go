package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/renderer"
)

// --- Asset Add Command ---

type assetAddCmd struct {
	asset string
	price string
}

func (*assetAddCmd) Name() string     { return "asset-add" }
func (*assetAddCmd) Synopsis() string { return "register an asset with its reference price" }
func (*assetAddCmd) Usage() string {
	return `vpm asset-add -a <asset> -p <price>

  Registers an asset. The reference price, in the quote currency, prices the
  legs of later transactions that do not give an explicit price.
`
}

func (c *assetAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "a", "", "Asset name")
	f.StringVar(&c.price, "p", "0", "Reference price in the quote currency")
}

func (c *assetAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		return true, p.AddAsset(c.asset, price)
	})
}

// --- Asset Remove Command ---

type assetRmCmd struct {
	asset string
}

func (*assetRmCmd) Name() string     { return "asset-rm" }
func (*assetRmCmd) Synopsis() string { return "remove an asset no transaction refers to" }
func (*assetRmCmd) Usage() string {
	return `vpm asset-rm -a <asset>

  Removes an asset. The quote asset and assets used by a transaction cannot be removed.
`
}

func (c *assetRmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "a", "", "Asset name")
}

func (c *assetRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		return true, p.RemoveAsset(c.asset)
	})
}

// --- Asset Price Command ---

type assetPriceCmd struct {
	asset string
	price string
}

func (*assetPriceCmd) Name() string     { return "asset-price" }
func (*assetPriceCmd) Synopsis() string { return "update the reference price of an asset" }
func (*assetPriceCmd) Usage() string {
	return `vpm asset-price -a <asset> -p <price>

  Updates the reference price of an asset. Prices already recorded in
  transactions and positions are left unchanged.
`
}

func (c *assetPriceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "a", "", "Asset name")
	f.StringVar(&c.price, "p", "", "New reference price in the quote currency")
}

func (c *assetPriceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		return true, p.SetPrice(c.asset, price)
	})
}

// --- Assets Command ---

type assetsCmd struct{}

func (*assetsCmd) Name() string     { return "assets" }
func (*assetsCmd) Synopsis() string { return "list the registered assets" }
func (*assetsCmd) Usage() string {
	return `vpm assets

  Lists the registered assets with their reference price.
`
}

func (*assetsCmd) SetFlags(*flag.FlagSet) {}

func (*assetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		printMarkdown(renderer.RenderAssets(renderer.NewAssetList(p)))
		return false, nil
	})
}
