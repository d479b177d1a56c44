package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	portfolio "github.com/venturetk/VenturePortfolio"
)

type initCmd struct {
	force bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create an empty portfolio in the configured store" }
func (*initCmd) Usage() string {
	return `vpm init [-f]

  Creates an empty portfolio named after the 'name' setting, holding only its
  quote asset ('quote' setting, USD by default) priced at 1.
  An existing portfolio is never overwritten unless -f is given.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "f", false, "Overwrite an existing portfolio")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.shutdown()

	if !c.force {
		_, err := a.load(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(os.Stderr, "Error: a portfolio already exists in %s, use -f to overwrite it\n", a.cfg.Portfolio)
			return subcommands.ExitFailure
		case !errors.Is(err, errNoPortfolio):
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	opts := append(a.options(), portfolio.WithQuote(a.cfg.Quote))
	p := portfolio.New(a.cfg.Name, opts...)
	if err := a.save(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Created portfolio %q quoted in %s in %s\n", p.Name(), p.Quote(), a.cfg.Portfolio)
	return subcommands.ExitSuccess
}
