package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/date"
)

// legFlags collects the flags of one transaction leg.
type legFlags struct {
	asset    string
	quantity string
	price    string
}

// register adds the -<prefix>a, -<prefix>q and -<prefix>p flags.
func (l *legFlags) register(f *flag.FlagSet, prefix, what string) {
	f.StringVar(&l.asset, prefix+"a", "", what+" asset")
	f.StringVar(&l.quantity, prefix+"q", "", what+" quantity")
	f.StringVar(&l.price, prefix+"p", "", what+" unit price in the quote currency. Priced by the oracle when missing")
}

// request parses the leg. It returns nil when no asset is given.
func (l *legFlags) request() (*portfolio.LegRequest, error) {
	if l.asset == "" {
		return nil, nil
	}
	q, err := portfolio.ParseQuantity(l.quantity)
	if err != nil {
		return nil, err
	}
	req := portfolio.L(l.asset, q)
	if l.price != "" {
		price, err := decimal.NewFromString(l.price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", l.price, err)
		}
		req = req.At(price)
	}
	return &req, nil
}

// txFlags collects the flags every transaction command shares.
type txFlags struct {
	at    string
	class string
	fee   legFlags
}

func (t *txFlags) register(f *flag.FlagSet) {
	f.StringVar(&t.at, "d", "", "Transaction date and time (YYYY-MM-DD [HH:MM]). Now by default")
	f.StringVar(&t.class, "c", "", "An optional classification label")
	t.fee.register(f, "f", "Fee")
}

// complete fills the shared fields of req.
func (t *txFlags) complete(req portfolio.Request) (portfolio.Request, error) {
	if t.at != "" {
		at, err := date.ParseStamp(t.at)
		if err != nil {
			return req, fmt.Errorf("invalid date: %w", err)
		}
		req.At = at
	}
	req.Class = t.class
	fee, err := t.fee.request()
	if err != nil {
		return req, fmt.Errorf("fee: %w", err)
	}
	req.Fee = fee
	return req, nil
}

// addTransaction completes req with the shared flags and records it.
func addTransaction(ctx context.Context, t *txFlags, req portfolio.Request) subcommands.ExitStatus {
	req, err := t.complete(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		id, err := p.AddTransaction(req)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(stdout, id)
		return true, nil
	})
}

// legRequest parses a mandatory leg.
func legRequest(l *legFlags, what string) (portfolio.LegRequest, error) {
	req, err := l.request()
	if err != nil {
		return portfolio.LegRequest{}, fmt.Errorf("%s: %w", what, err)
	}
	if req == nil {
		return portfolio.LegRequest{}, fmt.Errorf("%s: %w", what, portfolio.ErrMissingLeg)
	}
	return *req, nil
}

// --- Deposit Command ---

type depositCmd struct {
	tx       txFlags
	wallet   string
	received legFlags
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "record assets entering a wallet" }
func (*depositCmd) Usage() string {
	return `vpm deposit -w <wallet> -a <asset> -q <quantity> [-p <price>] [-d <date>] [-c <class>] [-fa <asset> -fq <quantity> [-fp <price>]]

  Records assets received into a wallet. They open or add to a position whose
  cost basis grows by quantity x price.
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "Destination wallet")
	c.received.register(f, "", "Received")
	c.tx.register(f)
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	received, err := legRequest(&c.received, "received")
	if c.wallet == "" || err != nil {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return addTransaction(ctx, &c.tx, portfolio.NewDeposit(date.Stamp{}, c.wallet, received))
}

// --- Withdraw Command ---

type withdrawCmd struct {
	tx     txFlags
	wallet string
	sent   legFlags
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "record assets leaving a wallet" }
func (*withdrawCmd) Usage() string {
	return `vpm withdraw -w <wallet> -a <asset> -q <quantity> [-p <price>] [-d <date>] [-c <class>] [-fa <asset> -fq <quantity> [-fp <price>]]

  Records assets sent out of a wallet. The withdrawal is refused when the
  wallet does not hold enough of the asset.
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "Origin wallet")
	c.sent.register(f, "", "Sent")
	c.tx.register(f)
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sent, err := legRequest(&c.sent, "sent")
	if c.wallet == "" || err != nil {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return addTransaction(ctx, &c.tx, portfolio.NewWithdraw(date.Stamp{}, c.wallet, sent))
}

// --- Order Command ---

type orderCmd struct {
	tx       txFlags
	wallet   string
	sent     legFlags
	received legFlags
}

func (*orderCmd) Name() string     { return "order" }
func (*orderCmd) Synopsis() string { return "record an exchange of assets within a wallet" }
func (*orderCmd) Usage() string {
	return `vpm order -w <wallet> -sa <asset> -sq <quantity> [-sp <price>] -ra <asset> -rq <quantity> [-rp <price>] [-d <date>] [-c <class>] [-fa ...]

  Records an exchange in a wallet: the sent asset leaves, the received asset
  enters. The difference between the value received and the cost basis of
  what was sent is realized as a gain or a loss.
`
}

func (c *orderCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "Wallet")
	c.sent.register(f, "s", "Sent")
	c.received.register(f, "r", "Received")
	c.tx.register(f)
}

func (c *orderCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sent, err := legRequest(&c.sent, "sent")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	received, err := legRequest(&c.received, "received")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.wallet == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return addTransaction(ctx, &c.tx, portfolio.NewOrder(date.Stamp{}, c.wallet, sent, received))
}

// --- Internal Command ---

type internalCmd struct {
	tx   txFlags
	from string
	to   string
	sent legFlags
}

func (*internalCmd) Name() string     { return "internal" }
func (*internalCmd) Synopsis() string { return "record a transfer between two wallets" }
func (*internalCmd) Usage() string {
	return `vpm internal -from <wallet> -to <wallet> -a <asset> -q <quantity> [-p <price>] [-d <date>] [-c <class>] [-fa ...]

  Records a transfer between two wallets of the portfolio. Depending on the
  'internal_transfers' setting the positions are left untouched (ignore) or
  moved with their cost basis (move). Fees are recorded in both cases.
`
}

func (c *internalCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Origin wallet")
	f.StringVar(&c.to, "to", "", "Destination wallet")
	c.sent.register(f, "", "Transferred")
	c.tx.register(f)
}

func (c *internalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sent, err := legRequest(&c.sent, "transferred")
	if c.from == "" || c.to == "" || err != nil {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return addTransaction(ctx, &c.tx, portfolio.NewInternal(date.Stamp{}, c.from, c.to, sent))
}
