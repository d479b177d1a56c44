package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/date"
	"github.com/venturetk/VenturePortfolio/renderer"
)

// filterFlags selects transactions.
type filterFlags struct {
	start  string
	end    string
	wallet string
	asset  string
	txType string
}

func (p *filterFlags) register(f *flag.FlagSet) {
	f.StringVar(&p.start, "s", "", "The start date of the range (YYYY-MM-DD)")
	f.StringVar(&p.end, "e", "", "The end date of the range (YYYY-MM-DD)")
	f.StringVar(&p.wallet, "w", "", "Only transactions touching this wallet")
	f.StringVar(&p.asset, "a", "", "Only transactions moving this asset")
	f.StringVar(&p.txType, "t", "", "Only transactions of this type (deposit, withdraw, order, internal)")
}

func (p *filterFlags) filters() ([]func(*portfolio.Transaction) bool, error) {
	var filters []func(*portfolio.Transaction) bool
	r, err := date.ParseRange(p.start, p.end)
	if err != nil {
		return nil, err
	}
	if !r.IsOpen() {
		filters = append(filters, portfolio.InRange(r))
	}
	if p.wallet != "" {
		filters = append(filters, portfolio.ByWallet(p.wallet))
	}
	if p.asset != "" {
		filters = append(filters, portfolio.ByAsset(p.asset))
	}
	if p.txType != "" {
		t, err := portfolio.ParseTxType(p.txType)
		if err != nil {
			return nil, err
		}
		filters = append(filters, portfolio.ByType(t))
	}
	return filters, nil
}

// --- Tx Command ---

type txCmd struct {
	filter filterFlags
	head   int
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions of the ledger" }
func (*txCmd) Usage() string {
	return `vpm tx [-s <start_date>] [-e <end_date>] [-w <wallet>] [-a <asset>] [-t <type>] [-head <n>] [-tail <n>]

  Lists transactions in ledger order, with options for filtering and limiting
  the output. Transactions the replay could not apply are reported after the list.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	p.filter.register(f)
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	filters, err := p.filter.filters()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withPortfolio(ctx, func(pf *portfolio.Portfolio) (bool, error) {
		transactions := pf.Transactions(filters...)
		if p.head > 0 && len(transactions) > p.head {
			transactions = transactions[:p.head]
		}
		if p.tail > 0 && len(transactions) > p.tail {
			transactions = transactions[len(transactions)-p.tail:]
		}
		printMarkdown(renderer.RenderTransactions(renderer.NewTransactionList(pf, transactions)))
		return false, nil
	})
}

// --- Tx Remove Command ---

type txRmCmd struct {
	id string
}

func (*txRmCmd) Name() string     { return "tx-rm" }
func (*txRmCmd) Synopsis() string { return "remove a transaction from the ledger" }
func (*txRmCmd) Usage() string {
	return `vpm tx-rm -id <transaction_id>

  Removes a transaction and replays the ledger. Its fee and realized gain or
  loss disappear with it. Later transactions that cannot be applied anymore
  stay in the ledger and are reported as rejected.
`
}

func (c *txRmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Transaction ID, as listed by 'vpm tx'")
}

func (c *txRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := uuid.Parse(c.id)
	if err != nil {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(p *portfolio.Portfolio) (bool, error) {
		if err := p.RemoveTransaction(id); err != nil {
			return false, err
		}
		for _, r := range p.Rejections() {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", r)
		}
		return true, nil
	})
}
