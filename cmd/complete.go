package cmd

import (
	"context"
	"flag"
	"strings"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/docs"
)

// Completion returns the shell completion tree of the registered
// subcommands. Wallet and asset flags are completed from the configured
// portfolio.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub: make(map[string]*complete.Command),
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"raw":    predict.Nothing,
		},
	}
	for _, g := range Commands {
		for _, c := range g.Commands {
			fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(fs)
			sub := &complete.Command{Flags: make(map[string]complete.Predictor)}
			fs.VisitAll(func(f *flag.Flag) {
				sub.Flags[f.Name] = predictFlag(f)
			})
			root.Sub[c.Name()] = sub
		}
	}
	if topics, err := docs.GetAllTopics(); err == nil {
		root.Sub["topic"].Args = predict.Set(append(topics, "readme"))
	}
	return root
}

func predictFlag(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch f.Name {
	case "w", "from", "to":
		return complete.PredictFunc(walletNames)
	case "a", "sa", "ra", "fa":
		return complete.PredictFunc(assetNames)
	case "by":
		return predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly"}
	case "t":
		return predict.Set{
			string(portfolio.TxDeposit),
			string(portfolio.TxWithdraw),
			string(portfolio.TxOrder),
			string(portfolio.TxInternal),
		}
	}
	return predict.Something
}

// loadQuietly loads the configured portfolio, nil on any error.
func loadQuietly() *portfolio.Portfolio {
	a, err := openApp()
	if err != nil {
		return nil
	}
	defer a.shutdown()
	p, err := a.load(context.Background())
	if err != nil {
		return nil
	}
	return p
}

func walletNames(prefix string) []string {
	p := loadQuietly()
	if p == nil {
		return nil
	}
	var names []string
	for _, w := range p.Wallets() {
		if strings.HasPrefix(w.Name, prefix) {
			names = append(names, w.Name)
		}
	}
	return names
}

func assetNames(prefix string) []string {
	p := loadQuietly()
	if p == nil {
		return nil
	}
	var names []string
	for _, a := range p.Assets() {
		if strings.HasPrefix(a.Name, prefix) {
			names = append(names, a.Name)
		}
	}
	return names
}
