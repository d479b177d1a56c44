// Package cmd implements the vpm CLI application to manage a portfolio.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/config"
	"github.com/venturetk/VenturePortfolio/metrics"
	"github.com/venturetk/VenturePortfolio/sqlite"
	"go.uber.org/zap"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "vpm.yaml", "Path to the YAML configuration file")
var rawOutput = flag.Bool("raw", false, "Print reports as raw markdown instead of rendering them for the terminal")

// stdout receives the reports.
var stdout io.Writer = os.Stdout

// Commands lists the vpm subcommands by group.
var Commands = []struct {
	Group    string
	Commands []subcommands.Command
}{
	{"portfolio", []subcommands.Command{&initCmd{}}},
	{"assets", []subcommands.Command{&assetAddCmd{}, &assetRmCmd{}, &assetPriceCmd{}, &assetsCmd{}}},
	{"wallets", []subcommands.Command{&walletAddCmd{}, &walletRmCmd{}, &walletsCmd{}, &positionsCmd{}}},
	{"transactions", []subcommands.Command{&depositCmd{}, &withdrawCmd{}, &orderCmd{}, &internalCmd{}, &txCmd{}, &txRmCmd{}}},
	{"reports", []subcommands.Command{&feesCmd{}, &gainsCmd{}}},
	{"help", []subcommands.Command{&topicCmd{}}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range Commands {
		for _, cmd := range g.Commands {
			c.Register(cmd, g.Group)
		}
	}
}

// app holds what a command needs to load and save the portfolio.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	store   portfolio.Persistence
	close   func() error
}

// openApp loads the configuration and opens the configured store.
func openApp() (*app, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, fmt.Errorf("could not build logger: %w", err)
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRegistry(),
		close:   func() error { return nil },
	}

	switch cfg.Store {
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.Portfolio)
		if err != nil {
			return nil, err
		}
		a.store = sqlite.NewStore(db, logger, a.options()...)
		a.close = db.Close
	default:
		a.store = portfolio.NewFileStore(cfg.Portfolio, a.options()...)
	}
	return a, nil
}

// options returns the options of every portfolio the app loads or creates.
func (a *app) options() []portfolio.Option {
	opts := append(a.cfg.Options(),
		portfolio.WithLogger(a.logger),
		portfolio.WithMetrics(a.metrics),
	)
	if q := a.cfg.Quotes; q.File != "" {
		oracle := portfolio.PriceOracle(portfolio.NewQuoteFileOracle(q.File, q.Path))
		if q.TTL > 0 {
			oracle = portfolio.NewCachedOracle(oracle, q.TTL)
		}
		opts = append(opts, portfolio.WithOracle(oracle))
	}
	return opts
}

// errNoPortfolio reports a store that was never initialized.
var errNoPortfolio = errors.New("no portfolio found, run 'vpm init' first")

// load reads the portfolio from the store.
func (a *app) load(ctx context.Context) (*portfolio.Portfolio, error) {
	p, err := a.store.Load(ctx)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, sqlite.ErrEmpty) {
		return nil, fmt.Errorf("%s: %w", a.cfg.Portfolio, errNoPortfolio)
	}
	return p, err
}

// save writes p to the store, then the metrics file if one is configured.
func (a *app) save(ctx context.Context, p *portfolio.Portfolio) error {
	if err := a.store.Save(ctx, p); err != nil {
		return fmt.Errorf("could not save portfolio: %w", err)
	}
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
			a.logger.Warn("could not write metrics", zap.String("file", a.cfg.MetricsFile), zap.Error(err))
		}
	}
	return nil
}

func (a *app) shutdown() {
	if err := a.close(); err != nil {
		a.logger.Warn("could not close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withPortfolio loads the portfolio, runs f on it and saves it back when f
// reports a change. Errors are printed on stderr.
func withPortfolio(ctx context.Context, f func(p *portfolio.Portfolio) (changed bool, err error)) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.shutdown()

	p, err := a.load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	changed, err := f(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if changed {
		if err := a.save(ctx, p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, or prints it raw with -raw.
func printMarkdown(md string) {
	if *rawOutput {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// Known reports whether name is a vpm subcommand.
func Known(name string) bool {
	for _, g := range Commands {
		for _, c := range g.Commands {
			if c.Name() == name {
				return true
			}
		}
	}
	return false
}
