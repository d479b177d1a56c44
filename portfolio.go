package portfolio

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venturetk/VenturePortfolio/date"
	"github.com/venturetk/VenturePortfolio/metrics"
	"go.uber.org/zap"
)

// DefaultQuote is the quote asset of a portfolio created without WithQuote.
const DefaultQuote = "USD"

// Portfolio owns the asset registry, the wallets and the ledger, and keeps
// the projection of the ledger up to date.
//
// Every mutation is serialized and swaps in a freshly built projection, so
// readers never observe a partially applied ledger.
type Portfolio struct {
	mu sync.RWMutex

	name       string
	quote      string
	assets     *Assets
	wallets    []string
	ledger     *Ledger
	projection *Projection

	oracle        PriceOracle
	logger        *zap.Logger
	metrics       *metrics.Metrics
	withdrawBasis DisposalBasis
	transfers     TransferPolicy
	basisSet      bool // withdrawBasis was given as an option
	transfersSet  bool // transfers was given as an option
	gainHook      GainHook
	now           func() time.Time
}

// Option configures a Portfolio.
type Option func(*Portfolio)

// WithQuote sets the quote asset, the currency every price is expressed in.
func WithQuote(code string) Option { return func(p *Portfolio) { p.quote = code } }

// WithOracle sets the oracle pricing legs built without an explicit price.
func WithOracle(o PriceOracle) Option { return func(p *Portfolio) { p.oracle = o } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(p *Portfolio) { p.logger = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option { return func(p *Portfolio) { p.metrics = m } }

// WithWithdrawBasis sets how withdrawals reduce the cost basis. Default is OpenPrice.
func WithWithdrawBasis(b DisposalBasis) Option {
	return func(p *Portfolio) { p.withdrawBasis, p.basisSet = b, true }
}

// WithTransferPolicy sets what internal transfers do to wallets. Default is TransferIgnore.
func WithTransferPolicy(t TransferPolicy) Option {
	return func(p *Portfolio) { p.transfers, p.transfersSet = t, true }
}

// WithGainHook replaces RealizeOrders.
func WithGainHook(h GainHook) Option { return func(p *Portfolio) { p.gainHook = h } }

// WithClock sets the clock used to stamp requests without a date.
func WithClock(now func() time.Time) Option { return func(p *Portfolio) { p.now = now } }

// New creates an empty portfolio holding only its quote asset.
func New(name string, opts ...Option) *Portfolio {
	p := &Portfolio{
		name:          name,
		quote:         DefaultQuote,
		ledger:        NewLedger(),
		logger:        zap.NewNop(),
		withdrawBasis: OpenPrice,
		transfers:     TransferIgnore,
		gainHook:      RealizeOrders,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.assets = NewAssets(p.quote)
	if p.oracle == nil {
		p.oracle = NewRegistryOracle(p.assets)
	}
	p.projection = p.project(p.ledger)
	return p
}

// Name returns the portfolio name.
func (p *Portfolio) Name() string { return p.name }

// Quote returns the quote asset name.
func (p *Portfolio) Quote() string { return p.quote }

// project replays l with the portfolio settings.
func (p *Portfolio) project(l *Ledger) *Projection {
	start := time.Now()
	proj := Project(l, p.wallets, ProjectOptions{
		Quote:         p.quote,
		WithdrawBasis: p.withdrawBasis,
		Transfers:     p.transfers,
		GainHook:      p.gainHook,
		Logger:        p.logger,
	})
	var rejected []string
	for _, r := range proj.rejections {
		rejected = append(rejected, string(r.Type))
	}
	p.metrics.ObserveProjection(time.Since(start), l.Len(), rejected)
	return proj
}

// AddTransaction validates a request, prices its legs, records the
// transaction in the ledger and replays it.
//
// A request that the replay cannot apply, or that makes a later transaction
// inapplicable, is refused with a *ValidationError and nothing changes.
func (p *Portfolio) AddTransaction(req Request) (uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx, err := p.build(req)
	if err != nil {
		p.metrics.ObserveRefused(string(req.Type))
		return uuid.Nil, &ValidationError{Type: req.Type, Err: err}
	}

	trial := p.ledger.clone()
	if err := trial.Add(tx); err != nil {
		return uuid.Nil, &ValidationError{Type: req.Type, Err: err}
	}
	proj := p.project(trial)
	for _, r := range proj.rejections {
		if p.projection.rejected(r.TxID) {
			continue
		}
		p.metrics.ObserveRefused(string(req.Type))
		if r.TxID == tx.ID {
			return uuid.Nil, &ValidationError{Type: req.Type, Err: r.Err}
		}
		return uuid.Nil, &ValidationError{Type: req.Type, Err: fmt.Errorf("would invalidate %s transaction %s: %w", r.Type, r.TxID, r.Err)}
	}

	p.ledger, p.projection = trial, proj
	p.logger.Info("transaction added", zap.String("tx", tx.ID.String()), zap.String("type", string(tx.Type)), zap.Stringer("at", tx.At))
	return tx.ID, nil
}

// build turns a request into a priced, immutable transaction.
func (p *Portfolio) build(req Request) (*Transaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	for _, w := range []string{req.Origin, req.Destination} {
		if w != "" && !slices.Contains(p.wallets, w) {
			return nil, fmt.Errorf("%q: %w", w, ErrWalletNotFound)
		}
	}

	tx := &Transaction{
		ID:    uuid.New(),
		Type:  req.Type,
		At:    req.At,
		Class: strings.TrimSpace(req.Class),
	}
	if tx.At.IsZero() {
		tx.At = date.StampOf(p.now())
	}

	var err error
	if tx.Fee, err = p.price(req.Fee); err != nil {
		return nil, fmt.Errorf("fee: %w", err)
	}
	switch req.Type {
	case TxDeposit:
		tx.Destination = req.Destination
		tx.Received, err = p.price(req.Received)
	case TxWithdraw:
		tx.Origin = req.Origin
		tx.Sent, err = p.price(req.Sent)
	case TxOrder:
		tx.Origin, tx.Destination = req.Origin, req.Origin
		if tx.Sent, err = p.price(req.Sent); err != nil {
			break
		}
		tx.Received, err = p.price(req.Received)
	case TxInternal:
		tx.Origin, tx.Destination = req.Origin, req.Destination
		tx.Sent, err = p.price(req.Sent)
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// price resolves the unit price of a leg: the quote asset is worth 1, an
// explicit price is kept, anything else asks the oracle.
func (p *Portfolio) price(l *LegRequest) (*Leg, error) {
	if l == nil {
		return nil, nil
	}
	if _, ok := p.assets.Get(l.Asset); !ok {
		return nil, fmt.Errorf("%q: %w", l.Asset, ErrAssetNotFound)
	}
	var price decimal.Decimal
	switch {
	case l.Asset == p.quote:
		price = decimal.NewFromInt(1)
	case l.Price != nil:
		price = *l.Price
	default:
		var err error
		if price, err = p.oracle.PriceOf(l.Asset); err != nil {
			return nil, fmt.Errorf("cannot price %q: %w", l.Asset, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%q priced %s: %w", l.Asset, price, ErrInvalidPrice)
		}
	}
	return newLeg(l.Asset, l.Quantity, M(price, p.quote)), nil
}

// RemoveTransaction removes a transaction from the ledger and replays it.
// Later transactions that cannot be applied anymore stay in the ledger and
// are reported by Rejections.
func (p *Portfolio) RemoveTransaction(id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	trial := p.ledger.clone()
	if err := trial.Remove(id); err != nil {
		return err
	}
	p.ledger, p.projection = trial, p.project(trial)
	p.logger.Info("transaction removed", zap.String("tx", id.String()))
	return nil
}

// Positions returns copies of the positions held in wallet.
func (p *Portfolio) Positions(wallet string) ([]Position, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	w, ok := p.projection.Wallet(wallet)
	if !ok {
		return nil, fmt.Errorf("%q: %w", wallet, ErrWalletNotFound)
	}
	return w.Positions(), nil
}

// AddAsset registers an asset with its reference price.
func (p *Portfolio) AddAsset(name string, price decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assets.Add(name, price)
}

// RemoveAsset unregisters an asset no transaction refers to.
func (p *Portfolio) RemoveAsset(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name != p.quote {
		for _, tx := range p.ledger.Transactions(ByAsset(name)) {
			return fmt.Errorf("asset %q used by transaction %s: %w", name, tx.ID, ErrInUse)
		}
	}
	return p.assets.Remove(name)
}

// SetPrice updates the reference price of an asset. Recorded transactions keep their prices.
func (p *Portfolio) SetPrice(name string, price decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assets.SetPrice(name, price)
}

// Asset returns the asset registered under name.
func (p *Portfolio) Asset(name string) (Asset, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.assets.Get(name)
}

// Assets returns all assets sorted by name.
func (p *Portfolio) Assets() []Asset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Collect(p.assets.All())
}

// AddWallet creates an empty wallet.
func (p *Portfolio) AddWallet(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("wallet name is missing")
	}
	if slices.Contains(p.wallets, name) {
		return fmt.Errorf("%q: %w", name, ErrDuplicateWallet)
	}
	p.wallets = append(p.wallets, name)
	p.projection = p.project(p.ledger)
	return nil
}

// RemoveWallet deletes a wallet no transaction refers to.
func (p *Portfolio) RemoveWallet(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := slices.Index(p.wallets, name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrWalletNotFound)
	}
	for _, tx := range p.ledger.Transactions(ByWallet(name)) {
		return fmt.Errorf("wallet %q used by transaction %s: %w", name, tx.ID, ErrInUse)
	}
	p.wallets = slices.Delete(p.wallets, i, i+1)
	p.projection = p.project(p.ledger)
	return nil
}

// Wallets returns copies of the projected wallets in creation order.
func (p *Portfolio) Wallets() []*Wallet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.projection.Wallets()
}

// Transactions returns the transactions accepted by every filter, in chronological order.
func (p *Portfolio) Transactions(filters ...func(*Transaction) bool) []Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var txs []Transaction
	for _, tx := range p.ledger.Transactions(filters...) {
		txs = append(txs, tx.clone())
	}
	return txs
}

// Transaction returns the transaction with this id.
func (p *Portfolio) Transaction(id uuid.UUID) (Transaction, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tx := p.ledger.Get(id)
	if tx == nil {
		return Transaction{}, fmt.Errorf("%s: %w", id, ErrTransactionNotFound)
	}
	return tx.clone(), nil
}

// Fees returns the fee ledger.
func (p *Portfolio) Fees() *FeeLedger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.projection.Fees()
}

// Gains returns the realized gain/loss ledger.
func (p *Portfolio) Gains() *GainLossLedger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.projection.Gains()
}

// Realized returns the gain/loss realized by a transaction.
func (p *Portfolio) Realized(id uuid.UUID) (Money, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.projection.Realized(id)
}

// Rejections returns the transactions of the ledger the replay could not apply.
func (p *Portfolio) Rejections() []Rejection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.projection.Rejections()
}
