package portfolio

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Disposal is what an effect took out of a wallet.
type Disposal struct {
	Wallet    string
	Asset     string
	Quantity  Quantity
	CostBasis Money // cost basis removed from the position
}

// GainHook is called after every successful effect with the disposals it
// made. It returns the realized gain/loss entries of the transaction.
type GainHook func(tx *Transaction, disposals []Disposal) []GainLossEntry

// RealizeOrders is the default GainHook: an order realizes the difference
// between the value of the sent leg and the cost basis it removed. Other
// transaction types realize nothing.
func RealizeOrders(tx *Transaction, disposals []Disposal) []GainLossEntry {
	if tx.Type != TxOrder || len(disposals) == 0 {
		return nil
	}
	d := disposals[0]
	proceeds := tx.Sent.Total
	amount := proceeds.Sub(d.CostBasis)
	if amount.IsZero() {
		return nil
	}
	return []GainLossEntry{{
		ID:        entryID(tx.ID, "gain"),
		TxID:      tx.ID,
		At:        tx.At,
		Wallet:    d.Wallet,
		Asset:     d.Asset,
		Quantity:  d.Quantity,
		Proceeds:  proceeds,
		CostBasis: d.CostBasis,
		Amount:    amount,
	}}
}

// Rejection is a transaction whose effect could not be applied during a replay.
type Rejection struct {
	TxID uuid.UUID
	Type TxType
	Err  error
}

func (r Rejection) Error() string { return fmt.Sprintf("%s %s: %v", r.Type, r.TxID, r.Err) }

// ProjectOptions tune how effects are applied.
type ProjectOptions struct {
	Quote         string
	WithdrawBasis DisposalBasis
	Transfers     TransferPolicy
	GainHook      GainHook
	Logger        *zap.Logger
}

// Projection is the state derived from replaying a ledger.
type Projection struct {
	quote      string
	order      []string
	wallets    map[string]*Wallet
	fees       FeeLedger
	gains      GainLossLedger
	realized   map[uuid.UUID]Money
	rejections []Rejection
}

// Project replays every transaction of the ledger, in chronological order,
// into empty wallets named after wallets. It never fails: effects that cannot
// be applied are recorded as rejections and leave the state untouched.
func Project(ledger *Ledger, wallets []string, opts ProjectOptions) *Projection {
	if opts.GainHook == nil {
		opts.GainHook = RealizeOrders
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	p := &Projection{
		quote:    opts.Quote,
		order:    append([]string(nil), wallets...),
		wallets:  make(map[string]*Wallet, len(wallets)),
		realized: make(map[uuid.UUID]Money),
	}
	for _, name := range wallets {
		p.wallets[name] = newWallet(name)
	}

	for _, tx := range ledger.Transactions() {
		if tx.Fee != nil {
			p.fees.Append(FeeEntry{
				ID:       entryID(tx.ID, "fee"),
				TxID:     tx.ID,
				At:       tx.At,
				Asset:    tx.Fee.Asset,
				Quantity: tx.Fee.Quantity,
				Amount:   tx.Fee.Total,
			})
		}

		disposals, err := p.apply(tx, opts)
		if err != nil {
			p.rejections = append(p.rejections, Rejection{TxID: tx.ID, Type: tx.Type, Err: err})
			opts.Logger.Warn("transaction rejected", zap.String("tx", tx.ID.String()), zap.String("type", string(tx.Type)), zap.Error(err))
			continue
		}

		realized := M(0, p.quote)
		for _, e := range opts.GainHook(tx, disposals) {
			p.gains.Append(e)
			realized = realized.Add(e.Amount)
		}
		p.realized[tx.ID] = realized
	}
	opts.Logger.Debug("ledger projected",
		zap.Int("transactions", ledger.Len()),
		zap.Int("rejections", len(p.rejections)),
		zap.Int("fees", p.fees.Len()),
		zap.Int("gains", p.gains.Len()))
	return p
}

func (p *Projection) wallet(name string) (*Wallet, error) {
	w, ok := p.wallets[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrWalletNotFound)
	}
	return w, nil
}

// apply applies the effect of one transaction. On error nothing was changed.
func (p *Projection) apply(tx *Transaction, opts ProjectOptions) ([]Disposal, error) {
	switch tx.Type {
	case TxDeposit:
		w, err := p.wallet(tx.Destination)
		if err != nil {
			return nil, err
		}
		r := tx.Received
		w.credit(positionID(tx.ID, w.Name, r.Asset), r.Asset, r.Quantity, r.Total, r.Price, tx.At)
		return nil, nil

	case TxWithdraw:
		w, err := p.wallet(tx.Origin)
		if err != nil {
			return nil, err
		}
		s := tx.Sent
		reduction, err := w.debit(s.Asset, s.Quantity, opts.WithdrawBasis)
		if err != nil {
			return nil, err
		}
		return []Disposal{{Wallet: w.Name, Asset: s.Asset, Quantity: s.Quantity, CostBasis: reduction}}, nil

	case TxOrder:
		w, err := p.wallet(tx.Origin)
		if err != nil {
			return nil, err
		}
		s, r := tx.Sent, tx.Received
		reduction, err := w.debit(s.Asset, s.Quantity, AverageCost)
		if err != nil {
			return nil, err
		}
		w.credit(positionID(tx.ID, w.Name, r.Asset), r.Asset, r.Quantity, r.Total, r.Price, tx.At)
		return []Disposal{{Wallet: w.Name, Asset: s.Asset, Quantity: s.Quantity, CostBasis: reduction}}, nil

	case TxInternal:
		if opts.Transfers == TransferIgnore {
			opts.Logger.Info("internal transfer recorded without wallet changes", zap.String("tx", tx.ID.String()))
			return nil, nil
		}
		from, err := p.wallet(tx.Origin)
		if err != nil {
			return nil, err
		}
		to, err := p.wallet(tx.Destination)
		if err != nil {
			return nil, err
		}
		s := tx.Sent
		held, _ := from.Position(s.Asset)
		reduction, err := from.debit(s.Asset, s.Quantity, AverageCost)
		if err != nil {
			return nil, err
		}
		to.credit(positionID(tx.ID, to.Name, s.Asset), s.Asset, s.Quantity, reduction, held.OpenPrice, held.Opened)
		return []Disposal{{Wallet: from.Name, Asset: s.Asset, Quantity: s.Quantity, CostBasis: reduction}}, nil
	}
	return nil, fmt.Errorf("unsupported transaction type %q", tx.Type)
}

// Wallet returns the projected wallet named name.
func (p *Projection) Wallet(name string) (*Wallet, bool) {
	w, ok := p.wallets[name]
	if !ok {
		return nil, false
	}
	return w.clone(), true
}

// Wallets returns copies of all projected wallets in registration order.
func (p *Projection) Wallets() []*Wallet {
	ws := make([]*Wallet, 0, len(p.order))
	for _, name := range p.order {
		ws = append(ws, p.wallets[name].clone())
	}
	return ws
}

// Fees returns a copy of the fee ledger.
func (p *Projection) Fees() *FeeLedger {
	return &FeeLedger{entries: append([]FeeEntry(nil), p.fees.entries...)}
}

// Gains returns a copy of the gain/loss ledger.
func (p *Projection) Gains() *GainLossLedger {
	return &GainLossLedger{entries: append([]GainLossEntry(nil), p.gains.entries...)}
}

// Realized returns the gain/loss realized by a transaction. The boolean is
// false when the transaction was not applied.
func (p *Projection) Realized(id uuid.UUID) (Money, bool) {
	m, ok := p.realized[id]
	return m, ok
}

// Rejections returns the transactions that could not be applied, in ledger order.
func (p *Projection) Rejections() []Rejection {
	return append([]Rejection(nil), p.rejections...)
}

// rejected reports whether the transaction was rejected.
func (p *Projection) rejected(id uuid.UUID) bool {
	for _, r := range p.rejections {
		if r.TxID == id {
			return true
		}
	}
	return false
}

func entryID(tx uuid.UUID, kind string) uuid.UUID {
	return uuid.NewSHA1(tx, []byte(kind))
}

func positionID(tx uuid.UUID, wallet, asset string) uuid.UUID {
	return uuid.NewSHA1(tx, []byte("position/"+wallet+"/"+asset))
}
