package portfolio

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the complete persisted content of a portfolio: what the user
// recorded (assets, wallets, transactions) and what the replay derived
// from it (positions, fees, gains, realized amounts).
type State struct {
	Name  string
	Quote string

	// WithdrawBasis and Transfers are the policies the derived content was
	// computed with.
	WithdrawBasis DisposalBasis
	Transfers     TransferPolicy

	Assets       []Asset
	Wallets      []string
	Transactions []Transaction
	Realized     map[uuid.UUID]Money
	Positions    map[string][]Position
	Fees         []FeeEntry
	Gains        []GainLossEntry
}

// State returns a snapshot of the portfolio.
func (p *Portfolio) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := State{
		Name:          p.name,
		Quote:         p.quote,
		WithdrawBasis: p.withdrawBasis,
		Transfers:     p.transfers,
		Wallets:       append([]string(nil), p.wallets...),
		Realized:      make(map[uuid.UUID]Money),
		Positions:     make(map[string][]Position),
	}
	for a := range p.assets.All() {
		s.Assets = append(s.Assets, a)
	}
	for _, tx := range p.ledger.Transactions() {
		s.Transactions = append(s.Transactions, tx.clone())
		if m, ok := p.projection.Realized(tx.ID); ok {
			s.Realized[tx.ID] = m
		}
	}
	for _, name := range p.wallets {
		s.Positions[name] = p.projection.wallets[name].Positions()
	}
	s.Fees = append(s.Fees, p.projection.fees.entries...)
	s.Gains = append(s.Gains, p.projection.gains.entries...)
	return s
}

// Restore rebuilds a portfolio from a snapshot. The transactions are
// replayed with the policies of s and the derived content of s must match
// the replay, otherwise the error wraps ErrCorrupt. A policy given
// explicitly in opts then wins: the ledger is replayed again under it.
func Restore(s State, opts ...Option) (*Portfolio, error) {
	if err := ValidateCurrency(s.Quote); err != nil {
		return nil, fmt.Errorf("invalid quote: %w", err)
	}
	p := New(s.Name, append(append([]Option(nil), opts...), WithQuote(s.Quote))...)
	basis, transfers := p.withdrawBasis, p.transfers
	p.withdrawBasis, p.transfers = s.WithdrawBasis, s.Transfers

	for _, a := range s.Assets {
		if a.Name == s.Quote {
			continue
		}
		if err := p.assets.Add(a.Name, a.Price); err != nil {
			return nil, err
		}
	}
	seen := make(map[string]bool)
	for _, w := range s.Wallets {
		if seen[w] {
			return nil, fmt.Errorf("%q: %w", w, ErrDuplicateWallet)
		}
		seen[w] = true
		p.wallets = append(p.wallets, w)
	}
	for i := range s.Transactions {
		tx := s.Transactions[i]
		if err := tx.validate(); err != nil {
			return nil, fmt.Errorf("%w: transaction %s: %w", ErrCorrupt, tx.ID, err)
		}
		for _, w := range tx.Wallets() {
			if !seen[w] {
				return nil, fmt.Errorf("transaction %s: %q: %w", tx.ID, w, ErrWalletNotFound)
			}
		}
		if err := p.ledger.Add(&tx); err != nil {
			return nil, err
		}
	}
	p.projection = p.project(p.ledger)

	if err := p.verify(s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if (p.basisSet && basis != s.WithdrawBasis) || (p.transfersSet && transfers != s.Transfers) {
		if p.basisSet {
			p.withdrawBasis = basis
		}
		if p.transfersSet {
			p.transfers = transfers
		}
		p.logger.Info("replaying ledger under new policies",
			zap.Stringer("withdrawBasis", p.withdrawBasis),
			zap.Stringer("internalTransfers", p.transfers))
		p.projection = p.project(p.ledger)
	}
	return p, nil
}

// verify compares the derived content of s with the current projection.
func (p *Portfolio) verify(s State) error {
	var errs error
	proj := p.projection
	for _, name := range p.wallets {
		got := proj.wallets[name].positions
		want := s.Positions[name]
		if len(got) != len(want) {
			errs = errors.Join(errs, fmt.Errorf("wallet %q: %d positions stored, %d replayed", name, len(want), len(got)))
			continue
		}
		for i := range got {
			if !samePosition(got[i], want[i]) {
				errs = errors.Join(errs, fmt.Errorf("wallet %q: position %s differs from replay", name, want[i].Asset))
			}
		}
	}
	for name := range s.Positions {
		if _, ok := proj.wallets[name]; !ok {
			errs = errors.Join(errs, fmt.Errorf("positions stored for unknown wallet %q", name))
		}
	}

	if len(s.Fees) != proj.fees.Len() {
		errs = errors.Join(errs, fmt.Errorf("%d fees stored, %d replayed", len(s.Fees), proj.fees.Len()))
	} else {
		for i, f := range proj.fees.entries {
			if !sameFee(f, s.Fees[i]) {
				errs = errors.Join(errs, fmt.Errorf("fee %s differs from replay", s.Fees[i].ID))
			}
		}
	}

	if len(s.Gains) != proj.gains.Len() {
		errs = errors.Join(errs, fmt.Errorf("%d gains stored, %d replayed", len(s.Gains), proj.gains.Len()))
	} else {
		for i, g := range proj.gains.entries {
			if !sameGain(g, s.Gains[i]) {
				errs = errors.Join(errs, fmt.Errorf("gain %s differs from replay", s.Gains[i].ID))
			}
		}
	}

	for _, tx := range p.ledger.transactions {
		got, applied := proj.realized[tx.ID]
		want, stored := s.Realized[tx.ID]
		if applied != stored || (applied && !got.Decimal().Equal(want.Decimal())) {
			errs = errors.Join(errs, fmt.Errorf("transaction %s: realized amount differs from replay", tx.ID))
		}
	}
	return errs
}

func samePosition(a, b Position) bool {
	return a.ID == b.ID && a.Asset == b.Asset && a.Opened == b.Opened &&
		a.Quantity.Equal(b.Quantity) &&
		a.CostBasis.Decimal().Equal(b.CostBasis.Decimal()) &&
		a.OpenPrice.Decimal().Equal(b.OpenPrice.Decimal())
}

func sameFee(a, b FeeEntry) bool {
	return a.ID == b.ID && a.TxID == b.TxID && a.At == b.At && a.Asset == b.Asset &&
		a.Quantity.Equal(b.Quantity) && a.Amount.Decimal().Equal(b.Amount.Decimal())
}

func sameGain(a, b GainLossEntry) bool {
	return a.ID == b.ID && a.TxID == b.TxID && a.At == b.At && a.Wallet == b.Wallet && a.Asset == b.Asset &&
		a.Quantity.Equal(b.Quantity) &&
		a.Proceeds.Decimal().Equal(b.Proceeds.Decimal()) &&
		a.CostBasis.Decimal().Equal(b.CostBasis.Decimal()) &&
		a.Amount.Decimal().Equal(b.Amount.Decimal())
}
