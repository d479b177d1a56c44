package portfolio

import (
	"slices"

	"github.com/google/uuid"
	"github.com/venturetk/VenturePortfolio/date"
)

// Wallet is a named container of positions. It holds at most one position per asset.
//
// Wallet state is only ever built by a projection; callers get copies.
type Wallet struct {
	Name      string
	positions []Position
}

func newWallet(name string) *Wallet { return &Wallet{Name: name} }

// Position returns the position of asset, if any.
func (w *Wallet) Position(asset string) (Position, bool) {
	if i := w.index(asset); i >= 0 {
		return w.positions[i], true
	}
	return Position{}, false
}

// Positions returns a copy of the wallet positions in opening order.
func (w *Wallet) Positions() []Position { return slices.Clone(w.positions) }

// Len returns the number of open positions.
func (w *Wallet) Len() int { return len(w.positions) }

func (w *Wallet) index(asset string) int {
	return slices.IndexFunc(w.positions, func(p Position) bool { return p.Asset == asset })
}

// credit adds q units of asset costing cost. An existing position of the
// same asset absorbs the credit, otherwise a new position is opened.
func (w *Wallet) credit(id uuid.UUID, asset string, q Quantity, cost, openPrice Money, at date.Stamp) {
	if i := w.index(asset); i >= 0 {
		w.positions[i] = w.positions[i].merge(q, cost)
		return
	}
	w.positions = append(w.positions, Position{
		ID:        id,
		Asset:     asset,
		Quantity:  q,
		CostBasis: cost,
		OpenPrice: openPrice,
		Opened:    at,
	})
}

// debit disposes of q units of asset. Nothing changes on error.
func (w *Wallet) debit(asset string, q Quantity, basis DisposalBasis) (Money, error) {
	i := w.index(asset)
	if i < 0 {
		_, _, _, err := Position{Asset: asset}.Dispose(q, basis)
		return Money{}, err
	}
	reduction, rest, depleted, err := w.positions[i].Dispose(q, basis)
	if err != nil {
		return Money{}, err
	}
	if depleted {
		w.positions = slices.Delete(w.positions, i, i+1)
	} else {
		w.positions[i] = rest
	}
	return reduction, nil
}

func (w *Wallet) clone() *Wallet {
	return &Wallet{Name: w.Name, positions: slices.Clone(w.positions)}
}
