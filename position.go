package portfolio

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/venturetk/VenturePortfolio/date"
)

// Position is a quantity of one asset held in a wallet, with its cost basis.
//
// OpenPrice and Opened are those of the first acquisition: merging later
// acquisitions into the position does not change them.
type Position struct {
	ID        uuid.UUID
	Asset     string
	Quantity  Quantity
	CostBasis Money
	OpenPrice Money
	Opened    date.Stamp
}

// MarketValue returns the quantity valued at the open price.
func (p Position) MarketValue() Money { return p.OpenPrice.Mul(p.Quantity) }

// CostPerUnit returns the average cost of one unit, zero for an empty position.
func (p Position) CostPerUnit() Money {
	if p.Quantity.IsZero() {
		return M(0, p.CostBasis.Currency())
	}
	return p.CostBasis.Div(p.Quantity)
}

// Dispose takes q units out of the position.
//
// It returns the cost basis reduction computed with basis, the remaining
// position and whether the position is depleted. Disposing of the whole
// quantity always reduces the cost basis to zero.
func (p Position) Dispose(q Quantity, basis DisposalBasis) (reduction Money, rest Position, depleted bool, err error) {
	if !q.IsPositive() {
		return Money{}, p, false, fmt.Errorf("dispose %s %s: %w", q, p.Asset, ErrInvalidQuantity)
	}
	if q.GreaterThan(p.Quantity) {
		return Money{}, p, false, fmt.Errorf("dispose %s %s, have %s: %w", q, p.Asset, p.Quantity, ErrInsufficientBalance)
	}

	switch basis {
	case AverageCost:
		if q.Equal(p.Quantity) {
			reduction = p.CostBasis
		} else {
			reduction = M(p.CostBasis.Decimal().Mul(q.Decimal()).Div(p.Quantity.Decimal()), p.CostBasis.Currency())
		}
	case OpenPrice:
		reduction = p.OpenPrice.Mul(q)
	default:
		return Money{}, p, false, fmt.Errorf("unsupported disposal basis %v", basis)
	}

	rest = p
	rest.Quantity = p.Quantity.Sub(q)
	if rest.Quantity.IsZero() {
		rest.CostBasis = M(0, p.CostBasis.Currency())
		return reduction, rest, true, nil
	}
	rest.CostBasis = p.CostBasis.Sub(reduction)
	return reduction, rest, false, nil
}

// merge adds an acquisition to the position.
func (p Position) merge(q Quantity, cost Money) Position {
	p.Quantity = p.Quantity.Add(q)
	p.CostBasis = p.CostBasis.Add(cost)
	return p
}
