package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// Quantity is a number of units of an asset.
type Quantity struct {
	value decimal.Decimal
}

// Q returns a Quantity.
func Q[T float64 | int | int64 | decimal.Decimal](value T) Quantity {
	return Quantity{value: newDecimal(value)}
}

// ParseQuantity parses a decimal string into a Quantity.
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return Quantity{value: d}, nil
}

func (q Quantity) Decimal() decimal.Decimal             { return q.value }
func (q Quantity) Equal(p Quantity) bool                { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool             { return q.value.LessThan(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool          { return q.value.GreaterThan(p.value) }
func (q Quantity) Add(p Quantity) Quantity              { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity              { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) IsNegative() bool                     { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool                     { return q.value.IsPositive() }
func (q Quantity) IsZero() bool                         { return q.value.IsZero() }
func (q Quantity) String() string                       { return q.value.String() }
func (q Quantity) MarshalJSON() ([]byte, error)         { return q.value.MarshalJSON() }
func (q *Quantity) UnmarshalJSON(decimalBytes []byte) error { return q.value.UnmarshalJSON(decimalBytes) }
