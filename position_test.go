package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPosition() Position {
	return Position{
		Asset:     "X",
		Quantity:  Q(10),
		CostBasis: USD(1000),
		OpenPrice: USD(80),
		Opened:    at("2025-01-01 10:00"),
	}
}

func TestDisposeAverageCostKeepsCostPerUnit(t *testing.T) {
	testCases := []struct {
		qty      Quantity
		cost     Money
		sell     Quantity
		wantCost string
	}{
		{qty: Q(10), cost: USD(1000), sell: Q(4), wantCost: "600"},
		{qty: Q(3), cost: USD(100), sell: Q(1), wantCost: "66.6666666666666667"},
		{qty: Q(7.5), cost: USD(123.45), sell: Q(0.3), wantCost: "118.512"},
	}
	for _, tc := range testCases {
		t.Run(tc.sell.String(), func(t *testing.T) {
			p := testPosition()
			p.Quantity, p.CostBasis = tc.qty, tc.cost
			before := p.CostPerUnit()

			reduction, rest, depleted, err := p.Dispose(tc.sell, AverageCost)
			require.NoError(t, err)
			assert.False(t, depleted)
			assert.True(t, rest.Quantity.Equal(tc.qty.Sub(tc.sell)))
			assertDecimal(t, dec(tc.wantCost), rest.CostBasis.Decimal())
			assertDecimal(t, before.Decimal(), rest.CostPerUnit().Decimal())
			assertDecimal(t, tc.cost.Decimal(), rest.CostBasis.Add(reduction).Decimal())
		})
	}
}

func TestDisposeOpenPrice(t *testing.T) {
	reduction, rest, depleted, err := testPosition().Dispose(Q(4), OpenPrice)
	require.NoError(t, err)
	assert.False(t, depleted)
	assert.True(t, reduction.Equal(USD(320)))
	assert.True(t, rest.CostBasis.Equal(USD(680)))
	assert.True(t, rest.Quantity.Equal(Q(6)))
}

func TestDisposeAll(t *testing.T) {
	for _, basis := range []DisposalBasis{AverageCost, OpenPrice} {
		t.Run(basis.String(), func(t *testing.T) {
			_, rest, depleted, err := testPosition().Dispose(Q(10), basis)
			require.NoError(t, err)
			assert.True(t, depleted)
			assert.True(t, rest.Quantity.IsZero())
			assert.True(t, rest.CostBasis.IsZero())
		})
	}
}

func TestDisposeErrors(t *testing.T) {
	p := testPosition()
	_, rest, _, err := p.Dispose(Q(11), AverageCost)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, p, rest)

	_, _, _, err = p.Dispose(Q(0), AverageCost)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, _, err = p.Dispose(Q(-1), OpenPrice)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPositionValues(t *testing.T) {
	p := testPosition()
	assert.True(t, p.MarketValue().Equal(USD(800)))
	assert.True(t, p.CostPerUnit().Equal(USD(100)))

	p.Quantity = Q(0)
	assert.True(t, p.CostPerUnit().IsZero())
}

func TestParseDisposalBasis(t *testing.T) {
	for _, b := range []DisposalBasis{AverageCost, OpenPrice} {
		got, err := ParseDisposalBasis(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	_, err := ParseDisposalBasis("fifo")
	assert.Error(t, err)

	for _, tp := range []TransferPolicy{TransferIgnore, TransferMove} {
		got, err := ParseTransferPolicy(tp.String())
		require.NoError(t, err)
		assert.Equal(t, tp, got)
	}
}
