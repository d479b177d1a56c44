package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/venturetk/VenturePortfolio/date"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// dec is a helper for test to create an exact decimal from a string.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// at is a helper for test to create a stamp from "YYYY-MM-DD HH:MM".
func at(s string) date.Stamp { return date.MustParseStamp(s) }

// fixedClock returns a clock always answering t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// newTestPortfolio creates a portfolio with asset X priced 100, asset Y priced 10,
// and the wallets "main" and "cold".
func newTestPortfolio(t *testing.T, opts ...Option) *Portfolio {
	t.Helper()
	p := New("test", opts...)
	require.NoError(t, p.AddAsset("X", dec("100")))
	require.NoError(t, p.AddAsset("Y", dec("10")))
	require.NoError(t, p.AddWallet("main"))
	require.NoError(t, p.AddWallet("cold"))
	return p
}

// mustAdd adds a transaction request and fails the test on error.
func mustAdd(t *testing.T, p *Portfolio, req Request) {
	t.Helper()
	_, err := p.AddTransaction(req)
	require.NoError(t, err)
}

// position returns the position of asset in wallet, failing the test if missing.
func position(t *testing.T, p *Portfolio, wallet, asset string) Position {
	t.Helper()
	positions, err := p.Positions(wallet)
	require.NoError(t, err)
	for _, pos := range positions {
		if pos.Asset == asset {
			return pos
		}
	}
	t.Fatalf("no %s position in %s", asset, wallet)
	return Position{}
}

// assertDecimal checks two decimals are equal within 1e-9.
func assertDecimal(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	if got.Sub(want).Abs().GreaterThan(dec("0.000000001")) {
		t.Errorf("got %s, want %s", got, want)
	}
}
