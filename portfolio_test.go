package portfolio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturetk/VenturePortfolio/date"
	"github.com/venturetk/VenturePortfolio/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewPortfolioHasQuoteAsset(t *testing.T) {
	p := New("p")
	assert.Equal(t, "USD", p.Quote())
	usd, ok := p.Asset("USD")
	require.True(t, ok)
	assert.True(t, usd.Price.Equal(decimal.NewFromInt(1)))

	eur := New("p", WithQuote("EUR"))
	_, ok = eur.Asset("EUR")
	assert.True(t, ok)
	_, ok = eur.Asset("USD")
	assert.False(t, ok)
}

func TestAddTransactionValidation(t *testing.T) {
	p := newTestPortfolio(t)

	testCases := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"unknown wallet", NewDeposit(at("2025-01-01 10:00"), "nope", L("X", Q(1))), ErrWalletNotFound},
		{"unknown asset", NewDeposit(at("2025-01-01 10:00"), "main", L("Z", Q(1))), ErrAssetNotFound},
		{"unknown fee asset", NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(1))).WithFee(L("Z", Q(1))), ErrAssetNotFound},
		{"zero quantity", NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(0))), ErrInvalidQuantity},
		{"negative quantity", NewWithdraw(at("2025-01-01 10:00"), "main", L("X", Q(-1))), ErrInvalidQuantity},
		{"negative price", NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(1)).At(dec("-1"))), ErrInvalidPrice},
		{"missing leg", Request{Type: TxOrder, Origin: "main", Sent: &LegRequest{Asset: "X", Quantity: Q(1)}}, ErrMissingLeg},
		{"deposit with a sent leg", Request{Type: TxDeposit, Destination: "main",
			Received: &LegRequest{Asset: "X", Quantity: Q(1)}, Sent: &LegRequest{Asset: "X", Quantity: Q(1)}}, ErrUnexpectedLeg},
		{"withdraw with a received leg", Request{Type: TxWithdraw, Origin: "main",
			Sent: &LegRequest{Asset: "X", Quantity: Q(1)}, Received: &LegRequest{Asset: "USD", Quantity: Q(1)}}, ErrUnexpectedLeg},
		{"withdraw with a destination", Request{Type: TxWithdraw, Origin: "main", Destination: "main",
			Sent: &LegRequest{Asset: "X", Quantity: Q(1)}}, ErrUnexpectedWallet},
		{"deposit with an origin", Request{Type: TxDeposit, Origin: "main", Destination: "main",
			Received: &LegRequest{Asset: "X", Quantity: Q(1)}}, ErrUnexpectedWallet},
		{"internal with a received leg", Request{Type: TxInternal, Origin: "main", Destination: "main",
			Sent: &LegRequest{Asset: "X", Quantity: Q(1)}, Received: &LegRequest{Asset: "X", Quantity: Q(1)}}, ErrUnexpectedLeg},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.AddTransaction(tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
	assert.Empty(t, p.Transactions())
}

func TestReadsDoNotExposeTheLedger(t *testing.T) {
	p := newTestPortfolio(t)
	id, err := p.AddTransaction(NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(10)).At(dec("100"))).
		WithFee(L("USD", Q(1))))
	require.NoError(t, err)

	txs := p.Transactions()
	require.Len(t, txs, 1)
	txs[0].Received.Quantity = Q(999)
	txs[0].Fee.Asset = "X"

	tx, err := p.Transaction(id)
	require.NoError(t, err)
	tx.Received.Price = USD(1)

	st := p.State()
	st.Transactions[0].Received.Total = USD(0)

	got, err := p.Transaction(id)
	require.NoError(t, err)
	assert.True(t, got.Received.Quantity.Equal(Q(10)))
	assert.Equal(t, "USD", got.Fee.Asset)
	assert.True(t, got.Received.Price.Equal(USD(100)))
	assert.True(t, got.Received.Total.Equal(USD(1000)))
	assert.True(t, position(t, p, "main", "X").Quantity.Equal(Q(10)))
}

func TestAddTransactionPricing(t *testing.T) {
	now := time.Date(2025, 3, 4, 15, 16, 17, 0, time.UTC)
	oracle := OracleFunc(func(asset string) (decimal.Decimal, error) {
		if asset == "Y" {
			return dec("12.5"), nil
		}
		return decimal.Zero, errors.New("no quote")
	})
	p := newTestPortfolio(t, WithOracle(oracle), WithClock(fixedClock(now)))

	id, err := p.AddTransaction(Request{
		Type:        TxDeposit,
		Destination: "main",
		Received:    &LegRequest{Asset: "Y", Quantity: Q(4)},
		Fee:         &LegRequest{Asset: "USD", Quantity: Q(2)},
		Class:       " airdrop ",
	})
	require.NoError(t, err)

	tx, err := p.Transaction(id)
	require.NoError(t, err)
	assert.Equal(t, date.StampOf(now), tx.At)
	assert.Equal(t, "airdrop", tx.Class)
	assert.True(t, tx.Received.Price.Equal(USD(12.5)))
	assert.True(t, tx.Received.Total.Equal(USD(50)))
	assert.True(t, tx.Fee.Price.Equal(USD(1)), "the quote asset is worth 1")

	// the reference price of X is not consulted when an oracle is set
	_, err = p.AddTransaction(NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(1))))
	assert.ErrorContains(t, err, "no quote")
}

func TestPricesAreSnapshots(t *testing.T) {
	p := newTestPortfolio(t)
	id, err := p.AddTransaction(NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(2))))
	require.NoError(t, err)

	require.NoError(t, p.SetPrice("X", dec("500")))
	mustAdd(t, p, NewDeposit(at("2025-01-02 10:00"), "cold", L("Y", Q(1))))

	tx, err := p.Transaction(id)
	require.NoError(t, err)
	assert.True(t, tx.Received.Price.Equal(USD(100)))
	assert.True(t, position(t, p, "main", "X").CostBasis.Equal(USD(200)))
}

func TestAssetCRUD(t *testing.T) {
	p := newTestPortfolio(t)
	mustAdd(t, p, NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(1))))

	assert.ErrorIs(t, p.AddAsset("X", dec("1")), ErrDuplicateAsset)
	assert.ErrorIs(t, p.RemoveAsset("X"), ErrInUse)
	assert.ErrorIs(t, p.RemoveAsset("USD"), ErrQuoteAsset)
	assert.ErrorIs(t, p.SetPrice("USD", dec("3")), ErrQuoteAsset)
	require.NoError(t, p.RemoveAsset("Y"))

	var names []string
	for _, a := range p.Assets() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"USD", "X"}, names)
}

func TestWalletCRUD(t *testing.T) {
	p := newTestPortfolio(t)
	assert.ErrorIs(t, p.AddWallet("main"), ErrDuplicateWallet)
	assert.Error(t, p.AddWallet(" "))

	mustAdd(t, p, NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(1))))
	assert.ErrorIs(t, p.RemoveWallet("main"), ErrInUse)
	assert.ErrorIs(t, p.RemoveWallet("nope"), ErrWalletNotFound)
	require.NoError(t, p.RemoveWallet("cold"))

	wallets := p.Wallets()
	require.Len(t, wallets, 1)
	assert.Equal(t, "main", wallets[0].Name)
	assert.Equal(t, 1, wallets[0].Len())

	_, err := p.Positions("cold")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestPositionsAreCopies(t *testing.T) {
	p := newTestPortfolio(t)
	mustAdd(t, p, NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(1))))

	positions, err := p.Positions("main")
	require.NoError(t, err)
	positions[0].Quantity = Q(1000)

	assert.True(t, position(t, p, "main", "X").Quantity.Equal(Q(1)))
}

func TestLoggingAndMetrics(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New(prometheus.NewRegistry())
	p := newTestPortfolio(t, WithLogger(zap.New(core)), WithMetrics(m))

	depositID, err := p.AddTransaction(NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(10))))
	require.NoError(t, err)
	mustAdd(t, p, NewWithdraw(at("2025-01-02 10:00"), "main", L("X", Q(10))))
	_, err = p.AddTransaction(NewWithdraw(at("2025-01-03 10:00"), "main", L("X", Q(1))))
	require.Error(t, err)
	require.NoError(t, p.RemoveTransaction(depositID))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Refused.WithLabelValues("withdraw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.Rejections.WithLabelValues("withdraw")), 2.0)

	assert.Equal(t, 2, logs.FilterMessage("transaction added").Len())
	assert.Equal(t, 1, logs.FilterMessage("transaction removed").Len())
	rejected := logs.FilterMessage("transaction rejected").All()
	require.NotEmpty(t, rejected)
	assert.Equal(t, zap.WarnLevel, rejected[0].Level)
}

func TestConcurrentReaders(t *testing.T) {
	p := newTestPortfolio(t)
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := p.AddTransaction(NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(i+1))))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := p.Positions("main")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.True(t, position(t, p, "main", "X").Quantity.Equal(Q(55)))
}
